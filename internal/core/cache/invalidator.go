// Package cache defines the report-cache invalidation port.
//
// Mutating operations call NotifyAfterCommit once their unit of work has
// committed. Invalidation never blocks the caller and its failures are only logged.
package cache

import (
	"context"
	"time"

	"helmetledger/internal/core/types"
	"helmetledger/pkg/logger"
)

// Scope identifies the cached projections affected by a mutation.
// A nil Month means every month of the owner.
type Scope struct {
	OwnerID string
	Month   *types.Month
}

// ScopeFor builds a scope for the month containing t.
func ScopeFor(ownerID string, t time.Time) Scope {
	m := types.MonthOf(t)
	return Scope{OwnerID: ownerID, Month: &m}
}

// Invalidator drops cached projections.
type Invalidator interface {
	Invalidate(ctx context.Context, scope Scope) error
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, scope Scope) error

// Invalidate implements Invalidator.
func (f InvalidatorFunc) Invalidate(ctx context.Context, scope Scope) error {
	return f(ctx, scope)
}

// Noop ignores every invalidation.
type Noop struct{}

// Invalidate implements Invalidator.
func (Noop) Invalidate(context.Context, Scope) error { return nil }

// notifyTimeout bounds a detached invalidation.
const notifyTimeout = 5 * time.Second

// NotifyAfterCommit fires invalidation in the background.
// The request context is detached so a finished request does not cancel it.
func NotifyAfterCommit(ctx context.Context, inv Invalidator, scope Scope) {
	if inv == nil {
		return
	}
	go func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := inv.Invalidate(bg, scope); err != nil {
			logger.Warn(bg, "cache invalidation failed", "owner_id", scope.OwnerID, "error", err)
		}
	}()
}
