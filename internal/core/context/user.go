// Package context carries the caller identity and trace ids of a request.
package context

import (
	"context"
)

// UserContext is the authenticated caller. OwnerID scopes every ledger row,
// sale and wallet; UserID is recorded as the actor of cancellations and
// exchanges. Single-user shops use the same value for both.
type UserContext struct {
	UserID    string
	OwnerID   string
	Email     string
	Roles     []string
	SessionID string
}

type userKey struct{}

// WithUser stores the caller on ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the caller, or nil outside an authenticated request.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

// GetUserID returns the caller's user id, or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetOwnerID returns the owner the request acts for. A token without an
// owner claim acts for its own user.
func GetOwnerID(ctx context.Context) string {
	u := GetUser(ctx)
	switch {
	case u == nil:
		return ""
	case u.OwnerID != "":
		return u.OwnerID
	default:
		return u.UserID
	}
}

// Actor names who performed an operation on behalf of ownerID: the caller
// when known, else the owner itself (workers, tests).
func Actor(ctx context.Context, ownerID string) string {
	if user := GetUserID(ctx); user != "" {
		return user
	}
	return ownerID
}
