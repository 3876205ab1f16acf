package memory

import (
	"context"
	"slices"
	"time"

	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/audit"
)

// AuditEntry is a recorded change.
type AuditEntry struct {
	EntityType string
	EntityID   id.ID
	Action     audit.Action
	Changes    map[string]any
	CreatedAt  time.Time
}

// AuditLog implements audit.Recorder. Entries roll back with the unit of work.
type AuditLog struct {
	store *Store
}

var _ audit.Recorder = (*AuditLog)(nil)

func (a *AuditLog) Record(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	return a.store.do(ctx, func(st *state) error {
		st.audit = append(st.audit, AuditEntry{
			EntityType: entityType,
			EntityID:   entityID,
			Action:     action,
			Changes:    changes,
			CreatedAt:  time.Now().UTC(),
		})
		return nil
	})
}

// Entries returns the entries recorded for an entity, oldest first.
func (a *AuditLog) Entries(ctx context.Context, entityType string, entityID id.ID) []AuditEntry {
	var out []AuditEntry
	_ = a.store.do(ctx, func(st *state) error {
		for _, e := range st.audit {
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out
}

// Outbox implements events.Publisher. Events roll back with the unit of work.
type Outbox struct {
	store *Store
}

var _ events.Publisher = (*Outbox)(nil)

func (o *Outbox) Publish(ctx context.Context, e events.Event) error {
	return o.store.do(ctx, func(st *state) error {
		st.events = append(st.events, e)
		return nil
	})
}

// Events returns the committed events in publication order.
func (o *Outbox) Events(ctx context.Context) []events.Event {
	var out []events.Event
	_ = o.store.do(ctx, func(st *state) error {
		out = slices.Clone(st.events)
		return nil
	})
	return out
}

// Types returns the event types in publication order.
func (o *Outbox) Types(ctx context.Context) []string {
	var out []string
	for _, e := range o.Events(ctx) {
		out = append(out, e.EventType)
	}
	return out
}
