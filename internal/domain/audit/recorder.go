// Package audit defines the change-history port used by the lifecycle services.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"helmetledger/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionCancel Action = "cancel"
)

// Entity types recorded in the trail.
const (
	EntitySale        = "sale"
	EntityTransaction = "transaction"
)

// Recorder persists audit entries in the caller's unit of work.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Noop discards audit entries.
type Noop struct{}

// Record implements Recorder.
func (Noop) Record(context.Context, string, id.ID, Action, map[string]any) error { return nil }

// Snapshot converts v to a generic map through its JSON form.
func Snapshot(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return out, nil
}

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// DiffOf snapshots both values and diffs them.
func DiffOf(before, after any) (map[string]any, error) {
	oldState, err := Snapshot(before)
	if err != nil {
		return nil, err
	}
	newState, err := Snapshot(after)
	if err != nil {
		return nil, err
	}
	return Diff(oldState, newState), nil
}
