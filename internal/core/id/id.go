// Package id generates the identifiers of sales, exchanges, ledger rows and
// every other persisted record.
package id

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is a UUIDv7. Ids sort by creation time, so listings ordered by id come
// out in insertion order.
type ID = uuid.UUID

// New returns a fresh UUIDv7, or a random v4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse reads the canonical text form.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse id %q: %w", s, err)
	}
	return v, nil
}

// Nil is the zero id. Unset optional references hold it.
func Nil() ID { return uuid.Nil }

// IsNil reports whether v is unset.
func IsNil(v ID) bool { return v == uuid.Nil }

// Time returns the creation instant embedded in a v7 id. Other versions
// yield the zero time.
func Time(v ID) time.Time {
	if v.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := v.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}
