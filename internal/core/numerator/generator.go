// Package numerator provides domain contracts for sale and exchange numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential human-readable numbers.
// Sequences are kept per owner, so two owners both get S-2026-00001.
type Generator interface {
	// GetNextNumber generates the next number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., S-2026-00001)
	GetNextNumber(ctx context.Context, ownerID string, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the current sequence value (for data imports).
	SetNextNumber(ctx context.Context, ownerID string, cfg Config, period time.Time, value int64) error
}
