package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Strategy selects how sequence values are drawn from storage.
type Strategy int

const (
	// StrategyStrict increments the sequence row once per number, inside the
	// caller's transaction. A rolled back sale gives its number back.
	StrategyStrict Strategy = iota
	// StrategyCached reserves RangeSize values at a time and hands them out
	// from memory. A restart leaves a gap.
	StrategyCached
)

const defaultRangeSize = 50

// Options tunes a single GetNextNumber call. nil means strict.
type Options struct {
	Strategy  Strategy
	RangeSize int64
}

// DefaultOptions returns strict options.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Range returns the reservation size for cached numbering.
func (o *Options) Range() int64 {
	if o == nil || o.RangeSize <= 0 {
		return defaultRangeSize
	}
	return o.RangeSize
}

// Reset says when a sequence restarts from 1.
type Reset string

const (
	ResetNever Reset = "never"
	ResetYear  Reset = "year"
	ResetMonth Reset = "month"
)

// Config describes one numbered series, e.g. S-2025-00001.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int
	ResetPeriod Reset
}

// Yearly is a series that restarts every January with the year in the number.
func Yearly(prefix string) Config {
	return Config{Prefix: prefix, IncludeYear: true, PadWidth: 5, ResetPeriod: ResetYear}
}

var (
	SaleNumbers     = Yearly("S")
	ExchangeNumbers = Yearly("EX")
)

// Key identifies the sequence row that serves ownerID in period.
func (c Config) Key(ownerID string, period time.Time) string {
	key := c.Prefix
	switch c.ResetPeriod {
	case ResetYear:
		key += "_" + period.Format("2006")
	case ResetMonth:
		key += "_" + period.Format("2006_01")
	}
	if ownerID != "" {
		key = ownerID + ":" + key
	}
	return key
}

// Format renders sequence value n.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), width, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
}

// Parse returns the sequence value of a formatted number
// ("S-2026-00042" gives 42), or -1.
func Parse(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	if i < 0 || i == len(formatted)-1 {
		return -1
	}
	n, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
