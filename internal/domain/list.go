// Package domain holds types shared by the domain packages.
package domain

// ListFilter contains common paging options for list operations.
type ListFilter struct {
	Limit  int
	Offset int
}

// DefaultLimit is used when a list request does not specify one.
const DefaultLimit = 50

// MaxLimit caps a single page.
const MaxLimit = 500

// Normalize clamps limit and offset into the supported range.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Page slices items according to the filter. Used by in-memory repositories.
func Page[T any](items []T, f ListFilter) ListResult[T] {
	f = f.Normalize()
	total := len(items)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return ListResult[T]{Items: out, TotalCount: int64(total), Limit: f.Limit, Offset: f.Offset}
}
