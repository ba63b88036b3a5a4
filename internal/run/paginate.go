package run

// Pagination defaults applied when the caller leaves limit/offset unset.
const (
	DefaultLimit  = 50
	DefaultOffset = 0
)

// Paginate slices out one page, preserving input order; sorting must happen
// first. The total is supplied by the caller (store count or merged length
// depending on the flow), so pagination has no data source dependency.
// Offsets at or beyond max(total, 1) fail with InvalidOffsetError.
func Paginate[T any](items []T, total, limit, offset int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = DefaultOffset
	}

	bound := total
	if bound < 1 {
		bound = 1
	}
	if offset >= bound {
		return nil, &InvalidOffsetError{Offset: offset, Total: total}
	}

	if offset >= len(items) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}
