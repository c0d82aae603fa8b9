package shared

// Pagination bounds applied to every list endpoint.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// NormalizePage clamps limit/offset into supported ranges.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
