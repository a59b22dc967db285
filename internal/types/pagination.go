package types

// ListResponse represents a cursor-paginated response with items.
// HasMore reports whether rows exist beyond this page without requiring a
// separate count query.
type ListResponse[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

// NewListResponse creates a new list response
func NewListResponse[T any](data []T, hasMore bool) ListResponse[T] {
	return ListResponse[T]{
		Data:    data,
		HasMore: hasMore,
	}
}
