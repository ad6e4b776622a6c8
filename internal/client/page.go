package client

// Page is the paginated list envelope the API wraps collection responses in:
// {"count": N, "next": url|null, "previous": url|null, "results": [...]}.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// TotalPages returns the number of pages for the given page size.
func (p Page[T]) TotalPages(pageSize int) int {
	if pageSize <= 0 || p.Count <= 0 {
		return 0
	}
	return (p.Count + pageSize - 1) / pageSize
}

// HasNext reports whether a further page exists.
func (p Page[T]) HasNext() bool {
	return p.Next != nil
}
