// Package pagination slices ordered result sequences into pages and builds the
// response envelope shared by every list endpoint.
package pagination

import (
	"errors"
	"math"
)

// ErrInvalidPage is returned when a page number or page size is not positive,
// or when the page starts beyond the addressable offset range.
var ErrInvalidPage = errors.New("page and page size must be positive")

// Page identifies one page of an ordered sequence. Pages are 1-based.
type Page struct {
	Number int
	Size   int
}

// New validates the page coordinates.
func New(number, size int) (Page, error) {
	if number < 1 || size < 1 {
		return Page{}, ErrInvalidPage
	}
	// Offset must not overflow.
	if number-1 > math.MaxInt/size {
		return Page{}, ErrInvalidPage
	}
	return Page{Number: number, Size: size}, nil
}

// Offset is the number of items preceding the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the maximum number of items on the page.
func (p Page) Limit() int {
	return p.Size
}

// Window copies items[offset:offset+limit], clamped to the end of items. A
// negative limit reads to the end. An offset that is negative or past the end
// yields an empty, non-nil slice. Relative order is preserved.
func Window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

// Meta defines the structure for pagination metadata.
type Meta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// Response defines the structure for a paginated list of any type.
type Response[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewResponse creates a new Response.
func NewResponse[T any](data []T, totalItems int64, p Page) Response[T] {
	limit := p.Size
	if limit <= 0 {
		limit = 1
	}
	if data == nil {
		data = []T{}
	}
	return Response[T]{
		Data: data,
		Meta: Meta{
			TotalItems:  totalItems,
			TotalPages:  (int(totalItems) + limit - 1) / limit,
			CurrentPage: p.Number,
			PageSize:    limit,
		},
	}
}
