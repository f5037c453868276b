package visibility

import (
	"fmt"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
)

// Page is one page of a list result with navigation metadata.
type Page[T any] struct {
	Items       []T  `json:"results"`
	Count       int  `json:"count"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
	Next        *int `json:"next"`
	Previous    *int `json:"previous"`
}

// NewPage builds the page metadata for items found at page out of total
// matches. The first page always exists; any later page past the end is
// reported as apperr.ErrNotFound.
func NewPage[T any](items []T, total, page int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if page > 1 && (page-1)*PageSize >= total {
		return Page[T]{}, fmt.Errorf("invalid page %d: %w", page, apperr.ErrNotFound)
	}
	if items == nil {
		items = []T{}
	}
	p := Page[T]{
		Items:       items,
		Count:       total,
		Page:        page,
		PageSize:    PageSize,
		HasNext:     page*PageSize < total,
		HasPrevious: page > 1,
	}
	if p.HasNext {
		n := page + 1
		p.Next = &n
	}
	if p.HasPrevious {
		prev := page - 1
		p.Previous = &prev
	}
	return p, nil
}

// MapPage converts the items of a page, keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, fn(it))
	}
	return Page[U]{
		Items:       out,
		Count:       p.Count,
		Page:        p.Page,
		PageSize:    p.PageSize,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
		Next:        p.Next,
		Previous:    p.Previous,
	}
}

// PageNumber returns the 1-based page for a filter offset.
func PageNumber(offset int) int {
	return offset/PageSize + 1
}
