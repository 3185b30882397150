// Package paging computes deterministic page slices and rendering metadata
// for ordered lists shown as inline keyboards.
package paging

import "errors"

// ErrPageOutOfRange indicates the caller requested a page past the last
// one. Callers are expected to clamp before paginating, never wrap.
var ErrPageOutOfRange = errors.New("paging: page out of range")

// Page carries one visible slice plus the metadata needed to render
// prev/next controls.
type Page[T any] struct {
	Items      []T
	Number     int // zero-based
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// TotalPages returns the page count for n items, at least 1 even for an
// empty list.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Clamp adjusts page into the valid range for n items.
func Clamp(page, n, pageSize int) int {
	if page < 0 {
		return 0
	}
	if last := TotalPages(n, pageSize) - 1; page > last {
		return last
	}
	return page
}

// Paginate slices items for the requested zero-based page. pageSize must
// be positive; a page beyond the last is a caller error.
func Paginate[T any](items []T, page, pageSize int) (Page[T], error) {
	if pageSize <= 0 {
		return Page[T]{}, errors.New("paging: page size must be positive")
	}
	total := TotalPages(len(items), pageSize)
	if page < 0 || page >= total {
		return Page[T]{}, ErrPageOutOfRange
	}

	start := page * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: total,
		HasPrev:    page > 0,
		HasNext:    page < total-1,
	}, nil
}
