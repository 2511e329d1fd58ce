// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package docs

// Pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number and size into valid bounds. Zero or negative values
// fall back to the first page and the default size.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the row offset for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns the number of pages needed for total items. Zero items
// still report one (empty) page.
func (p Page) TotalPages(total int) int {
	if total <= 0 {
		return 1
	}
	pages := total / p.Size
	if total%p.Size != 0 {
		pages++
	}
	return pages
}

// HasNext reports whether a page after this one exists for total items.
func (p Page) HasNext(total int) bool {
	return p.Number < p.TotalPages(total)
}
