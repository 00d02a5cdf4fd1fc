// Package pagination does page-number arithmetic for list endpoints.
package pagination

import (
	"strconv"

	"gorm.io/gorm"
)

// DefaultPageSize is the page size of every paginated listing view.
const DefaultPageSize = 12

// Page describes one slice of a result set.
type Page struct {
	Number     int   `json:"page"`
	Size       int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_previous"`
}

// Offset of the first row on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Resolve turns the raw page parameter into a valid page. Non-numeric or
// non-positive input yields page 1; a page past the end yields the last
// page. An empty result set has a single empty page.
func Resolve(raw string, size int, total int64) Page {
	if size <= 0 {
		size = DefaultPageSize
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	if n > totalPages {
		n = totalPages
	}

	return Page{
		Number:     n,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    n < totalPages,
		HasPrev:    n > 1,
	}
}

// Scope applies the page's LIMIT/OFFSET to a query.
func (p Page) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Size)
}
