package query

import (
	"errors"
	"slices"

	"abc-dashboard/internal/records"
)

// PageSizes are the selectable rows-per-page values
var PageSizes = []int{5, 10, 25}

// DefaultPageSize is used when a view has not chosen one
const DefaultPageSize = 10

var (
	ErrInvalidPageSize = errors.New("page size must be one of 5, 10, 25")
	ErrInvalidPage     = errors.New("page must not be negative")
)

// ValidPageSize reports whether size is selectable
func ValidPageSize(size int) bool {
	return slices.Contains(PageSizes, size)
}

// Page is one window of a filtered list
type Page struct {
	Items      []records.AnimalRecord `json:"items"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalItems int                    `json:"total_items"`
	TotalPages int                    `json:"total_pages"`
}

// Paginate returns records[page*size : page*size+size], clipped to the
// list. A page past the end yields an empty window.
func Paginate(recs []records.AnimalRecord, page, size int) (Page, error) {
	if !ValidPageSize(size) {
		return Page{}, ErrInvalidPageSize
	}
	if page < 0 {
		return Page{}, ErrInvalidPage
	}

	total := len(recs)
	p := Page{
		Items:      []records.AnimalRecord{},
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: (total + size - 1) / size,
	}

	// compare pages before multiplying so a huge page cannot overflow
	if page >= p.TotalPages {
		return p, nil
	}
	start := page * size
	end := min(start+size, total)
	p.Items = recs[start:end]
	return p, nil
}
