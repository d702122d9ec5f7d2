package paging

import "math"

// Direction is the sort direction of a paged listing.
type Direction string

const (
	// Ascending sorts by id from lowest to highest.
	Ascending Direction = "ASC"
	// Descending sorts by id from highest to lowest.
	Descending Direction = "DESC"
)

// Pagination describes one page of a larger collection.
// Page numbers are 0-based.
type Pagination struct {
	Page       int64 // Current page number
	Size       int64 // Requested page size
	Total      int64 // Total number of records
	TotalPages int64 // Total number of pages
}

// New creates a new Pagination instance with calculated total pages.
func New(total, page, size int64) *Pagination {
	var totalPages int64
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	return &Pagination{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// First reports whether this is the first page.
func (p *Pagination) First() bool {
	return p.Page == 0
}

// Last reports whether no page follows this one.
func (p *Pagination) Last() bool {
	return p.Page >= p.TotalPages-1
}

// Offset returns how many records precede page. ok is false for negative
// arguments and for pages whose offset does not fit in an int64.
func Offset(page, size int64) (offset int64, ok bool) {
	if page < 0 || size < 0 {
		return 0, false
	}
	if size > 0 && page > math.MaxInt64/size {
		return 0, false
	}
	return page * size, true
}
