// Package pagination holds the page arithmetic used by the listing endpoint.
package pagination

import (
	"errors"
	"fmt"
)

const (
	DefaultLimit = 5
	DefaultPage  = 1
)

var (
	ErrInvalidLimit   = errors.New("limit must be a positive integer")
	ErrInvalidPage    = errors.New("page must be a positive integer")
	ErrPageOutOfRange = errors.New("page is out of range")
)

// Window describes one page of a result set.
type Window struct {
	Count  int64 // total matching rows, before paging
	Page   int   // 1-based page number
	Limit  int   // page size
	Pages  int   // number of pages, at least 1
	Offset int   // rows to skip before this page
}

// Paginate computes the window for page of size limit over count rows.
//
// An empty result still has one (empty) page, so page 1 is always valid.
// Pages past the last one are rejected with ErrPageOutOfRange.
func Paginate(count int64, page, limit int) (Window, error) {
	if limit < 1 {
		return Window{}, ErrInvalidLimit
	}
	if page < 1 {
		return Window{}, ErrInvalidPage
	}
	if count < 0 {
		count = 0
	}

	pages := 1
	if count > 0 {
		pages = int((count-1)/int64(limit) + 1)
	}
	if page > pages {
		return Window{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, pages)
	}

	return Window{
		Count:  count,
		Page:   page,
		Limit:  limit,
		Pages:  pages,
		Offset: (page - 1) * limit,
	}, nil
}
