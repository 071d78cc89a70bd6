package query

import (
	"errors"
	"time"
)

var (
	ErrDistrictRequired = errors.New("select a district before choosing a ULB")
	ErrULBNotInDistrict = errors.New("ULB does not belong to the selected district")
)

// ULBDirectory answers which ULBs a district offers
type ULBDirectory interface {
	HasULB(district, ulb string) bool
}

// ViewState is the filter and paging state of one table view. Changing
// any filter or the page size returns to the first page, and changing the
// district clears the ULB.
type ViewState struct {
	filter   Filter
	page     int
	pageSize int
	dir      ULBDirectory
}

// NewViewState starts on page 0 with the default page size
func NewViewState(dir ULBDirectory) *ViewState {
	return &ViewState{pageSize: DefaultPageSize, dir: dir}
}

// Filter returns the current predicates
func (s *ViewState) Filter() Filter { return s.filter }

// Page returns the zero-based page index
func (s *ViewState) Page() int { return s.page }

// PageSize returns the rows per page
func (s *ViewState) PageSize() int { return s.pageSize }

// SetDistrict selects a district ("" for all) and clears the ULB
func (s *ViewState) SetDistrict(district string) {
	s.filter.District = district
	s.filter.ULB = ""
	s.page = 0
}

// SetULB selects a ULB of the current district ("" for all)
func (s *ViewState) SetULB(ulb string) error {
	if ulb != "" {
		if s.filter.District == "" {
			return ErrDistrictRequired
		}
		if s.dir != nil && !s.dir.HasULB(s.filter.District, ulb) {
			return ErrULBNotInDistrict
		}
	}
	s.filter.ULB = ulb
	s.page = 0
	return nil
}

// SetDateRange sets both bounds; nil clears one
func (s *ViewState) SetDateRange(from, to *time.Time, field DateField) {
	s.filter.DateFrom = from
	s.filter.DateTo = to
	s.filter.DateField = field
	s.page = 0
}

// SetPageSize picks a size from PageSizes
func (s *ViewState) SetPageSize(size int) error {
	if !ValidPageSize(size) {
		return ErrInvalidPageSize
	}
	s.pageSize = size
	s.page = 0
	return nil
}

// CyclePageSize moves to the next selectable size, wrapping around
func (s *ViewState) CyclePageSize() int {
	next := PageSizes[0]
	for i, size := range PageSizes {
		if size == s.pageSize && i+1 < len(PageSizes) {
			next = PageSizes[i+1]
		}
	}
	s.pageSize = next
	s.page = 0
	return next
}

// SetPage jumps to a page, clamped to [0, totalPages-1]
func (s *ViewState) SetPage(page, totalItems int) {
	s.page = clampPage(page, totalItems, s.pageSize)
}

// NextPage advances unless already on the last page
func (s *ViewState) NextPage(totalItems int) {
	s.SetPage(s.page+1, totalItems)
}

// PrevPage steps back unless already on the first page
func (s *ViewState) PrevPage(totalItems int) {
	s.SetPage(s.page-1, totalItems)
}

func clampPage(page, total, size int) int {
	last := 0
	if total > 0 {
		last = (total - 1) / size
	}
	return max(0, min(page, last))
}
