package query

import "math"

// MaxOffset is the largest offset sent to the indexing service, the upper
// bound of a GraphQL Int.
const MaxOffset = math.MaxInt32

// WindowPolicy decides what happens when the caller's page request is
// incomplete.
type WindowPolicy int

const (
	// WindowOptional omits the window unless both page and limit are given;
	// the indexing service then applies its own default.
	WindowOptional WindowPolicy = iota
	// WindowBounded always produces a window, capped by the maximum page size
	// when no limit is requested.
	WindowBounded
)

// String returns the policy name.
func (p WindowPolicy) String() string {
	if p == WindowBounded {
		return "bounded"
	}
	return "optional"
}

// ComputeWindow turns a (page, limit) request into a (first, offset) window.
// The boolean result is false when no window should be sent. Page is 1-based;
// zero or negative values count as absent.
func ComputeWindow(p *PaginationOptions, policy WindowPolicy, maxPageSize int) (Window, bool) {
	page, limit := 0, 0
	if p != nil {
		if p.Page != nil && *p.Page > 0 {
			page = *p.Page
		}
		if p.Limit != nil && *p.Limit > 0 {
			limit = *p.Limit
		}
	}

	if page > 0 && limit > 0 {
		return Window{First: limit, Offset: offset(page, limit)}, true
	}
	if policy == WindowOptional {
		return Window{}, false
	}
	if limit > 0 {
		return Window{First: limit}, true
	}
	return Window{First: maxPageSize}, true
}

// offset returns (page-1)*limit, saturated at MaxOffset. page and limit are
// positive.
func offset(page, limit int) int {
	if page-1 > MaxOffset/limit {
		return MaxOffset
	}
	return (page - 1) * limit
}

// NewPagination is a shorthand for a complete page request.
func NewPagination(page, limit int) *PaginationOptions {
	return &PaginationOptions{Page: &page, Limit: &limit}
}
