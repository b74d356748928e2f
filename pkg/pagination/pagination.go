package pagination

// Default and maximum page sizes for order listings.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Meta is the pagination block of the backend's list envelope:
// {current, pages, total, limit}.
type Meta struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// New computes pagination metadata for a page, the way the backend does.
// Used by tests standing in for the backend and for locally derived views.
func New(total, page, limit int) Meta {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = 1
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return Meta{
		Current: page,
		Pages:   pages,
		Total:   total,
		Limit:   limit,
	}
}

// HasNext reports whether a page follows the current one.
func (m Meta) HasNext() bool {
	return m.Current < m.Pages
}

// HasPrev reports whether a page precedes the current one.
func (m Meta) HasPrev() bool {
	return m.Current > 1
}

// ClampLimit coerces a requested page size into the accepted range,
// falling back to DefaultLimit when unset or negative.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ClampPage coerces a requested page number to at least 1.
func ClampPage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
