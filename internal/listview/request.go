// Package listview implements the paged, sortable and filterable list views
// shared by the search, admin and profile pages.
//
// A View owns one PageRequest and the last PageResult it produced. Results
// come either from a server-paginated endpoint or from a fetch-all endpoint
// that is filtered, sorted and sliced locally.
package listview

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SortOrder is the sort direction of a PageRequest.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Paging defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// DefaultSort selects the backend's own ordering.
	DefaultSort = "default"
)

// ParseSortOrder maps any casing of "asc"/"desc" to a SortOrder. Anything
// else is ascending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Filters holds filter values keyed by filter name. A nil or empty-string
// value means the filter is not set.
type Filters map[string]any

// Value returns the value of key when it is set.
func (f Filters) Value(key string) (any, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// Keys returns the set filter keys in lexical order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		if _, ok := f.Value(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy holding only the set filters.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for _, k := range f.Keys() {
		out[k] = f[k]
	}
	return out
}

// Values encodes the set filters as query parameters.
func (f Filters) Values() url.Values {
	q := url.Values{}
	for _, k := range f.Keys() {
		q.Set(k, FormatValue(f[k]))
	}
	return q
}

// PageRequest describes which page, sort and filters to fetch.
type PageRequest struct {
	Page      int       `json:"page"`
	PageSize  int       `json:"pageSize"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder"`
	Filters   Filters   `json:"filters,omitempty"`
}

// Normalize enforces page >= 1 and 0 < pageSize <= MaxPageSize, and a known
// sort order.
func (r *PageRequest) Normalize() {
	if r.Page < DefaultPage {
		r.Page = DefaultPage
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	r.SortOrder = ParseSortOrder(string(r.SortOrder))
	if r.Filters == nil {
		r.Filters = Filters{}
	}
}

// Clone returns a deep copy of the request.
func (r PageRequest) Clone() PageRequest {
	r.Filters = r.Filters.Clone()
	return r
}

// IsDefaultSort reports whether the request leaves ordering to the backend.
func (r PageRequest) IsDefaultSort() bool {
	return r.SortBy == "" || r.SortBy == DefaultSort
}

// Query encodes the request as the query string of a server-paginated
// collection endpoint.
func (r PageRequest) Query() url.Values {
	q := r.Filters.Values()
	q.Set("page", strconv.Itoa(r.Page))
	q.Set("limit", strconv.Itoa(r.PageSize))
	if !r.IsDefaultSort() {
		q.Set("sortBy", r.SortBy)
		q.Set("sortOrder", string(r.SortOrder))
	}
	return q
}

// FormatValue renders a filter value the way it travels in a query string.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
