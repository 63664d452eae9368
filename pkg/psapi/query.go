package psapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrInvalidPageSize is returned for page sizes that are not non-negative integers.
var ErrInvalidPageSize = errors.New("page size must be a non-negative integer")

// QueryParams represents the query options of a schema request.
type QueryParams struct {
	// Q is a FIQL filter.
	Q string
	// Projection is a comma separated column list. Empty means every
	// readable column of a table.
	Projection string
	// Page pins the request to a single page. Zero fetches every page.
	Page int
	// PageSize overrides the session default. Nil means unspecified.
	PageSize          *int
	StudentsToInclude string
	TeachersToInclude string
	Sort              string
	SortDescending    *bool
	Extensions        string
	Expansions        string
}

// NewQueryParams creates new query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{}
}

// WithQ sets the FIQL filter.
func (q *QueryParams) WithQ(filter string) *QueryParams {
	q.Q = filter

	return q
}

// WithProjection sets the column projection.
func (q *QueryParams) WithProjection(projection string) *QueryParams {
	q.Projection = projection

	return q
}

// WithPage pins a single page.
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPageSize sets the page size.
func (q *QueryParams) WithPageSize(size int) *QueryParams {
	q.PageSize = &size

	return q
}

// WithSort sets the sort column and direction.
func (q *QueryParams) WithSort(sort string, descending bool) *QueryParams {
	q.Sort = sort
	q.SortDescending = &descending

	return q
}

// WithStudentsToInclude sets students_to_include.
func (q *QueryParams) WithStudentsToInclude(value string) *QueryParams {
	q.StudentsToInclude = value

	return q
}

// WithTeachersToInclude sets teachers_to_include.
func (q *QueryParams) WithTeachersToInclude(value string) *QueryParams {
	q.TeachersToInclude = value

	return q
}

// WithExtensions sets the table extensions to include.
func (q *QueryParams) WithExtensions(extensions string) *QueryParams {
	q.Extensions = extensions

	return q
}

// WithExpansions sets the metadata expansions.
func (q *QueryParams) WithExpansions(expansions string) *QueryParams {
	q.Expansions = expansions

	return q
}

// Clone returns a copy that can be modified independently.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	c := *q

	if q.PageSize != nil {
		size := *q.PageSize
		c.PageSize = &size
	}

	if q.SortDescending != nil {
		desc := *q.SortDescending
		c.SortDescending = &desc
	}

	return &c
}

// ToValues converts query parameters to URL values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	setIfNotEmpty(values, "q", q.Q)
	setIfNotEmpty(values, "projection", q.Projection)

	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	if q.PageSize != nil {
		values.Set("pagesize", strconv.Itoa(*q.PageSize))
	}

	setIfNotEmpty(values, "students_to_include", q.StudentsToInclude)
	setIfNotEmpty(values, "teachers_to_include", q.TeachersToInclude)
	setIfNotEmpty(values, "sort", q.Sort)

	if q.SortDescending != nil {
		values.Set("sortdescending", strconv.FormatBool(*q.SortDescending))
	}

	setIfNotEmpty(values, "extensions", q.Extensions)
	setIfNotEmpty(values, "expansions", q.Expansions)

	return values
}

// CountValues returns the subset of parameters accepted by count requests.
func (q *QueryParams) CountValues() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	setIfNotEmpty(values, "q", q.Q)
	setIfNotEmpty(values, "students_to_include", q.StudentsToInclude)
	setIfNotEmpty(values, "teachers_to_include", q.TeachersToInclude)

	return values
}

// PageOptions returns the paging part of q.
func (q *QueryParams) PageOptions() PageOptions {
	if q == nil {
		return PageOptions{}
	}

	return PageOptions{PageSize: q.PageSize, Page: q.Page}
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

// ParsePageSize parses a page size flag or parameter. The empty string means
// unspecified and yields nil.
func ParsePageSize(s string) (*int, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // nil means unspecified
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}

	return &n, nil
}
