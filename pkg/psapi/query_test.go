package psapi_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *psapi.QueryParams
		expected url.Values
	}{
		{
			name:     "empty params",
			params:   psapi.NewQueryParams(),
			expected: url.Values{},
		},
		{
			name:     "nil params",
			params:   nil,
			expected: url.Values{},
		},
		{
			name:   "with pagination",
			params: psapi.NewQueryParams().WithPage(2).WithPageSize(100),
			expected: url.Values{
				"page":     []string{"2"},
				"pagesize": []string{"100"},
			},
		},
		{
			name:   "zero page size is sent",
			params: psapi.NewQueryParams().WithPageSize(0),
			expected: url.Values{
				"pagesize": []string{"0"},
			},
		},
		{
			name:   "with filter and projection",
			params: psapi.NewQueryParams().WithQ("yearid=ge=34;yearid=lt=35").WithProjection("dcid,lastfirst"),
			expected: url.Values{
				"q":          []string{"yearid=ge=34;yearid=lt=35"},
				"projection": []string{"dcid,lastfirst"},
			},
		},
		{
			name:   "with sort",
			params: psapi.NewQueryParams().WithSort("lastfirst", true),
			expected: url.Values{
				"sort":           []string{"lastfirst"},
				"sortdescending": []string{"true"},
			},
		},
		{
			name: "with inclusion and extensions",
			params: psapi.NewQueryParams().
				WithStudentsToInclude("enrolled").
				WithTeachersToInclude("active").
				WithExtensions("u_students_extension").
				WithExpansions("access"),
			expected: url.Values{
				"students_to_include": []string{"enrolled"},
				"teachers_to_include": []string{"active"},
				"extensions":          []string{"u_students_extension"},
				"expansions":          []string{"access"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.params.ToValues())
		})
	}
}

func TestQueryParams_CountValues(t *testing.T) {
	t.Parallel()

	params := psapi.NewQueryParams().
		WithQ("yearid==34").
		WithProjection("dcid").
		WithPage(3).
		WithPageSize(10).
		WithStudentsToInclude("all")

	assert.Equal(t, url.Values{
		"q":                   []string{"yearid==34"},
		"students_to_include": []string{"all"},
	}, params.CountValues())
}

func TestQueryParams_Clone(t *testing.T) {
	t.Parallel()

	original := psapi.NewQueryParams().WithQ("a==1").WithPageSize(50).WithSort("dcid", false)
	clone := original.Clone()

	*clone.PageSize = 10
	*clone.SortDescending = true
	clone.Q = "b==2"

	assert.Equal(t, 50, *original.PageSize)
	assert.False(t, *original.SortDescending)
	assert.Equal(t, "a==1", original.Q)

	var nilParams *psapi.QueryParams
	assert.NotNil(t, nilParams.Clone())
}

func TestParsePageSize(t *testing.T) {
	t.Parallel()

	size, err := psapi.ParsePageSize("")
	require.NoError(t, err)
	assert.Nil(t, size)

	size, err = psapi.ParsePageSize("0")
	require.NoError(t, err)
	require.NotNil(t, size)
	assert.Equal(t, 0, *size)

	size, err = psapi.ParsePageSize("250")
	require.NoError(t, err)
	assert.Equal(t, 250, *size)

	_, err = psapi.ParsePageSize("-1")
	require.ErrorIs(t, err, psapi.ErrInvalidPageSize)

	_, err = psapi.ParsePageSize("lots")
	require.ErrorIs(t, err, psapi.ErrInvalidPageSize)
}
