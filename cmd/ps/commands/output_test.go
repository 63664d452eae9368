package commands

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/auth"
	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordColumns(t *testing.T) {
	t.Parallel()

	columns := recordColumns([]psapi.Record{
		{"last_name": "Smith", "id": "1"},
		{"id": "2", "grade_level": 9},
	})
	assert.Equal(t, []string{"grade_level", "id", "last_name"}, columns)
	assert.Empty(t, recordColumns(nil))
}

func TestCellValue(t *testing.T) {
	t.Parallel()

	assert.Empty(t, cellValue(nil))
	assert.Equal(t, "Smith", cellValue("Smith"))
	assert.Equal(t, "9", cellValue(float64(9)))
	assert.Equal(t, "true", cellValue(true))
	assert.JSONEq(t, `{"a":1}`, cellValue(map[string]interface{}{"a": 1}))
	assert.JSONEq(t, `[1,"b"]`, cellValue([]interface{}{1, "b"}))
}

func TestIsOutputFormat(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"table", "json", "yaml"} {
		assert.True(t, isOutputFormat(format), format)
	}

	assert.False(t, isOutputFormat("csv"))
}

func TestTokenStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.September, 3, 12, 0, 0, 0, time.UTC)

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		status := tokenStatus("/cache/access_token.json", &auth.Token{
			AccessToken: "abcdefghijklmnop",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, time.Now())
		assert.Equal(t, "abcdefgh...", status.Preview)
		assert.True(t, status.Valid)
		assert.NotEqual(t, "expired", status.ExpiresIn)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		status := tokenStatus("/cache/access_token.json", &auth.Token{
			AccessToken: "abcdefghijklmnop",
			ExpiresAt:   now.Add(-time.Minute),
		}, now)
		assert.Equal(t, "expired", status.ExpiresIn)
		assert.False(t, status.Valid)
	})

	t.Run("no expiry", func(t *testing.T) {
		t.Parallel()

		status := tokenStatus("/cache/access_token.json", &auth.Token{AccessToken: "short"}, now)
		assert.Equal(t, constants.MaskedSecret, status.Preview)
		assert.Equal(t, constants.NotAvailable, status.ExpiresIn)
		assert.True(t, status.Valid)
	})
}

func TestParseFilter(t *testing.T) {
	t.Parallel()

	parsed, err := parseFilter("yearid=ge=30;(grade_level==9,grade_level==10)")
	require.NoError(t, err)
	assert.Equal(t, "yearid", parsed.Selector)
	assert.Len(t, parsed.Constraints, 3)
	assert.Equal(t, "yearid=ge=30;(grade_level==9,grade_level==10)", parsed.Query)

	_, err = parseFilter("yearid=ge=")
	require.Error(t, err)
}
