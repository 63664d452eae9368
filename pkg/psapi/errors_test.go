package psapi_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponseError(t *testing.T) {
	t.Parallel()

	t.Run("powerschool error body", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"message":"Validation Failed","errors":[{"resource":"u_students_extension","field":"studentsdcid","code":"missing_field"}]}`)

		err := psapi.NewResponseError(http.StatusBadRequest, body)

		errResp := &psapi.ResponseError{}
		require.True(t, errors.As(err, &errResp))
		assert.Equal(t, http.StatusBadRequest, errResp.StatusCode)
		assert.Equal(t, "Validation Failed", errResp.Message)
		require.NotNil(t, errResp.FirstError())
		assert.Equal(t, "studentsdcid", errResp.FirstError().Field)
		assert.Contains(t, err.Error(), "Validation Failed")
		assert.Contains(t, err.Error(), "u_students_extension: studentsdcid - missing_field")
	})

	t.Run("non json body", func(t *testing.T) {
		t.Parallel()

		err := psapi.NewResponseError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))

		httpErr := &psapi.HTTPError{}
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
		assert.Contains(t, err.Error(), "502 Bad Gateway")
	})

	t.Run("json without message", func(t *testing.T) {
		t.Parallel()

		err := psapi.NewResponseError(http.StatusNotFound, []byte(`{"other":"field"}`))

		httpErr := &psapi.HTTPError{}
		require.True(t, errors.As(err, &httpErr))
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		err := psapi.NewResponseError(http.StatusUnauthorized, nil)
		assert.Equal(t, "401 Unauthorized", err.Error())
	})
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("getting record: %w", psapi.NewResponseError(http.StatusNotFound, []byte(`{"message":"Not Found"}`)))
	unauthorized := psapi.NewResponseError(http.StatusUnauthorized, nil)
	forbidden := psapi.NewResponseError(http.StatusForbidden, []byte(`{"message":"Forbidden"}`))

	assert.True(t, psapi.IsNotFound(notFound))
	assert.False(t, psapi.IsNotFound(unauthorized))
	assert.True(t, psapi.IsUnauthorized(unauthorized))
	assert.True(t, psapi.IsForbidden(forbidden))
	assert.False(t, psapi.IsForbidden(errors.New("plain")))
	assert.Equal(t, 0, psapi.StatusCode(nil))
}
