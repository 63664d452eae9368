package psclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/auth"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/fivetwenty-io/powerschool/pkg/psclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")

		switch request.URL.Path {
		case "/oauth/access_token/":
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"access_token": "server-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/ws/v1/metadata":
			if request.Header.Get("Authorization") == "Bearer expired" {
				writer.WriteHeader(http.StatusUnauthorized)

				return
			}

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"metadata": map[string]interface{}{"schema_table_query_max_page_size": 100},
			})
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := psclient.New(context.Background(), nil)
		require.ErrorIs(t, err, psapi.ErrConfigRequired)
	})

	t.Run("requires host", func(t *testing.T) {
		t.Parallel()

		_, err := psclient.New(context.Background(), &psapi.Config{ClientID: "id", ClientSecret: "secret"})
		require.ErrorIs(t, err, psapi.ErrHostRequired)
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()

		_, err := psclient.New(context.Background(), &psapi.Config{Host: "district.example.com"})
		require.ErrorIs(t, err, psapi.ErrInvalidClient)
	})

	t.Run("authorizes on construction", func(t *testing.T) {
		t.Parallel()

		server := newServer(t)
		config := &psapi.Config{Host: server.URL + "/", ClientID: "id", ClientSecret: "secret"}

		client, err := psclient.New(context.Background(), config)
		require.NoError(t, err)
		require.NotNil(t, client.Session())
		assert.Equal(t, 100, client.Metadata().SchemaTableQueryMaxPageSize)
		assert.Equal(t, server.URL, client.Session().Host)
		assert.Equal(t, server.URL+"/", config.Host)
	})
}

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{"district.powerschool.com", "https://district.powerschool.com"},
		{"district.powerschool.com/", "https://district.powerschool.com"},
		{"https://district.powerschool.com", "https://district.powerschool.com"},
		{"http://localhost:8080/", "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, psclient.NormalizeHost(tt.host))
		})
	}
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		server := newServer(t)

		client, err := psclient.NewWithToken(context.Background(), server.URL, "test-token", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.NotNil(t, client.Metadata())
	})

	t.Run("expired token fails fast", func(t *testing.T) {
		t.Parallel()

		_, err := psclient.NewWithToken(context.Background(), "district.example.com", "test-token", time.Now().Add(-time.Hour))
		require.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("rejected token", func(t *testing.T) {
		t.Parallel()

		server := newServer(t)

		_, err := psclient.NewWithToken(context.Background(), server.URL, "expired", time.Time{})
		require.Error(t, err)
		assert.True(t, psapi.IsUnauthorized(err))
	})
}

func TestNewWithClientCredentials(t *testing.T) {
	t.Parallel()

	server := newServer(t)

	client, err := psclient.NewWithClientCredentials(context.Background(), server.URL, "client-id", "client-secret")
	require.NoError(t, err)
	assert.NotNil(t, client.Table("students"))
}
