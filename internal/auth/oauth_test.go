package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuth2TokenManager_GetToken(t *testing.T) {
	t.Run("returns existing valid token", func(t *testing.T) {
		manager := NewOAuth2TokenManager(&OAuth2Config{
			AccessToken: "existing-token",
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "existing-token", token)
	})

	t.Run("uses client credentials with basic auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/oauth/access_token/", r.URL.Path)
			assert.Equal(t, "POST", r.Method)
			assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")

			username, password, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-id", username)
			assert.Equal(t, "client-secret", password)

			err := r.ParseForm()
			require.NoError(t, err)
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))

			w.Header().Set("Content-Type", "application/json")

			response := Token{
				AccessToken: "client-token",
				ExpiresIn:   3600,
				TokenType:   "Bearer",
			}
			_ = json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		manager := NewPowerSchoolTokenManager(server.URL, "client-id", "client-secret")

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "client-token", token)

		stored := manager.Token()
		require.NotNil(t, stored)
		assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpiresAt, time.Minute)
	})

	t.Run("accepts expires_in as a string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"string-expiry","token_type":"Bearer","expires_in":"7200"}`))
		}))
		defer server.Close()

		manager := NewPowerSchoolTokenManager(server.URL, "client-id", "client-secret")

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "string-expiry", token)
		assert.WithinDuration(t, time.Now().Add(2*time.Hour), manager.GetTokenExpiry(), time.Minute)
	})

	t.Run("requests a new token once expired", func(t *testing.T) {
		calls := 0

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Token{AccessToken: "new-access-token", ExpiresIn: 3600, TokenType: "Bearer"})
		}))
		defer server.Close()

		manager := NewPowerSchoolTokenManager(server.URL, "client-id", "client-secret")

		manager.store.Set(&Token{
			AccessToken: "expired-token",
			ExpiresAt:   time.Now().Add(-1 * time.Hour),
		})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "new-access-token", token)

		_, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("handles token request error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)

			response := map[string]string{
				"error":             "invalid_client",
				"error_description": "Client authentication failed",
			}
			_ = json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		manager := NewPowerSchoolTokenManager(server.URL, "bad-client", "bad-secret")

		token, err := manager.GetToken(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_client")
		assert.Contains(t, err.Error(), "Client authentication failed")
		assert.Empty(t, token)
	})

	t.Run("no credentials available", func(t *testing.T) {
		manager := NewOAuth2TokenManager(&OAuth2Config{
			TokenURL: "http://example.com/oauth/access_token",
		})

		token, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, ErrNoValidCredentials)
		assert.Contains(t, err.Error(), "no valid credentials available")
		assert.Empty(t, token)
	})
}

func TestOAuth2TokenManager_SetToken(t *testing.T) {
	manager := NewOAuth2TokenManager(&OAuth2Config{})

	expiresAt := time.Now().Add(1 * time.Hour)
	manager.SetToken("manual-token", expiresAt)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual-token", token)

	storedToken := manager.store.Get()
	assert.Equal(t, "manual-token", storedToken.AccessToken)
	assert.Equal(t, "bearer", storedToken.TokenType)
	assert.Equal(t, expiresAt.Unix(), storedToken.ExpiresAt.Unix())
}

func TestOAuth2TokenManager_RefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response := Token{
			AccessToken: "refreshed-token",
			ExpiresIn:   3600,
			TokenType:   "Bearer",
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	manager := NewPowerSchoolTokenManager(server.URL, "client-id", "client-secret")

	// Set a valid token
	manager.SetToken("current-token", time.Now().Add(1*time.Hour))

	// Force refresh
	err := manager.RefreshToken(context.Background())
	require.NoError(t, err)

	// Should have new token
	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", token)
}

func TestNewPowerSchoolTokenManager(t *testing.T) {
	t.Run("creates manager with correct token URL", func(t *testing.T) {
		manager := NewPowerSchoolTokenManager("https://district.powerschool.com", "client-id", "client-secret")
		assert.NotNil(t, manager)
		assert.Equal(t, "https://district.powerschool.com/oauth/access_token/", manager.config.TokenURL)
		assert.Equal(t, "client-id", manager.config.ClientID)
		assert.Equal(t, "client-secret", manager.config.ClientSecret)
		assert.True(t, manager.HasCredentials())
	})

	t.Run("handles trailing slash in host", func(t *testing.T) {
		manager := NewPowerSchoolTokenManager("https://district.powerschool.com/", "client-id", "client-secret")
		assert.Equal(t, "https://district.powerschool.com/oauth/access_token/", manager.config.TokenURL)
	})
}
