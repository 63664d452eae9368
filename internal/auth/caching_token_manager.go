package auth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// CachingTokenManager wraps OAuth2TokenManager and persists every newly
// issued token so later runs can reuse it until it expires.
type CachingTokenManager struct {
	oauth2Manager *OAuth2TokenManager
	persister     TokenPersister
	mutex         sync.Mutex
	persisted     string
}

// NewCachingTokenManager creates a caching token manager. A valid token held
// by persister seeds the manager; expired or unreadable ones are ignored.
func NewCachingTokenManager(config *OAuth2Config, persister TokenPersister) *CachingTokenManager {
	oauth2Manager := NewOAuth2TokenManager(config)

	m := &CachingTokenManager{
		oauth2Manager: oauth2Manager,
		persister:     persister,
	}

	if persister == nil {
		return m
	}

	cached, err := persister.Load()
	if err == nil && cached.Valid() {
		oauth2Manager.store.Set(cached)
		m.persisted = cached.AccessToken
	}

	return m
}

// GetToken returns a valid access token, requesting and persisting a new one
// when needed.
func (m *CachingTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a token request and persists the result.
func (m *CachingTokenManager) RefreshToken(ctx context.Context) error {
	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// SetToken manually sets the access token. It is not persisted.
func (m *CachingTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.oauth2Manager.SetToken(token, expiresAt)
	m.persisted = token
}

// IsTokenExpiringSoon returns true if the token expires within the given duration.
func (m *CachingTokenManager) IsTokenExpiringSoon(within time.Duration) bool {
	token := m.oauth2Manager.store.Get()
	if token == nil {
		return true
	}

	if token.ExpiresAt.IsZero() {
		return false
	}

	return time.Now().Add(within).After(token.ExpiresAt)
}

// GetTokenExpiry returns the current token's expiration time.
func (m *CachingTokenManager) GetTokenExpiry() time.Time {
	return m.oauth2Manager.GetTokenExpiry()
}

// HasToken reports whether a usable token is held without a request.
func (m *CachingTokenManager) HasToken() bool {
	return m.oauth2Manager.store.Get().Valid()
}

// HasCredentials reports whether new tokens can be requested.
func (m *CachingTokenManager) HasCredentials() bool {
	return m.oauth2Manager.HasCredentials()
}

func (m *CachingTokenManager) persistIfChanged() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	current := m.oauth2Manager.store.Get()
	if current == nil || current.AccessToken == m.persisted {
		return
	}

	m.persisted = current.AccessToken

	err := m.persistToken(current)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist access token: %v\n", err)
	}
}

func (m *CachingTokenManager) persistToken(token *Token) error {
	if m.persister == nil {
		return nil
	}

	err := m.persister.Save(token)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}
