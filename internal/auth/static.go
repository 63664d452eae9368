package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StaticTokenManager serves a caller supplied token until it expires.
type StaticTokenManager struct {
	mu    sync.RWMutex
	token Token
}

// NewStaticTokenManager creates a manager for token. A zero expiresAt means
// the expiry is unknown and the token is always offered.
func NewStaticTokenManager(token string, expiresAt time.Time) *StaticTokenManager {
	return &StaticTokenManager{
		token: Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt},
	}
}

// GetToken returns the token, or ErrTokenExpired once it has expired.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.token.Valid() {
		return "", fmt.Errorf("%w at %s", ErrTokenExpired, m.token.ExpiresAt.Format(time.RFC3339))
	}

	return m.token.AccessToken, nil
}

// RefreshToken always fails.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt}
}

// GetTokenExpiry returns the token's expiration time.
func (m *StaticTokenManager) GetTokenExpiry() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.token.ExpiresAt
}
