package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config configures an OAuth2TokenManager.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string

	// AccessToken seeds the manager with an existing token.
	AccessToken string
	ExpiresAt   time.Time

	// HTTPClient is used for token requests. Defaults to a client with
	// constants.ShortHTTPTimeout.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains tokens with the client_credentials grant. The
// client id and secret are sent with HTTP basic authentication.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	mu     sync.Mutex
}

// NewOAuth2TokenManager creates a token manager.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken: config.AccessToken,
			TokenType:   "bearer",
			ExpiresAt:   config.ExpiresAt,
		})
	}

	return manager
}

// NewPowerSchoolTokenManager creates a token manager for the token endpoint
// of host.
func NewPowerSchoolTokenManager(host, clientID, clientSecret string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     TokenURL(host),
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// TokenURL returns the token endpoint of host.
func TokenURL(host string) string {
	return strings.TrimRight(host, "/") + constants.TokenPath
}

// GetToken returns a valid access token, requesting a new one when needed.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token = m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	token, err := m.requestToken(ctx)
	if err != nil {
		return "", err
	}

	m.store.Set(token)

	return token.AccessToken, nil
}

// RefreshToken forces a new token request.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.requestToken(ctx)
	if err != nil {
		return err
	}

	m.store.Set(token)

	return nil
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// Token returns the current token or nil.
func (m *OAuth2TokenManager) Token() *Token {
	return m.store.Get()
}

// GetTokenExpiry returns the current token's expiration time.
func (m *OAuth2TokenManager) GetTokenExpiry() time.Time {
	token := m.store.Get()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

// HasCredentials reports whether the manager can request new tokens.
func (m *OAuth2TokenManager) HasCredentials() bool {
	return m.config.ClientID != "" && m.config.ClientSecret != ""
}

func (m *OAuth2TokenManager) requestToken(ctx context.Context) (*Token, error) {
	if !m.HasCredentials() {
		return nil, ErrNoValidCredentials
	}

	cc := &clientcredentials.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		TokenURL:     m.config.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	httpClient := m.config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.ShortHTTPTimeout}
	}

	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}

	if tok.AccessToken == "" {
		return nil, ErrEmptyAccessToken
	}

	token := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}

	if !tok.Expiry.IsZero() {
		token.ExpiresIn = int(time.Until(tok.Expiry).Seconds())
	}

	return token, nil
}
