package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/auth"
	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/internal/http"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
)

// ErrNoTokenManagerConfigured is returned by NewWithTokenManager for a nil manager.
var ErrNoTokenManagerConfigured = errors.New("no token manager configured")

// Client implements the psapi.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       psapi.Logger
	cache        *psapi.CacheManager
	metadataTTL  time.Duration
	metrics      *psapi.Metrics
	session      atomic.Pointer[psapi.Session]
}

// tokenExpirer is implemented by token managers that know their expiry.
type tokenExpirer interface {
	GetTokenExpiry() time.Time
}

// createTokenManager picks a token manager for the configured credentials.
func createTokenManager(config *psapi.Config) (auth.TokenManager, error) {
	if config.AccessToken != "" {
		if !config.TokenExpiresAt.IsZero() && !config.TokenExpiresAt.After(time.Now()) {
			return nil, fmt.Errorf("%w at %s", auth.ErrTokenExpired, config.TokenExpiresAt.Format(time.RFC3339))
		}

		return auth.NewStaticTokenManager(config.AccessToken, config.TokenExpiresAt), nil
	}

	var persister auth.TokenPersister
	if config.TokenCacheDir != "" {
		persister = auth.NewFileTokenCache(config.TokenCacheFs, config.TokenCacheDir)
	}

	oauthConfig := &auth.OAuth2Config{
		TokenURL:     getTokenURL(config),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		if persister == nil {
			return auth.NewOAuth2TokenManager(oauthConfig), nil
		}

		return auth.NewCachingTokenManager(oauthConfig, persister), nil
	}

	if persister != nil {
		manager := auth.NewCachingTokenManager(oauthConfig, persister)
		if manager.HasToken() {
			return manager, nil
		}

		return nil, fmt.Errorf("%w: no valid token cached in %s", psapi.ErrInvalidClient, config.TokenCacheDir)
	}

	return nil, psapi.ErrInvalidClient
}

// getTokenURL returns token URL from config or the host default.
func getTokenURL(config *psapi.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return auth.TokenURL(config.Host)
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *psapi.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	httpOpts = append(httpOpts, http.WithInterceptors(createInterceptors(config)))

	return httpOpts
}

// createInterceptors assembles the built-in interceptors followed by the
// caller's.
func createInterceptors(config *psapi.Config) *psapi.InterceptorChain {
	chain := psapi.NewInterceptorChain()
	chain.AddRequestInterceptor(psapi.RequestIDInterceptor())

	if config.RateLimit > 0 {
		chain.AddRequestInterceptor(psapi.RateLimitInterceptor(config.RateLimit))
	}

	if config.Metrics != nil {
		config.Metrics.Install(chain)
	}

	if config.Logger != nil {
		chain.AddResponseInterceptor(psapi.LoggingResponseInterceptor(config.Logger))
	}

	chain.Append(config.Interceptors)

	return chain
}

// New creates a new PowerSchool client. It does not contact the server;
// call Authorize before querying tables.
func New(ctx context.Context, config *psapi.Config) (*Client, error) {
	if config.Host == "" {
		return nil, psapi.ErrHostRequired
	}

	tokenManager, err := createTokenManager(config)
	if err != nil {
		return nil, err
	}

	return NewWithTokenManager(config, tokenManager)
}

// NewWithTokenManager creates a new client with a custom token manager.
func NewWithTokenManager(config *psapi.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config.Host == "" {
		return nil, psapi.ErrHostRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	baseURL := strings.TrimRight(config.Host, "/")

	cache := config.Cache
	if cache == nil {
		cache = psapi.NewMemoryCache(constants.DefaultCacheSize)
	}

	metadataTTL := config.MetadataTTL
	if metadataTTL <= 0 {
		metadataTTL = constants.DefaultMetadataTTL
	}

	return &Client{
		httpClient:   http.NewClient(baseURL, tokenManager, createHTTPClientOptions(config)...),
		tokenManager: tokenManager,
		baseURL:      baseURL,
		logger:       config.Logger,
		cache:        psapi.NewCacheManager(cache, &psapi.CacheOptions{DefaultTTL: metadataTTL, KeyPrefix: "ps:"}),
		metadataTTL:  metadataTTL,
		metrics:      config.Metrics,
	}, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// Authorize obtains an access token and the plugin metadata, and replaces
// the session with a new one.
func (c *Client) Authorize(ctx context.Context) (*psapi.Session, error) {
	_, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorizing: %w", err)
	}

	metadata, err := c.GetPluginMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorizing: %w", err)
	}

	session := &psapi.Session{
		Host:         c.baseURL,
		Metadata:     metadata,
		AuthorizedAt: time.Now(),
	}

	if expirer, ok := c.tokenManager.(tokenExpirer); ok {
		session.TokenExpiresAt = expirer.GetTokenExpiry()
	}

	c.session.Store(session)

	if c.logger != nil {
		c.logger.Info("Authorized", map[string]interface{}{
			"host":                             c.baseURL,
			"plugin_id":                        metadata.PluginID,
			"schema_table_query_max_page_size": metadata.SchemaTableQueryMaxPageSize,
		})
	}

	return session, nil
}

// Session implements psapi.Client.Session. It is nil before Authorize.
func (c *Client) Session() *psapi.Session {
	return c.session.Load()
}

// Metadata implements psapi.Client.Metadata. It is nil before Authorize.
func (c *Client) Metadata() *psapi.Metadata {
	session := c.session.Load()
	if session == nil {
		return nil
	}

	return session.Metadata
}

// GetPluginMetadata implements psapi.Client.GetPluginMetadata.
func (c *Client) GetPluginMetadata(ctx context.Context) (*psapi.Metadata, error) {
	resp, err := c.httpClient.Get(ctx, constants.PathMetadata, nil)
	if err != nil {
		return nil, fmt.Errorf("getting plugin metadata: %w", err)
	}

	return psapi.ParseMetadata(resp.Body)
}

// ListNamedQueries implements psapi.Client.ListNamedQueries.
func (c *Client) ListNamedQueries(ctx context.Context) ([]psapi.NamedQuery, error) {
	resp, err := c.httpClient.Get(ctx, constants.PathNamedQueries, nil)
	if err != nil {
		return nil, fmt.Errorf("listing named queries: %w", err)
	}

	return psapi.ParseNamedQueries(resp.Body)
}

// Table implements psapi.Client.Table.
func (c *Client) Table(name string) psapi.TableClient {
	return newSchemaClient(c, name, psapi.KindTable)
}

// NamedQuery implements psapi.Client.NamedQuery.
func (c *Client) NamedQuery(name string) psapi.SchemaClient {
	return newSchemaClient(c, name, psapi.KindQuery)
}

var _ psapi.Client = (*Client)(nil)
