package psapi

import (
	"context"
	"time"

	"github.com/spf13/afero"
)

// SchemaClient reads a single PowerSchool table or named query.
type SchemaClient interface {
	Name() string
	Kind() SchemaKind
	Count(ctx context.Context, params *QueryParams, body interface{}) (int, error)
	Metadata(ctx context.Context, params *QueryParams) (*TableMetadata, error)
	Query(ctx context.Context, params *QueryParams) ([]Record, error)
	QueryWithBody(ctx context.Context, params *QueryParams, body interface{}) ([]Record, error)
	QueryEach(ctx context.Context, params *QueryParams, body interface{}, fn func(page int, records []Record) error) error
	// QueryExpressions runs one full query per FIQL expression, AND-ing each
	// with params.Q, and concatenates the results in order.
	QueryExpressions(ctx context.Context, params *QueryParams, body interface{}, expressions []string) ([]Record, error)
	// QueryHistorical generates the probing expressions for selector, walking
	// back from currentYearID, and runs them with QueryExpressions.
	QueryHistorical(ctx context.Context, currentYearID int, selector string, params *QueryParams, body interface{}) ([]Record, error)
}

// TableClient adds single-row access to a schema table.
type TableClient interface {
	SchemaClient
	Get(ctx context.Context, pk string, params *QueryParams) (Record, error)
	Insert(ctx context.Context, pk string, body interface{}) (Record, error)
	Update(ctx context.Context, pk string, body interface{}) (Record, error)
	Delete(ctx context.Context, pk string) error
}

// SessionClient manages authorization and the session metadata.
type SessionClient interface {
	Authorize(ctx context.Context) (*Session, error)
	Session() *Session
	Metadata() *Metadata
	GetPluginMetadata(ctx context.Context) (*Metadata, error)
}

// Client is the PowerSchool API client.
type Client interface {
	SessionClient
	Table(name string) TableClient
	NamedQuery(name string) SchemaClient
	ListNamedQueries(ctx context.Context) ([]NamedQuery, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a psapi.Client.
//
// # Authentication precedence
//
// The following precedence is applied by the concrete client implementation
// (see pkg/psclient and internal/client):
//  1. AccessToken: used directly as a Bearer token until TokenExpiresAt. An
//     already expired token fails construction with auth.ErrTokenExpired.
//  2. ClientID/ClientSecret: the OAuth2 client_credentials grant against
//     "<host>/oauth/access_token/" using HTTP basic authentication.
//  3. TokenCacheDir alone: a previously cached token is loaded from
//     "<dir>/access_token.json".
//  4. No credentials: construction fails with ErrInvalidClient.
//
// When TokenCacheDir is set together with client credentials, freshly issued
// tokens are written back to the cache file and reused until they expire.
type Config struct {
	// Host is the PowerSchool server, e.g. "district.powerschool.com". A
	// scheme is optional; psclient.New adds "https://" when missing.
	Host string

	// ClientID and ClientSecret are the plugin's OAuth credentials.
	ClientID     string
	ClientSecret string

	// AccessToken, if set, is used as a static Bearer token.
	AccessToken string
	// TokenExpiresAt is the expiry of AccessToken. The zero time means unknown.
	TokenExpiresAt time.Time
	// TokenURL overrides "<host>/oauth/access_token/".
	TokenURL string

	// TokenCacheDir enables the on-disk token cache.
	TokenCacheDir string
	// TokenCacheFs is the filesystem for the token cache. Defaults to the OS filesystem.
	TokenCacheFs afero.Fs

	// HTTPTimeout bounds a single HTTP attempt. Zero uses the default.
	HTTPTimeout time.Duration
	// RetryMax is the maximum number of retries for transient failures (>=500,
	// 429 and connection errors). If 0, a default is used.
	RetryMax int
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration

	// Debug enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Cache holds table metadata for automatic projections. Defaults to an
	// in-memory cache.
	Cache Cache
	// MetadataTTL is how long cached table metadata stays valid.
	MetadataTTL time.Duration

	// Interceptors are run around every HTTP exchange, after the built-in
	// request id, rate limit and metrics interceptors.
	Interceptors *InterceptorChain
	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit int
	// Metrics, if set, records request and record counts.
	Metrics *Metrics
}
