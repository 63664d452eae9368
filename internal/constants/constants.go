package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration and token cache directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and token cache files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for token requests.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token handling.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// TokenCacheFileName is the name of the cached token inside the cache directory.
	TokenCacheFileName = "access_token.json"

	// TokenPath is the OAuth token endpoint relative to the server host.
	TokenPath = "/oauth/access_token/"
)

// API paths.
const (
	// PathMetadata returns the plugin and server metadata.
	PathMetadata = "/ws/v1/metadata"

	// PathNamedQueries lists the named queries available to the plugin.
	PathNamedQueries = "/ws/schema/query/api"
)

// Cache sizes and lifetimes.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultMetadataTTL is how long table metadata stays cached.
	DefaultMetadataTTL = 15 * time.Minute
)

// UI and display constants.
const (
	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// TokenPreviewLength is how many characters of a token are shown.
	TokenPreviewLength = 8
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)
