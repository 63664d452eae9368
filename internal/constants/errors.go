package constants

import "errors"

// Configuration errors.
var (
	ErrNoHostConfigured    = errors.New("no PowerSchool host configured, use --host or 'ps login --host'")
	ErrNoCredentials       = errors.New("no client credentials configured, use 'ps login' first")
	ErrNoCachedToken       = errors.New("no cached token found, use 'ps login' first")
	ErrClientIDRequired    = errors.New("--client-id is required")
	ErrEmptySecret         = errors.New("client secret must not be empty")
	ErrInvalidOutputFormat = errors.New("invalid output format, use table, json or yaml")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidRateLimit    = errors.New("rate_limit must be a non-negative integer")
)

// Command errors.
var (
	ErrYearIDRequired = errors.New("--yearid must be a positive year id")
	ErrInvalidBody    = errors.New("request body must be a JSON object")
)

// File system errors.
var (
	ErrDirectoryTraversalDetected = errors.New("directory traversal detected in file path")
	ErrNotRegularFile             = errors.New("path is not a regular file")
)

// Batch errors.
var (
	ErrNoOperations = errors.New("batch file contains no operations")
)
