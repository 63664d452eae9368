package psclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/client"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
)

// New creates a PowerSchool client and authorizes it. config is not modified.
func New(ctx context.Context, config *psapi.Config) (psapi.Client, error) {
	if config == nil {
		return nil, psapi.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, psapi.ErrHostRequired
	}

	normalized := *config
	normalized.Host = NormalizeHost(config.Host)

	cli, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	_, err = cli.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	return cli, nil
}

// NormalizeHost adds "https://" to a bare host name and drops trailing slashes.
func NormalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return host
}

// NewWithToken creates a client from an access token obtained elsewhere. A
// zero expiresAt means the expiry is unknown.
func NewWithToken(ctx context.Context, host, token string, expiresAt time.Time) (psapi.Client, error) {
	return New(ctx, &psapi.Config{
		Host:           host,
		AccessToken:    token,
		TokenExpiresAt: expiresAt,
	})
}

// NewWithClientCredentials creates a client using the OAuth2 client
// credentials of a PowerSchool plugin.
func NewWithClientCredentials(ctx context.Context, host, clientID, clientSecret string) (psapi.Client, error) {
	return New(ctx, &psapi.Config{
		Host:         host,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}
