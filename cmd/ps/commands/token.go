package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/auth"
	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// TokenStatus describes the cached access token.
type TokenStatus struct {
	CacheFile string    `json:"cache_file"           yaml:"cache_file"`
	Preview   string    `json:"preview"              yaml:"preview"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	ExpiresIn string    `json:"expires_in"           yaml:"expires_in"`
	Valid     bool      `json:"valid"                yaml:"valid"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage authentication tokens",
		Long:  "Commands for inspecting and refreshing the cached access token",
	}

	cmd.AddCommand(newTokenStatusCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token status and expiration",
		Long:  "Display information about the cached access token including its expiration time",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := tokenCacheDir(loadConfig())
			if err != nil {
				return err
			}

			cache := auth.NewFileTokenCache(nil, dir)

			token, err := cache.Load()
			if err != nil {
				if errors.Is(err, auth.ErrTokenCacheMiss) {
					return constants.ErrNoCachedToken
				}

				return err
			}

			status := tokenStatus(cache.Path(), token, time.Now())

			return render(status, func() error {
				return displayTokenStatus(status)
			})
		},
	}
}

func tokenStatus(path string, token *auth.Token, now time.Time) *TokenStatus {
	status := &TokenStatus{
		CacheFile: path,
		Preview:   tokenPreview(token.AccessToken),
		ExpiresAt: token.ExpiresAt,
		Valid:     token.Valid(),
	}

	switch {
	case token.ExpiresAt.IsZero():
		status.ExpiresIn = constants.NotAvailable
	case token.ExpiresAt.Before(now):
		status.ExpiresIn = "expired"
	default:
		status.ExpiresIn = token.ExpiresAt.Sub(now).Round(time.Second).String()
	}

	return status
}

func tokenPreview(token string) string {
	if len(token) <= constants.TokenPreviewLength {
		return constants.MaskedSecret
	}

	return token[:constants.TokenPreviewLength] + "..."
}

func displayTokenStatus(status *TokenStatus) error {
	expiresAt := constants.NotAvailable
	if !status.ExpiresAt.IsZero() {
		expiresAt = status.ExpiresAt.Format("2006-01-02 15:04:05 MST")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Cache File", status.CacheFile)
	_ = table.Append("Token", status.Preview)
	_ = table.Append("Expires At", expiresAt)
	_ = table.Append("Expires In", status.ExpiresIn)
	_ = table.Append("Valid", fmt.Sprintf("%t", status.Valid))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newTokenRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Request a new access token",
		Long:  "Discard the cached token and authorize again with the configured client credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.ClientID == "" || config.ClientSecret == "" {
				return constants.ErrNoCredentials
			}

			dir, err := tokenCacheDir(config)
			if err != nil {
				return err
			}

			err = auth.NewFileTokenCache(nil, dir).Clear()
			if err != nil {
				return err
			}

			client, err := createClient(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Token refreshed, expires at %s\n", client.Session().TokenExpiresAt.Format("2006-01-02 15:04:05 MST"))

			return nil
		},
	}
}
