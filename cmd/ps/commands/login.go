package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/powerschool/internal/auth"
	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/psclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		saveSecret   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to PowerSchool",
		Long:  "Obtain an access token with the plugin's client credentials and cache it on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if clientID != "" {
				config.ClientID = clientID
			}

			if config.ClientID == "" {
				return constants.ErrClientIDRequired
			}

			if clientSecret == "" {
				clientSecret = config.ClientSecret
			}

			if clientSecret == "" {
				secret, err := promptSecret("Client secret: ")
				if err != nil {
					return err
				}

				clientSecret = secret
			}

			if clientSecret == "" {
				return constants.ErrEmptySecret
			}

			config.ClientSecret = clientSecret

			ctx := context.Background()

			psConfig, err := clientConfig(ctx, config)
			if err != nil {
				return err
			}

			psConfig.Host = psclient.NormalizeHost(psConfig.Host)

			client, err := psclient.New(ctx, psConfig)
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}

			config.Host = psConfig.Host
			if !saveSecret {
				config.ClientSecret = ""
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			session := client.Session()
			fmt.Printf("Successfully logged in to %s\n", session.Host)
			fmt.Printf("Token cached in %s until %s\n", psConfig.TokenCacheDir, session.TokenExpiresAt.Format("2006-01-02 15:04:05"))

			if session.Metadata.PowerSchoolVersion != "" {
				fmt.Printf("PowerSchool version: %s\n", session.Metadata.PowerSchoolVersion)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID of the plugin")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret (prompted when omitted)")
	cmd.Flags().BoolVar(&saveSecret, "save-secret", false, "store the client secret in the config file")

	return cmd
}

func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	secret, err := term.ReadPassword(int(os.Stdin.Fd())) // #nosec G115 -- file descriptors fit in int
	fmt.Println()

	if err != nil {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from PowerSchool",
		Long:  "Remove the cached access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := tokenCacheDir(loadConfig())
			if err != nil {
				return err
			}

			err = auth.NewFileTokenCache(nil, dir).Clear()
			if err != nil {
				return err
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}
