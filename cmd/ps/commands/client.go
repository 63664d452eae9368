package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/fivetwenty-io/powerschool/pkg/psclient"
	"github.com/spf13/viper"
)

// clientConfig builds the library configuration from the CLI configuration.
// Table metadata is shared through NATS when nats_url is set.
func clientConfig(ctx context.Context, config *Config) (*psapi.Config, error) {
	if config.Host == "" {
		return nil, constants.ErrNoHostConfigured
	}

	cacheDir, err := tokenCacheDir(config)
	if err != nil {
		return nil, err
	}

	verbose := viper.GetBool("verbose")

	psConfig := &psapi.Config{
		Host:          config.Host,
		ClientID:      config.ClientID,
		ClientSecret:  config.ClientSecret,
		TokenCacheDir: cacheDir,
		Logger:        newLogger(verbose),
		Debug:         verbose,
		RateLimit:     config.RateLimit,
		Metrics:       metrics,
	}

	if config.NATSURL != "" {
		cache, err := psapi.NewCacheFromConfig(ctx, &psapi.CacheConfig{
			Type: psapi.CacheTypeNATS,
			NATS: &psapi.NATSKVConfig{URL: config.NATSURL, TTL: constants.DefaultMetadataTTL},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata cache: %w", err)
		}

		if closer, ok := cache.(interface{ Close() }); ok {
			onShutdown(closer.Close)
		}

		psConfig.Cache = cache
	}

	return psConfig, nil
}

// createClient creates an authorized client from the saved configuration.
func createClient(ctx context.Context) (psapi.Client, error) {
	psConfig, err := clientConfig(ctx, loadConfig())
	if err != nil {
		return nil, err
	}

	client, err := psclient.New(ctx, psConfig)
	if err != nil {
		if errors.Is(err, psapi.ErrInvalidClient) {
			return nil, fmt.Errorf("%w: %w", constants.ErrNoCredentials, err)
		}

		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}
