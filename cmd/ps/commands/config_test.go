package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
		check   func(t *testing.T, config *Config)
	}{
		{
			name:  "host",
			key:   "host",
			value: "district.powerschool.com",
			check: func(t *testing.T, config *Config) { assert.Equal(t, "district.powerschool.com", config.Host) },
		},
		{
			name:  "client id",
			key:   "client_id",
			value: "plugin",
			check: func(t *testing.T, config *Config) { assert.Equal(t, "plugin", config.ClientID) },
		},
		{
			name:  "output",
			key:   "output",
			value: "json",
			check: func(t *testing.T, config *Config) { assert.Equal(t, "json", config.Output) },
		},
		{
			name:    "invalid output",
			key:     "output",
			value:   "xml",
			wantErr: constants.ErrInvalidOutputFormat,
		},
		{
			name:  "rate limit",
			key:   "rate_limit",
			value: "5",
			check: func(t *testing.T, config *Config) { assert.Equal(t, 5, config.RateLimit) },
		},
		{
			name:    "negative rate limit",
			key:     "rate_limit",
			value:   "-1",
			wantErr: constants.ErrInvalidRateLimit,
		},
		{
			name:  "unset rate limit",
			key:   "rate_limit",
			value: "",
			check: func(t *testing.T, config *Config) { assert.Zero(t, config.RateLimit) },
		},
		{
			name:    "unknown key",
			key:     "colour",
			value:   "blue",
			wantErr: constants.ErrUnknownConfigKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := &Config{RateLimit: 3}

			err := setConfigValue(config, tt.key, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestTokenCacheDir(t *testing.T) {
	t.Parallel()

	dir, err := tokenCacheDir(&Config{CacheDir: "/var/cache/ps"})
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/ps", dir)
}

func TestClientConfig(t *testing.T) {
	t.Parallel()

	_, err := clientConfig(context.Background(), &Config{})
	require.ErrorIs(t, err, constants.ErrNoHostConfigured)

	psConfig, err := clientConfig(context.Background(), &Config{
		Host:         "district.powerschool.com",
		ClientID:     "plugin",
		ClientSecret: "secret",
		CacheDir:     "/var/cache/ps",
		RateLimit:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, "district.powerschool.com", psConfig.Host)
	assert.Equal(t, "plugin", psConfig.ClientID)
	assert.Equal(t, "/var/cache/ps", psConfig.TokenCacheDir)
	assert.Equal(t, 4, psConfig.RateLimit)
	assert.NotNil(t, psConfig.Logger)
	assert.Nil(t, psConfig.Cache)
}

func TestReadBodyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), constants.ConfigFilePerm))

		return path
	}

	t.Run("JSON object", func(t *testing.T) {
		t.Parallel()

		body, err := readBodyFile(write("object.json", `{"yearid": 34}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"yearid": 34}`, string(body))
	})

	t.Run("not an object", func(t *testing.T) {
		t.Parallel()

		_, err := readBodyFile(write("array.json", `[1, 2]`))
		require.ErrorIs(t, err, constants.ErrInvalidBody)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		_, err := readBodyFile(dir)
		require.ErrorIs(t, err, constants.ErrNotRegularFile)
	})

	t.Run("traversal", func(t *testing.T) {
		t.Parallel()

		_, err := readBodyFile("../secrets.json")
		require.ErrorIs(t, err, constants.ErrDirectoryTraversalDetected)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := readBodyFile(filepath.Join(dir, "missing.json"))
		require.Error(t, err)
	})
}
