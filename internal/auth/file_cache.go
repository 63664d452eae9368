package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/spf13/afero"
)

// TokenPersister loads and saves tokens between runs.
type TokenPersister interface {
	Load() (*Token, error)
	Save(token *Token) error
}

// FileTokenCache keeps a token in "<dir>/access_token.json".
type FileTokenCache struct {
	fs  afero.Fs
	dir string
}

type cachedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

// NewFileTokenCache creates a cache in dir. A nil fs uses the OS filesystem.
func NewFileTokenCache(fsys afero.Fs, dir string) *FileTokenCache {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	return &FileTokenCache{fs: fsys, dir: dir}
}

// Path returns the cache file location.
func (c *FileTokenCache) Path() string {
	return filepath.Join(c.dir, constants.TokenCacheFileName)
}

// Load reads the cached token. A missing file yields ErrTokenCacheMiss.
func (c *FileTokenCache) Load() (*Token, error) {
	data, err := afero.ReadFile(c.fs, c.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrTokenCacheMiss
		}

		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var cached cachedToken

	err = json.Unmarshal(data, &cached)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token cache %s: %w", c.Path(), err)
	}

	if cached.AccessToken == "" {
		return nil, ErrTokenCacheMiss
	}

	token := &Token{
		AccessToken: cached.AccessToken,
		TokenType:   cached.TokenType,
	}

	if cached.ExpiresAt > 0 {
		token.ExpiresAt = time.Unix(cached.ExpiresAt, 0)
	}

	return token, nil
}

// Save writes token, creating the directory when needed.
func (c *FileTokenCache) Save(token *Token) error {
	err := c.fs.MkdirAll(c.dir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	cached := cachedToken{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	}

	if !token.ExpiresAt.IsZero() {
		cached.ExpiresAt = token.ExpiresAt.Unix()
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	err = afero.WriteFile(c.fs, c.Path(), data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}

// Clear removes the cached token. A missing file is not an error.
func (c *FileTokenCache) Clear() error {
	err := c.fs.Remove(c.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}

	return nil
}
