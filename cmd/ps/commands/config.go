package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configDirName = ".ps"

// Config represents the CLI configuration.
type Config struct {
	Host         string `json:"host,omitempty"          yaml:"host,omitempty"`
	ClientID     string `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	CacheDir     string `json:"cache_dir,omitempty"     yaml:"cache_dir,omitempty"`
	Output       string `json:"output,omitempty"        yaml:"output,omitempty"`
	RateLimit    int    `json:"rate_limit,omitempty"    yaml:"rate_limit,omitempty"`
	NATSURL      string `json:"nats_url,omitempty"      yaml:"nats_url,omitempty"`
}

// configKeys are the keys accepted by 'ps config set'.
var configKeys = []string{"host", "client_id", "client_secret", "cache_dir", "output", "rate_limit", "nats_url"}

// InitConfig points viper at cfgFile, or at $HOME/.ps/config.yml, and reads
// PS_* environment variables.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}

		err = os.MkdirAll(dir, constants.ConfigDirPerm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		viper.AddConfigPath(dir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

func loadConfig() *Config {
	return &Config{
		Host:         viper.GetString("host"),
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		CacheDir:     viper.GetString("cache_dir"),
		Output:       viper.GetString("output"),
		RateLimit:    viper.GetInt("rate_limit"),
		NATSURL:      viper.GetString("nats_url"),
	}
}

// tokenCacheDir is where 'ps login' keeps the access token.
func tokenCacheDir(config *Config) (string, error) {
	if config.CacheDir != "" {
		return config.CacheDir, nil
	}

	return configDir()
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	return nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the host, client id and other settings stored in the config file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.ClientSecret != "" {
				config.ClientSecret = constants.MaskedSecret
			}

			switch outputFormat() {
			case constants.FormatJSON:
				return renderJSON(config)
			case constants.FormatYAML:
				return renderYAML(config)
			default:
				return displayConfigTable(config)
			}
		},
	}
}

func displayConfigTable(config *Config) error {
	cacheDir, err := tokenCacheDir(config)
	if err != nil {
		cacheDir = constants.NotAvailable
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	_ = table.Append("Config File", valueOrNA(viper.ConfigFileUsed()))
	_ = table.Append("Host", valueOrNA(config.Host))
	_ = table.Append("Client ID", valueOrNA(config.ClientID))
	_ = table.Append("Client Secret", valueOrNA(config.ClientSecret))
	_ = table.Append("Token Cache", cacheDir)
	_ = table.Append("Rate Limit", strconv.Itoa(config.RateLimit))
	_ = table.Append("Metadata Cache", valueOrNA(config.NATSURL))

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Unset %s\n", args[0])

			return nil
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "host":
		config.Host = value
	case "client_id":
		config.ClientID = value
	case "client_secret":
		config.ClientSecret = value
	case "cache_dir":
		config.CacheDir = value
	case "nats_url":
		config.NATSURL = value
	case "output":
		if value != "" && !isOutputFormat(value) {
			return constants.ErrInvalidOutputFormat
		}

		config.Output = value
	case "rate_limit":
		if value == "" {
			config.RateLimit = 0

			return nil
		}

		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %q", constants.ErrInvalidRateLimit, value)
		}

		config.RateLimit = n
	default:
		return fmt.Errorf("%w: %s (known keys: %s)", constants.ErrUnknownConfigKey, key, strings.Join(configKeys, ", "))
	}

	return nil
}

func valueOrNA(s string) string {
	if s == "" {
		return constants.NotAvailable
	}

	return s
}

// readFileChecked reads a regular file, rejecting paths that climb out of
// the working tree.
func readFileChecked(path string) ([]byte, error) {
	if strings.Contains(filepath.ToSlash(path), "../") {
		return nil, fmt.Errorf("%w: %s", constants.ErrDirectoryTraversalDetected, path)
	}

	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", clean, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, clean)
	}

	data, err := os.ReadFile(clean) // #nosec G304 -- path checked above
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", clean, err)
	}

	return data, nil
}

// readBodyFile reads a JSON object from path.
func readBodyFile(path string) (json.RawMessage, error) {
	data, err := readFileChecked(path)
	if err != nil {
		return nil, err
	}

	var object map[string]interface{}

	err = json.Unmarshal(data, &object)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidBody, err)
	}

	return json.RawMessage(data), nil
}
