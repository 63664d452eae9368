//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Host         string
	ClientID     string
	ClientSecret string
	Table        string
	PsPath       string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	table := os.Getenv("PS_TEST_TABLE")
	if table == "" {
		table = "students"
	}

	return &TestConfig{
		Host:         os.Getenv("PS_HOST"),
		ClientID:     os.Getenv("PS_CLIENT_ID"),
		ClientSecret: os.Getenv("PS_CLIENT_SECRET"),
		Table:        table,
		PsPath:       getPsPath(),
		Verbose:      os.Getenv("PS_VERBOSE") == "true",
	}
}

// getPsPath determines the path to the ps binary
func getPsPath() string {
	if path := os.Getenv("PS_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../ps",
		"./ps",
		"../ps",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "ps"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Host == "" || config.ClientID == "" || config.ClientSecret == "" {
		t.Skip("PS_HOST, PS_CLIENT_ID or PS_CLIENT_SECRET not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.PsPath); err != nil {
		t.Skipf("ps binary not found at %s, skipping integration test", config.PsPath)
	}
}

// CommandRunner runs ps commands against an isolated config file
type CommandRunner struct {
	config     *TestConfig
	t          *testing.T
	configFile string
	cacheDir   string
}

// NewCommandRunner creates a new command runner with its own config and token cache
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	dir := t.TempDir()

	return &CommandRunner{
		config:     config,
		t:          t,
		configFile: filepath.Join(dir, "config.yml"),
		cacheDir:   dir,
	}
}

// Run executes a ps command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a ps command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.PsPath, args...) // #nosec G204 -- test binary
	cmd.Env = append(os.Environ(), "PS_CACHE_DIR="+runner.cacheDir)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.PsPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login authenticates with the configured client credentials
func (runner *CommandRunner) Login() error {
	_, _, err := runner.Run("login",
		"--host", runner.config.Host,
		"--client-id", runner.config.ClientID,
		"--client-secret", runner.config.ClientSecret,
		"--save-secret")

	return err
}

// DecodeJSON decodes command output into v, failing the test on error
func DecodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()

	err := json.Unmarshal([]byte(strings.TrimSpace(output)), v)
	if err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, output)
	}
}
