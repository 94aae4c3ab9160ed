// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tors/backend/file"
	"tors/backend/registry"
	"tors/cmd/tors/cmd"
	"tors/internal/credentials"
)

// defaultTestConfig keeps every run in local mode with the YAML document.
const defaultTestConfig = "# test config\nmode: local\nlocal:\n  format: yaml\n"

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	keyring    *credentials.MockKeyring
}

// NewCLITest creates a CLI test helper with its own config file, document
// and in-memory keyring. Prompts are disabled.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(defaultTestConfig), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	keyring := credentials.NewMockKeyring()
	cfg := &cmd.Config{
		NoPrompt:   true,
		ConfigPath: configPath,
		DataPath:   filepath.Join(tmpDir, "task_manager.yaml"),
		Keyring:    keyring,
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		tmpDir:     tmpDir,
		configPath: configPath,
		keyring:    keyring,
	}
}

// NewCLITestWithInput creates a CLI test helper whose prompts read input
// line by line.
func NewCLITestWithInput(t *testing.T, input string) *CLITest {
	t.Helper()

	c := NewCLITest(t)
	c.SetInput(input)
	return c
}

// Config returns the CLI config used by Execute.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// DataPath returns the path of the local document.
func (c *CLITest) DataPath() string {
	return c.cfg.DataPath
}

// Keyring returns the in-memory keyring.
func (c *CLITest) Keyring() *credentials.MockKeyring {
	return c.keyring
}

// SetInput enables prompts and feeds them input.
func (c *CLITest) SetInput(input string) {
	c.cfg.NoPrompt = false
	c.cfg.Stdin = strings.NewReader(input)
}

// SetFullConfig replaces the entire config file with the given YAML content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()

	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// Document loads the local YAML document as saved by the last command.
func (c *CLITest) Document() *registry.Document {
	c.t.Helper()

	data, err := os.ReadFile(c.cfg.DataPath)
	if err != nil {
		c.t.Fatalf("failed to read document: %v", err)
	}
	doc, err := file.Decode(data)
	if err != nil {
		c.t.Fatalf("failed to decode document: %v", err)
	}
	return doc
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output does not contain expected.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output not to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if got differs from want.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}
