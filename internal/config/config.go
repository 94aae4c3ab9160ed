// Package config handles application configuration
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Modes
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Local document formats
const (
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

// Environment overrides
const (
	EnvMode    = "TORS_MODE"
	EnvBaseURL = "TORS_BASE_URL"
	EnvAPIKey  = "TORS_API_KEY"
)

// Config represents the application configuration
type Config struct {
	Mode         string        `yaml:"mode"`
	NoPrompt     bool          `yaml:"no_prompt"`
	OutputFormat string        `yaml:"output_format"`
	Local        LocalConfig   `yaml:"local"`
	Remote       RemoteConfig  `yaml:"remote"`
	Server       ServerConfig  `yaml:"server"`
	Logging      LoggingConfig `yaml:"logging"`
}

// LocalConfig holds settings of the local document backends
type LocalConfig struct {
	Path     string `yaml:"path"`
	Format   string `yaml:"format"`
	IDPolicy string `yaml:"id_policy"`
}

// RemoteConfig holds settings of the remote backend
type RemoteConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	UseKeyring bool   `yaml:"use_keyring"`
	Timeout    string `yaml:"timeout"`
}

// ServerConfig holds settings of the reference HTTP service
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Data string `yaml:"data"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultLocalPath returns the document name used for format when
// local.path is not set
func DefaultLocalPath(format string) string {
	if format == FormatSQLite {
		return "task_manager.db"
	}
	return "task_manager.yaml"
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeLocal
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
	if c.Local.Format == "" {
		c.Local.Format = FormatYAML
	}
	if c.Local.Path == "" {
		c.Local.Path = DefaultLocalPath(c.Local.Format)
	}
	if c.Local.IDPolicy == "" {
		c.Local.IDPolicy = "count"
	}
	if c.Remote.Timeout == "" {
		c.Remote.Timeout = "30s"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Data == "" {
		c.Server.Data = filepath.Join(GetDataDir(), "server.yaml")
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it is created from the embedded sample.
// Environment overrides are applied last.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	cfg.applyDefaults()

	cfg.Local.Path = ExpandPath(cfg.Local.Path)
	cfg.Server.Data = ExpandPath(cfg.Server.Data)
	return cfg, nil
}

// writeSample copies the embedded sample, comments included, to path
func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv applies TORS_MODE and TORS_BASE_URL when set
func (c *Config) ApplyEnv() {
	if mode := os.Getenv(EnvMode); mode != "" {
		c.Mode = strings.ToLower(mode)
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		c.Remote.BaseURL = url
	}
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(noPrompt bool, outputFormat, mode string) {
	if noPrompt {
		c.NoPrompt = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
	if mode != "" {
		c.Mode = mode
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeLocal && c.Mode != ModeRemote {
		return fmt.Errorf("invalid mode: %q (must be 'local' or 'remote')", c.Mode)
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}
	if c.Local.Format != FormatYAML && c.Local.Format != FormatSQLite {
		return fmt.Errorf("invalid local.format: %q (must be 'yaml' or 'sqlite')", c.Local.Format)
	}
	if c.Local.IDPolicy != "count" && c.Local.IDPolicy != "max" {
		return fmt.Errorf("invalid local.id_policy: %q (must be 'count' or 'max')", c.Local.IDPolicy)
	}
	if c.Remote.Timeout != "" {
		d, err := time.ParseDuration(c.Remote.Timeout)
		if err != nil {
			return fmt.Errorf("invalid duration for remote.timeout: %q", c.Remote.Timeout)
		}
		if d <= 0 {
			return fmt.Errorf("remote.timeout must be positive, got %q", c.Remote.Timeout)
		}
	}
	return nil
}

// IsRemote reports whether commands go to the remote backend
func (c *Config) IsRemote() bool {
	return c.Mode == ModeRemote
}

// GetTimeout returns the remote request timeout.
// Returns 30 seconds as default if not configured or if parsing fails.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "tors")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "tors")
	}
	return filepath.Join(home, fallbackPath, "tors")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
