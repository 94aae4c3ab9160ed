package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setXDG points the XDG directories into a temp dir
func setXDG(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("HOME", tmpDir)
	t.Setenv(EnvMode, "")
	t.Setenv(EnvBaseURL, "")
	return tmpDir
}

// TestConfigAutoCreate verifies first run copies the sample to the XDG path
func TestConfigAutoCreate(t *testing.T) {
	tmpDir := setXDG(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, "config", "tors", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file not created at %s: %v", configPath, err)
	}
	if string(data) != GetSampleConfig() {
		t.Error("created config should be the embedded sample")
	}

	if cfg.Mode != ModeLocal {
		t.Errorf("expected Mode = local, got %q", cfg.Mode)
	}
	if cfg.Local.Path != "task_manager.yaml" || cfg.Local.Format != FormatYAML || cfg.Local.IDPolicy != "count" {
		t.Errorf("unexpected local defaults %+v", cfg.Local)
	}
	if want := filepath.Join(tmpDir, "data", "tors", "server.yaml"); cfg.Server.Data != want {
		t.Errorf("expected server data %q, got %q", want, cfg.Server.Data)
	}
}

// TestSampleConfigParses verifies the sample loads to the defaults
func TestSampleConfigParses(t *testing.T) {
	setXDG(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(GetSampleConfig()), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sample config should validate: %v", err)
	}
	if cfg.GetTimeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.GetTimeout())
	}
	for _, key := range []string{"mode:", "local:", "remote:", "id_policy:", "server:"} {
		if !strings.Contains(GetSampleConfig(), key) {
			t.Errorf("sample config missing %q", key)
		}
	}
}

func TestDefaultLocalPathFollowsFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"yaml", "local:\n  format: yaml\n", "task_manager.yaml"},
		{"sqlite", "local:\n  format: sqlite\n", "task_manager.db"},
		{"explicit path wins", "local:\n  format: sqlite\n  path: /tmp/tasks.yaml\n", "/tmp/tasks.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setXDG(t)
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Local.Path != tt.want {
				t.Errorf("local.path = %q, want %q", cfg.Local.Path, tt.want)
			}
		})
	}
}

func TestConfigCustomPath(t *testing.T) {
	setXDG(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `
mode: remote
no_prompt: true
local:
  path: "$TORS_TEST_DIR/tasks.db"
  format: sqlite
  id_policy: max
remote:
  base_url: http://localhost:9000
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TORS_TEST_DIR", "/srv/tors")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.IsRemote() || !cfg.NoPrompt {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Local.Path != "/srv/tors/tasks.db" {
		t.Errorf("expected expanded path, got %q", cfg.Local.Path)
	}
	if cfg.Local.Format != FormatSQLite || cfg.Local.IDPolicy != "max" {
		t.Errorf("unexpected local config %+v", cfg.Local)
	}
	if cfg.GetTimeout() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.GetTimeout())
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("missing keys should get defaults, got %q", cfg.OutputFormat)
	}
}

func TestConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("mode: [local\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	setXDG(t)
	t.Setenv(EnvMode, "REMOTE")
	t.Setenv(EnvBaseURL, "http://env.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeRemote {
		t.Errorf("expected remote from env, got %q", cfg.Mode)
	}
	if cfg.Remote.BaseURL != "http://env.example" {
		t.Errorf("expected base URL from env, got %q", cfg.Remote.BaseURL)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyFlags(false, "", "")
	if cfg.NoPrompt || cfg.OutputFormat != "text" || cfg.Mode != ModeLocal {
		t.Errorf("empty flags should not change config: %+v", cfg)
	}
	cfg.ApplyFlags(true, "json", ModeRemote)
	if !cfg.NoPrompt || cfg.OutputFormat != "json" || cfg.Mode != ModeRemote {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "hybrid" }, "invalid mode"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "invalid output_format"},
		{"bad format", func(c *Config) { c.Local.Format = "toml" }, "invalid local.format"},
		{"bad policy", func(c *Config) { c.Local.IDPolicy = "random" }, "invalid local.id_policy"},
		{"bad timeout", func(c *Config) { c.Remote.Timeout = "soon" }, "invalid duration"},
		{"zero timeout", func(c *Config) { c.Remote.Timeout = "0s" }, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPathExpansionTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := ExpandPath("~/tors/tasks.yaml"); got != filepath.Join(home, "tors", "tasks.yaml") {
		t.Errorf("ExpandPath(~) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}

func TestXDGFallbackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	if got := GetConfigDir(); got != filepath.Join(home, ".config", "tors") {
		t.Errorf("GetConfigDir() = %q", got)
	}
	if got := GetDataDir(); got != filepath.Join(home, ".local", "share", "tors") {
		t.Errorf("GetDataDir() = %q", got)
	}
}
