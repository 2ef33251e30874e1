package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML overrides a subset of the defaults.
const validConfigYAML = `
exporter:
  sources:
    - name: "Intro to Go"
      url: "https://example.com/courses/123-intro-to-go/"
      enabled: true
    - name: "Snapshot"
      url: "https://example.com/courses/456-snapshot/"
      file: "./fixtures/snapshot.html"
      enabled: false
  retry:
    max_attempts: 5
    initial_delay_ms: 100
    max_delay_ms: 5000
    backoff_multiplier: 2.0
    timeout_sec: 10
  recovery:
    enable_injection: false
    reload_timeout_sec: 20
  output:
    mode: download
    downloads_dir: "/tmp/downloads"
  logging:
    level: "debug"
  selectors:
    title: "h1.title"
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Exporter.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(cfg.Exporter.Sources))
	}

	if cfg.Exporter.Retry.MaxAttempts != 5 {
		t.Errorf("Expected MaxAttempts 5, got %d", cfg.Exporter.Retry.MaxAttempts)
	}

	if cfg.Exporter.Recovery.EnableInjection {
		t.Error("Expected injection to be disabled")
	}

	if cfg.Exporter.Recovery.GetReloadTimeout() != 20*time.Second {
		t.Errorf("Expected reload timeout 20s, got %v", cfg.Exporter.Recovery.GetReloadTimeout())
	}

	if cfg.Exporter.Output.Mode != ModeDownload {
		t.Errorf("Expected mode download, got %s", cfg.Exporter.Output.Mode)
	}

	// Overridden selector
	if cfg.Exporter.Selectors.Title != "h1.title" {
		t.Errorf("Expected title selector override, got %q", cfg.Exporter.Selectors.Title)
	}

	// Untouched selectors keep their defaults
	if cfg.Exporter.Selectors.LessonItem != DefaultSelectors().LessonItem {
		t.Errorf("Expected default lesson item selector, got %q", cfg.Exporter.Selectors.LessonItem)
	}

	// Untouched sections keep their defaults
	if cfg.Exporter.ContentScript.Match != "/courses/" {
		t.Errorf("Expected default content script match, got %q", cfg.Exporter.ContentScript.Match)
	}

	if cfg.Exporter.Logging.Format != "text" {
		t.Errorf("Expected default log format text, got %q", cfg.Exporter.Logging.Format)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate, got %v", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name: "source without url",
			mutate: func(c *Config) {
				c.Exporter.Sources = []SourceConfig{{Name: "x", File: "page.html", Enabled: true}}
			},
			wantErr: ErrSourceMissingURL,
		},
		{
			name:    "max attempts",
			mutate:  func(c *Config) { c.Exporter.Retry.MaxAttempts = 0 },
			wantErr: ErrInvalidMaxAttempts,
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Exporter.Retry.InitialDelayMs = -1 },
			wantErr: ErrInvalidInitialDelay,
		},
		{
			name:    "backoff multiplier",
			mutate:  func(c *Config) { c.Exporter.Retry.BackoffMultiplier = 0.5 },
			wantErr: ErrInvalidBackoffMultiplier,
		},
		{
			name:    "timeout",
			mutate:  func(c *Config) { c.Exporter.Retry.TimeoutSec = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "reload timeout",
			mutate:  func(c *Config) { c.Exporter.Recovery.ReloadTimeoutSec = 0 },
			wantErr: ErrInvalidReloadTimeout,
		},
		{
			name:    "output mode",
			mutate:  func(c *Config) { c.Exporter.Output.Mode = "clipboard" },
			wantErr: ErrInvalidOutputMode,
		},
		{
			name: "downloads dir",
			mutate: func(c *Config) {
				c.Exporter.Output.Mode = ModeDownload
				c.Exporter.Output.DownloadsDir = ""
			},
			wantErr: ErrMissingDownloadsDir,
		},
		{
			name:    "sftp host",
			mutate:  func(c *Config) { c.Exporter.Output.Mode = ModeSFTP },
			wantErr: ErrMissingSFTPHost,
		},
		{
			name:    "log level",
			mutate:  func(c *Config) { c.Exporter.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "log format",
			mutate:  func(c *Config) { c.Exporter.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
		{
			name:    "empty selector",
			mutate:  func(c *Config) { c.Exporter.Selectors.LessonItem = "" },
			wantErr: ErrEmptySelector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_EmptySelectorNamesField(t *testing.T) {
	cfg := Default()
	cfg.Exporter.Selectors.ThumbnailAnchor = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "selectors.thumbnail_anchor") {
		t.Errorf("Expected error naming selectors.thumbnail_anchor, got %v", err)
	}
}

func TestSourceConfig_IsLocalFile(t *testing.T) {
	remote := SourceConfig{URL: "https://example.com/courses/1-a/"}
	if remote.IsLocalFile() {
		t.Error("Expected remote source not to be local")
	}

	local := SourceConfig{URL: "https://example.com/courses/1-a/", File: "page.html"}
	if !local.IsLocalFile() {
		t.Error("Expected file source to be local")
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{
		InitialDelayMs:    100,
		MaxDelayMs:        1000,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 0},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1000 * time.Millisecond}, // Capped at max
		{10, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		got := rp.GetRetryDelay(tt.attempt)
		if got != tt.expected {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestRetryPolicy_GetTimeout(t *testing.T) {
	rp := RetryPolicy{TimeoutSec: 30}
	if rp.GetTimeout() != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s", rp.GetTimeout())
	}
}

func TestConfig_GetEnabledSources(t *testing.T) {
	cfg := Default()
	cfg.Exporter.Sources = []SourceConfig{
		{Name: "a", URL: "https://example.com/courses/1-a/", Enabled: true},
		{Name: "b", URL: "https://example.com/courses/2-b/", Enabled: false},
		{Name: "c", URL: "https://example.com/courses/3-c/", Enabled: true},
	}

	enabled := cfg.GetEnabledSources()
	if len(enabled) != 2 {
		t.Fatalf("Expected 2 enabled sources, got %d", len(enabled))
	}

	if enabled[0].Name != "a" || enabled[1].Name != "c" {
		t.Errorf("Unexpected enabled sources: %+v", enabled)
	}
}

func TestConfig_String(t *testing.T) {
	s := Default().String()
	if !strings.Contains(s, "Mode: folder") || !strings.Contains(s, "ReloadTimeout: 15s") {
		t.Errorf("Unexpected String(): %s", s)
	}
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := Default()
	cfg.Exporter.Sources = []SourceConfig{
		{Name: "Intro", URL: "https://example.com/courses/123-intro/", Enabled: true},
	}

	savePath := filepath.Join(t.TempDir(), "saved_config.yaml")

	if err := cfg.SaveConfig(savePath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Exporter.Sources[0].URL != "https://example.com/courses/123-intro/" {
		t.Error("Loaded config does not match saved config")
	}

	if loaded.Exporter.Selectors != cfg.Exporter.Selectors {
		t.Error("Selectors did not survive a save/load cycle")
	}
}
