// Package config provides configuration management for the course exporter.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Output modes.
const (
	ModeFolder   = "folder"
	ModeDownload = "download"
	ModeSFTP     = "sftp"
)

// Configuration validation errors.
var (
	ErrSourceMissingURL         = errors.New("source url is required")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidReloadTimeout     = errors.New("recovery.reload_timeout_sec must be at least 1")
	ErrInvalidOutputMode        = errors.New("output.mode must be one of: folder, download, sftp")
	ErrMissingDownloadsDir      = errors.New("output.downloads_dir is required in download mode")
	ErrMissingSFTPHost          = errors.New("sftp.host and sftp.user are required in sftp mode")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
	ErrEmptySelector            = errors.New("selector must not be empty")
)

// Config represents the complete exporter configuration.
type Config struct {
	Exporter ExporterConfig `yaml:"exporter"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ExporterConfig contains exporter-specific settings.
type ExporterConfig struct {
	Output        OutputConfig        `yaml:"output"`
	Sources       []SourceConfig      `yaml:"sources"`
	Logging       LoggingConfig       `yaml:"logging"`
	SFTP          SFTPConfig          `yaml:"sftp"`
	ContentScript ContentScriptConfig `yaml:"content_script"`
	Selectors     Selectors           `yaml:"selectors"`
	Retry         RetryPolicy         `yaml:"retry"`
	Recovery      RecoveryConfig      `yaml:"recovery"`
}

// SourceConfig represents one course page to export.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	File    string `yaml:"file"`
	Enabled bool   `yaml:"enabled"`
}

// IsLocalFile returns true if the page is read from a local snapshot.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// RetryPolicy defines page fetch retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// RecoveryConfig controls how a missing listener is recovered.
type RecoveryConfig struct {
	EnableInjection  bool `yaml:"enable_injection"`
	ReloadTimeoutSec int  `yaml:"reload_timeout_sec"`
}

// ContentScriptConfig controls automatic listener registration after a page load.
type ContentScriptConfig struct {
	Match      string `yaml:"match"`
	AutoAttach bool   `yaml:"auto_attach"`
}

// OutputConfig defines where the two JSON artifacts go.
type OutputConfig struct {
	Mode         string `yaml:"mode"`
	BasePath     string `yaml:"base_path"`
	DownloadsDir string `yaml:"downloads_dir"`
	CreateBackup bool   `yaml:"create_backup"`
}

// SFTPConfig holds the remote target for sftp mode.
type SFTPConfig struct {
	Host                  string `yaml:"host"`
	User                  string `yaml:"user"`
	Pass                  string `yaml:"pass"`
	RemoteDir             string `yaml:"remote_dir"`
	KnownHosts            string `yaml:"known_hosts"`
	Port                  int    `yaml:"port"`
	InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	BufferSizeKb int `yaml:"buffer_size_kb"`
}

// Selectors addresses every DOM region the extractor reads.
type Selectors struct {
	Title             string `yaml:"title"`
	Tutor             string `yaml:"tutor"`
	TotalDuration     string `yaml:"total_duration"`
	DurationLabel     string `yaml:"duration_label"`
	Heading           string `yaml:"heading"`
	ContentWrapper    string `yaml:"content_wrapper"`
	Paragraph         string `yaml:"paragraph"`
	SectionHeader     string `yaml:"section_header"`
	SectionTitle      string `yaml:"section_title"`
	SectionDuration   string `yaml:"section_duration"`
	LessonList        string `yaml:"lesson_list"`
	LessonItem        string `yaml:"lesson_item"`
	LessonTitle       string `yaml:"lesson_title"`
	LessonDescription string `yaml:"lesson_description"`
	LessonTimeRange   string `yaml:"lesson_time_range"`
	TitleAnchor       string `yaml:"title_anchor"`
	TimestampAnchor   string `yaml:"timestamp_anchor"`
	ThumbnailAnchor   string `yaml:"thumbnail_anchor"`
}

// DefaultSelectors returns the selectors matching the course-detail page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:             "h1.course-header__title",
		Tutor:             ".course-header__tutor",
		TotalDuration:     ".course-header__duration",
		DurationLabel:     ".course-meta__item",
		Heading:           "h1, h2, h3, h4, h5, h6",
		ContentWrapper:    ".content-wrapper",
		Paragraph:         "p",
		SectionHeader:     ".course-section__header",
		SectionTitle:      ".course-section__title",
		SectionDuration:   ".course-section__duration",
		LessonList:        ".lesson-list",
		LessonItem:        ".lesson-item",
		LessonTitle:       ".lesson-item__title",
		LessonDescription: ".lesson-item__description",
		LessonTimeRange:   ".lesson-item__timestamp",
		TitleAnchor:       ".lesson-item__title a[href]",
		TimestampAnchor:   ".lesson-item__timestamp a[href]",
		ThumbnailAnchor:   ".lesson-item__thumbnail a[href]",
	}
}

// Default returns a configuration with every field populated.
func Default() *Config {
	return &Config{
		Exporter: ExporterConfig{
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
			Recovery: RecoveryConfig{
				EnableInjection:  true,
				ReloadTimeoutSec: 15,
			},
			ContentScript: ContentScriptConfig{
				Match:      "/courses/",
				AutoAttach: true,
			},
			Output: OutputConfig{
				Mode:         ModeFolder,
				DownloadsDir: "./downloads",
			},
			SFTP: SFTPConfig{
				Port:      22,
				RemoteDir: "/",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
			Selectors: DefaultSelectors(),
		},
		Advanced: AdvancedConfig{
			BufferSizeKb: 4096,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for i, src := range c.Exporter.Sources {
		// A local snapshot still needs the URL it was served from.
		if src.URL == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingURL, i)
		}
	}

	retry := c.Exporter.Retry
	if retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Exporter.Recovery.ReloadTimeoutSec < 1 {
		return ErrInvalidReloadTimeout
	}

	out := c.Exporter.Output
	switch out.Mode {
	case ModeFolder:
	case ModeDownload:
		if out.DownloadsDir == "" {
			return ErrMissingDownloadsDir
		}
	case ModeSFTP:
		if c.Exporter.SFTP.Host == "" || c.Exporter.SFTP.User == "" {
			return ErrMissingSFTPHost
		}
	default:
		return ErrInvalidOutputMode
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Exporter.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Exporter.Logging.Format != "text" && c.Exporter.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return c.Exporter.Selectors.Validate()
}

// Validate checks that no selector is blank.
func (s Selectors) Validate() error {
	fields := map[string]string{
		"title":              s.Title,
		"tutor":              s.Tutor,
		"total_duration":     s.TotalDuration,
		"duration_label":     s.DurationLabel,
		"heading":            s.Heading,
		"content_wrapper":    s.ContentWrapper,
		"paragraph":          s.Paragraph,
		"section_header":     s.SectionHeader,
		"section_title":      s.SectionTitle,
		"section_duration":   s.SectionDuration,
		"lesson_list":        s.LessonList,
		"lesson_item":        s.LessonItem,
		"lesson_title":       s.LessonTitle,
		"lesson_description": s.LessonDescription,
		"lesson_time_range":  s.LessonTimeRange,
		"title_anchor":       s.TitleAnchor,
		"timestamp_anchor":   s.TimestampAnchor,
		"thumbnail_anchor":   s.ThumbnailAnchor,
	}

	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: selectors.%s", ErrEmptySelector, name)
		}
	}

	return nil
}

// GetEnabledSources returns only enabled sources.
func (c *Config) GetEnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range c.Exporter.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetReloadTimeout returns how long a reload may take before the export gives up.
func (rc *RecoveryConfig) GetReloadTimeout() time.Duration {
	return time.Duration(rc.ReloadTimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Sources: %d, Mode: %s, Injection: %t, ReloadTimeout: %ds}",
		len(c.Exporter.Sources),
		c.Exporter.Output.Mode,
		c.Exporter.Recovery.EnableInjection,
		c.Exporter.Recovery.ReloadTimeoutSec,
	)
}
