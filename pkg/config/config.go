package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/ratelimit"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Verify      VerifyConfig      `yaml:"verify"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Ignore      []string          `yaml:"ignore"`
	Exclude     []string          `yaml:"exclude"`
}

// VerifyConfig holds verification settings
type VerifyConfig struct {
	Samples       int  `yaml:"samples"`
	HashAll       bool `yaml:"hash_all"`
	Follow        bool `yaml:"follow"`
	OneFilesystem bool `yaml:"one_filesystem"`
	Verbosity     int  `yaml:"verbosity"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize int `yaml:"buffer_size"`
	// BandwidthLimit is a human-readable rate such as "50MB"; empty means unlimited
	BandwidthLimit string `yaml:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Progress     bool   `yaml:"progress"`      // Show a progress bar on a terminal stderr
	Report       string `yaml:"report"`        // Findings report path (empty = none)
	ReportFormat string `yaml:"report_format"` // "human" or "json"
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	File   string `yaml:"file"`   // Log file path (empty = no log)
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Verify: VerifyConfig{
			Samples:   0,
			HashAll:   false,
			Verbosity: 0,
		},
		Performance: PerformanceConfig{
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Progress:     false,
			ReportFormat: "human",
		},
		Logging: LoggingConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Verify.Samples < 0 {
		return &models.ValidationError{
			Field:   "verify.samples",
			Message: "must not be negative",
		}
	}

	if c.Verify.Verbosity < 0 || c.Verify.Verbosity > 2 {
		return &models.ValidationError{
			Field:   "verify.verbosity",
			Message: "must be between 0 and 2",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if _, err := ratelimit.ParseRate(c.Performance.BandwidthLimit); err != nil {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: err.Error(),
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.ReportFormat] {
		return &models.ValidationError{
			Field:   "output.report_format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return &models.ValidationError{
				Field:   "exclude",
				Message: "invalid glob pattern '" + pattern + "'",
			}
		}
	}

	return nil
}

// LoadFromFile reads a YAML config over the defaults.
// Unknown keys are rejected; an empty file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToFile validates cfg and writes it as YAML, creating parent directories
func SaveToFile(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// DefaultConfigPath returns ~/.config/backup-verify/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "backup-verify", "config.yaml"), nil
}

// LoadDefault loads the config at DefaultConfigPath, or the defaults when
// no file exists there
func LoadDefault() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return LoadFromFile(path)
}
