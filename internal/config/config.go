package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/gostt-wer/internal/wer"
)

// Config holds all application configuration.
type Config struct {
	Normalize       bool          `yaml:"normalize"`        // false = raw whitespace split
	StripTimestamps bool          `yaml:"strip_timestamps"` // drop "[start - end]" line prefixes; normalized mode only
	Precision       int           `yaml:"precision"`        // significant digits in text output
	Batch           BatchConfig   `yaml:"batch"`
	Metrics         MetricsConfig `yaml:"metrics"`
	LogLevel        string        `yaml:"log_level"`
}

// BatchConfig holds manifest scoring settings.
type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 = GOMAXPROCS
}

// MetricsConfig holds Prometheus export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path, empty disables
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gostt-wer")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Normalize: true,
		Precision: wer.DefaultPrecision,
		LogLevel:  "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in metrics.textfile is expanded to the user's
// home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Metrics.Textfile = expandTilde(cfg.Metrics.Textfile)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Precision < 1 || c.Precision > 17 {
		return fmt.Errorf("precision must be between 1 and 17, got %d", c.Precision)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must be >= 0, got %d", c.Batch.Workers)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Mode returns the tokenization mode selected by Normalize.
func (c *Config) Mode() wer.Mode {
	if c.Normalize {
		return wer.Normalized
	}
	return wer.Raw
}

// ParseLogLevel maps a log_level string to a slog level. Unknown values
// map to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const header = `# gostt-wer configuration
# normalize: lowercase and strip punctuation before comparing (false = raw words)
# strip_timestamps: ignore srt2txt "[start - end]" prefixes when normalizing
# precision: significant digits printed for WER values
`

// WriteDefault writes the default config to DefaultConfigPath. If a file
// already exists it is left untouched and ("", nil) is returned.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
