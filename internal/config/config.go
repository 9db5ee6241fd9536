// Package config handles reading and writing the cargo-sleek configuration
// file (~/.cargo-sleek/config.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Defaults applied when a key is unset.
const (
	DefaultTool          = "cargo"
	DefaultTargetDir     = "target"
	DefaultStoreMode     = "file"
	DefaultKeyMode       = "command"
	DefaultAnalyzer      = "line"
	DefaultLogLevel      = "warn"
	defaultReportName    = "cargo-sleek-timings.txt"
	defaultStatsFileName = "stats.json"
	defaultSQLiteName    = "stats.db"
)

// Config holds cargo-sleek configuration settings.
type Config struct {
	StatsPath     string `toml:"stats_path,omitempty" json:"stats_path,omitempty"`
	StoreMode     string `toml:"store_mode,omitempty" json:"store_mode,omitempty"`
	KeyMode       string `toml:"key_mode,omitempty" json:"key_mode,omitempty"`
	Tool          string `toml:"tool,omitempty" json:"tool,omitempty"`
	TargetDir     string `toml:"target_dir,omitempty" json:"target_dir,omitempty"`
	ReportPath    string `toml:"report_path,omitempty" json:"report_path,omitempty"`
	Analyzer      string `toml:"analyzer,omitempty" json:"analyzer,omitempty"`
	DefaultFormat string `toml:"default_format,omitempty" json:"default_format,omitempty"`
	LogLevel      string `toml:"log_level,omitempty" json:"log_level,omitempty"`
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"stats_path":     true,
	"store_mode":     true,
	"key_mode":       true,
	"tool":           true,
	"target_dir":     true,
	"report_path":    true,
	"analyzer":       true,
	"default_format": true,
	"log_level":      true,
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	return []string{"analyzer", "default_format", "key_mode", "log_level", "report_path", "stats_path", "store_mode", "target_dir", "tool"}
}

// Dir returns the cargo-sleek data directory (~/.cargo-sleek).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cargo-sleek"
	}
	return filepath.Join(home, ".cargo-sleek")
}

// Path returns the default config file path (~/.cargo-sleek/config.toml).
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// LoadFrom reads the config from a specific path. Returns an empty Config if
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// SaveTo writes the config to a specific path, creating parent directories as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ResolvedStatsPath returns the statistics location for the configured store
// mode: stats_path when set, otherwise stats.json or stats.db under Dir().
func (c *Config) ResolvedStatsPath() string {
	if c.StatsPath != "" {
		return c.StatsPath
	}
	if c.ResolvedStoreMode() == "sqlite" {
		return filepath.Join(Dir(), defaultSQLiteName)
	}
	return filepath.Join(Dir(), defaultStatsFileName)
}

// ResolvedStoreMode returns store_mode or its default.
func (c *Config) ResolvedStoreMode() string {
	return orDefault(c.StoreMode, DefaultStoreMode)
}

// ResolvedKeyMode returns key_mode or its default.
func (c *Config) ResolvedKeyMode() string {
	return orDefault(c.KeyMode, DefaultKeyMode)
}

// ResolvedTool returns the build tool executable name or path.
func (c *Config) ResolvedTool() string {
	return orDefault(c.Tool, DefaultTool)
}

// ResolvedTargetDir returns target_dir or its default.
func (c *Config) ResolvedTargetDir() string {
	return orDefault(c.TargetDir, DefaultTargetDir)
}

// ResolvedReportPath returns report_path, defaulting to a file inside the
// target directory.
func (c *Config) ResolvedReportPath() string {
	if c.ReportPath != "" {
		return c.ReportPath
	}
	return filepath.Join(c.ResolvedTargetDir(), defaultReportName)
}

// ResolvedAnalyzer returns analyzer or its default.
func (c *Config) ResolvedAnalyzer() string {
	return orDefault(c.Analyzer, DefaultAnalyzer)
}

// ResolvedLogLevel returns log_level or its default.
func (c *Config) ResolvedLogLevel() string {
	return orDefault(c.LogLevel, DefaultLogLevel)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "stats_path":
		return c.StatsPath, nil
	case "store_mode":
		return c.StoreMode, nil
	case "key_mode":
		return c.KeyMode, nil
	case "tool":
		return c.Tool, nil
	case "target_dir":
		return c.TargetDir, nil
	case "report_path":
		return c.ReportPath, nil
	case "analyzer":
		return c.Analyzer, nil
	case "default_format":
		return c.DefaultFormat, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "stats_path":
		c.StatsPath = value
	case "store_mode":
		if value != "" && value != "file" && value != "sqlite" {
			return fmt.Errorf("store_mode must be \"file\" or \"sqlite\", got %q", value)
		}
		c.StoreMode = value
	case "key_mode":
		if value != "" && value != "command" && value != "full" {
			return fmt.Errorf("key_mode must be \"command\" or \"full\", got %q", value)
		}
		c.KeyMode = value
	case "tool":
		c.Tool = value
	case "target_dir":
		c.TargetDir = value
	case "report_path":
		c.ReportPath = value
	case "analyzer":
		if value != "" && value != "line" && value != "toml" {
			return fmt.Errorf("analyzer must be \"line\" or \"toml\", got %q", value)
		}
		c.Analyzer = value
	case "default_format":
		if value != "" && value != "table" && value != "json" {
			return fmt.Errorf("default_format must be \"table\" or \"json\", got %q", value)
		}
		c.DefaultFormat = value
	case "log_level":
		switch value {
		case "", "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", value)
		}
		c.LogLevel = value
	}
	return nil
}
