package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
	path   string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// WithFile makes the loader read path instead of the default file location.
func (l *Loader) WithFile(path string) *Loader {
	l.path = path
	return l
}

// FilePath returns the configuration file location: TK_CONFIG when set,
// otherwise ~/.tk/config.yaml.
func FilePath() string {
	if path := os.Getenv("TK_CONFIG"); path != "" {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tk", "config.yaml")
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the YAML file, when one exists
// 3. Override with environment variables
// 4. Override with command line flags (see LoadWithOverrides)
func (l *Loader) Load() (*Config, error) {
	path := l.path
	explicit := path != ""
	if !explicit {
		path = FilePath()
	}
	if err := l.config.LoadFromFile(path); err != nil {
		// A missing default file is fine; a missing explicit one is not.
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// LoadFromFile merges the YAML document at path into c. Keys that are absent
// keep their current values; unknown keys are an error.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigError{Field: path, Message: err.Error()}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	// Load base configuration
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	// Apply command line overrides
	if overrides != nil {
		l.applyOverrides(config, overrides)
	}

	// Re-validate after applying overrides
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	// DBPath replaces both the database directory and file name.
	DBPath *string

	Output    *string
	Color     *bool
	LogLevel  *string
	LogFormat *string
	Timeout   *time.Duration
	Verbose   *bool
}

// applyOverrides applies command line overrides to the configuration
func (l *Loader) applyOverrides(config *Config, overrides *ConfigOverrides) {
	if overrides.DBPath != nil {
		config.Database.Dir = filepath.Dir(*overrides.DBPath)
		config.Database.Filename = filepath.Base(*overrides.DBPath)
	}
	if overrides.Output != nil {
		config.Display.Output = *overrides.Output
	}
	if overrides.Color != nil {
		config.Display.Color = *overrides.Color
	}
	if overrides.LogLevel != nil {
		config.Logging.Level = *overrides.LogLevel
	}
	if overrides.LogFormat != nil {
		config.Logging.Format = *overrides.LogFormat
	}
	if overrides.Timeout != nil {
		config.Application.Timeout = *overrides.Timeout
	}
	if overrides.Verbose != nil {
		config.Application.Verbose = *overrides.Verbose
		// Verbose output includes debug logging unless a level was given.
		if *overrides.Verbose && overrides.LogLevel == nil {
			config.Logging.Level = "debug"
		}
	}
}

// ParseDurationWithFallback parses a duration string with a fallback value
func ParseDurationWithFallback(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}
