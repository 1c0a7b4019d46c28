package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration options for the task tracker application
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Validation  ValidationConfig  `yaml:"validation"`
	Display     DisplayConfig     `yaml:"display"`
	History     HistoryConfig     `yaml:"history"`
	Logging     LoggingConfig     `yaml:"logging"`
	Application ApplicationConfig `yaml:"application"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Dir            string `yaml:"dir" env:"TK_DB_DIR"`
	Filename       string `yaml:"filename" env:"TK_DB_FILENAME"`
	DirPermissions uint32 `yaml:"dir_permissions" env:"TK_DB_DIR_PERMISSIONS"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	TitleMaxLength    int `yaml:"title_max_length" env:"TK_VALIDATION_TITLE_MAX"`
	InfoMaxLength     int `yaml:"info_max_length" env:"TK_VALIDATION_INFO_MAX"`
	CategoryMaxLength int `yaml:"category_max_length" env:"TK_VALIDATION_CATEGORY_MAX"`
}

// DisplayConfig holds display formatting configuration
type DisplayConfig struct {
	TimeFormat string `yaml:"time_format" env:"TK_DISPLAY_TIME_FORMAT"`
	Output     string `yaml:"output" env:"TK_OUTPUT"`
	Color      bool   `yaml:"color" env:"TK_DISPLAY_COLOR"`
}

// HistoryConfig holds action history defaults
type HistoryConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"TK_HISTORY_LIMIT"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"TK_LOG_LEVEL"`
	Format string `yaml:"format" env:"TK_LOG_FORMAT"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TK_APP_TIMEOUT"`
	Verbose bool          `yaml:"verbose" env:"TK_APP_VERBOSE"`
}

// Output formats accepted by Display.Output.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".tk")

	return &Config{
		Database: DatabaseConfig{
			Dir:            defaultDBDir,
			Filename:       "tk.db",
			DirPermissions: 0755,
		},
		Validation: ValidationConfig{
			TitleMaxLength:    1000,
			InfoMaxLength:     10000,
			CategoryMaxLength: 200,
		},
		Display: DisplayConfig{
			TimeFormat: "2006-01-02 15:04",
			Output:     OutputText,
			Color:      true,
		},
		History: HistoryConfig{
			DefaultLimit: 20,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Application: ApplicationConfig{
			Timeout: 60 * time.Second,
			Verbose: false,
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("TK_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TK_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if perms := os.Getenv("TK_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}

	// Validation configuration
	if n := os.Getenv("TK_VALIDATION_TITLE_MAX"); n != "" {
		c.Validation.TitleMaxLength = ParseIntWithFallback(n, c.Validation.TitleMaxLength)
	}
	if n := os.Getenv("TK_VALIDATION_INFO_MAX"); n != "" {
		c.Validation.InfoMaxLength = ParseIntWithFallback(n, c.Validation.InfoMaxLength)
	}
	if n := os.Getenv("TK_VALIDATION_CATEGORY_MAX"); n != "" {
		c.Validation.CategoryMaxLength = ParseIntWithFallback(n, c.Validation.CategoryMaxLength)
	}

	// Display configuration
	if format := os.Getenv("TK_DISPLAY_TIME_FORMAT"); format != "" {
		c.Display.TimeFormat = format
	}
	if output := os.Getenv("TK_OUTPUT"); output != "" {
		c.Display.Output = output
	}
	if color := os.Getenv("TK_DISPLAY_COLOR"); color != "" {
		c.Display.Color = ParseBoolWithFallback(color, c.Display.Color)
	}
	// NO_COLOR disables styling regardless of the setting above.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Display.Color = false
	}

	// History configuration
	if limit := os.Getenv("TK_HISTORY_LIMIT"); limit != "" {
		c.History.DefaultLimit = ParseIntWithFallback(limit, c.History.DefaultLimit)
	}

	// Logging configuration
	if level := os.Getenv("TK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("TK_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	// Application configuration
	if timeout := os.Getenv("TK_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if verbose := os.Getenv("TK_APP_VERBOSE"); verbose != "" {
		if b, err := strconv.ParseBool(verbose); err == nil {
			c.Application.Verbose = b
		}
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate database configuration
	if c.Database.Dir == "" {
		return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
	}
	if c.Database.Filename == "" {
		return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
	}

	// Validate validation configuration
	if c.Validation.TitleMaxLength < 1 {
		return &ConfigError{Field: "validation.title_max_length", Message: "title maximum length must be at least 1"}
	}
	if c.Validation.InfoMaxLength < 1 {
		return &ConfigError{Field: "validation.info_max_length", Message: "info maximum length must be at least 1"}
	}
	if c.Validation.CategoryMaxLength < 1 {
		return &ConfigError{Field: "validation.category_max_length", Message: "category maximum length must be at least 1"}
	}

	// Validate display configuration
	if c.Display.TimeFormat == "" {
		return &ConfigError{Field: "display.time_format", Message: "time format cannot be empty"}
	}
	if c.Display.Output != OutputText && c.Display.Output != OutputJSON {
		return &ConfigError{Field: "display.output", Message: "output must be text or json"}
	}

	// Validate history configuration
	if c.History.DefaultLimit < 0 {
		return &ConfigError{Field: "history.default_limit", Message: "default limit cannot be negative"}
	}

	// Validate logging configuration
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return &ConfigError{Field: "logging.level", Message: "unknown log level " + strconv.Quote(c.Logging.Level)}
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return &ConfigError{Field: "logging.format", Message: "log format must be text or json"}
	}

	// Validate application configuration
	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
