package cli

import (
	"fmt"

	"task-tracker/internal/config"
)

// ConfigCommand prints the resolved configuration
type ConfigCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewConfigCommand creates a new config command handler
func NewConfigCommand(app *App) *ConfigCommand {
	return &ConfigCommand{
		app:          app,
		errorHandler: NewErrorHandler(app.logger),
	}
}

// Show prints the merged configuration as YAML
func (c *ConfigCommand) Show() error {
	data, err := c.app.config.Marshal()
	if err != nil {
		return c.errorHandler.Handle("show config", fmt.Errorf("failed to marshal config: %w", err))
	}
	if err := c.app.renderer.Raw([]byte("# Merged configuration (defaults, file, environment, flags)\n")); err != nil {
		return err
	}
	return c.app.renderer.Raw(data)
}

// Path prints where the configuration file and the database live
func (c *ConfigCommand) Path(configPath string) error {
	if configPath == "" {
		configPath = config.FilePath()
	}
	return c.app.renderer.Raw([]byte(fmt.Sprintf("config:   %s\ndatabase: %s\n",
		configPath, c.app.config.GetDatabasePath())))
}
