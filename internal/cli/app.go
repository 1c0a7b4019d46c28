package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"task-tracker/internal/api"
	"task-tracker/internal/config"
	"task-tracker/internal/domain"
	"task-tracker/internal/errors"
)

// App holds what every command handler needs: the API, the resolved
// configuration and where to write output.
type App struct {
	api      api.API
	config   *config.Config
	logger   log.FieldLogger
	renderer *Renderer
}

// NewApp creates a new CLI application instance writing to stdout
func NewApp(apiInstance api.API, cfg *config.Config, logger log.FieldLogger) *App {
	return NewAppWithOutput(apiInstance, cfg, logger, os.Stdout)
}

// NewAppWithOutput creates an App writing to out
func NewAppWithOutput(apiInstance api.API, cfg *config.Config, logger log.FieldLogger, out io.Writer) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &App{
		api:      apiInstance,
		config:   cfg,
		logger:   logger,
		renderer: NewRenderer(out, cfg.Display),
	}
}

// parseTaskID parses a positive task id argument such as "12" or "#12".
func parseTaskID(arg string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidInputError("task_id", arg, "must be a positive integer")
	}
	return id, nil
}

// parseTaskIDs parses every argument as a task id. Arguments may also be
// comma separated lists.
func parseTaskIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseTaskID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseDeadline parses a YYYY-MM-DD flag value.
func parseDeadline(value string) (time.Time, error) {
	deadline, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.NewInvalidInputError("deadline", value, "expected YYYY-MM-DD")
	}
	return deadline, nil
}

// parseTimestamp accepts RFC 3339 or the configured display format, which is
// read in local time.
func (a *App) parseTimestamp(field, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(a.config.Display.TimeFormat, value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, errors.NewInvalidInputError(field, value,
		fmt.Sprintf("expected RFC 3339 or %q", a.config.Display.TimeFormat))
}

// parseStatus converts a status flag into a TaskStatus.
func parseStatus(value string) (domain.TaskStatus, error) {
	status, err := domain.ParseTaskStatus(value)
	if err != nil {
		return "", errors.NewInvalidInputError("status", value, "expected undone, done or archived")
	}
	return status, nil
}
