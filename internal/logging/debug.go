package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Options describes how to build a logger.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a logger writing to opts.Output (stderr when nil). TK_DEBUG
// forces the debug level whatever opts.Level says.
func New(opts Options) (*log.Logger, error) {
	logger := log.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := log.WarnLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if DebugEnabled() {
		level = log.DebugLevel
	}
	logger.SetLevel(level)

	return logger, nil
}

// DebugEnabled returns true if debug mode is enabled via TK_DEBUG environment variable
func DebugEnabled() bool {
	return os.Getenv("TK_DEBUG") != ""
}
