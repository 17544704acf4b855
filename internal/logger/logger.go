// File: internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Creates the application logger writing to stderr so stdout stays reserved for command output
func NewLogger(debug bool) *slog.Logger {
	return New(os.Stderr, debug)
}

func New(w io.Writer, debug bool) *slog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: debug,
		Prefix:          "terrable",
	})

	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger
}
