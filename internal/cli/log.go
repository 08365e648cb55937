package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// newSlogLogger returns an slog.Logger backed by a charmbracelet logger.
// verbose forces debug level regardless of levelName.
func newSlogLogger(w io.Writer, levelName string, verbose bool) (*slog.Logger, error) {
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	if verbose {
		level = log.DebugLevel
	}
	return slog.New(newLogger(w, level)), nil
}

// discardLogger is used when a command runs without the root pre-run.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
