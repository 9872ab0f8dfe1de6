// Package log configures the process-wide structured logger.
package log

import (
	"io"
	"log/slog"
	"os"
)

// New builds a text-handler logger writing to w. Level names follow slog
// (debug, info, warn, error, case-insensitive); unknown names fall back to
// info.
func New(w io.Writer, levelName string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs a stderr logger as the slog default.
func Setup(levelName string) {
	slog.SetDefault(New(os.Stderr, levelName))
}

// WithModule tags the default logger with the component name carried on
// every record.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
