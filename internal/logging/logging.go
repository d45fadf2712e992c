// Package logging builds the process logger from a level name.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Levels accepted by --log, lowest first.
var Levels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// DefaultLevel is used when neither flag nor config set one.
const DefaultLevel = "WARN"

// ParseLevel maps DEBUG, INFO, WARN (or WARNING) and ERROR, in any case, to a
// slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (want one of %s)", name, strings.Join(Levels, ", "))
}

// New returns a text logger writing to w at the given minimum level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
