// Package logging sets up the structured logger written to the daily log
// file under ~/.correctme/logs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvLogFile  = "CORRECTME_LOG_FILE"
	EnvLogLevel = "CORRECTME_LOG_LEVEL"
)

// Options configures Setup.
type Options struct {
	// Path overrides the log file; empty uses EnvLogFile, then the default.
	Path string
	// Level overrides EnvLogLevel when non-empty.
	Level string
	// Debug forces debug level.
	Debug bool
	// KeepDays is the retention of rolled files.
	KeepDays int
}

// Logger is the process logger and the file it writes to.
type Logger struct {
	*slog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// DefaultPath returns ~/.correctme/logs/correctme.log.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".correctme", "logs", "correctme.log"), nil
}

// Setup opens the rolling log file and returns a JSON slog logger on top of
// it. When the file cannot be opened, logs are discarded rather than mixed
// into terminal output.
func Setup(opts Options) *Logger {
	level := ParseLevel(firstNonEmpty(opts.Level, os.Getenv(EnvLogLevel)))
	if opts.Debug {
		level = slog.LevelDebug
	}
	path := firstNonEmpty(opts.Path, strings.TrimSpace(os.Getenv(EnvLogFile)))
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return discard()
		}
		path = p
	}
	w, err := NewRollingWriter(path, opts.KeepDays)
	if err != nil {
		return discard()
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(h), Path: w.Path(), closer: w}
}

func discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
