// Package logging builds the operator logger used outside the execution
// log: input device problems, config reloads, the OAuth flow.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const (
	KeySession  = "session"
	KeyFunction = "function"
	KeyError    = "error"
	KeyKey      = "key"
)

// Config describes the logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format Format
	File   string // empty means Output

	// Output is used when File is empty. Nil means os.Stderr.
	Output io.Writer
}

// DefaultConfig returns info-level text output on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a logger from cfg. The returned closer releases the log file,
// if any, and is never nil.
func New(cfg Config) (*slog.Logger, func() error, error) {
	out := cfg.Output
	closer := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f.Close
	}
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Session returns the session id attribute.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Function returns the instrumented function attribute.
func Function(name string) slog.Attr {
	return slog.String(KeyFunction, name)
}

// Key returns a config key attribute.
func Key(key string) slog.Attr {
	return slog.String(KeyKey, key)
}

// Err returns the error attribute. A nil err yields an empty group that
// slog omits.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// WithComponent tags every record of logger with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}
