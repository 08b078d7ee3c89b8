// Package logging builds the process loggers from configuration. The
// analytical pipeline logs through slog; infrastructure components
// (database, persistence) use zerolog. Both share the same level, output
// and format settings.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls log level, destination and format.
type Config struct {
	Level      string // DEBUG, INFO, WARN, ERROR
	Output     string // stdout, stderr, or file path
	JSONFormat bool
}

// ParseLevel converts a level string to a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(output string) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	}
}

// NewSlog creates the slog logger used by the evaluation pipeline.
func NewSlog(cfg Config) *slog.Logger {
	w := openOutput(cfg.Output)
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// NewZerolog creates the zerolog logger used by infrastructure
// components.
func NewZerolog(cfg Config) zerolog.Logger {
	w := openOutput(cfg.Output)

	var level zerolog.Level
	switch ParseLevel(cfg.Level) {
	case slog.LevelDebug:
		level = zerolog.DebugLevel
	case slog.LevelWarn:
		level = zerolog.WarnLevel
	case slog.LevelError:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	if !cfg.JSONFormat {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
