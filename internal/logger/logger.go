// Package logger provides structured logging functionality
package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger for application-wide logging
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// New creates a new structured logger
func New(cfg Config) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithComponent returns a logger with a component attribute
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With("component", component),
	}
}

// WithLibrary returns a logger with library context attributes
func (l *Logger) WithLibrary(libraryID, path string) *Logger {
	return &Logger{
		Logger: l.With("library_id", libraryID, "library_path", path),
	}
}

// WithMix returns a logger with mix context attributes
func (l *Logger) WithMix(mixID, mixName string) *Logger {
	return &Logger{
		Logger: l.With("mix_id", mixID, "mix_name", mixName),
	}
}

// WithClip returns a logger with a clip id attribute
func (l *Logger) WithClip(clipID string) *Logger {
	return &Logger{
		Logger: l.With("clip_id", clipID),
	}
}

// Default returns a default logger for quick usage
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "text",
	})
}
