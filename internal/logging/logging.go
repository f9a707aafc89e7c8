// Package logging configures log/slog for gatepass.
//
// Interactive commands draw on the terminal, so when log.file is set all
// records go to a rotated JSON file instead of stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Flyrell/gatepass/internal/config"
	"github.com/lmittmann/tint"
	"gopkg.in/lumberjack.v2"
)

// Setup installs the default logger and returns a function that flushes and
// closes the log file, if any.
func Setup(cfg config.LogConfig) func() error {
	h, closer := NewHandler(cfg, os.Stderr)
	slog.SetDefault(slog.New(h))
	slog.Debug("logger initialized", "level", cfg.Level, "file", cfg.File)
	if closer == nil {
		return func() error { return nil }
	}
	return closer.Close
}

// NewHandler builds the handler described by cfg. Without a file it writes
// colored records to console. The returned closer is nil in that case.
func NewHandler(cfg config.LogConfig, console io.Writer) (slog.Handler, io.Closer) {
	level := ParseLevel(cfg.Level)

	if cfg.File == "" {
		return tint.NewHandler(console, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  level == slog.LevelDebug,
		}), nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		LocalTime:  true,
	}
	return slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}), file
}

// ParseLevel maps debug, warn and error to their slog levels; anything else
// is info.
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
