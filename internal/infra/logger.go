package infra

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName returns the dated log file name for t, e.g. snipe_bot_20240131.log
func LogFileName(t time.Time) string {
	return fmt.Sprintf("snipe_bot_%s.log", t.Format("20060102"))
}

// ParseLevel maps a config level string to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new slog.Logger writing to stdout and a rotated daily file
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Logging.Level),
	}

	logDir := cfg.Logging.Dir
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback to stdout only if directory creation fails
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName(time.Now())),
		MaxSize:    10, // Megabytes
		MaxBackups: 3,
		MaxAge:     28, // Days
		Compress:   true,
	}

	writer := io.MultiWriter(os.Stdout, fileLogger)

	return slog.New(slog.NewJSONHandler(writer, opts))
}
