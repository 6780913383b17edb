// Package applog initialises the global slog logger for the application.
// Call Init once at startup; all other packages use log/slog directly.
package applog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

var debugMode bool

// Init sets up the global slog logger on top of a charmbracelet/log handler.
// Output goes to stderr and to an append-only file in the temp directory.
// debug forces the Debug level; otherwise level ("debug", "info", "warn",
// "error") applies, defaulting to Info.
func Init(level string, debug bool) *slog.Logger {
	debugMode = debug

	writers := []io.Writer{os.Stderr}
	if f, err := os.OpenFile(LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		writers = append(writers, f)
	}

	logger := New(io.MultiWriter(writers...), level, debug)
	slog.SetDefault(logger)
	return logger
}

// New builds a slog logger writing to w without touching the default.
func New(w io.Writer, level string, debug bool) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:           parseLevel(level, debug),
		ReportTimestamp: true,
		Prefix:          "hhreplay",
	})
	return slog.New(handler)
}

func parseLevel(level string, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// IsDebug reports whether debug mode is active.
func IsDebug() bool {
	return debugMode
}

// LogPath is the file every Init call appends to.
func LogPath() string {
	return filepath.Join(os.TempDir(), "hhreplay.log")
}
