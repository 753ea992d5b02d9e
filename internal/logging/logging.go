// Package logging builds the application's structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		lvl, err = log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "focusplan",
	}), nil
}

// OpenFile opens path for appending, creating parent directories, and
// returns a logger writing to it. The caller closes the file.
func OpenFile(path, level string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	l, err := New(f, level)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, f, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
