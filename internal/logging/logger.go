// Package logging writes structured logs to .healing/logs/healing.log. The
// TUI owns stdout, so nothing is logged to the terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the logger.
type Options struct {
	Level  string
	Format string
	// Writer replaces the log file; used by tests and the headless CLI.
	Writer io.Writer
}

// Logger wraps a zerolog.Logger and the file backing it.
type Logger struct {
	file *os.File
	zl   zerolog.Logger
}

// New creates (or appends to) logsDir/healing.log.
func New(logsDir string, opts Options) (*Logger, error) {
	if opts.Writer != nil {
		return &Logger{zl: build(opts.Writer, opts)}, nil
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logsDir, "healing.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{file: f, zl: build(f, opts)}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func build(w io.Writer, opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).Level(level(opts.Level)).With().Timestamp().Logger()
}

// level parses a zerolog level name; empty or unknown names mean info.
func level(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.zl
}

// Named returns a child logger tagged with component.
func (l *Logger) Named(component string) zerolog.Logger {
	return l.Zerolog().With().Str("component", component).Logger()
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
