// Package common provides shared utilities for Pagoda
package common

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/phuslu/log"
)

// Logger wraps phuslu/log.Logger to provide a consistent interface
type Logger struct {
	log.Logger
}

func parseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLogger creates a new console logger with the specified level
func NewLogger(level string) *Logger {
	return &Logger{Logger: log.Logger{
		Level:      parseLevel(level),
		TimeFormat: time.RFC3339,
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}}
}

// NewLoggerWithOutput creates a JSON logger writing to a specific output
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	return &Logger{Logger: log.Logger{
		Level:      parseLevel(level),
		TimeFormat: time.RFC3339,
		Writer:     &log.IOWriter{Writer: w},
	}}
}

// NewLoggerFromConfig builds a logger from the logging section. The
// "console" output writes to stderr, "file" writes a rotating log file.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var writers []io.Writer
	for _, out := range cfg.Outputs {
		switch out {
		case "console":
			writers = append(writers, os.Stderr)
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			_ = os.MkdirAll(filepath.Dir(cfg.FilePath), 0755)
			writers = append(writers, &log.FileWriter{
				Filename:   cfg.FilePath,
				MaxSize:    int64(cfg.MaxSizeMB) << 20,
				MaxBackups: cfg.MaxBackups,
				LocalTime:  true,
			})
		}
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	// Console formatting only makes sense when stderr is the sole sink.
	if cfg.Format != "json" && len(writers) == 1 && writers[0] == io.Writer(os.Stderr) {
		return NewLogger(cfg.Level)
	}
	return NewLoggerWithOutput(cfg.Level, io.MultiWriter(writers...))
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	return &Logger{Logger: log.Logger{
		Level:  log.ErrorLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}}
}
