// Package logging configures logrus from the log section of the config.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"gamesniff/internal/config"
)

// New builds a logger. Output goes to console (when non-nil) and, when a
// file path is configured, to a rotated log file. The TUI passes a nil
// console because it owns the terminal.
func New(cfg config.LogConfig, console io.Writer) (*logrus.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: console == nil})
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}
	if cfg.File.Path != "" {
		writers = append(writers, fileWriter(cfg.File))
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
	return logger, nil
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown level: %s", level)
	}
}

// fileWriter creates a lumberjack file writer for log rotation.
func fileWriter(fc config.LogFileConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}
}
