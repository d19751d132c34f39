package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/AeroNyxNetwork/nodeboard/pkg/config"
)

// Logger is the logger handle passed between packages.
type Logger = *logrus.Logger

// Fields carries structured log fields.
type Fields = logrus.Fields

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// NewLogger creates a JSON logger at the level configured by LOG_LEVEL.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithComponent creates a logger tagging every entry with a
// component field (e.g. "auth", "datafetcher", "watch").
func NewLoggerWithComponent(component string) *logrus.Logger {
	logger := NewLogger()
	logger = logger.WithField("component", component).Logger
	return logger
}

// NewCLILogger creates a logger for interactive commands: human-readable
// text when stderr is a terminal, JSON when output is redirected so it
// stays machine-parseable in pipelines and cron.
func NewCLILogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetLevel(config.GetLogLevel())
	return logger
}
