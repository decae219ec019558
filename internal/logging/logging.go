// Package logging wraps charmbracelet/log with flashgh's defaults.
//
// Standard output belongs to the MCP JSON-RPC stream, so logs always go to
// stderr or a file. The stderr level is warn unless FLASHGH_LOG_LEVEL says
// otherwise. Setting DEBUG switches to debug level and writes to a per-run log
// file under the XDG state directory.
package logging

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

const (
	appName     = "flashgh"
	logFileName = "debug.log"

	// LevelEnv overrides the stderr log level (debug, info, warn, error).
	LevelEnv = "FLASHGH_LOG_LEVEL"
)

type AppLogger struct {
	logger *log.Logger
	debug  bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the process-wide logger, creating it on first use.
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

func Info(msg string, keyvals ...interface{}) {
	GetDefault().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	GetDefault().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	GetDefault().Error(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

func LogPerformance(operation string, start time.Time) {
	GetDefault().LogPerformance(operation, start)
}

// DebugLogPath returns where debug logs are written when DEBUG is set.
func DebugLogPath() (string, error) {
	return xdg.StateFile(appName + "/" + logFileName)
}

// NewAppLogger builds the logger described in the package comment.
func NewAppLogger() *AppLogger {
	if os.Getenv("DEBUG") != "" {
		logger, err := newDebugLogger()
		if err == nil {
			return logger
		}
		fmt.Fprintf(os.Stderr, "flashgh: debug log unavailable, using stderr: %v\n", err)
		return New(os.Stderr, log.DebugLevel)
	}
	return New(os.Stderr, levelFromEnv())
}

// New returns a logger writing timestamped entries to w at level.
func New(w io.Writer, level log.Level) *AppLogger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          appName,
	})
	logger.SetLevel(level)
	return &AppLogger{logger: logger, debug: level <= log.DebugLevel}
}

// levelFromEnv reads LevelEnv, falling back to warn for empty or unknown values.
func levelFromEnv() log.Level {
	raw := strings.TrimSpace(os.Getenv(LevelEnv))
	if raw == "" {
		return log.WarnLevel
	}
	level, err := log.ParseLevel(strings.ToLower(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "flashgh: ignoring %s=%q: %v\n", LevelEnv, raw, err)
		return log.WarnLevel
	}
	return level
}

func newDebugLogger() (*AppLogger, error) {
	logPath, err := DebugLogPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve debug log path: %w", err)
	}

	// Truncated on each run
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create debug log file: %w", err)
	}

	logger := log.NewWithOptions(logFile, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          appName,
	})
	logger.SetLevel(log.DebugLevel)
	logger.Info("Debug logging enabled", "log_file", logPath)

	return &AppLogger{logger: logger, debug: true}, nil
}

func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// With returns a logger that adds keyvals to every entry.
func (al *AppLogger) With(keyvals ...interface{}) *AppLogger {
	return &AppLogger{
		logger: al.logger.With(keyvals...),
		debug:  al.debug,
	}
}

// IsDebug reports whether debug output is enabled.
func (al *AppLogger) IsDebug() bool {
	return al.debug
}

// LogPerformance records how long operation took since start, at debug level.
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug {
		al.logger.Debug("Performance", "operation", operation, "duration", time.Since(start))
	}
}

// StandardLog bridges to the standard library logger for libraries that only
// accept *log.Logger. Entries are written at error level.
func (al *AppLogger) StandardLog() *stdlog.Logger {
	return al.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// NewTestLogger writes debug-level entries without timestamps to a buffer.
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Prefix: "test"})
	logger.SetLevel(log.DebugLevel)
	return &AppLogger{logger: logger, debug: true}, &buf
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *AppLogger {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	logger.SetLevel(log.FatalLevel)
	return &AppLogger{logger: logger}
}
