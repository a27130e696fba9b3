// Package logging provides the structured logger used across the service.
//
// Records are emitted as JSON on stderr. Every logger carries the name of the
// component that created it so log lines can be filtered per subsystem.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Fields holds structured key/value pairs attached to a log record.
type Fields map[string]interface{}

var (
	mu      sync.RWMutex
	level   = new(slog.LevelVar)
	output  io.Writer = os.Stderr
	root    *slog.Logger
	exitFun = os.Exit
)

func init() {
	level.Set(parseLevel(os.Getenv("LOG_LEVEL")))
	root = newRoot(output)
}

func newRoot(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetOutput redirects all loggers to w. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	root = newRoot(w)
}

// SetLevel changes the minimum level for all loggers ("debug", "info", "warn", "error").
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

func base() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// LoggerV2 is a component-scoped structured logger.
type LoggerV2 struct {
	component string
}

// NewLoggerV2 creates a logger tagged with the given component name.
func NewLoggerV2(component string) *LoggerV2 {
	return &LoggerV2{component: component}
}

// Component returns the component name the logger was created with.
func (l *LoggerV2) Component() string {
	return l.component
}

func (l *LoggerV2) log(lvl slog.Level, msg string, fields []Fields) {
	attrs := make([]any, 0, 2+len(fields)*4)
	attrs = append(attrs, slog.String("component", l.component))
	for _, f := range fields {
		for k, v := range f {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	base().Log(context.Background(), lvl, msg, attrs...)
}

// Debug logs at debug level.
func (l *LoggerV2) Debug(msg string, fields ...Fields) {
	l.log(slog.LevelDebug, msg, fields)
}

// Info logs at info level.
func (l *LoggerV2) Info(msg string, fields ...Fields) {
	l.log(slog.LevelInfo, msg, fields)
}

// Warn logs at warn level.
func (l *LoggerV2) Warn(msg string, fields ...Fields) {
	l.log(slog.LevelWarn, msg, fields)
}

// Error logs at error level.
func (l *LoggerV2) Error(msg string, fields ...Fields) {
	l.log(slog.LevelError, msg, fields)
}

// Fatal logs at error level and terminates the process.
func (l *LoggerV2) Fatal(msg string, fields ...Fields) {
	l.log(slog.LevelError, msg, fields)
	exitFun(1)
}

var defaultLogger = NewLoggerV2("app")

// Info logs through the default logger.
func Info(msg string, fields ...Fields) {
	defaultLogger.Info(msg, fields...)
}

// Infof logs a formatted message through the default logger.
func Infof(format string, args ...interface{}) {
	defaultLogger.Info(fmt.Sprintf(format, args...))
}
