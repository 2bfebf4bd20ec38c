// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer SeasonflowLogger with contextual
// helpers (session, component) and domain specific logging helpers for stage
// calls, model fits and allocations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface used across seasonflow.
// This allows users to provide their own logger implementation or use the
// built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// SeasonflowLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It is cheap to copy via With* methods.
type SeasonflowLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	sessionID string
}

// LoggerConfig configures construction of a SeasonflowLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	SessionID string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: false}
}

// NewLogger builds a SeasonflowLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *SeasonflowLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &SeasonflowLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component, sessionID: cfg.SessionID}
}

// NewSlogLogger creates a SeasonflowLogger with the specified level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) *SeasonflowLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent sets the logical component (forecast, handoff, workflow, ...).
func (l *SeasonflowLogger) WithComponent(c string) *SeasonflowLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithSession attaches a session identifier.
func (l *SeasonflowLogger) WithSession(sid string) *SeasonflowLogger {
	nl := *l
	nl.sessionID = sid
	return &nl
}

func (l *SeasonflowLogger) buildAttrs(extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	return append(attrs, extra...)
}

func (l *SeasonflowLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.buildAttrs()...)
}

// Debug logs at debug level.
func (l *SeasonflowLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *SeasonflowLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *SeasonflowLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *SeasonflowLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogStageCall records execution details for a stage invocation.
func (l *SeasonflowLogger) LogStageCall(stage string, dur time.Duration, status string, err error) {
	attrs := l.buildAttrs(slog.String("stage", stage), slog.Duration("duration", dur), slog.String("status", status))
	level := slog.LevelInfo
	msg := "Stage execution completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "Stage execution failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogModelFit records a forecasting sub-model fit outcome.
func (l *SeasonflowLogger) LogModelFit(model string, dur time.Duration, success bool, err error) {
	attrs := l.buildAttrs(slog.String("model", model), slog.Duration("duration", dur), slog.Bool("success", success))
	level := slog.LevelInfo
	msg := "Model fit completed"
	if !success {
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		level = slog.LevelWarn
		msg = "Model fit failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogAllocation records aggregate allocation metrics.
func (l *SeasonflowLogger) LogAllocation(total, holdback, entities int, dur time.Duration) {
	attrs := l.buildAttrs(
		slog.Int("manufacturing_qty", total),
		slog.Int("dc_holdback_units", holdback),
		slog.Int("entity_count", entities),
		slog.Duration("duration", dur),
	)
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Allocation completed", attrs...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
