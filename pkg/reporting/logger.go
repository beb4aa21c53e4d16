package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// Logger provides structured logging for a run, scoped by run ID, rank, and
// session phase rather than the free-form fields a generic wrapper would
// otherwise require at every call site.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var output io.Writer = cfg.Output
	if cfg.Format == LogFormatText {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	zlog := zerolog.New(output).With().Timestamp().Logger()

	switch cfg.Level {
	case LogLevelDebug:
		zlog = zlog.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		zlog = zlog.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		zlog = zlog.Level(zerolog.WarnLevel)
	case LogLevelError:
		zlog = zlog.Level(zerolog.ErrorLevel)
	default:
		zlog = zlog.Level(zerolog.InfoLevel)
	}

	return &Logger{logger: zlog}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) {
	event := l.logger.Debug()
	l.addFields(event, fields...)
	event.Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) {
	event := l.logger.Info()
	l.addFields(event, fields...)
	event.Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) {
	event := l.logger.Warn()
	l.addFields(event, fields...)
	event.Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) {
	event := l.logger.Error()
	l.addFields(event, fields...)
	event.Msg(msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...interface{}) {
	event := l.logger.Fatal()
	l.addFields(event, fields...)
	event.Msg(msg)
}

// WithField creates a child logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

// WithFields creates a child logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{
		logger: ctx.Logger(),
	}
}

// WithRun creates a child logger scoped to one run ID, the identifier
// cmd/laik mints per invocation and reporting.ConvertSessionResult stamps
// onto every RunReport.
func (l *Logger) WithRun(runID string) *Logger {
	return l.WithField("run_id", runID)
}

// WithRank creates a child logger scoped to one rank of the group.
func (l *Logger) WithRank(rank int) *Logger {
	return l.WithField("rank", rank)
}

// WithPhase creates a child logger scoped to one session phase (the
// PARSE/BUILD/.../REPORT names session.Phase.String() produces).
func (l *Logger) WithPhase(phase string) *Logger {
	return l.WithField("phase", phase)
}

// PhaseTransition logs a rank entering a new session phase at debug level,
// the granularity --verbose is meant to surface.
func (l *Logger) PhaseTransition(rank int, phase string) {
	l.WithRank(rank).WithPhase(phase).Debug("phase entered")
}

// addFields adds key-value pairs to a log event
func (l *Logger) addFields(event *zerolog.Event, fields ...interface{}) {
	if len(fields)%2 != 0 {
		event.Str("error", "odd number of fields")
		return
	}

	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			event.Str("error", fmt.Sprintf("field key at index %d is not a string", i))
			continue
		}

		value := fields[i+1]
		event.Interface(key, value)
	}
}

// GetZerologLogger returns the underlying zerolog logger
func (l *Logger) GetZerologLogger() zerolog.Logger {
	return l.logger
}
