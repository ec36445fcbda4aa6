// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// File, when set, additionally writes JSON logs to a rotated file.
	File string

	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Pretty:     false,
		Output:     os.Stderr,
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// fileWriter is the rotating writer installed by the last Setup call.
var fileWriter *lumberjack.Logger

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	Close()
	if cfg.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		output = zerolog.MultiLevelWriter(output, fileWriter)
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// Close closes the log file opened by Setup, if any.
func Close() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// ParseLevel converts a level name from configuration into a LogLevel.
// Unknown names map to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch parseLevel(LogLevel(s)) {
	case zerolog.DebugLevel:
		return LevelDebug
	case zerolog.WarnLevel:
		return LevelWarn
	case zerolog.ErrorLevel:
		return LevelError
	default:
		return LevelInfo
	}
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual page fetches (offset, limit, total_count)
//   - Join settlement
//   - Annotation id collisions
//
// Info: Normal operation events
//   - Completed paginated and aggregate fetches
//   - Login success
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Failed page or preview requests (surfaced to the caller)
//   - Duplicate completions of callback operations
//
// Error: Error conditions requiring attention
//   - Network failures
//   - Store unavailability
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - contract_id: Seal contract id
//   - endpoint: preview, metadata, nonce, auths
//   - status: HTTP status code
//   - error_class: client, server, network, decode
//   - offset, limit, total_count: pagination state
//   - request_id: X-Request-Id sent with the request
//   - duration: operation duration
