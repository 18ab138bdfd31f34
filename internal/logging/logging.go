// Package logging provides structured logging for rollcheck using zerolog.
// Terminals get human-readable console output; everything else gets JSON.
//
// Example usage:
//
//	log := logging.FromContext(ctx)
//	log.Info().Str("kind", "argus").Int("units", 12).Msg("normalized rent roll")
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level to output (debug, info, warn, error, off).
	Level string

	// Format is auto, json or console.
	Format string

	// Output defaults to stderr.
	Output io.Writer

	// NoColor disables color in console mode.
	NoColor bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  os.Stderr,
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

var (
	mu            sync.RWMutex
	defaultLogger = NewLogger(DefaultConfig())
)

// Nop discards everything.
var Nop = zerolog.Nop()

// NewLogger creates a logger from configuration.
func NewLogger(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level := ParseLevel(cfg.Level)
	logger := zerolog.New(writer(out, cfg)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func writer(out io.Writer, cfg *Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		}
	}
	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}
	return out
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := defaultLogger
	return &l
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Configure builds a logger from cfg and makes it the default.
func Configure(cfg *Config) zerolog.Logger {
	logger := NewLogger(cfg)
	SetDefault(logger)
	return logger
}

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// With returns ctx carrying the context logger extended with one string field.
func With(ctx context.Context, key, value string) context.Context {
	l := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &l)
}
