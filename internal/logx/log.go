// Package logx is the engine's structured logger, a thin zerolog wrapper
// in the spirit of the wider corpus's ambient logging packages.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// Config controls global logger initialization.
type Config struct {
	Debug      bool
	JSONOutput bool
	Output     io.Writer
}

// Init (re)configures the package-level logger. Call once at process start;
// safe to call again in tests with a buffer as Output.
func Init(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.JSONOutput {
		logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// L returns the package-level logger.
func L() *zerolog.Logger { return &logger }

// WithStore returns a child logger scoped to one store root, for
// distinguishing concurrent-process log lines when several stores are open.
func WithStore(root string) zerolog.Logger {
	return logger.With().Str("store", root).Logger()
}

// WithRoot returns a child logger scoped to one root ID.
func WithRoot(id string) zerolog.Logger {
	return logger.With().Str("root_id", id).Logger()
}
