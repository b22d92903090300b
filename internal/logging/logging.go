// Package logging sets up the zerolog logger from the config file.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/s0up4200/btmanager-go/internal/config"
)

// Setup configures the global logger writing to stdout
func Setup(cfg config.LoggingConfig, debug bool) zerolog.Logger {
	return New(os.Stdout, cfg, debug)
}

// New builds a logger writing to out, sets the global level and replaces
// log.Logger. debug overrides the configured level.
func New(out io.Writer, cfg config.LoggingConfig, debug bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
