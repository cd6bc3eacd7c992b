package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
)

// newLogger builds the process logger: a console writer when pretty output
// is requested, JSON lines otherwise.
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "user-server").
		Logger()
}
