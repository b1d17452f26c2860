// Copyright Marco Kaiser, 2025. All rights reserved.

// Package logging constructs the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// New builds a logger from cfg. Unknown levels fall back to info;
// unknown formats fall back to JSON. Logs go to stderr so command
// output on stdout stays machine-readable.
func New(cfg types.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if strings.ToLower(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
