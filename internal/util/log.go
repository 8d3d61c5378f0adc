// Package util holds small process-level helpers shared by the cmds.
package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process root logger. Unknown levels fall back to
// info rather than failing startup.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// NewConsoleLogger is NewLogger with human-readable output for local runs.
func NewConsoleLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stdout}
	return zerolog.New(writer).With().Timestamp().Logger().Level(lvl)
}
