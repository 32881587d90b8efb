package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger. Development gets a debug-level
// console stream, "cli" gets a console stream on stderr for the admin
// commands, and everything else emits JSON at info level.
func NewLogger(appEnv string) zerolog.Logger {
	switch appEnv {
	case "development":
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().
			Timestamp().
			Logger()
	case "cli":
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, PartsExclude: []string{zerolog.TimestampFieldName}}).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	default:
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}
}

// Logger aliases zerolog.Logger so the rest of the tree can take a logger
// without importing the third-party module directly.
type Logger = zerolog.Logger
