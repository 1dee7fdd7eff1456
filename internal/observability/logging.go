// Package observability provides the structured logger used by the
// ambient cmd/ tools. Nothing in the matching core — domain, orderbook,
// ring, or pipeline — imports this package: the engine stays silent,
// as spec.md §7 requires.
package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// NewLogger builds a structured JSON logger tagged with component.
// Level defaults to info; override with LOBCORE_LOG_LEVEL
// (debug|info|warn|error).
func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stdout).
		Level(parseLevel(os.Getenv("LOBCORE_LOG_LEVEL"))).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}
