// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger for the named service.
//
// Output defaults to a console writer on stderr; setting ADBRIDGE_LOG_FORMAT
// to "json" switches to plain JSON lines for log shippers. ADBRIDGE_LOG_LEVEL
// accepts the usual zerolog level names and defaults to info.
func New(service string) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if strings.EqualFold(os.Getenv("ADBRIDGE_LOG_FORMAT"), "json") {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("ADBRIDGE_LOG_LEVEL")); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}
