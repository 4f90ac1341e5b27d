package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config string onto a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger builds the service logger. format "json" writes JSON lines,
// anything else the console format. A nil out writes to stderr.
func NewLogger(level, format, runID string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	w := out
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Str("service", "simsvc")
	if runID != "" {
		ctx = ctx.Str("run", runID)
	}
	return ctx.Logger()
}

// AuditLogger is a sampled child of base for the high-rate audit stream.
// n <= 1 keeps every event.
func AuditLogger(base zerolog.Logger, n uint32) zerolog.Logger {
	l := base.With().Bool("sampled", n > 1).Logger()
	if n <= 1 {
		return l
	}
	return l.Sample(&zerolog.BasicSampler{N: n})
}
