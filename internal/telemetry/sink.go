package telemetry

import (
	"github.com/rs/zerolog"

	"arena_ai/internal/combat"
)

// LogSink writes audit events to a (usually sampled) logger at debug level.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(l zerolog.Logger) *LogSink { return &LogSink{log: l} }

func (s *LogSink) Record(ev combat.Event) {
	s.log.Debug().
		Str("type", ev.Type).
		Float64("t", ev.T).
		Fields(ev.Payload).
		Msg("audit")
}
