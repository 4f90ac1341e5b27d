package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena_ai/internal/combat"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", "json", "run-1", &buf)

	log.Debug().Msg("hidden")
	log.Info().Int("units", 3).Msg("ready")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "simsvc", entry["service"])
	assert.Equal(t, "run-1", entry["run"])
	assert.Equal(t, "ready", entry["message"])
	assert.Equal(t, 3.0, entry["units"])
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("debug", "console", "", &buf)

	log.Debug().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestAuditLogger_Samples(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger("debug", "json", "", &buf)
	sink := NewLogSink(AuditLogger(base, 5))

	for i := 0; i < 10; i++ {
		sink.Record(combat.Event{T: float64(i), Type: combat.EvHit, Payload: map[string]any{"dmg": 1.0}})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"sampled":true`)
	assert.Contains(t, lines[0], `"type":"Hit"`)
	assert.Contains(t, lines[0], `"dmg":1`)
}

func TestAuditLogger_Unsampled(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(AuditLogger(NewLogger("debug", "json", "", &buf), 1))

	for i := 0; i < 3; i++ {
		sink.Record(combat.Event{Type: combat.EvCast})
	}

	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}
