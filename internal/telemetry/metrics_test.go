package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"arena_ai/internal/combat"
	"arena_ai/internal/config"
)

func TestMetrics_RecordsAndObserves(t *testing.T) {
	mt, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		mt.Record(combat.Event{Type: combat.EvCast, Payload: map[string]any{"ability": "slash"}})
		mt.Record(combat.Event{Type: combat.EvHit, Payload: map[string]any{"dmg": 12.5}})
		mt.Record(combat.Event{Type: combat.EvKill})
		mt.Record(combat.Event{Type: combat.EvHit})
	})

	mt.ObserveTick(3*time.Millisecond, 7)
	assert.Equal(t, int64(7), mt.Living())
}

func TestMetrics_GlobalMeterFallback(t *testing.T) {
	mt, err := NewMetrics(nil)
	require.NoError(t, err)
	mt.ObserveTick(time.Millisecond, 2)
	assert.Equal(t, int64(2), mt.Living())
}

func TestMetrics_AsWorldObserver(t *testing.T) {
	mt, err := NewMetrics(nil)
	require.NoError(t, err)

	reg, err := combat.NewRegistry(nil, nil)
	require.NoError(t, err)
	w := combat.NewWorld(reg, config.DefaultTuning(), 1, combat.WithSinks(mt), combat.WithObserver(mt))
	w.Store.MustAddUnit(&combat.Unit{ID: "a", Kind: combat.KindFriendly, Team: "blue", HP: 10, MaxHP: 10})
	w.Store.MustAddUnit(&combat.Unit{ID: "b", Kind: combat.KindFriendly, Team: "red", HP: 10, MaxHP: 10, Pos: combat.Vec2{X: 900}})

	w.Step(0.05)
	assert.Equal(t, int64(2), mt.Living())
}
