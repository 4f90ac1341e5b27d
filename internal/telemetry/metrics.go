package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"arena_ai/internal/combat"
)

const instrumentationName = "arena_ai/internal/telemetry"

// Metrics exports simulation counters through OpenTelemetry. It is both an
// audit sink and a tick observer.
type Metrics struct {
	casts        metric.Int64Counter
	damage       metric.Float64Counter
	kills        metric.Int64Counter
	tickDuration metric.Float64Histogram
	livingGauge  metric.Int64ObservableGauge

	living atomic.Int64
}

// NewMetrics registers the instruments on m, or on the global meter when m
// is nil (a no-op unless a provider is installed).
func NewMetrics(m metric.Meter) (*Metrics, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	mt := &Metrics{}
	var err error

	if mt.casts, err = m.Int64Counter("sim.casts", metric.WithDescription("Abilities cast")); err != nil {
		return nil, fmt.Errorf("creating casts counter: %w", err)
	}
	if mt.damage, err = m.Float64Counter("sim.damage", metric.WithDescription("Final damage dealt to hp")); err != nil {
		return nil, fmt.Errorf("creating damage counter: %w", err)
	}
	if mt.kills, err = m.Int64Counter("sim.kills", metric.WithDescription("Units killed")); err != nil {
		return nil, fmt.Errorf("creating kills counter: %w", err)
	}
	mt.tickDuration, err = m.Float64Histogram(
		"sim.tick.duration",
		metric.WithDescription("Wall time of one simulation step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick histogram: %w", err)
	}
	mt.livingGauge, err = m.Int64ObservableGauge(
		"sim.units.living",
		metric.WithDescription("Living units after the last step"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating living gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(mt.livingGauge, mt.living.Load())
			return nil
		},
		mt.livingGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering living callback: %w", err)
	}
	return mt, nil
}

func (mt *Metrics) Record(ev combat.Event) {
	ctx := context.Background()
	switch ev.Type {
	case combat.EvCast:
		ab, _ := ev.Payload["ability"].(string)
		mt.casts.Add(ctx, 1, metric.WithAttributes(attribute.String("ability", ab)))
	case combat.EvHit:
		if dmg, ok := ev.Payload["dmg"].(float64); ok && dmg > 0 {
			mt.damage.Add(ctx, dmg)
		}
	case combat.EvKill:
		mt.kills.Add(ctx, 1)
	}
}

func (mt *Metrics) ObserveTick(elapsed time.Duration, living int) {
	mt.tickDuration.Record(context.Background(), elapsed.Seconds())
	mt.living.Store(int64(living))
}

// Living is the last observed living-unit count.
func (mt *Metrics) Living() int64 { return mt.living.Load() }
