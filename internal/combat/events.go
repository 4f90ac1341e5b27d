package combat

import "math/rand"

// Env is the simulation clock and randomness shared by every component.
type Env struct {
	Time  float64
	Delta float64
	Tick  uint64
	Rng   *rand.Rand
}

const (
	EvEffectApplied = "EffectApplied"
	EvCast          = "Cast"
	EvHit           = "Hit"
	EvHeal          = "Heal"
	EvShield        = "Shield"
	EvKill          = "Kill"
	EvRespawn       = "Respawn"
	EvGuardState    = "GuardState"
	EvFocusChanged  = "FocusChanged"
	EvSiteCaptured  = "SiteCaptured"
	EvWallHit       = "WallHit"
	EvCleanse       = "Cleanse"
)

// AuditSink consumes the audit/telemetry stream. Sinks must tolerate high
// event rates; none of them feed decisions back into the simulation.
type AuditSink interface {
	Record(ev Event)
}

type SinkFunc func(ev Event)

func (f SinkFunc) Record(ev Event) { f(ev) }

// Bus stamps events with the current time and fans them out to sinks.
type Bus struct {
	env    *Env
	sinks  []AuditSink
	record bool
	events []Event
}

func NewBus(env *Env, sinks ...AuditSink) *Bus {
	return &Bus{env: env, sinks: sinks}
}

// Attach adds a sink.
func (b *Bus) Attach(s AuditSink) {
	if s != nil {
		b.sinks = append(b.sinks, s)
	}
}

// Keep toggles retention of emitted events for Events/result output.
func (b *Bus) Keep(on bool) { b.record = on }

func (b *Bus) Emit(typ string, payload map[string]any) {
	if b == nil {
		return
	}
	ev := Event{Type: typ, Payload: payload}
	if b.env != nil {
		ev.T = b.env.Time
	}
	if b.record {
		b.events = append(b.events, ev)
	}
	for _, s := range b.sinks {
		s.Record(ev)
	}
}

func (b *Bus) Events() []Event { return b.events }

// FX is a transient visual cue for the presentation layer.
type FX struct {
	Kind   string  `json:"kind"` // slash | area | heal | shield | projectile | buff
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Life   float64 `json:"life"`
	Source string  `json:"source,omitempty"`
}

type FXQueue struct {
	items []FX
	ttl   float64
}

func NewFXQueue(ttl float64) *FXQueue {
	if ttl <= 0 {
		ttl = 0.4
	}
	return &FXQueue{ttl: ttl}
}

func (q *FXQueue) Push(kind string, at Vec2, radius float64, color, source string) {
	q.items = append(q.items, FX{Kind: kind, X: at.X, Y: at.Y, Radius: radius, Color: color, Life: q.ttl, Source: source})
}

// Advance ages every cue and drops the expired ones.
func (q *FXQueue) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	kept := q.items[:0]
	for _, fx := range q.items {
		fx.Life -= dt
		if fx.Life > 0 {
			kept = append(kept, fx)
		}
	}
	q.items = kept
}

// Items returns a copy of the live cues.
func (q *FXQueue) Items() []FX {
	out := make([]FX, len(q.items))
	copy(out, q.items)
	return out
}
