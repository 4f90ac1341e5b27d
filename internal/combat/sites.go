package combat

import (
	"math"
	"sort"

	"arena_ai/internal/config"
)

// Breached reports whether at least one wall side is down.
func (w *Wall) Breached() bool {
	if w == nil {
		return true
	}
	for _, s := range w.Sides {
		if s.HP <= 0 {
			return true
		}
	}
	return false
}

// Capturer advances site capture progress each tick.
type Capturer struct {
	store *Store
	tun   config.CombatTuning
	bus   *Bus
}

func NewCapturer(store *Store, tun config.CombatTuning, bus *Bus) *Capturer {
	return &Capturer{store: store, tun: tun, bus: bus}
}

// Update moves progress while exactly one non-owner team stands inside a
// site with no owner present. An owned site with an intact wall cannot be
// taken. Reaching 1 flips ownership and restores the wall.
func (c *Capturer) Update(dt float64) {
	if dt <= 0 {
		return
	}
	for _, s := range c.store.Sites() {
		present := c.presence(s)
		_, ownerHere := present[s.Team]
		var challengers []string
		for team := range present {
			if team != s.Team {
				challengers = append(challengers, team)
			}
		}
		sort.Strings(challengers)

		blocked := s.Team != "" && s.Wall != nil && !s.Wall.Breached()
		if len(challengers) != 1 || ownerHere || blocked {
			s.Capture = math.Max(0, s.Capture-c.tun.CaptureDecay*dt)
			if s.Capture == 0 {
				s.Capturing = ""
			}
			continue
		}
		team := challengers[0]
		if s.Capturing != team {
			s.Capturing, s.Capture = team, 0
		}
		n := present[team]
		if c.tun.CaptureMaxUnits > 0 && n > c.tun.CaptureMaxUnits {
			n = c.tun.CaptureMaxUnits
		}
		s.Capture = math.Min(1, s.Capture+c.tun.CaptureRate*float64(n)*dt)
		if s.Capture >= 1 {
			prev := s.Team
			s.Team, s.Capture, s.Capturing = team, 0, ""
			s.Wall.Restore()
			c.bus.Emit(EvSiteCaptured, map[string]any{"site": s.ID, "from": prev, "to": team})
		}
	}
}

func (c *Capturer) presence(s *Site) map[string]int {
	present := map[string]int{}
	for _, u := range c.store.Units() {
		if !u.Alive() || u.Team == "" || u.Kind == KindCreature {
			continue
		}
		if u.Pos.Dist(s.Pos) <= s.Radius {
			present[u.Team]++
		}
	}
	return present
}
