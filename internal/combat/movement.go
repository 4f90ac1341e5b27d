package combat

import (
	"math"

	"arena_ai/internal/config"
	"arena_ai/internal/util"
)

// Mover resolves desired destinations into collision-safe steps.
type Mover struct {
	store *Store
	reg   *Registry
	env   *Env
	tun   config.MoveTuning
}

func NewMover(store *Store, reg *Registry, env *Env, tun config.MoveTuning) *Mover {
	return &Mover{store: store, reg: reg, env: env, tun: tun}
}

// Ghosting reports whether u currently ignores environment collision.
func (m *Mover) Ghosting(u *Unit) bool { return m.env.Time < u.Move.GhostUntil }

// MoveWithAvoidance steps u toward target. The direct heading is tried
// first, then alternating offsets out to 180 degrees. Returns whether u moved.
func (m *Mover) MoveWithAvoidance(u *Unit, target Vec2, dt float64) bool {
	if dt <= 0 || !u.Alive() || !util.Finite(target.X) || !util.Finite(target.Y) {
		return false
	}
	ctl := m.reg.Control(u)
	if ctl.Rooted || ctl.Stunned {
		return false
	}
	to := target.Sub(u.Pos)
	dist := to.Len()
	if dist < 1e-6 {
		u.Move.StuckFor, u.Move.GhostAfter = 0, 0
		return false
	}
	step := math.Min(math.Max(0, u.Stats.Speed*ctl.SpeedMul)*dt, dist)
	if step <= 0 {
		return false
	}

	ghost := m.Ghosting(u)
	base := to.Angle()
	stepRad := degToRad(math.Max(1, m.tun.HeadingStepDeg))
	moved := false
	for k := 0; float64(k)*stepRad <= math.Pi+1e-9; k++ {
		offs := []float64{float64(k) * stepRad}
		if k > 0 && float64(k)*stepRad < math.Pi-1e-9 {
			offs = append(offs, -float64(k)*stepRad)
		}
		for _, off := range offs {
			heading := FromAngle(base + off)
			cand := u.Pos.Add(heading.Scale(step))
			if ghost || m.admissible(u, cand) {
				u.Pos = cand
				u.Facing = heading
				moved = true
				break
			}
		}
		if moved {
			break
		}
	}

	if !moved && u.Move.StuckFor > m.tun.StuckAfter {
		// escape jitter
		jit := FromAngle(base + (m.env.Rng.Float64()*2-1)*math.Pi).Scale(step * m.tun.EscapeJitter)
		if cand := u.Pos.Add(jit); m.admissible(u, cand) {
			u.Pos = cand
		}
	}

	if progress := dist - target.Sub(u.Pos).Len(); progress < 0.1*step {
		u.Move.StuckFor += dt
		if u.Move.GhostAfter == 0 {
			u.Move.GhostAfter = util.Between(m.env.Rng, m.tun.GhostMin, m.tun.GhostMax)
		}
		if !ghost && u.Move.StuckFor >= u.Move.GhostAfter {
			u.Move.GhostUntil = m.env.Time + m.tun.GhostDuration
			u.Move.StuckFor, u.Move.GhostAfter = 0, 0
		}
	} else {
		u.Move.StuckFor, u.Move.GhostAfter = 0, 0
	}

	if m.softSeparates(u) && !ghost {
		m.nudge(u)
	}
	return moved
}

// admissible rejects steps into terrain, hostile structure bodies, or
// closer than the separation spacing to a hard-separating neighbour. Steps
// that increase an existing overlap's distance are allowed.
func (m *Mover) admissible(u *Unit, cand Vec2) bool {
	for _, o := range m.store.Obstacles() {
		if blocks(u.Pos, cand, o.Pos, o.Radius+u.Radius) {
			return false
		}
	}
	for _, s := range m.store.Sites() {
		if !s.Wall.Standing() || s.Team == "" || s.Team == u.Team {
			continue
		}
		if blocks(u.Pos, cand, s.Pos, s.Wall.BodyRadius+u.Radius) {
			return false
		}
	}
	if m.softSeparates(u) {
		return true
	}
	for _, o := range m.store.Units() {
		if o == u || !o.Alive() || o.Kind != u.Kind || o.Team != u.Team {
			continue
		}
		if blocks(u.Pos, cand, o.Pos, m.tun.SeparationSpacing) {
			return false
		}
	}
	return true
}

// blocks reports whether moving from->to ends inside the circle without
// moving away from it.
func blocks(from, to, c Vec2, r float64) bool {
	d := to.Dist(c)
	return d < r && d <= from.Dist(c)
}

func (m *Mover) softSeparates(u *Unit) bool {
	return u.Kind == KindFriendly || u.Kind == KindPlayer
}

// nudge pushes u out of allied overlap by a fraction of the overlap.
func (m *Mover) nudge(u *Unit) {
	var push Vec2
	for _, o := range m.store.Units() {
		if o == u || !o.Alive() || !Allied(u, o) {
			continue
		}
		away := u.Pos.Sub(o.Pos)
		d := away.Len()
		if d >= m.tun.SeparationSpacing {
			continue
		}
		if d < 1e-6 {
			away, d = FromAngle(util.Hash01(u.ID)*2*math.Pi), 0
		}
		push = push.Add(away.Norm().Scale((m.tun.SeparationSpacing - d) * m.tun.SoftNudge))
	}
	if push.IsZero() {
		return
	}
	if cand := u.Pos.Add(push); m.admissible(u, cand) {
		u.Pos = cand
	}
}
