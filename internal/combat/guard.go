package combat

import (
	"math"
	"sort"

	"github.com/looplab/fsm"

	"arena_ai/internal/config"
	"arena_ai/internal/util"
)

type SquadKind int

const (
	SquadFlag SquadKind = iota
	SquadCamp
)

func (k SquadKind) String() string {
	if k == SquadCamp {
		return "camp"
	}
	return "flag"
}

func ParseSquadKind(s string) SquadKind {
	if s == "camp" {
		return SquadCamp
	}
	return SquadFlag
}

// SquadKey identifies one guard ball.
type SquadKey struct {
	Kind SquadKind
	Site string
}

func (k SquadKey) String() string { return k.Kind.String() + ":" + k.Site }

// GuardMember is a unit's enlistment in a squad.
type GuardMember struct {
	Key          SquadKey
	SlotOffset   Vec2
	LastThreatAt float64
	HealerRank   int // -1 for non-healers; 0 is H1

	machine *fsm.FSM
}

// Gate names the squad-wide cast throttles.
type Gate int

const (
	GateNone Gate = iota
	GateWeave
	GateH1Heal
	GateH2Heal
	GateShield
	GateCleanse
)

// GuardBall is the shared blackboard of one squad. Focus fields are written
// only through the leader-checked commit methods.
type GuardBall struct {
	Key    SquadKey
	Anchor Vec2

	LeaderID     string
	FocusID      string
	FocusPos     Vec2
	FocusScore   float64
	LastSwitchAt float64
	BurstUntil   float64
	NextScoreAt  float64

	noTarget      bool
	noTargetSince float64

	gates   map[Gate]float64
	members []string
}

func (b *GuardBall) Members() []string { return b.members }

// Slot returns the formation position of a member.
func (b *GuardBall) Slot(m *GuardMember) Vec2 { return b.Anchor.Add(m.SlotOffset) }

// GateOpen reports whether gate g permits a cast at now. The weave gate is
// always open inside the burst window.
func (b *GuardBall) GateOpen(g Gate, now float64) bool {
	if g == GateNone {
		return true
	}
	if g == GateWeave && now < b.BurstUntil {
		return true
	}
	return now >= b.gates[g]
}

// TakeGate closes gate g for d seconds if it is open.
func (b *GuardBall) TakeGate(g Gate, now, d float64) bool {
	if !b.GateOpen(g, now) {
		return false
	}
	if g == GateNone || (g == GateWeave && now < b.BurstUntil) {
		return true
	}
	b.gates[g] = now + d
	return true
}

func (b *GuardBall) commitFocus(writer, id string, score float64, pos Vec2, now, burst float64) bool {
	if writer == "" || writer != b.LeaderID {
		return false
	}
	b.FocusID, b.FocusScore, b.FocusPos = id, score, pos
	b.LastSwitchAt = now
	b.BurstUntil = now + burst
	b.noTarget = false
	return true
}

func (b *GuardBall) refreshFocus(writer string, score float64, pos Vec2) bool {
	if writer == "" || writer != b.LeaderID {
		return false
	}
	b.FocusScore, b.FocusPos = score, pos
	b.noTarget = false
	return true
}

func (b *GuardBall) clearFocus(writer string) bool {
	if writer == "" || writer != b.LeaderID {
		return false
	}
	b.FocusID, b.FocusScore = "", 0
	b.noTarget = false
	return true
}

// Squads is the arena of guard balls.
type Squads struct {
	balls map[SquadKey]*GuardBall
	store *Store
	tun   config.GuardTuning
	env   *Env
	bus   *Bus
}

func NewSquads(store *Store, tun config.GuardTuning, env *Env, bus *Bus) *Squads {
	return &Squads{balls: map[SquadKey]*GuardBall{}, store: store, tun: tun, env: env, bus: bus}
}

// Ball returns the ball for key, creating it at anchor on first reference.
func (sq *Squads) Ball(key SquadKey, anchor Vec2) *GuardBall {
	if b, ok := sq.balls[key]; ok {
		return b
	}
	b := &GuardBall{Key: key, Anchor: anchor, LastSwitchAt: math.Inf(-1), gates: map[Gate]float64{}}
	sq.balls[key] = b
	return b
}

func (sq *Squads) Get(key SquadKey) (*GuardBall, bool) {
	b, ok := sq.balls[key]
	return b, ok
}

func (sq *Squads) Len() int { return len(sq.balls) }

// Enlist adds u to the squad at key and lays out formation slots on a ring
// around the anchor in id order.
func (sq *Squads) Enlist(u *Unit, key SquadKey, anchor Vec2) *GuardBall {
	b := sq.Ball(key, anchor)
	if u.Guard == nil {
		u.Guard = &GuardMember{Key: key, HealerRank: -1, machine: newGuardFSM()}
		b.members = append(b.members, u.ID)
		sort.Strings(b.members)
	}
	n := len(b.members)
	rank := 0
	for i, id := range b.members {
		m, ok := sq.store.Unit(id)
		if !ok || m.Guard == nil {
			continue
		}
		if n == 1 {
			m.Guard.SlotOffset = Vec2{}
		} else {
			m.Guard.SlotOffset = FromAngle(2 * math.Pi * float64(i) / float64(n)).Scale(sq.tun.FormationRadius)
		}
		if m.Role == RoleHealer {
			m.Guard.HealerRank = rank
			rank++
		}
	}
	return b
}

// Update runs one squad coordination step: election, leader rescoring, then
// each member's state machine. Balls are visited in key order.
func (sq *Squads) Update() {
	for _, key := range sq.keys() {
		b := sq.balls[key]
		living := sq.living(b)
		sq.elect(b, living)
		if b.LeaderID != "" {
			sq.rescore(b)
		}
		for _, u := range living {
			sq.step(b, u)
		}
	}
}

func (sq *Squads) keys() []SquadKey {
	keys := make([]SquadKey, 0, len(sq.balls))
	for k := range sq.balls {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Site < keys[j].Site
	})
	return keys
}

func (sq *Squads) living(b *GuardBall) []*Unit {
	var out []*Unit
	for _, id := range b.members {
		if u, ok := sq.store.Living(id); ok {
			out = append(out, u)
		}
	}
	return out
}

// elect picks the lowest id among living non-healers, else any living
// member. Healer ranks are recomputed from the living healers.
func (sq *Squads) elect(b *GuardBall, living []*Unit) {
	leader := ""
	for _, u := range living {
		if u.Role != RoleHealer {
			leader = u.ID
			break
		}
	}
	if leader == "" && len(living) > 0 {
		leader = living[0].ID
	}
	b.LeaderID = leader
	rank := 0
	for _, u := range living {
		if u.Role == RoleHealer {
			u.Guard.HealerRank = rank
			rank++
		}
	}
}

// Score rates a candidate focus target for ball b.
func (sq *Squads) Score(b *GuardBall, c *Unit) float64 {
	t := sq.tun
	d := c.Pos.Dist(b.Anchor)
	if d > t.LeashHardStop {
		return 0
	}
	tier := sq.tier(b, c)
	if tier == 0 {
		return 0
	}
	s := tier + 40*c.MissingFrac()
	if c.Role == RoleHealer {
		s += 25
	}
	s += 20 * util.Clamp(1-d/t.LeashHardStop, 0, 1)
	if d > t.LeashRetreat && t.LeashHardStop > t.LeashRetreat {
		s -= 30 * (d - t.LeashRetreat) / (t.LeashHardStop - t.LeashRetreat)
	}
	return s
}

// tier is the exclusive positional priority: flag, then defense band, then
// aggro range of any living member.
func (sq *Squads) tier(b *GuardBall, c *Unit) float64 {
	d := c.Pos.Dist(b.Anchor)
	switch {
	case d <= sq.tun.FlagRadius:
		return 100
	case d <= sq.tun.DefenseRadius:
		return 80
	}
	for _, id := range b.members {
		if m, ok := sq.store.Living(id); ok && m.Pos.Dist(c.Pos) <= sq.tun.AggroRadius {
			return 60
		}
	}
	return 0
}

// validFocus reports whether id is still a target the squad may pursue.
func (sq *Squads) validFocus(b *GuardBall, leader *Unit, id string) (*Unit, bool) {
	if id == "" {
		return nil, false
	}
	c, ok := sq.store.Living(id)
	if !ok || !Hostile(leader, c) || c.Pos.Dist(b.Anchor) > sq.tun.LeashHardStop {
		return nil, false
	}
	return c, true
}

func (sq *Squads) rescore(b *GuardBall) {
	now := sq.env.Time
	leader, ok := sq.store.Living(b.LeaderID)
	if !ok {
		return
	}
	cur, curValid := sq.validFocus(b, leader, b.FocusID)
	if curValid && now < b.NextScoreAt {
		b.refreshFocus(leader.ID, b.FocusScore, cur.Pos)
		return
	}
	b.NextScoreAt = now + sq.tun.RescoreInterval

	var best *Unit
	bestScore := 0.0
	for _, c := range sq.store.Hostiles(leader) {
		s := sq.Score(b, c)
		if s > bestScore || (s == bestScore && s > 0 && best != nil && c.ID < best.ID) {
			best, bestScore = c, s
		}
	}

	if curValid {
		curScore := sq.Score(b, cur)
		b.refreshFocus(leader.ID, curScore, cur.Pos)
		if now < b.BurstUntil || best == nil || best.ID == cur.ID {
			return
		}
		if sq.reselectAllowed(b, now) && bestScore >= curScore*(1+sq.tun.SwitchMargin) {
			sq.switchFocus(b, leader, best, bestScore)
		}
		return
	}

	if best != nil && sq.reselectAllowed(b, now) {
		sq.switchFocus(b, leader, best, bestScore)
		return
	}
	if b.FocusID == "" {
		return
	}
	if !b.noTarget {
		b.noTarget, b.noTargetSince = true, now
	}
	if now-b.noTargetSince >= sq.tun.FocusTimeout {
		prev := b.FocusID
		if b.clearFocus(leader.ID) {
			sq.bus.Emit(EvFocusChanged, map[string]any{"squad": b.Key.String(), "from": prev, "to": ""})
		}
	}
}

func (sq *Squads) reselectAllowed(b *GuardBall, now float64) bool {
	return now-b.LastSwitchAt >= sq.tun.ReselectCooldown
}

func (sq *Squads) switchFocus(b *GuardBall, leader, c *Unit, score float64) {
	prev := b.FocusID
	if b.commitFocus(leader.ID, c.ID, score, c.Pos, sq.env.Time, sq.tun.BurstLock) {
		sq.bus.Emit(EvFocusChanged, map[string]any{
			"squad": b.Key.String(), "from": prev, "to": c.ID, "score": score, "leader": leader.ID,
		})
	}
}

// Threat returns the hostile u should answer, preferring the squad focus,
// else the nearest qualifying threat no farther than within from the anchor.
func (sq *Squads) Threat(b *GuardBall, u *Unit, within float64) (*Unit, bool) {
	if c, ok := sq.validFocus(b, u, b.FocusID); ok && c.Pos.Dist(b.Anchor) <= within {
		return c, true
	}
	for _, c := range sq.store.Hostiles(u) {
		if c.Pos.Dist(b.Anchor) > within {
			continue
		}
		if sq.qualifies(b, u, c) {
			return c, true
		}
	}
	return nil, false
}

// qualifies: anything inside the defense radius, else a hostile within u's
// aggro range whose focus score reaches MinThreatPriority.
func (sq *Squads) qualifies(b *GuardBall, u, c *Unit) bool {
	if c.Pos.Dist(b.Anchor) <= math.Max(sq.tun.FlagRadius, sq.tun.DefenseRadius) {
		return true
	}
	return u.Pos.Dist(c.Pos) <= sq.tun.AggroRadius && sq.Score(b, c) >= sq.tun.MinThreatPriority
}

func (sq *Squads) step(b *GuardBall, u *Unit) {
	m := u.Guard
	now := sq.env.Time
	from := m.State()
	leash := u.Pos.Dist(b.Anchor)

	switch from {
	case GuardIdle:
		if _, ok := sq.Threat(b, u, sq.tun.LeashHardStop); ok {
			m.LastThreatAt = now
			m.fire(evThreat)
		}
	case GuardActive:
		_, threat := sq.Threat(b, u, sq.tun.LeashHardStop)
		if threat {
			m.LastThreatAt = now
		}
		switch {
		case leash > sq.tun.LeashRetreat:
			m.fire(evLeash)
		case !threat && now-m.LastThreatAt >= sq.tun.CalmDelay:
			m.fire(evCalm)
		}
	case GuardReturn:
		if _, ok := sq.Threat(b, u, sq.tun.LeashRetreat); ok && leash <= sq.tun.LeashRetreat {
			m.LastThreatAt = now
			m.fire(evThreat)
		} else if u.Pos.Dist(b.Slot(m)) <= sq.tun.SettleDistance {
			m.fire(evSettle)
		}
	}
	if to := m.State(); to != from {
		sq.bus.Emit(EvGuardState, map[string]any{"unit": u.ID, "squad": b.Key.String(), "from": from, "to": to})
	}
}

// GC drops balls whose site is gone or whose members have all despawned.
func (sq *Squads) GC() int {
	n := 0
	for key, b := range sq.balls {
		_, siteOK := sq.store.Site(key.Site)
		present := false
		for _, id := range b.members {
			if _, ok := sq.store.Unit(id); ok {
				present = true
				break
			}
		}
		if (key.Site != "" && !siteOK) || !present {
			delete(sq.balls, key)
			n++
		}
	}
	return n
}
