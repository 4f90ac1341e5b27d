package combat

import (
	"math"

	"arena_ai/internal/config"
	"arena_ai/internal/util"
)

// Intent is one unit's decision for a tick: where to go and what to cast.
// It is produced by Decide and applied in the commit phase.
type Intent struct {
	Dest     Vec2
	HasDest  bool
	TargetID string
	Slot     int
	Cast     Target
	Light    bool
	WallSite string
	Gate     Gate
	GateFor  float64
	Cleanse  string
	Calm     bool
	Reason   string
}

func noIntent(reason string) Intent { return Intent{Slot: -1, Reason: reason} }

// Brain makes per-unit decisions. Decide only writes the deciding unit's own
// AI fields, so units may be decided concurrently.
type Brain struct {
	store  *Store
	reg    *Registry
	caster *Caster
	squads *Squads
	env    *Env
	ai     config.AITuning
	guard  config.GuardTuning
	combat config.CombatTuning
}

func NewBrain(store *Store, reg *Registry, caster *Caster, squads *Squads, env *Env, tun config.Tuning) *Brain {
	return &Brain{store: store, reg: reg, caster: caster, squads: squads, env: env, ai: tun.AI, guard: tun.Guard, combat: tun.Combat}
}

// Decide runs the priority branches for u.
func (br *Brain) Decide(u *Unit) Intent {
	if !u.Alive() {
		return noIntent("dead")
	}
	switch {
	case u.Kind == KindPlayer:
		return noIntent("player")
	case u.Kind == KindCreature:
		return br.decideCreature(u)
	case u.Guard != nil:
		if b, ok := br.squads.Get(u.Guard.Key); ok {
			return br.decideGuard(u, b)
		}
	}
	var in Intent
	var ok bool
	switch u.Role {
	case RoleTank:
		in, ok = br.decideTank(u)
	case RoleHealer:
		in, ok = br.decideHealer(u)
	default:
		in, ok = br.decideDPS(u)
	}
	if ok {
		return in
	}
	return br.fallback(u)
}

// pickTarget selects a hostile within radius with hysteresis and a target
// lock. The radius widens while engaged and narrows while not.
func (br *Brain) pickTarget(u *Unit, radius float64) *Unit {
	now := br.env.Time
	wide := radius * (1 + br.ai.HysteresisBand)
	if u.AI.TargetID != "" && now < u.AI.LockUntil {
		if t, ok := br.store.Living(u.AI.TargetID); ok && Hostile(u, t) && u.Pos.Dist(t.Pos) <= wide {
			return t
		}
	}
	r := radius * (1 - br.ai.HysteresisBand)
	if u.AI.Engaged {
		r = wide
	}
	t, _ := br.store.NearestHostile(u, r)
	if t == nil {
		u.AI.Engaged = false
		u.AI.TargetID = ""
		return nil
	}
	br.lock(u, t)
	return t
}

func (br *Brain) lock(u, t *Unit) {
	if t.ID != u.AI.TargetID || br.env.Time >= u.AI.LockUntil {
		u.AI.TargetID = t.ID
		u.AI.LockUntil = br.env.Time + br.ai.TargetLock
	}
	u.AI.Engaged = true
}

// preferredRange is the longest reach among u's offensive abilities.
func (br *Brain) preferredRange(u *Unit) float64 {
	best := br.combat.LightRange + u.Radius
	for _, id := range u.Slots {
		if m, ok := br.reg.Ability(id); ok && !m.Kind().Support() && m.Range > best {
			best = m.Range
		}
	}
	return best
}

// engage closes to attack range of t and picks a cast against it.
func (br *Brain) engage(u, t *Unit, gate Gate, reason string) Intent {
	in := noIntent(reason)
	in.TargetID = t.ID
	now := br.env.Time
	d := u.Pos.Dist(t.Pos)
	reach := br.preferredRange(u)

	if reach > br.ai.KiteDistance*2 && u.Role != RoleTank {
		if now < u.AI.KiteUntil || d-t.Radius < br.ai.KiteDistance {
			if now >= u.AI.KiteUntil {
				u.AI.KiteUntil = now + br.ai.KiteWindow
			}
			away := u.Pos.Sub(t.Pos)
			if away.IsZero() {
				away = FromAngle(util.Hash01(u.ID) * 2 * math.Pi)
			}
			in.Dest, in.HasDest = u.Pos.Add(away.Norm().Scale(br.ai.KiteDistance)), true
		}
	}
	if !in.HasDest && d-t.Radius > reach*br.ai.EngageRangeFactor {
		in.Dest, in.HasDest = t.Pos.Add(u.Pos.Sub(t.Pos).Norm().Scale(reach*br.ai.EngageRangeFactor*0.8)), true
	}
	br.pickCast(u, t, nil, gate, &in)
	return in
}

// pickCast fills the cast part of in. Tactical abilities respect the
// recovery window and, for guards, the squad gate.
func (br *Brain) pickCast(u, enemy *Unit, filter SlotFilter, gate Gate, in *Intent) {
	now := br.env.Time
	var ball *GuardBall
	if u.Guard != nil {
		ball, _ = br.squads.Get(u.Guard.Key)
	}
	tacticalOK := now >= u.AI.RecoverUntil && (ball == nil || gate == GateNone || ball.GateOpen(gate, now))
	f := func(m *AbilityMeta) bool {
		if filter != nil && !filter(m) {
			return false
		}
		return !m.Tactical || tacticalOK
	}
	if ch, ok := br.caster.Choose(u, enemy, f); ok {
		in.Slot, in.Cast = ch.Slot, ch.Target
		if m, ok := br.reg.Ability(u.Slots[ch.Slot]); ok && m.Tactical && ball != nil && gate != GateNone {
			in.Gate, in.GateFor = gate, br.guard.WeaveGate
		}
	}
	if enemy != nil {
		in.Light = true
	}
}

func (br *Brain) decideTank(u *Unit) (Intent, bool) {
	for _, s := range br.store.Sites() {
		if !s.Contestable(u.Team) || !s.Wall.Damaged() {
			continue
		}
		if u.Pos.Dist(s.Pos)-s.Wall.BodyRadius <= br.ai.WallAttackRadius {
			return br.attackWall(u, s, "tank_wall"), true
		}
	}
	reduced := br.ai.AggroRadius * br.ai.TankAggroScale
	if obj := br.nearestObjective(u); obj != nil && u.Pos.Dist(obj.Pos) > obj.Radius {
		in := noIntent("tank_objective")
		in.Dest, in.HasDest = obj.Pos, true
		if t := br.pickTarget(u, reduced); t != nil {
			in.TargetID = t.ID
			br.pickCast(u, t, nil, GateNone, &in)
		}
		return in, true
	}
	if t := br.pickTarget(u, reduced); t != nil {
		return br.engage(u, t, GateNone, "tank_engage"), true
	}
	return Intent{}, false
}

func (br *Brain) decideDPS(u *Unit) (Intent, bool) {
	if t := br.pickTarget(u, br.ai.AggroRadius); t != nil {
		return br.engage(u, t, GateNone, "dps_engage"), true
	}
	if c := br.provokedCreature(u); c != nil {
		br.lock(u, c)
		return br.engage(u, c, GateNone, "dps_creature"), true
	}
	for _, s := range br.store.Sites() {
		if s.Contestable(u.Team) && s.Wall.Standing() && u.Pos.Dist(s.Pos) <= br.ai.ObjectiveWallRange {
			return br.attackWall(u, s, "dps_wall"), true
		}
	}
	if obj := br.nearestObjective(u); obj != nil {
		in := noIntent("dps_objective")
		in.Dest, in.HasDest = obj.Pos, true
		return in, true
	}
	return Intent{}, false
}

func (br *Brain) decideHealer(u *Unit) (Intent, bool) {
	now := br.env.Time
	if !u.AI.HasCluster || now-u.AI.ClusterAt >= br.ai.HealerClusterRefresh {
		c, ok := br.allyCentroid(u)
		u.AI.HasCluster = ok
		if ok {
			jitter := FromAngle(util.Hash01(u.ID) * 2 * math.Pi).Scale(br.ai.HealerJitter)
			u.AI.Cluster, u.AI.ClusterAt = c.Add(jitter), now
		}
	}
	in := noIntent("healer_hold")
	br.pickCast(u, nil, SupportOnly, GateNone, &in)
	if !u.AI.HasCluster {
		if in.Slot >= 0 {
			return in, true
		}
		return Intent{}, false
	}
	if u.Pos.Dist(u.AI.Cluster) > br.ai.HealerMoveThreshold {
		in.Reason = "healer_regroup"
		in.Dest, in.HasDest = u.AI.Cluster, true
		return in, true
	}
	safe := br.ai.AggroRadius * br.ai.HealerSafeAggroScale
	if t, _ := br.store.NearestHostile(u, safe); t != nil && t.Pos.Dist(u.AI.Cluster) <= br.ai.HealerClusterCloseRadius {
		br.lock(u, t)
		in.Reason, in.TargetID, in.Light = "healer_defend", t.ID, true
		if in.Slot < 0 {
			br.pickCast(u, t, OffensiveOnly, GateNone, &in)
		}
	}
	return in, true
}

func (br *Brain) allyCentroid(u *Unit) (Vec2, bool) {
	var sum Vec2
	n := 0
	for _, a := range br.store.Allies(u) {
		if a.ID == u.ID {
			continue
		}
		sum = sum.Add(a.Pos)
		n++
	}
	if n == 0 {
		return Vec2{}, false
	}
	return sum.Scale(1 / float64(n)), true
}

// fallback follows the nearest ally beyond the follow distance, else
// patrols a small circle around home.
func (br *Brain) fallback(u *Unit) Intent {
	for _, a := range br.store.Allies(u) {
		if a.ID == u.ID {
			continue
		}
		if u.Pos.Dist(a.Pos) > br.ai.FollowMinDistance {
			in := noIntent("follow")
			in.Dest, in.HasDest = a.Pos, true
			return in
		}
		break
	}
	return br.patrol(u, u.Home, "patrol")
}

func (br *Brain) patrol(u *Unit, around Vec2, reason string) Intent {
	u.AI.PatrolAngle = math.Mod(u.AI.PatrolAngle+br.ai.PatrolAngularSpeed*br.env.Delta, 2*math.Pi)
	in := noIntent(reason)
	in.Dest, in.HasDest = around.Add(FromAngle(u.AI.PatrolAngle).Scale(br.ai.PatrolRadius)), true
	return in
}

func (br *Brain) nearestObjective(u *Unit) *Site {
	var best *Site
	bestD := math.Inf(1)
	for _, s := range br.store.Sites() {
		if !s.Contestable(u.Team) {
			continue
		}
		if d := u.Pos.Dist(s.Pos); d < bestD {
			best, bestD = s, d
		}
	}
	return best
}

func (br *Brain) provokedCreature(u *Unit) *Unit {
	for _, c := range br.store.Hostiles(u) {
		if c.Kind == KindCreature && u.Pos.Dist(c.Pos) <= br.ai.HostileCreatureRadius {
			return c
		}
	}
	return nil
}

func (br *Brain) attackWall(u *Unit, s *Site, reason string) Intent {
	in := noIntent(reason)
	in.WallSite = s.ID
	reach := s.Wall.BodyRadius + u.Radius + br.combat.LightRange*0.8
	if u.Pos.Dist(s.Pos) > reach {
		in.Dest, in.HasDest = s.Pos.Add(u.Pos.Sub(s.Pos).Norm().Scale(reach)), true
	}
	return in
}

// decideCreature: passive wandering until provoked, then fight the provoking
// team near home and calm down once nobody is left. Calming is carried on the
// intent since Hostile reads Provoked from other units' decisions.
func (br *Brain) decideCreature(u *Unit) Intent {
	if u.Provoked {
		if t, _ := br.store.NearestHostile(u, br.ai.HostileCreatureRadius); t != nil && t.Pos.Dist(u.Home) <= br.ai.HostileCreatureRadius {
			br.lock(u, t)
			return br.engage(u, t, GateNone, "creature_fight")
		}
		if u.Pos.Dist(u.Home) > br.ai.PatrolRadius {
			in := noIntent("creature_home")
			in.Dest, in.HasDest = u.Home, true
			return in
		}
		in := br.patrol(u, u.Home, "creature_wander")
		in.Calm = true
		return in
	}
	return br.patrol(u, u.Home, "creature_wander")
}

func (br *Brain) decideGuard(u *Unit, b *GuardBall) Intent {
	m := u.Guard
	slot := b.Slot(m)
	switch m.State() {
	case GuardActive:
		t, ok := br.squads.Threat(b, u, br.guard.LeashHardStop)
		if !ok {
			in := noIntent("guard_hold")
			in.Dest, in.HasDest = slot, true
			return in
		}
		if t.ID == b.FocusID {
			br.lock(u, t)
		}
		if u.Role == RoleHealer {
			return br.guardHealer(u, b, t)
		}
		return br.engage(u, t, GateWeave, "guard_engage")
	case GuardReturn:
		in := noIntent("guard_return")
		in.Dest, in.HasDest = slot, true
		return in
	default:
		in := noIntent("guard_idle")
		if u.Pos.Dist(slot) > br.guard.SettleDistance/2 {
			in.Dest, in.HasDest = slot, true
		}
		return in
	}
}

// guardHealer applies the two-healer policy and keeps the preferred
// distance band from the threat.
func (br *Brain) guardHealer(u *Unit, b *GuardBall, t *Unit) Intent {
	now := br.env.Time
	in := noIntent("guard_healer")
	in.TargetID = t.ID

	d := u.Pos.Dist(t.Pos)
	if d < br.guard.HealerBandMin || d > br.guard.HealerBandMax {
		mid := (br.guard.HealerBandMin + br.guard.HealerBandMax) / 2
		away := u.Pos.Sub(t.Pos)
		if away.IsZero() {
			away = b.Anchor.Sub(t.Pos)
		}
		in.Dest, in.HasDest = t.Pos.Add(away.Norm().Scale(mid)), true
	}

	heal := func(threshold float64, gate Gate, gateFor float64, reason string) bool {
		if !b.GateOpen(gate, now) {
			return false
		}
		for slot := 0; slot < MaxSlots; slot++ {
			meta, ok := br.caster.Castable(u, slot)
			if !ok {
				continue
			}
			he, ok := meta.Effect.(HealEffect)
			if !ok {
				continue
			}
			reach := meta.Range
			if he.Radius > 0 {
				reach = he.Radius
			}
			ally := br.caster.neediestAlly(u, reach, hpNeed)
			if ally == nil || ally.HPFrac() >= threshold {
				continue
			}
			in.Slot, in.Gate, in.GateFor, in.Reason = slot, gate, gateFor, reason
			if he.Radius <= 0 {
				in.Cast = AtUnit(ally.ID)
			}
			return true
		}
		return false
	}

	if u.Guard.HealerRank <= 0 {
		if heal(br.guard.H1HealThreshold, GateH1Heal, br.guard.H1Gate, "h1_emergency") {
			return in
		}
		if b.GateOpen(GateCleanse, now) && u.Mana >= br.guard.CleanseMana {
			for _, a := range br.store.Allies(u) {
				if len(a.Dots) > 0 && u.Pos.Dist(a.Pos) <= br.guard.HealerBandMax {
					in.Cleanse, in.Gate, in.GateFor, in.Reason = a.ID, GateCleanse, br.guard.CleanseGate, "h1_cleanse"
					return in
				}
			}
		}
		br.pickCast(u, nil, SupportOnly, GateNone, &in)
	} else {
		if b.GateOpen(GateShield, now) {
			shieldOrAura := func(m *AbilityMeta) bool { return m.Kind() == KindShield || m.Kind() == KindBuff }
			if ch, ok := br.caster.Choose(u, nil, shieldOrAura); ok {
				in.Slot, in.Cast, in.Gate, in.GateFor, in.Reason = ch.Slot, ch.Target, GateShield, br.guard.ShieldGate, "h2_shield"
				return in
			}
		}
		if heal(br.guard.H2HealThreshold, GateH2Heal, br.guard.H2Gate, "h2_backstop") {
			return in
		}
	}
	if in.Slot < 0 && u.Pos.Dist(t.Pos)-t.Radius <= br.combat.LightRange+u.Radius {
		in.Light = true
	}
	return in
}
