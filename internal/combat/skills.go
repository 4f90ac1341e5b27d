package combat

import (
	"fmt"
	"math"

	"arena_ai/internal/config"
	"arena_ai/internal/util"
)

// Target is what a cast is aimed at: a unit, a world point, or neither (the
// ability picks its own targets).
type Target struct {
	UnitID   string
	Point    Vec2
	HasPoint bool
}

func AtUnit(id string) Target { return Target{UnitID: id} }
func AtPoint(p Vec2) Target   { return Target{Point: p, HasPoint: true} }
func (t Target) IsZero() bool { return t.UnitID == "" && !t.HasPoint }

// Caster owns ability slots, mana and cooldown gating, and runs ability
// effects through the damage pipeline and the status engine.
type Caster struct {
	reg    *Registry
	store  *Store
	dmg    *Pipeline
	status *StatusEngine
	fx     *FXQueue
	bus    *Bus
	env    *Env
	tun    config.CombatTuning

	shots  []*Projectile
	nextID uint64
}

func NewCaster(reg *Registry, store *Store, dmg *Pipeline, status *StatusEngine, fx *FXQueue, bus *Bus, env *Env, tun config.CombatTuning) *Caster {
	return &Caster{reg: reg, store: store, dmg: dmg, status: status, fx: fx, bus: bus, env: env, tun: tun}
}

// Loadout maps ability ids onto slots, rejecting ids the registry lacks.
func (r *Registry) Loadout(ids []string) ([MaxSlots]string, error) {
	var slots [MaxSlots]string
	if len(ids) > MaxSlots {
		return slots, fmt.Errorf("loadout has %d abilities, max %d", len(ids), MaxSlots)
	}
	for i, id := range ids {
		if _, ok := r.Ability(id); !ok {
			return slots, fmt.Errorf("slot %d %q: %w", i, id, ErrUnknownAbility)
		}
		slots[i] = id
	}
	return slots, nil
}

func (c *Caster) now() float64 { return c.env.Time }

// Ready reports whether the slot's cooldown has elapsed.
func (c *Caster) Ready(u *Unit, slot int) bool {
	if slot < 0 || slot >= MaxSlots {
		return false
	}
	return u.SlotReady[slot] <= c.now()
}

// Castable returns the slot's ability when every gate passes: valid id,
// cooldown elapsed, mana covers the cost, and the caster can act.
func (c *Caster) Castable(u *Unit, slot int) (*AbilityMeta, bool) {
	if !u.Alive() || slot < 0 || slot >= MaxSlots {
		return nil, false
	}
	meta, ok := c.reg.Ability(u.Slots[slot])
	if !ok || !c.Ready(u, slot) || u.Mana < meta.ManaCost {
		return nil, false
	}
	ctl := c.reg.Control(u)
	if ctl.Stunned || ctl.Silenced {
		return nil, false
	}
	return meta, true
}

// cooldownFor applies the caster's cooldown reduction.
func (c *Caster) cooldownFor(u *Unit, meta *AbilityMeta) float64 {
	cdr := util.Clamp(u.Stats.CooldownReduction, 0, c.tun.MaxCooldownReduction)
	return meta.Cooldown * (1 - cdr)
}

type resolvedTarget struct {
	unit  *Unit
	point Vec2
	dir   Vec2
}

// TryCast casts slot at tgt. A false return guarantees no state changed.
func (c *Caster) TryCast(u *Unit, slot int, tgt Target) bool {
	meta, ok := c.Castable(u, slot)
	if !ok {
		return false
	}
	rt, ok := c.resolve(u, meta, tgt)
	if !ok {
		return false
	}
	u.Mana = util.Clamp(u.Mana-meta.ManaCost, 0, u.MaxMana)
	u.SlotReady[slot] = c.now() + c.cooldownFor(u, meta)
	if !rt.dir.IsZero() {
		u.Facing = rt.dir
	}
	payload := map[string]any{
		"caster": u.ID, "ability": meta.ID, "slot": slot, "kind": meta.Kind().String(),
		"x": u.Pos.X, "y": u.Pos.Y, "mana": u.Mana,
	}
	if rt.unit != nil {
		payload["target"] = rt.unit.ID
	}
	c.bus.Emit(EvCast, payload)
	c.execute(u, meta, rt)
	return true
}

// resolve validates the aim: target existence, range, and kind-specific
// defaults for untargeted casts.
func (c *Caster) resolve(u *Unit, meta *AbilityMeta, tgt Target) (resolvedTarget, bool) {
	var rt resolvedTarget
	facing := u.Facing
	if facing.IsZero() {
		facing = Vec2{1, 0}
	}
	rt.dir = facing.Norm()

	if tgt.UnitID != "" {
		t, ok := c.store.Living(tgt.UnitID)
		if !ok {
			return rt, false
		}
		if u.Pos.Dist(t.Pos)-t.Radius > meta.Range {
			return rt, false
		}
		rt.unit, rt.point = t, t.Pos
		if d := t.Pos.Sub(u.Pos); !d.IsZero() {
			rt.dir = d.Norm()
		}
		return rt, true
	}
	if tgt.HasPoint {
		if !util.Finite(tgt.Point.X) || !util.Finite(tgt.Point.Y) || u.Pos.Dist(tgt.Point) > meta.Range {
			return rt, false
		}
		rt.point = tgt.Point
		if d := tgt.Point.Sub(u.Pos); !d.IsZero() {
			rt.dir = d.Norm()
		}
		return rt, true
	}

	switch e := meta.Effect.(type) {
	case HealEffect:
		if e.Radius <= 0 {
			ally := c.neediestAlly(u, meta.Range, hpNeed)
			if ally == nil {
				return rt, false
			}
			rt.unit, rt.point = ally, ally.Pos
		}
	case ShieldEffect:
		if e.Radius <= 0 {
			ally := c.neediestAlly(u, meta.Range, shieldNeed)
			if ally == nil {
				return rt, false
			}
			rt.unit, rt.point = ally, ally.Pos
		}
	case AreaEffect:
		if meta.Range > 0 {
			return rt, false
		}
	}
	if rt.unit == nil {
		rt.point = u.Pos
	}
	return rt, true
}

func hpNeed(u *Unit) float64 { return u.MissingFrac() }

func shieldNeed(u *Unit) float64 {
	if u.ShieldCap <= 0 {
		return -1
	}
	return u.MissingFrac() + (1 - u.Shield/u.ShieldCap)
}

// neediestAlly returns the living ally within reach of u with the highest
// need, ties to the lower id.
func (c *Caster) neediestAlly(u *Unit, reach float64, need func(*Unit) float64) *Unit {
	var best *Unit
	bestNeed := math.Inf(-1)
	for _, a := range c.store.Allies(u) {
		if a.Pos.Dist(u.Pos) > reach+a.Radius {
			continue
		}
		n := need(a)
		if n < 0 {
			continue
		}
		if best == nil || n > bestNeed || (n == bestNeed && a.ID < best.ID) {
			best, bestNeed = a, n
		}
	}
	return best
}

func (c *Caster) execute(u *Unit, meta *AbilityMeta, rt resolvedTarget) {
	switch e := meta.Effect.(type) {
	case MeleeEffect:
		half := e.Arc / 2
		for _, h := range c.store.Hostiles(u) {
			to := h.Pos.Sub(u.Pos)
			if to.Len()-h.Radius > meta.Range {
				continue
			}
			if to.Len() > 1e-6 && AngleBetween(rt.dir, to) > half {
				continue
			}
			c.strike(u, h, e.Damage, e.DamageType, meta)
		}
		c.fx.Push("slash", u.Pos.Add(rt.dir.Scale(meta.Range/2)), meta.Range, "#f4f4f4", u.ID)
	case ProjectileEffect:
		c.spawnProjectile(u, meta, e, rt.dir)
		c.fx.Push("projectile", u.Pos, e.Radius, "#ffb347", u.ID)
	case AreaEffect:
		for _, h := range c.store.Hostiles(u) {
			if h.Pos.Dist(rt.point)-h.Radius > e.Radius {
				continue
			}
			c.strike(u, h, e.Damage, e.DamageType, meta)
		}
		c.fx.Push("area", rt.point, e.Radius, "#ff5a36", u.ID)
	case HealEffect:
		for _, a := range c.supportTargets(u, rt, e.Radius) {
			c.dmg.Heal(a, e.Amount, u, meta.ID)
			c.fx.Push("heal", a.Pos, a.Radius, "#5cff7a", u.ID)
		}
	case ShieldEffect:
		for _, a := range c.supportTargets(u, rt, e.Radius) {
			c.dmg.GrantShield(a, e.Amount, u, meta.ID)
			c.fx.Push("shield", a.Pos, a.Radius, "#6ab8ff", u.ID)
		}
	case BuffEffect:
		var targets []*Unit
		switch {
		case e.Self:
			targets = []*Unit{u}
		default:
			targets = c.supportTargets(u, rt, e.Radius)
		}
		for _, a := range targets {
			c.status.ApplyBuff(a, e.BuffID, meta.ID, u)
		}
		c.fx.Push("buff", u.Pos, math.Max(e.Radius, u.Radius), "#e2c2ff", u.ID)
	}
}

// supportTargets: a pulse reaches every ally within radius of the caster,
// otherwise the resolved single ally (or the caster).
func (c *Caster) supportTargets(u *Unit, rt resolvedTarget, radius float64) []*Unit {
	if radius > 0 {
		var out []*Unit
		for _, a := range c.store.Allies(u) {
			if a.Pos.Dist(u.Pos) <= radius+a.Radius {
				out = append(out, a)
			}
		}
		return out
	}
	if rt.unit != nil && Allied(u, rt.unit) {
		return []*Unit{rt.unit}
	}
	return []*Unit{u}
}

// rawDamage scales an ability's base damage by the caster's attack.
func (c *Caster) rawDamage(u *Unit, base float64) float64 {
	ctl := c.reg.Control(u)
	return base * (1 + math.Max(0, u.Stats.Attack)/100) * ctl.AttackMul
}

// strike performs one hit: attack scaling, resistance, crit roll, pipeline,
// then on-hit effects.
func (c *Caster) strike(u, target *Unit, base float64, dtype string, meta *AbilityMeta) DamageResult {
	raw := c.rawDamage(u, base)
	if dtype != "" {
		raw *= 1 - util.Clamp(target.Resist[dtype], -1, 1)
	}
	raw, crit := c.dmg.RollCrit(u, raw)
	abilityID := ""
	if meta != nil {
		abilityID = meta.ID
	}
	res := c.dmg.Resolve(target, raw, u, DamageOptions{DamageType: dtype, Ability: abilityID, Crit: crit})
	if meta != nil && target.Alive() {
		if meta.OnHitDot != "" {
			c.status.ApplyDot(target, meta.OnHitDot, meta.ID, u, meta.DotPower)
		}
		if meta.OnHitBuff != "" {
			c.status.ApplyBuff(target, meta.OnHitBuff, meta.ID, u)
		}
	}
	return res
}

// LightAttack is the free filler hit with its own short cooldown.
func (c *Caster) LightAttack(u, target *Unit) bool {
	if !u.Alive() || !target.Alive() || !Hostile(u, target) || u.LightReadyAt > c.now() {
		return false
	}
	ctl := c.reg.Control(u)
	if ctl.Stunned {
		return false
	}
	if u.Pos.Dist(target.Pos)-target.Radius-u.Radius > c.tun.LightRange {
		return false
	}
	u.LightReadyAt = c.now() + c.tun.LightCooldown
	if d := target.Pos.Sub(u.Pos); !d.IsZero() {
		u.Facing = d.Norm()
	}
	base := math.Max(1, u.Stats.Attack*c.tun.LightDamageScale)
	raw, crit := c.dmg.RollCrit(u, base*ctl.AttackMul)
	c.dmg.Resolve(target, raw, u, DamageOptions{Ability: "light", Crit: crit})
	c.fx.Push("slash", target.Pos, target.Radius, "#cccccc", u.ID)
	return true
}

// LightAttackWall is the filler hit against a structure.
func (c *Caster) LightAttackWall(u *Unit, site *Site) bool {
	if !u.Alive() || site == nil || !site.Wall.Standing() || u.LightReadyAt > c.now() {
		return false
	}
	if c.reg.Control(u).Stunned {
		return false
	}
	if u.Pos.Dist(site.Pos)-site.Wall.BodyRadius-u.Radius > c.tun.LightRange {
		return false
	}
	u.LightReadyAt = c.now() + c.tun.LightCooldown
	c.dmg.DamageWall(site, u.Pos, math.Max(1, u.Stats.Attack*c.tun.LightDamageScale), u)
	c.fx.Push("slash", site.Pos, site.Wall.BodyRadius, "#bbaa88", u.ID)
	return true
}
