package combat

import (
	"math"

	"arena_ai/internal/config"
	"arena_ai/internal/util"
)

type DamageOptions struct {
	DamageType string
	Ability    string
	Crit       bool // set by the caller after RollCrit
}

type DamageResult struct {
	Final          float64
	Crit           bool
	ShieldAbsorbed float64
	Blocked        float64
	Killed         bool
}

// Pipeline is the only place hp, shield and stamina are reduced by damage.
type Pipeline struct {
	reg *Registry
	tun config.CombatTuning
	env *Env
	bus *Bus
}

func NewPipeline(reg *Registry, tun config.CombatTuning, env *Env, bus *Bus) *Pipeline {
	return &Pipeline{reg: reg, tun: tun, env: env, bus: bus}
}

func (p *Pipeline) now() float64 {
	if p.env == nil {
		return 0
	}
	return p.env.Time
}

// RollCrit rolls the attacker's crit chance against a pre-mitigation amount.
func (p *Pipeline) RollCrit(attacker *Unit, raw float64) (float64, bool) {
	if attacker == nil || !util.Finite(raw) || raw <= 0 || attacker.Stats.CritChance <= 0 {
		return raw, false
	}
	if p.env == nil || p.env.Rng == nil || p.env.Rng.Float64() >= attacker.Stats.CritChance {
		return raw, false
	}
	mult := math.Max(attacker.Stats.CritMultiplier, p.tun.CritFloor)
	return raw * mult, true
}

// Resolve applies raw damage to target: invulnerability, block, shield,
// armor, then hp. Lifesteal heals the attacker from the final amount.
func (p *Pipeline) Resolve(target *Unit, raw float64, attacker *Unit, opts DamageOptions) DamageResult {
	res := DamageResult{Crit: opts.Crit}
	if target == nil || !target.Alive() || !util.Finite(raw) || raw <= 0 {
		return DamageResult{}
	}
	ctl := p.reg.Control(target)
	if ctl.Invulnerable {
		return DamageResult{}
	}
	remaining := raw

	if target.Blocking && target.Stamina > 0 {
		frac := target.Stats.BlockFraction
		if frac <= 0 {
			frac = 0.5
		}
		frac = util.Clamp(frac, 0, 1)
		blocked := remaining * frac
		drain := math.Max(p.tun.BlockMinDrain, blocked*p.tun.BlockDrainPerPoint)
		if target.Stamina >= drain {
			target.Stamina -= drain
			remaining -= blocked
			res.Blocked = blocked
		} else {
			// guard broken
			target.Stamina = 0
			target.Blocking = false
		}
	}

	if target.Shield > 0 && remaining > 0 {
		absorbed := math.Min(target.Shield, remaining)
		target.Shield = util.Clamp(target.Shield-absorbed, 0, target.ShieldCap)
		remaining -= absorbed
		res.ShieldAbsorbed = absorbed
	}

	defense := math.Max(0, target.Stats.Defense+ctl.DefenseAdd)
	remaining *= 100 / (100 + defense)

	before := target.HP
	target.HP = util.Clamp(target.HP-remaining, 0, target.MaxHP)
	res.Final = before - target.HP

	if attacker != nil {
		target.LastAttacker = attacker.ID
		if target.Kind == KindCreature && attacker.Team != "" && !target.Provoked {
			target.Provoked = true
			target.ProvokedBy = attacker.Team
		}
	}
	if target.HP <= 0 {
		target.HP = 0
		target.Dead = true
		target.DiedAt = p.now()
		res.Killed = true
	}

	if attacker != nil && attacker.Alive() && attacker.Stats.Lifesteal > 0 && res.Final > 0 {
		attacker.HP = util.Clamp(attacker.HP+res.Final*attacker.Stats.Lifesteal, 0, attacker.MaxHP)
	}

	payload := map[string]any{
		"target": target.ID, "dmg": res.Final, "hp": target.HP,
		"shield_absorbed": res.ShieldAbsorbed, "blocked": res.Blocked, "crit": res.Crit,
	}
	if attacker != nil {
		payload["source"] = attacker.ID
	}
	if opts.Ability != "" {
		payload["ability"] = opts.Ability
	}
	p.bus.Emit(EvHit, payload)
	return res
}

// Heal restores hp without touching block, shield or armor. Returns the
// amount actually restored.
func (p *Pipeline) Heal(target *Unit, amount float64, source *Unit, ability string) float64 {
	if target == nil || !target.Alive() || !util.Finite(amount) || amount <= 0 {
		return 0
	}
	before := target.HP
	target.HP = util.Clamp(target.HP+amount, 0, target.MaxHP)
	healed := target.HP - before
	if healed > 0 {
		payload := map[string]any{"target": target.ID, "amount": healed, "hp": target.HP, "ability": ability}
		if source != nil {
			payload["source"] = source.ID
		}
		p.bus.Emit(EvHeal, payload)
	}
	return healed
}

// GrantShield raises shield up to ShieldCap; overflow is lost, never hp.
func (p *Pipeline) GrantShield(target *Unit, amount float64, source *Unit, ability string) float64 {
	if target == nil || !target.Alive() || !util.Finite(amount) || amount <= 0 || target.ShieldCap <= 0 {
		return 0
	}
	before := target.Shield
	target.Shield = util.Clamp(target.Shield+amount, 0, target.ShieldCap)
	granted := target.Shield - before
	if granted > 0 {
		payload := map[string]any{"target": target.ID, "amount": granted, "shield": target.Shield, "ability": ability}
		if source != nil {
			payload["source"] = source.ID
		}
		p.bus.Emit(EvShield, payload)
	}
	return granted
}

// DamageWall hits the side of site's wall facing from. Walls have no armor.
func (p *Pipeline) DamageWall(site *Site, from Vec2, amount float64, attacker *Unit) (int, float64) {
	if site == nil || !site.Wall.Standing() || !util.Finite(amount) || amount <= 0 {
		return -1, 0
	}
	side := site.Wall.SideFacing(site.Pos, from)
	s := &site.Wall.Sides[side]
	before := s.HP
	s.HP = util.Clamp(s.HP-amount, 0, s.MaxHP)
	dealt := before - s.HP
	payload := map[string]any{"site": site.ID, "side": side, "dmg": dealt, "hp": s.HP}
	if attacker != nil {
		payload["source"] = attacker.ID
	}
	p.bus.Emit(EvWallHit, payload)
	return side, dealt
}
