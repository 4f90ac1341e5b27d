package combat

import (
	"math"
)

// Choice is a scored ability pick.
type Choice struct {
	Slot   int
	Score  float64
	Target Target
	Light  bool
}

// SlotFilter narrows which abilities a decision may consider.
type SlotFilter func(*AbilityMeta) bool

func OffensiveOnly(m *AbilityMeta) bool { return !m.Kind().Support() }
func SupportOnly(m *AbilityMeta) bool   { return m.Kind().Support() }

// Choose scores every castable slot of u against enemy (may be nil) and the
// allies around it, returning the best pick above the viability threshold.
// Ties go to the lower slot.
func (c *Caster) Choose(u *Unit, enemy *Unit, filter SlotFilter) (Choice, bool) {
	best := Choice{Slot: -1, Score: math.Inf(-1)}
	for slot := 0; slot < MaxSlots; slot++ {
		meta, ok := c.Castable(u, slot)
		if !ok || (filter != nil && !filter(meta)) {
			continue
		}
		score, tgt, ok := c.score(u, enemy, meta)
		if !ok {
			continue
		}
		if score > best.Score {
			best = Choice{Slot: slot, Score: score, Target: tgt}
		}
	}
	if best.Slot < 0 || best.Score < c.tun.ViabilityThreshold {
		return Choice{Slot: -1}, false
	}
	return best, true
}

func (c *Caster) score(u, enemy *Unit, meta *AbilityMeta) (float64, Target, bool) {
	var (
		fit, urgency float64
		tgt          Target
	)
	switch e := meta.Effect.(type) {
	case MeleeEffect, ProjectileEffect:
		if enemy == nil {
			return 0, tgt, false
		}
		d := u.Pos.Dist(enemy.Pos) - enemy.Radius
		if d > meta.Range {
			return 0, tgt, false
		}
		fit = rangeFit(d, meta.Range)
		tgt = AtUnit(enemy.ID)
	case AreaEffect:
		if enemy == nil {
			return 0, tgt, false
		}
		d := u.Pos.Dist(enemy.Pos) - enemy.Radius
		if meta.Range <= 0 {
			// self-centred burst
			if d > e.Radius {
				return 0, tgt, false
			}
			fit = 1 - math.Max(0, d)/math.Max(e.Radius, 1)
		} else {
			if d > meta.Range {
				return 0, tgt, false
			}
			fit = rangeFit(d, meta.Range)
			tgt = AtUnit(enemy.ID)
		}
	case HealEffect:
		reach := meta.Range
		if e.Radius > 0 {
			reach = e.Radius
		}
		ally := c.neediestAlly(u, reach, hpNeed)
		if ally == nil || ally.MissingFrac() < 0.05 {
			return 0, tgt, false
		}
		fit = 1
		urgency = c.tun.UrgencyWeight * ally.MissingFrac()
		if e.Radius <= 0 {
			tgt = AtUnit(ally.ID)
		}
	case ShieldEffect:
		reach := meta.Range
		if e.Radius > 0 {
			reach = e.Radius
		}
		ally := c.neediestAlly(u, reach, shieldNeed)
		if ally == nil || ally.Shield >= ally.ShieldCap {
			return 0, tgt, false
		}
		fit = 1
		urgency = c.tun.UrgencyWeight * 0.8 * ally.MissingFrac()
		if e.Radius <= 0 {
			tgt = AtUnit(ally.ID)
		}
	case BuffEffect:
		if e.Self && HasBuff(u, e.BuffID) {
			return 0, tgt, false
		}
		fit = 1
	default:
		return 0, tgt, false
	}
	manaPenalty := c.tun.ManaPressureWeight * meta.ManaCost / math.Max(u.Mana, 1)
	score := meta.AffinityFor(u.Role) + c.tun.DistanceFitWeight*fit - manaPenalty + urgency
	return score, tgt, true
}

// rangeFit peaks when the target sits at roughly 70% of the ability range.
func rangeFit(d, r float64) float64 {
	if r <= 0 {
		return 0
	}
	ideal := 0.7 * r
	f := 1 - math.Abs(d-ideal)/r
	return math.Max(0, math.Min(1, f))
}
