package combat

import (
	"math"

	"arena_ai/internal/util"
)

// EffectInstance is one active buff or dot on a unit with its own timers.
type EffectInstance struct {
	ID         string
	Dot        bool
	Source     string // ability id that applied it
	SourceUnit string
	Stacks     int
	Remaining  float64
	NextTick   float64
	Power      float64
}

type Action string

const (
	ActApply   Action = "apply"
	ActRefresh Action = "refresh"
	ActStack   Action = "stack"
	ActTick    Action = "tick"
)

// StatusEngine applies, refreshes and ticks buffs and dots.
type StatusEngine struct {
	reg   *Registry
	store *Store
	dmg   *Pipeline
	bus   *Bus
}

func NewStatusEngine(reg *Registry, store *Store, dmg *Pipeline, bus *Bus) *StatusEngine {
	return &StatusEngine{reg: reg, store: store, dmg: dmg, bus: bus}
}

// ApplyBuff adds or refreshes buffID on u. Unknown ids and dead units are a
// no-op and report false.
func (se *StatusEngine) ApplyBuff(u *Unit, buffID, source string, src *Unit) (Action, bool) {
	def, ok := se.reg.Buff(buffID)
	if !ok || !u.Alive() {
		return "", false
	}
	act, inst := upsert(&u.Buffs, buffID, def.Duration, def.Interval, def.StackCap, 1)
	inst.Source = source
	if src != nil {
		inst.SourceUnit = src.ID
	}
	se.audit(u, inst, act, float64(inst.Stacks))
	return act, true
}

// ApplyDot adds or refreshes dotID on u. power scales the per-tick damage;
// a refresh keeps the stronger of the two powers.
func (se *StatusEngine) ApplyDot(u *Unit, dotID, source string, src *Unit, power float64) (Action, bool) {
	def, ok := se.reg.Dot(dotID)
	if !ok || !u.Alive() {
		return "", false
	}
	if !util.Finite(power) || power <= 0 {
		power = 1
	}
	act, inst := upsert(&u.Dots, dotID, def.Duration, def.Interval, def.StackCap, power)
	inst.Dot = true
	inst.Source = source
	if src != nil {
		inst.SourceUnit = src.ID
	}
	se.audit(u, inst, act, def.BaseDamage*power*float64(inst.Stacks))
	return act, true
}

func upsert(list *[]*EffectInstance, id string, duration, interval float64, stackCap int, power float64) (Action, *EffectInstance) {
	for _, inst := range *list {
		if inst.ID != id {
			continue
		}
		inst.Remaining = duration
		inst.NextTick = interval
		inst.Power = math.Max(inst.Power, power)
		if inst.Stacks < stackCap {
			inst.Stacks++
			return ActStack, inst
		}
		return ActRefresh, inst
	}
	inst := &EffectInstance{ID: id, Stacks: 1, Remaining: duration, NextTick: interval, Power: power}
	*list = append(*list, inst)
	return ActApply, inst
}

// Tick advances every effect on u by dt. dt <= 0 changes nothing.
func (se *StatusEngine) Tick(u *Unit, dt float64) {
	if dt <= 0 || !util.Finite(dt) || !u.Alive() {
		return
	}
	u.Buffs = se.tickList(u, u.Buffs, dt, false)
	if !u.Alive() {
		return
	}
	u.Dots = se.tickList(u, u.Dots, dt, true)
}

func (se *StatusEngine) tickList(u *Unit, list []*EffectInstance, dt float64, dots bool) []*EffectInstance {
	kept := list[:0]
	for _, inst := range list {
		inst.Remaining -= dt
		interval := se.interval(inst.ID, dots)
		if interval > 0 {
			inst.NextTick -= dt
			if inst.NextTick <= 0 && u.Alive() {
				if dots {
					se.tickDot(u, inst)
				} else {
					se.tickBuff(u, inst)
				}
				inst.NextTick = interval
			}
		}
		if inst.Remaining > 0 {
			kept = append(kept, inst)
		}
	}
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	return kept
}

func (se *StatusEngine) interval(id string, dots bool) float64 {
	if dots {
		if d, ok := se.reg.Dot(id); ok {
			return d.Interval
		}
		return 0
	}
	if b, ok := se.reg.Buff(id); ok {
		return b.Interval
	}
	return 0
}

func (se *StatusEngine) tickDot(u *Unit, inst *EffectInstance) {
	def, ok := se.reg.Dot(inst.ID)
	if !ok {
		return
	}
	resist := util.Clamp(u.Resist[def.DamageType], -1, 1)
	amount := def.BaseDamage * (1 - resist) * float64(inst.Stacks) * inst.Power
	src, _ := se.store.Unit(inst.SourceUnit)
	res := se.dmg.Resolve(u, amount, src, DamageOptions{DamageType: def.DamageType, Ability: inst.Source})
	se.audit(u, inst, ActTick, res.Final)
}

func (se *StatusEngine) tickBuff(u *Unit, inst *EffectInstance) {
	def, ok := se.reg.Buff(inst.ID)
	if !ok {
		return
	}
	stacks := float64(inst.Stacks)
	magnitude := 0.0
	if hp := def.HPPerTick * stacks; hp > 0 {
		src, _ := se.store.Unit(inst.SourceUnit)
		magnitude += se.dmg.Heal(u, hp, src, inst.Source)
	} else if hp < 0 {
		magnitude += se.dmg.Resolve(u, -hp, nil, DamageOptions{Ability: inst.Source}).Final
	}
	if def.ManaPerTick != 0 {
		u.Mana = util.Clamp(u.Mana+def.ManaPerTick*stacks, 0, u.MaxMana)
		magnitude += math.Abs(def.ManaPerTick * stacks)
	}
	if def.DamagePerTick > 0 {
		amount := def.DamagePerTick * stacks
		if def.AuraRadius > 0 {
			for _, h := range se.store.Hostiles(u) {
				if h.Pos.Dist(u.Pos) > def.AuraRadius {
					break
				}
				magnitude += se.dmg.Resolve(h, amount, u, DamageOptions{Ability: inst.Source}).Final
			}
		} else {
			magnitude += se.dmg.Resolve(u, amount, nil, DamageOptions{Ability: inst.Source}).Final
		}
	}
	se.audit(u, inst, ActTick, magnitude)
}

// Cleanse strips the dot with the most stacks from u.
func (se *StatusEngine) Cleanse(u *Unit) (string, bool) {
	if !u.Alive() || len(u.Dots) == 0 {
		return "", false
	}
	best := 0
	for i, d := range u.Dots {
		if d.Stacks > u.Dots[best].Stacks {
			best = i
		}
	}
	id := u.Dots[best].ID
	u.Dots = append(u.Dots[:best], u.Dots[best+1:]...)
	se.bus.Emit(EvCleanse, map[string]any{"target": u.ID, "effect": id})
	return id, true
}

// Clear drops every effect, used on death.
func (se *StatusEngine) Clear(u *Unit) {
	u.Buffs = nil
	u.Dots = nil
}

func (se *StatusEngine) audit(u *Unit, inst *EffectInstance, act Action, magnitude float64) {
	se.bus.Emit(EvEffectApplied, map[string]any{
		"effect":    inst.ID,
		"action":    string(act),
		"ability":   inst.Source,
		"source":    inst.SourceUnit,
		"target":    u.ID,
		"stacks":    inst.Stacks,
		"magnitude": magnitude,
	})
}

func HasBuff(u *Unit, id string) bool {
	for _, b := range u.Buffs {
		if b.ID == id {
			return true
		}
	}
	return false
}

func FindDot(u *Unit, id string) *EffectInstance {
	for _, d := range u.Dots {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Badges lists the display badges of u's buffs, falling back to the id.
func (se *StatusEngine) Badges(u *Unit) []string {
	var out []string
	for _, b := range u.Buffs {
		label := b.ID
		if def, ok := se.reg.Buff(b.ID); ok && def.Badge != "" {
			label = def.Badge
		}
		out = append(out, label)
	}
	for _, d := range u.Dots {
		out = append(out, d.ID)
	}
	return out
}
