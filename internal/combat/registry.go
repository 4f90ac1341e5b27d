package combat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"arena_ai/internal/config"
)

var (
	ErrUnknownAbility = errors.New("unknown ability")
	ErrUnknownEffect  = errors.New("unknown effect")
)

type EffectKind int

const (
	KindMelee EffectKind = iota
	KindProjectile
	KindArea
	KindHeal
	KindShield
	KindBuff
)

func (k EffectKind) String() string {
	switch k {
	case KindMelee:
		return "melee"
	case KindProjectile:
		return "projectile"
	case KindArea:
		return "area"
	case KindHeal:
		return "heal"
	case KindShield:
		return "shield"
	case KindBuff:
		return "buff"
	default:
		return "unknown"
	}
}

// Support reports whether the kind targets allies.
func (k EffectKind) Support() bool { return k == KindHeal || k == KindShield || k == KindBuff }

// Effect is the closed set of ability payloads. Only the types in this file
// implement it.
type Effect interface {
	Kind() EffectKind
	sealed()
}

type MeleeEffect struct {
	Damage     float64
	Arc        float64 // radians, full width
	DamageType string
}

type ProjectileEffect struct {
	Damage     float64
	Speed      float64
	Radius     float64
	Pierce     int
	DamageType string
}

type AreaEffect struct {
	Damage     float64
	Radius     float64
	DamageType string
}

// HealEffect with Radius 0 heals the lowest-health ally in range; otherwise it
// pulses every ally within Radius of the caster.
type HealEffect struct {
	Amount float64
	Radius float64
}

type ShieldEffect struct {
	Amount float64
	Radius float64
}

type BuffEffect struct {
	BuffID string
	Radius float64
	Self   bool
}

func (MeleeEffect) Kind() EffectKind      { return KindMelee }
func (ProjectileEffect) Kind() EffectKind { return KindProjectile }
func (AreaEffect) Kind() EffectKind       { return KindArea }
func (HealEffect) Kind() EffectKind       { return KindHeal }
func (ShieldEffect) Kind() EffectKind     { return KindShield }
func (BuffEffect) Kind() EffectKind       { return KindBuff }

func (MeleeEffect) sealed()      {}
func (ProjectileEffect) sealed() {}
func (AreaEffect) sealed()       {}
func (HealEffect) sealed()       {}
func (ShieldEffect) sealed()     {}
func (BuffEffect) sealed()       {}

type AbilityMeta struct {
	ID        string
	Name      string
	Range     float64
	ManaCost  float64
	Cooldown  float64
	Effect    Effect
	OnHitDot  string
	OnHitBuff string
	DotPower  float64
	Tactical  bool
	Affinity  map[Role]float64
	Note      string
}

func (m *AbilityMeta) Kind() EffectKind { return m.Effect.Kind() }

// AffinityFor returns the role weight, 0.5 when the table is silent.
func (m *AbilityMeta) AffinityFor(r Role) float64 {
	if w, ok := m.Affinity[r]; ok {
		return w
	}
	return 0.5
}

type BuffDef struct {
	config.BuffDef
}

type DotDef struct {
	config.DotDef
}

// Registry is the immutable ability/buff/dot lookup built once at startup.
type Registry struct {
	abilities map[string]*AbilityMeta
	buffs     map[string]*BuffDef
	dots      map[string]*DotDef
}

func NewRegistry(ac *config.AbilitiesConfig, ec *config.EffectsConfig) (*Registry, error) {
	r := &Registry{
		abilities: map[string]*AbilityMeta{},
		buffs:     map[string]*BuffDef{},
		dots:      map[string]*DotDef{},
	}
	if ec != nil {
		for _, b := range ec.Buffs {
			def := b
			if def.StackCap <= 0 {
				def.StackCap = 1
			}
			if def.Duration <= 0 {
				return nil, fmt.Errorf("buff %q: duration must be positive", def.ID)
			}
			r.buffs[def.ID] = &BuffDef{BuffDef: def}
		}
		for _, d := range ec.Dots {
			def := d
			if def.StackCap <= 0 {
				def.StackCap = 1
			}
			if def.Interval <= 0 || def.Duration <= 0 {
				return nil, fmt.Errorf("dot %q: duration and interval must be positive", def.ID)
			}
			r.dots[def.ID] = &DotDef{DotDef: def}
		}
	}
	if ac == nil {
		return r, nil
	}
	for _, a := range ac.Abilities {
		meta, err := r.buildAbility(a)
		if err != nil {
			return nil, err
		}
		r.abilities[meta.ID] = meta
	}
	return r, nil
}

func (r *Registry) buildAbility(a config.AbilityDef) (*AbilityMeta, error) {
	meta := &AbilityMeta{
		ID:        a.ID,
		Name:      a.Name,
		Range:     a.Range,
		ManaCost:  a.ManaCost,
		Cooldown:  a.Cooldown,
		OnHitDot:  a.OnHitDot,
		OnHitBuff: a.OnHitBuff,
		DotPower:  a.DotPower,
		Tactical:  a.Tactical,
		Affinity:  map[Role]float64{},
		Note:      a.Note,
	}
	if meta.Name == "" {
		meta.Name = a.ID
	}
	if meta.DotPower <= 0 {
		meta.DotPower = 1
	}
	for role, w := range a.Affinity {
		meta.Affinity[ParseRole(role)] = w
	}
	switch strings.ToLower(a.Kind) {
	case "melee":
		meta.Effect = MeleeEffect{Damage: a.Damage, Arc: degToRad(a.Arc), DamageType: a.DamageType}
	case "projectile":
		if !(a.Speed > 0) {
			return nil, fmt.Errorf("ability %q: projectile speed must be positive", a.ID)
		}
		meta.Effect = ProjectileEffect{Damage: a.Damage, Speed: a.Speed, Radius: a.Radius, Pierce: a.Pierce, DamageType: a.DamageType}
	case "area":
		meta.Effect = AreaEffect{Damage: a.Damage, Radius: a.Radius, DamageType: a.DamageType}
	case "heal":
		meta.Effect = HealEffect{Amount: a.Amount, Radius: a.Radius}
	case "shield":
		meta.Effect = ShieldEffect{Amount: a.Amount, Radius: a.Radius}
	case "buff":
		if _, ok := r.buffs[a.Buff]; !ok {
			return nil, fmt.Errorf("ability %q buff %q: %w", a.ID, a.Buff, ErrUnknownEffect)
		}
		meta.Effect = BuffEffect{BuffID: a.Buff, Radius: a.Radius, Self: a.Self}
	default:
		return nil, fmt.Errorf("ability %q: kind %q: %w", a.ID, a.Kind, ErrUnknownAbility)
	}
	if meta.OnHitDot != "" {
		if _, ok := r.dots[meta.OnHitDot]; !ok {
			return nil, fmt.Errorf("ability %q on_hit_dot %q: %w", a.ID, meta.OnHitDot, ErrUnknownEffect)
		}
	}
	if meta.OnHitBuff != "" {
		if _, ok := r.buffs[meta.OnHitBuff]; !ok {
			return nil, fmt.Errorf("ability %q on_hit_buff %q: %w", a.ID, meta.OnHitBuff, ErrUnknownEffect)
		}
	}
	return meta, nil
}

func (r *Registry) Ability(id string) (*AbilityMeta, bool) {
	if r == nil || id == "" {
		return nil, false
	}
	m, ok := r.abilities[id]
	return m, ok
}

func (r *Registry) Buff(id string) (*BuffDef, bool) {
	if r == nil {
		return nil, false
	}
	b, ok := r.buffs[id]
	return b, ok
}

func (r *Registry) Dot(id string) (*DotDef, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.dots[id]
	return d, ok
}

// Control is the crowd-control and modifier view of a unit's buffs.
type Control struct {
	Immune       bool
	Rooted       bool
	Stunned      bool
	Silenced     bool
	Invulnerable bool
	SpeedMul     float64
	AttackMul    float64
	DefenseAdd   float64
}

// Control folds the active buffs of u. A CC-immune buff clears rooted,
// stunned, silenced and the speed modifier outright.
func (r *Registry) Control(u *Unit) Control {
	c := Control{SpeedMul: 1, AttackMul: 1, Invulnerable: u.Invulnerable}
	for _, inst := range u.Buffs {
		def, ok := r.Buff(inst.ID)
		if !ok {
			continue
		}
		c.Immune = c.Immune || def.CCImmune
		c.Rooted = c.Rooted || def.Rooted
		c.Stunned = c.Stunned || def.Stunned
		c.Silenced = c.Silenced || def.Silenced
		c.Invulnerable = c.Invulnerable || def.Invulnerable
		if def.SpeedMul > 0 {
			c.SpeedMul *= def.SpeedMul
		}
		if def.AttackMul > 0 {
			c.AttackMul *= def.AttackMul
		}
		c.DefenseAdd += def.DefenseAdd * float64(inst.Stacks)
	}
	if c.Immune {
		c.Rooted, c.Stunned, c.Silenced = false, false, false
		c.SpeedMul = 1
	}
	return c
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
