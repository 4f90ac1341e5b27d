package combat

import (
	"sort"
)

// Projectile is a travelling hit. Pierce counts extra targets it may pass
// through after the first.
type Projectile struct {
	ID         uint64
	Owner      string
	Ability    string
	Pos        Vec2
	Dir        Vec2
	Speed      float64
	Radius     float64
	MaxDist    float64
	Traveled   float64
	Damage     float64
	DamageType string
	PierceLeft int
	Dead       bool

	hit map[string]bool
}

const defaultProjectileRange = 400

func (c *Caster) spawnProjectile(u *Unit, meta *AbilityMeta, e ProjectileEffect, dir Vec2) *Projectile {
	c.nextID++
	maxDist := meta.Range
	if maxDist <= 0 {
		maxDist = defaultProjectileRange
	}
	p := &Projectile{
		ID: c.nextID, Owner: u.ID, Ability: meta.ID,
		Pos: u.Pos, Dir: dir.Norm(), Speed: e.Speed, Radius: e.Radius,
		MaxDist: maxDist, Damage: e.Damage, DamageType: e.DamageType,
		PierceLeft: e.Pierce, hit: map[string]bool{},
	}
	c.shots = append(c.shots, p)
	return p
}

// Projectiles returns the live projectiles.
func (c *Caster) Projectiles() []*Projectile { return c.shots }

type shotContact struct {
	frac float64
	unit *Unit
}

// AdvanceProjectiles moves every projectile by dt, resolving unit hits in
// travel order. Terrain and hostile walls stop a projectile.
func (c *Caster) AdvanceProjectiles(dt float64) {
	if dt <= 0 {
		return
	}
	kept := c.shots[:0]
	for _, p := range c.shots {
		c.advanceShot(p, dt)
		if !p.Dead {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(c.shots); i++ {
		c.shots[i] = nil
	}
	c.shots = kept
}

func (c *Caster) advanceShot(p *Projectile, dt float64) {
	owner, _ := c.store.Unit(p.Owner)
	step := p.Speed * dt
	if rest := p.MaxDist - p.Traveled; step > rest {
		step = rest
	}
	if !(step > 0) {
		p.Dead = true
		return
	}
	from := p.Pos
	to := from.Add(p.Dir.Scale(step))

	// first blocking contact along the segment
	stopAt := 1.0
	var wallSite *Site
	for _, o := range c.store.Obstacles() {
		if ok, t := SegmentCircle(from, to, o.Pos, o.Radius+p.Radius); ok && t < stopAt {
			stopAt = t
			wallSite = nil
		}
	}
	if owner != nil {
		for _, s := range c.store.Sites() {
			if !s.Wall.Standing() || s.Team == owner.Team {
				continue
			}
			if ok, t := SegmentCircle(from, to, s.Pos, s.Wall.BodyRadius+p.Radius); ok && t < stopAt {
				stopAt, wallSite = t, s
			}
		}
	}

	var contacts []shotContact
	if owner != nil {
		for _, h := range c.store.Hostiles(owner) {
			if p.hit[h.ID] {
				continue
			}
			if ok, t := SegmentCircle(from, to, h.Pos, h.Radius+p.Radius); ok && t <= stopAt {
				contacts = append(contacts, shotContact{frac: t, unit: h})
			}
		}
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].frac != contacts[j].frac {
			return contacts[i].frac < contacts[j].frac
		}
		return contacts[i].unit.ID < contacts[j].unit.ID
	})
	meta, _ := c.reg.Ability(p.Ability)
	for _, ct := range contacts {
		p.hit[ct.unit.ID] = true
		if owner != nil {
			c.strike(owner, ct.unit, p.Damage, p.DamageType, meta)
		}
		c.fx.Push("impact", ct.unit.Pos, p.Radius*2, "#ffb347", p.Owner)
		if p.PierceLeft == 0 {
			p.Pos = from.Lerp(to, ct.frac)
			p.Dead = true
			return
		}
		p.PierceLeft--
	}

	p.Pos = from.Lerp(to, stopAt)
	p.Traveled += step * stopAt
	switch {
	case stopAt < 1:
		if wallSite != nil && owner != nil {
			c.dmg.DamageWall(wallSite, from, c.rawDamage(owner, p.Damage), owner)
		}
		p.Dead = true
	case p.Traveled >= p.MaxDist-1e-9:
		p.Dead = true
	}
}
