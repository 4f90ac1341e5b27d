package combat

// UnitSnapshot is the read-only per-tick view of one unit for presentation.
type UnitSnapshot struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Team      string   `json:"team,omitempty"`
	Role      string   `json:"role"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	HP        float64  `json:"hp"`
	MaxHP     float64  `json:"max_hp"`
	Shield    float64  `json:"shield"`
	ShieldCap float64  `json:"shield_cap"`
	Mana      float64  `json:"mana"`
	Dead      bool     `json:"dead,omitempty"`
	Guard     string   `json:"guard,omitempty"`
	Target    string   `json:"target,omitempty"`
	Intent    string   `json:"intent,omitempty"`
	Badges    []string `json:"badges,omitempty"`
}

type SiteSnapshot struct {
	ID      string    `json:"id"`
	Team    string    `json:"team,omitempty"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Radius  float64   `json:"radius"`
	Capture float64   `json:"capture"`
	Wall    []float64 `json:"wall,omitempty"`
}

type ProjectileSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Owner  string  `json:"owner"`
}

type Snapshot struct {
	Tick        uint64               `json:"tick"`
	T           float64              `json:"t"`
	Units       []UnitSnapshot       `json:"units"`
	Sites       []SiteSnapshot       `json:"sites,omitempty"`
	Projectiles []ProjectileSnapshot `json:"projectiles,omitempty"`
	FX          []FX                 `json:"fx,omitempty"`
}

// Snapshot copies the presentation-relevant state. It shares nothing
// mutable with the world.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{Tick: w.Env.Tick, T: w.Env.Time, FX: w.FX.Items()}
	for _, u := range w.Store.Units() {
		us := UnitSnapshot{
			ID: u.ID, Kind: u.Kind.String(), Team: u.Team, Role: u.Role.String(),
			X: u.Pos.X, Y: u.Pos.Y, HP: u.HP, MaxHP: u.MaxHP,
			Shield: u.Shield, ShieldCap: u.ShieldCap, Mana: u.Mana,
			Dead: !u.Alive(), Target: u.AI.TargetID, Intent: u.AI.Intent.Reason, Badges: w.Status.Badges(u),
		}
		if u.Guard != nil {
			us.Guard = u.Guard.State()
		}
		snap.Units = append(snap.Units, us)
	}
	for _, s := range w.Store.Sites() {
		ss := SiteSnapshot{ID: s.ID, Team: s.Team, X: s.Pos.X, Y: s.Pos.Y, Radius: s.Radius, Capture: s.Capture}
		if s.Wall != nil {
			for _, side := range s.Wall.Sides {
				ss.Wall = append(ss.Wall, side.HP)
			}
		}
		snap.Sites = append(snap.Sites, ss)
	}
	for _, p := range w.Caster.Projectiles() {
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{X: p.Pos.X, Y: p.Pos.Y, Radius: p.Radius, Owner: p.Owner})
	}
	return snap
}
