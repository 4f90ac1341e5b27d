package combat

import (
	"math"
	"strings"
)

type Event struct {
	T       float64        `json:"t"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Role int

const (
	RoleDPS Role = iota
	RoleTank
	RoleHealer
)

func (r Role) String() string {
	switch r {
	case RoleTank:
		return "tank"
	case RoleHealer:
		return "healer"
	default:
		return "dps"
	}
}

func ParseRole(s string) Role {
	switch strings.ToLower(s) {
	case "tank":
		return RoleTank
	case "healer":
		return RoleHealer
	default:
		return RoleDPS
	}
}

// Kind is the unit's place in the world, independent of its combat role.
type Kind int

const (
	KindPlayer Kind = iota
	KindFriendly
	KindEnemy
	KindCreature
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindFriendly:
		return "friendly"
	case KindEnemy:
		return "enemy"
	default:
		return "creature"
	}
}

func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "player":
		return KindPlayer
	case "friendly":
		return KindFriendly
	case "enemy":
		return KindEnemy
	default:
		return KindCreature
	}
}

// MaxSlots is the ability loadout size.
const MaxSlots = 5

type Stats struct {
	Attack            float64
	Defense           float64
	Speed             float64
	CritChance        float64
	CritMultiplier    float64
	CooldownReduction float64
	Lifesteal         float64
	BlockFraction     float64
}

type Unit struct {
	ID   string
	Name string
	Kind Kind
	Team string // empty for neutral creatures
	Role Role

	Pos    Vec2
	Facing Vec2
	Home   Vec2
	Radius float64

	HP, MaxHP           float64
	Mana, MaxMana       float64
	Stamina, MaxStamina float64
	Shield, ShieldCap   float64
	ManaRegen           float64
	StaminaRegen        float64

	Stats        Stats
	Resist       map[string]float64
	Blocking     bool
	Invulnerable bool

	Slots        [MaxSlots]string
	SlotReady    [MaxSlots]float64
	LightReadyAt float64

	Buffs []*EffectInstance
	Dots  []*EffectInstance

	AI    AIState
	Guard *GuardMember
	Move  MoveState

	// creatures only: provoked creatures are hostile to ProvokedBy
	Provoked   bool
	ProvokedBy string

	LastAttacker string
	Dead         bool
	DiedAt       float64
	RespawnAt    float64
	RespawnDelay float64
	XPValue      float64
	XP           float64
}

// AIState is a unit's decision bookkeeping carried across ticks.
type AIState struct {
	TargetID  string
	LockUntil float64
	Engaged   bool

	Cluster    Vec2
	ClusterAt  float64
	HasCluster bool

	KiteUntil    float64
	RecoverUntil float64
	PatrolAngle  float64

	Intent Intent
}

type MoveState struct {
	StuckFor   float64
	GhostAfter float64
	GhostUntil float64
}

func (u *Unit) Alive() bool { return u != nil && !u.Dead && u.HP > 0 }

func (u *Unit) HPFrac() float64 {
	if u.MaxHP <= 0 {
		return 0
	}
	return u.HP / u.MaxHP
}

func (u *Unit) MissingFrac() float64 { return 1 - u.HPFrac() }

// SlotOf returns the slot holding ability id, or -1.
func (u *Unit) SlotOf(id string) int {
	for i, s := range u.Slots {
		if s == id && id != "" {
			return i
		}
	}
	return -1
}

// Hostile reports whether a and b fight each other. Creatures are neutral
// until provoked, and then only toward the provoking team.
func Hostile(a, b *Unit) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	if a.Kind == KindCreature && b.Kind == KindCreature {
		return false
	}
	if a.Kind == KindCreature {
		return a.Provoked && a.ProvokedBy == b.Team && b.Team != ""
	}
	if b.Kind == KindCreature {
		return b.Provoked && b.ProvokedBy == a.Team && a.Team != ""
	}
	if a.Team == "" || b.Team == "" {
		return false
	}
	return a.Team != b.Team
}

func Allied(a, b *Unit) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return a.Team != "" && a.Team == b.Team
}

type Site struct {
	ID        string
	Team      string
	Pos       Vec2
	Radius    float64
	Capture   float64 // progress of Capturing toward ownership, [0, 1]
	Capturing string
	Wall      *Wall
}

// Contestable reports whether team can take the site.
func (s *Site) Contestable(team string) bool { return s != nil && s.Team != team }

const (
	SideEast = iota
	SideNorth
	SideWest
	SideSouth
)

type WallSide struct{ HP, MaxHP float64 }

type Wall struct {
	Sides      [4]WallSide
	BodyRadius float64
}

func NewWall(sideHP, bodyRadius float64) *Wall {
	w := &Wall{BodyRadius: bodyRadius}
	for i := range w.Sides {
		w.Sides[i] = WallSide{HP: sideHP, MaxHP: sideHP}
	}
	return w
}

// Standing reports whether any side still has hp.
func (w *Wall) Standing() bool {
	if w == nil {
		return false
	}
	for _, s := range w.Sides {
		if s.HP > 0 {
			return true
		}
	}
	return false
}

// Damaged reports whether some side is hurt but not yet breached.
func (w *Wall) Damaged() bool {
	if w == nil {
		return false
	}
	for _, s := range w.Sides {
		if s.HP > 0 && s.HP < s.MaxHP {
			return true
		}
	}
	return false
}

func (w *Wall) Restore() {
	if w == nil {
		return
	}
	for i := range w.Sides {
		w.Sides[i].HP = w.Sides[i].MaxHP
	}
}

// SideFacing picks the side of a wall centred at center that faces from.
// A breached facing side falls through to the nearest standing one.
func (w *Wall) SideFacing(center, from Vec2) int {
	ang := from.Sub(center).Angle()
	side := int(math.Floor((ang+math.Pi/4)/(math.Pi/2))+4) % 4
	if w == nil || w.Sides[side].HP > 0 {
		return side
	}
	for off := 1; off <= 2; off++ {
		for _, s := range []int{(side + off) % 4, (side - off + 4) % 4} {
			if w.Sides[s].HP > 0 {
				return s
			}
		}
	}
	return side
}

// Obstacle is static terrain: trees, rocks, mountains.
type Obstacle struct {
	Kind   string
	Pos    Vec2
	Radius float64
}
