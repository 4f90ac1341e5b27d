package config

// ScenarioConfig is the roster and world geometry of one run (scenario.yaml).
type ScenarioConfig struct {
	ID        string        `yaml:"id"`
	Note      string        `yaml:"note"`
	Seed      int64         `yaml:"seed"`
	Duration  float64       `yaml:"duration"`
	Dt        float64       `yaml:"dt"`
	Units     []UnitDef     `yaml:"units"`
	Sites     []SiteDef     `yaml:"sites"`
	Obstacles []ObstacleDef `yaml:"obstacles"`
}

type UnitDef struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Kind  string  `yaml:"kind"` // player | friendly | enemy | creature
	Team  string  `yaml:"team"`
	Role  string  `yaml:"role"` // dps | tank | healer
	Spawn Vec2Def `yaml:"spawn"`
	Count int     `yaml:"count"`

	Radius       float64 `yaml:"radius"`
	MaxHP        float64 `yaml:"max_hp"`
	MaxMana      float64 `yaml:"max_mana"`
	MaxStamina   float64 `yaml:"max_stamina"`
	ShieldCap    float64 `yaml:"shield_cap"`
	ManaRegen    float64 `yaml:"mana_regen"`
	StaminaRegen float64 `yaml:"stamina_regen"`

	Attack            float64 `yaml:"attack"`
	Defense           float64 `yaml:"defense"`
	Speed             float64 `yaml:"speed"`
	CritChance        float64 `yaml:"crit_chance"`
	CritMultiplier    float64 `yaml:"crit_multiplier"`
	CooldownReduction float64 `yaml:"cooldown_reduction"`
	Lifesteal         float64 `yaml:"lifesteal"`
	BlockFraction     float64 `yaml:"block_fraction"`

	Resist    map[string]float64 `yaml:"resist"`
	Abilities []string           `yaml:"abilities"`

	RespawnDelay float64 `yaml:"respawn_delay"`
	XPValue      float64 `yaml:"xp_value"`

	Guard *GuardDef `yaml:"guard"`
	Note  string    `yaml:"note"`
}

// GuardDef enlists a unit into the guard squad defending a site.
type GuardDef struct {
	Kind string `yaml:"kind"` // flag | camp
	Site string `yaml:"site"`
}

type SiteDef struct {
	ID     string   `yaml:"id"`
	Team   string   `yaml:"team"`
	Pos    Vec2Def  `yaml:"pos"`
	Radius float64  `yaml:"radius"`
	Wall   *WallDef `yaml:"wall"`
}

type WallDef struct {
	SideHP     float64 `yaml:"side_hp"`
	BodyRadius float64 `yaml:"body_radius"`
}

type ObstacleDef struct {
	Kind   string  `yaml:"kind"` // tree | rock | mountain
	Pos    Vec2Def `yaml:"pos"`
	Radius float64 `yaml:"radius"`
}

type Vec2Def struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}
