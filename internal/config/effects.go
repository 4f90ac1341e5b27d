package config

// EffectsConfig holds the buff and damage-over-time tables (effects.yaml).
type EffectsConfig struct {
	Buffs []BuffDef `yaml:"buffs"`
	Dots  []DotDef  `yaml:"dots"`
}

type BuffDef struct {
	ID       string  `yaml:"id"`
	Duration float64 `yaml:"duration"`
	Interval float64 `yaml:"interval"`
	StackCap int     `yaml:"stack_cap"`

	// periodic deltas, scaled by stack count
	HPPerTick     float64 `yaml:"hp_per_tick"`
	ManaPerTick   float64 `yaml:"mana_per_tick"`
	DamagePerTick float64 `yaml:"damage_per_tick"`
	AuraRadius    float64 `yaml:"aura_radius"`

	// stat modifiers while active
	SpeedMul   float64 `yaml:"speed_mul"`
	AttackMul  float64 `yaml:"attack_mul"`
	DefenseAdd float64 `yaml:"defense_add"`

	CCImmune     bool `yaml:"cc_immune"`
	Rooted       bool `yaml:"rooted"`
	Stunned      bool `yaml:"stunned"`
	Silenced     bool `yaml:"silenced"`
	Invulnerable bool `yaml:"invulnerable"`

	Badge string `yaml:"badge"`
	Note  string `yaml:"note"`
}

type DotDef struct {
	ID         string  `yaml:"id"`
	Duration   float64 `yaml:"duration"`
	Interval   float64 `yaml:"interval"`
	StackCap   int     `yaml:"stack_cap"`
	BaseDamage float64 `yaml:"base_damage"`
	DamageType string  `yaml:"damage_type"`
	Note       string  `yaml:"note"`
}
