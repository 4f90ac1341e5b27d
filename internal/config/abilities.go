package config

// AbilitiesConfig is the static ability table (abilities.yaml).
type AbilitiesConfig struct {
	Abilities []AbilityDef `yaml:"abilities"`
}

// AbilityDef describes one ability. Kind selects which of the kind-specific
// fields are read: melee (damage, arc), projectile (damage, speed, radius,
// pierce), area (damage, radius), heal/shield (amount, radius) and buff
// (buff, radius, self).
type AbilityDef struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Kind       string             `yaml:"kind"`
	Range      float64            `yaml:"range"`
	ManaCost   float64            `yaml:"mana_cost"`
	Cooldown   float64            `yaml:"cooldown"`
	Damage     float64            `yaml:"damage"`
	DamageType string             `yaml:"damage_type"`
	Amount     float64            `yaml:"amount"`
	Arc        float64            `yaml:"arc"`
	Radius     float64            `yaml:"radius"`
	Speed      float64            `yaml:"speed"`
	Pierce     int                `yaml:"pierce"`
	Buff       string             `yaml:"buff"`
	Self       bool               `yaml:"self"`
	OnHitDot   string             `yaml:"on_hit_dot"`
	OnHitBuff  string             `yaml:"on_hit_buff"`
	DotPower   float64            `yaml:"dot_power"`
	Tactical   bool               `yaml:"tactical"`
	Affinity   map[string]float64 `yaml:"affinity"`
	Note       string             `yaml:"note"`
}
