package config

// Tuning groups the empirically tuned constants of the simulation. Distances
// are world units, times are seconds.
type Tuning struct {
	AI     AITuning     `yaml:"ai"`
	Guard  GuardTuning  `yaml:"guard"`
	Move   MoveTuning   `yaml:"move"`
	Combat CombatTuning `yaml:"combat"`
}

type AITuning struct {
	AggroRadius           float64 `yaml:"aggro_radius"`
	HysteresisBand        float64 `yaml:"hysteresis_band"` // aggro radius widens/narrows by this fraction
	TargetLock            float64 `yaml:"target_lock"`
	TankAggroScale        float64 `yaml:"tank_aggro_scale"`
	WallAttackRadius      float64 `yaml:"wall_attack_radius"`
	ObjectiveWallRange    float64 `yaml:"objective_wall_range"`
	HostileCreatureRadius float64 `yaml:"hostile_creature_radius"`

	HealerClusterRefresh     float64 `yaml:"healer_cluster_refresh"`
	HealerJitter             float64 `yaml:"healer_jitter"`
	HealerMoveThreshold      float64 `yaml:"healer_move_threshold"`
	HealerSafeAggroScale     float64 `yaml:"healer_safe_aggro_scale"`
	HealerClusterCloseRadius float64 `yaml:"healer_cluster_close_radius"`

	FollowMinDistance  float64 `yaml:"follow_min_distance"`
	PatrolRadius       float64 `yaml:"patrol_radius"`
	PatrolAngularSpeed float64 `yaml:"patrol_angular_speed"`

	KiteDistance      float64 `yaml:"kite_distance"`
	KiteWindow        float64 `yaml:"kite_window"`
	RecoveryWindow    float64 `yaml:"recovery_window"`
	EngageRangeFactor float64 `yaml:"engage_range_factor"`
}

type GuardTuning struct {
	FlagRadius    float64 `yaml:"flag_radius"`
	DefenseRadius float64 `yaml:"defense_radius"`
	AggroRadius   float64 `yaml:"aggro_radius"`
	LeashRetreat  float64 `yaml:"leash_retreat"`
	LeashHardStop float64 `yaml:"leash_hard_stop"`

	RescoreInterval   float64 `yaml:"rescore_interval"`
	ReselectCooldown  float64 `yaml:"reselect_cooldown"`
	SwitchMargin      float64 `yaml:"switch_margin"`
	BurstLock         float64 `yaml:"burst_lock"`
	WeaveGate         float64 `yaml:"weave_gate"`
	FocusTimeout      float64 `yaml:"focus_timeout"`
	CalmDelay         float64 `yaml:"calm_delay"`
	SettleDistance    float64 `yaml:"settle_distance"`
	FormationRadius   float64 `yaml:"formation_radius"`
	MinThreatPriority float64 `yaml:"min_threat_priority"`

	HealerBandMin   float64 `yaml:"healer_band_min"`
	HealerBandMax   float64 `yaml:"healer_band_max"`
	H1HealThreshold float64 `yaml:"h1_heal_threshold"`
	H2HealThreshold float64 `yaml:"h2_heal_threshold"`
	H1Gate          float64 `yaml:"h1_gate"`
	H2Gate          float64 `yaml:"h2_gate"`
	ShieldGate      float64 `yaml:"shield_gate"`
	CleanseGate     float64 `yaml:"cleanse_gate"`
	CleanseMana     float64 `yaml:"cleanse_mana"`
}

type MoveTuning struct {
	HeadingStepDeg    float64 `yaml:"heading_step_deg"`
	SeparationSpacing float64 `yaml:"separation_spacing"`
	SoftNudge         float64 `yaml:"soft_nudge"`
	StuckAfter        float64 `yaml:"stuck_after"`
	GhostMin          float64 `yaml:"ghost_min"`
	GhostMax          float64 `yaml:"ghost_max"`
	GhostDuration     float64 `yaml:"ghost_duration"`
	EscapeJitter      float64 `yaml:"escape_jitter"`
}

type CombatTuning struct {
	CritFloor            float64 `yaml:"crit_floor"`
	BlockDrainPerPoint   float64 `yaml:"block_drain_per_point"`
	BlockMinDrain        float64 `yaml:"block_min_drain"`
	MaxCooldownReduction float64 `yaml:"max_cooldown_reduction"`

	LightCooldown    float64 `yaml:"light_cooldown"`
	LightRange       float64 `yaml:"light_range"`
	LightDamageScale float64 `yaml:"light_damage_scale"`

	ViabilityThreshold float64 `yaml:"viability_threshold"`
	ManaPressureWeight float64 `yaml:"mana_pressure_weight"`
	UrgencyWeight      float64 `yaml:"urgency_weight"`
	DistanceFitWeight  float64 `yaml:"distance_fit_weight"`

	CaptureRate     float64 `yaml:"capture_rate"`
	CaptureMaxUnits int     `yaml:"capture_max_units"`
	CaptureDecay    float64 `yaml:"capture_decay"`

	FXLifetime float64 `yaml:"fx_lifetime"`
}

// DefaultTuning returns the stock constants. LoadAll decodes tuning.yaml on
// top of these so a partial file only overrides what it names.
func DefaultTuning() Tuning {
	return Tuning{
		AI: AITuning{
			AggroRadius:           260,
			HysteresisBand:        0.15,
			TargetLock:            1.5,
			TankAggroScale:        0.6,
			WallAttackRadius:      90,
			ObjectiveWallRange:    160,
			HostileCreatureRadius: 400,

			HealerClusterRefresh:     1.0,
			HealerJitter:             24,
			HealerMoveThreshold:      60,
			HealerSafeAggroScale:     0.5,
			HealerClusterCloseRadius: 120,

			FollowMinDistance:  80,
			PatrolRadius:       60,
			PatrolAngularSpeed: 0.6,

			KiteDistance:      70,
			KiteWindow:        0.6,
			RecoveryWindow:    0.35,
			EngageRangeFactor: 0.9,
		},
		Guard: GuardTuning{
			FlagRadius:    120,
			DefenseRadius: 260,
			AggroRadius:   220,
			LeashRetreat:  420,
			LeashHardStop: 520,

			RescoreInterval:   0.75,
			ReselectCooldown:  0.5,
			SwitchMargin:      0.30,
			BurstLock:         2.25,
			WeaveGate:         0.9,
			FocusTimeout:      1.0,
			CalmDelay:         0.75,
			SettleDistance:    25,
			FormationRadius:   40,
			MinThreatPriority: 60,

			HealerBandMin:   140,
			HealerBandMax:   220,
			H1HealThreshold: 0.5,
			H2HealThreshold: 0.3,
			H1Gate:          1.2,
			H2Gate:          1.6,
			ShieldGate:      2.0,
			CleanseGate:     3.0,
			CleanseMana:     10,
		},
		Move: MoveTuning{
			HeadingStepDeg:    15,
			SeparationSpacing: 18,
			SoftNudge:         0.35,
			StuckAfter:        0.25,
			GhostMin:          2,
			GhostMax:          4,
			GhostDuration:     0.75,
			EscapeJitter:      0.6,
		},
		Combat: CombatTuning{
			CritFloor:            1.2,
			BlockDrainPerPoint:   0.5,
			BlockMinDrain:        4,
			MaxCooldownReduction: 0.8,

			LightCooldown:    0.8,
			LightRange:       40,
			LightDamageScale: 0.6,

			ViabilityThreshold: 0.35,
			ManaPressureWeight: 0.6,
			UrgencyWeight:      1.5,
			DistanceFitWeight:  0.5,

			CaptureRate:     0.1,
			CaptureMaxUnits: 3,
			CaptureDecay:    0.05,

			FXLifetime: 0.4,
		},
	}
}
