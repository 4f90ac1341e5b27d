package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arena_ai/internal/config"
)

func testAbilities() *config.AbilitiesConfig {
	return &config.AbilitiesConfig{Abilities: []config.AbilityDef{
		{ID: "strike", Kind: "melee", Range: 50, Arc: 90, Damage: 10, Cooldown: 1, Affinity: map[string]float64{"dps": 1}},
		{ID: "fireball", Kind: "area", Range: 200, Radius: 40, Damage: 20, Cooldown: 5, ManaCost: 10, Affinity: map[string]float64{"dps": 1}},
		{ID: "nova", Kind: "area", Range: 0, Radius: 60, Damage: 15, Cooldown: 8, ManaCost: 30, Tactical: true, Affinity: map[string]float64{"dps": 1}},
		{ID: "bolt", Kind: "projectile", Range: 300, Speed: 600, Radius: 4, Damage: 10, Cooldown: 1},
		{ID: "lance", Kind: "projectile", Range: 300, Speed: 1000, Radius: 4, Damage: 10, Pierce: 1, Cooldown: 1},
		{ID: "dud", Kind: "melee", Range: 50, Arc: 360, Damage: 1, Cooldown: 1, Affinity: map[string]float64{"dps": 0}},
		{ID: "ignite", Kind: "melee", Range: 50, Arc: 360, Damage: 1, Cooldown: 1, OnHitDot: "burn"},
		{ID: "mend", Kind: "heal", Range: 200, Amount: 30, Cooldown: 2, ManaCost: 5, Affinity: map[string]float64{"healer": 1}},
		{ID: "pulse", Kind: "heal", Radius: 100, Amount: 10, Cooldown: 4, Affinity: map[string]float64{"healer": 0.8}},
		{ID: "ward", Kind: "shield", Range: 200, Amount: 25, Cooldown: 3, Affinity: map[string]float64{"healer": 0.9}},
		{ID: "rallying", Kind: "buff", Buff: "rally", Radius: 100, Cooldown: 10},
		{ID: "harden", Kind: "buff", Buff: "immune", Self: true, Cooldown: 10},
	}}
}

func testEffects() *config.EffectsConfig {
	return &config.EffectsConfig{
		Buffs: []config.BuffDef{
			{ID: "rally", Duration: 5, AttackMul: 1.5, Badge: "RALLY"},
			{ID: "immune", Duration: 3, CCImmune: true},
			{ID: "root", Duration: 2, Rooted: true},
			{ID: "stun", Duration: 2, Stunned: true},
			{ID: "slow", Duration: 2, SpeedMul: 0.5},
			{ID: "silence", Duration: 2, Silenced: true},
			{ID: "regen", Duration: 3, Interval: 1, HPPerTick: 5},
			{ID: "aura", Duration: 3, Interval: 1, DamagePerTick: 4, AuraRadius: 50},
			{ID: "holy", Duration: 3, Invulnerable: true},
		},
		Dots: []config.DotDef{
			{ID: "burn", Duration: 4, Interval: 1, StackCap: 3, BaseDamage: 5, DamageType: "fire"},
		},
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(testAbilities(), testEffects())
	require.NoError(t, err)
	return reg
}

// newTestWorld is a headless world with a fixed seed and event recording.
func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	return NewWorld(testRegistry(t), config.DefaultTuning(), 7, append([]Option{WithRecord(true)}, opts...)...)
}

type unitOpt func(*Unit)

func at(x, y float64) unitOpt { return func(u *Unit) { u.Pos, u.Home = Vec2{x, y}, Vec2{x, y} } }
func team(t string) unitOpt   { return func(u *Unit) { u.Team = t } }
func role(r Role) unitOpt     { return func(u *Unit) { u.Role = r } }
func kind(k Kind) unitOpt     { return func(u *Unit) { u.Kind = k } }
func mana(m float64) unitOpt  { return func(u *Unit) { u.Mana, u.MaxMana = m, m } }
func hp(cur, max float64) unitOpt {
	return func(u *Unit) { u.HP, u.MaxHP = cur, max }
}
func slots(ids ...string) unitOpt {
	return func(u *Unit) {
		for i, id := range ids {
			u.Slots[i] = id
		}
	}
}

// addUnit spawns a 100 hp, speed 100 unit with the given overrides.
func addUnit(t *testing.T, w *World, id string, opts ...unitOpt) *Unit {
	t.Helper()
	u := &Unit{
		ID: id, Kind: KindFriendly, Team: "blue", Role: RoleDPS,
		HP: 100, MaxHP: 100, Radius: 10, Facing: Vec2{1, 0},
		Stats:  Stats{Speed: 100},
		Resist: map[string]float64{},
	}
	for _, o := range opts {
		o(u)
	}
	require.NoError(t, w.Store.AddUnit(u))
	return u
}

func eventsOf(w *World, typ string) []Event {
	var out []Event
	for _, ev := range w.Bus.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
