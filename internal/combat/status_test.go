package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDot_StacksToCapThenRefreshes(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")

	want := []Action{ActApply, ActStack, ActStack, ActRefresh}
	for i, exp := range want {
		act, ok := w.Status.ApplyDot(u, "burn", "ignite", nil, 1)
		require.True(t, ok)
		assert.Equal(t, exp, act, "apply #%d", i+1)
	}
	require.Len(t, u.Dots, 1)
	assert.Equal(t, 3, u.Dots[0].Stacks)
}

func TestApplyBuff_SingleStackRefreshes(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")

	act, _ := w.Status.ApplyBuff(u, "rally", "rallying", nil)
	assert.Equal(t, ActApply, act)
	w.Status.Tick(u, 2)
	act, _ = w.Status.ApplyBuff(u, "rally", "rallying", nil)
	assert.Equal(t, ActRefresh, act)

	require.Len(t, u.Buffs, 1)
	assert.Equal(t, 1, u.Buffs[0].Stacks)
	assert.Equal(t, 5.0, u.Buffs[0].Remaining)
}

func TestApply_UnknownOrDead(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")

	_, ok := w.Status.ApplyBuff(u, "nope", "", nil)
	assert.False(t, ok)
	u.Dead = true
	_, ok = w.Status.ApplyDot(u, "burn", "", nil, 1)
	assert.False(t, ok)
	assert.Empty(t, u.Dots)
}

func TestTick_ZeroDtIsNoop(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	w.Status.ApplyDot(u, "burn", "ignite", nil, 1)
	before := *u.Dots[0]

	w.Status.Tick(u, 0)
	w.Status.Tick(u, -1)

	assert.Equal(t, before, *u.Dots[0])
	assert.Equal(t, 100.0, u.HP)
}

func TestTick_DotTicksOncePerInterval(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	w.Status.ApplyDot(u, "burn", "ignite", nil, 1)

	for i := 0; i < 16; i++ {
		w.Status.Tick(u, 0.25)
	}

	assert.Len(t, eventsOf(w, EvHit), 4)
	assert.InDelta(t, 80, u.HP, 1e-9)
	assert.Empty(t, u.Dots)
}

func TestTick_DotHonoursResistAndPower(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	u.Resist["fire"] = 0.5
	w.Status.ApplyDot(u, "burn", "ignite", nil, 2)

	w.Status.Tick(u, 1)

	// 5 base * 0.5 resist * 2 power
	assert.InDelta(t, 95, u.HP, 1e-9)
}

func TestTick_RegenHeals(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", hp(50, 100))
	w.Status.ApplyBuff(u, "regen", "", nil)

	w.Status.Tick(u, 1)
	w.Status.Tick(u, 1)

	assert.InDelta(t, 60, u.HP, 1e-9)
}

func TestTick_AuraHitsNearbyHostiles(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	near := addUnit(t, w, "near", team("red"), at(30, 0))
	far := addUnit(t, w, "far", team("red"), at(200, 0))
	w.Status.ApplyBuff(u, "aura", "", nil)

	w.Status.Tick(u, 1)

	assert.InDelta(t, 96, near.HP, 1e-9)
	assert.Equal(t, 100.0, far.HP)
	assert.Equal(t, 100.0, u.HP)
}

func TestControl_ImmunityOverridesCC(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	w.Status.ApplyBuff(u, "root", "", nil)
	w.Status.ApplyBuff(u, "slow", "", nil)
	w.Status.ApplyBuff(u, "stun", "", nil)

	ctl := w.Reg.Control(u)
	assert.True(t, ctl.Rooted)
	assert.True(t, ctl.Stunned)
	assert.Equal(t, 0.5, ctl.SpeedMul)

	w.Status.ApplyBuff(u, "immune", "", nil)
	ctl = w.Reg.Control(u)
	assert.True(t, ctl.Immune)
	assert.False(t, ctl.Rooted)
	assert.False(t, ctl.Stunned)
	assert.Equal(t, 1.0, ctl.SpeedMul)
}

func TestCleanse_RemovesDot(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")

	_, ok := w.Status.Cleanse(u)
	assert.False(t, ok)

	w.Status.ApplyDot(u, "burn", "", nil, 1)
	id, ok := w.Status.Cleanse(u)
	assert.True(t, ok)
	assert.Equal(t, "burn", id)
	assert.Empty(t, u.Dots)
	assert.Len(t, eventsOf(w, EvCleanse), 1)
}

func TestBadges_UseLabelOrID(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	w.Status.ApplyBuff(u, "rally", "", nil)
	w.Status.ApplyBuff(u, "slow", "", nil)
	w.Status.ApplyDot(u, "burn", "", nil, 1)

	assert.Equal(t, []string{"RALLY", "slow", "burn"}, w.Status.Badges(u))
}
