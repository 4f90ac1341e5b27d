package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_DeadAndPlayerDoNothing(t *testing.T) {
	w := newTestWorld(t)
	dead := addUnit(t, w, "dead")
	dead.Dead = true
	player := addUnit(t, w, "p", kind(KindPlayer))

	assert.Equal(t, "dead", w.Brain.Decide(dead).Reason)
	in := w.Brain.Decide(player)
	assert.Equal(t, "player", in.Reason)
	assert.False(t, in.HasDest)
	assert.Equal(t, -1, in.Slot)
}

func TestDecide_TargetHysteresis(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", slots("strike"))
	e := addUnit(t, w, "e", team("red"), at(240, 0))

	// outside the narrowed radius while not engaged
	assert.Equal(t, "patrol", w.Brain.Decide(u).Reason)

	e.Pos = Vec2{200, 0}
	in := w.Brain.Decide(u)
	assert.Equal(t, "dps_engage", in.Reason)
	assert.Equal(t, "e", in.TargetID)
	assert.True(t, u.AI.Engaged)

	// widened radius holds the target after the lock expires
	w.Env.Time = 2
	e.Pos = Vec2{280, 0}
	assert.Equal(t, "e", w.Brain.Decide(u).TargetID)

	e.Pos = Vec2{310, 0}
	assert.Empty(t, w.Brain.Decide(u).TargetID)
	assert.False(t, u.AI.Engaged)
}

func TestDecide_TargetLock(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", slots("strike"))
	addUnit(t, w, "first", team("red"), at(200, 0))

	require.Equal(t, "first", w.Brain.Decide(u).TargetID)
	assert.Equal(t, 1.5, u.AI.LockUntil)

	addUnit(t, w, "closer", team("red"), at(100, 0))
	w.Env.Time = 0.5
	assert.Equal(t, "first", w.Brain.Decide(u).TargetID)

	w.Env.Time = 1.6
	assert.Equal(t, "closer", w.Brain.Decide(u).TargetID)
}

func TestDecide_EngageClosesDistance(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", slots("strike"))
	addUnit(t, w, "e", team("red"), at(200, 0))

	in := w.Brain.Decide(u)
	require.True(t, in.HasDest)
	assert.InDelta(t, 164, in.Dest.X, 1e-9)
	assert.Equal(t, -1, in.Slot)
	assert.True(t, in.Light)
}

func TestDecide_RangedUnitKites(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", slots("bolt"))
	e := addUnit(t, w, "e", team("red"), at(50, 0))

	in := w.Brain.Decide(u)
	require.True(t, in.HasDest)
	assert.InDelta(t, -70, in.Dest.X, 1e-9)
	assert.InDelta(t, 0.6, u.AI.KiteUntil, 1e-9)
	assert.Equal(t, 0, in.Slot)
	assert.Equal(t, AtUnit(e.ID), in.Cast)
}

func TestDecide_RecoveryWindowHoldsTactical(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", slots("nova"), mana(100))
	addUnit(t, w, "e", team("red"), at(30, 0))

	assert.Equal(t, 0, w.Brain.Decide(u).Slot)

	u.AI.RecoverUntil = 1
	assert.Equal(t, -1, w.Brain.Decide(u).Slot)
}

func TestDecide_DPSObjectives(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	require.NoError(t, w.Store.AddSite(&Site{ID: "far", Team: "red", Pos: Vec2{1000, 0}, Radius: 100}))

	in := w.Brain.Decide(u)
	assert.Equal(t, "dps_objective", in.Reason)
	assert.Equal(t, Vec2{1000, 0}, in.Dest)

	require.NoError(t, w.Store.AddSite(&Site{ID: "near", Team: "red", Pos: Vec2{100, 0}, Radius: 60, Wall: NewWall(100, 30)}))
	in = w.Brain.Decide(u)
	assert.Equal(t, "dps_wall", in.Reason)
	assert.Equal(t, "near", in.WallSite)
	require.True(t, in.HasDest)
	// parks at the wall body, within light reach
	assert.InDelta(t, 100-(30+10+32), in.Dest.X, 1e-9)
}

func TestDecide_DPSChasesProvokedCreature(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	wolf := addUnit(t, w, "wolf", kind(KindCreature), team(""), at(350, 0))

	assert.Equal(t, "patrol", w.Brain.Decide(u).Reason)

	wolf.Provoked, wolf.ProvokedBy = true, "blue"
	in := w.Brain.Decide(u)
	assert.Equal(t, "dps_creature", in.Reason)
	assert.Equal(t, "wolf", in.TargetID)
}

func TestDecide_TankHitsDamagedWall(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", role(RoleTank))
	site := &Site{ID: "keep", Team: "red", Pos: Vec2{100, 0}, Radius: 60, Wall: NewWall(100, 30)}
	require.NoError(t, w.Store.AddSite(site))

	assert.Equal(t, "tank_objective", w.Brain.Decide(u).Reason)

	site.Wall.Sides[SideWest].HP = 50
	in := w.Brain.Decide(u)
	assert.Equal(t, "tank_wall", in.Reason)
	assert.Equal(t, "keep", in.WallSite)
}

func TestDecide_HealerRegroups(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "h", role(RoleHealer), slots("mend"), mana(50))
	addUnit(t, w, "ally", at(200, 0))

	in := w.Brain.Decide(u)
	assert.Equal(t, "healer_regroup", in.Reason)
	assert.True(t, u.AI.HasCluster)
	assert.InDelta(t, 24, u.AI.Cluster.Dist(Vec2{200, 0}), 1e-9)
	assert.Equal(t, u.AI.Cluster, in.Dest)

	// the cached cluster survives until the refresh interval
	cached := u.AI.Cluster
	w.Store.MustAddUnit(&Unit{ID: "late", Team: "blue", HP: 1, MaxHP: 1, Pos: Vec2{-200, 0}})
	w.Env.Time = 0.5
	w.Brain.Decide(u)
	assert.Equal(t, cached, u.AI.Cluster)
}

func TestDecide_HealerAlonePatrols(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "h", role(RoleHealer), slots("mend"), at(10, 10))

	in := w.Brain.Decide(u)
	assert.Equal(t, "patrol", in.Reason)
	assert.InDelta(t, 60, in.Dest.Dist(u.Home), 1e-9)
}

func TestDecide_FallbackFollows(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	addUnit(t, w, "ally", at(200, 0))

	in := w.Brain.Decide(u)
	assert.Equal(t, "follow", in.Reason)
	assert.Equal(t, Vec2{200, 0}, in.Dest)
}

func TestDecide_Creature(t *testing.T) {
	w := newTestWorld(t)
	wolf := addUnit(t, w, "wolf", kind(KindCreature), team(""), slots("strike"))
	addUnit(t, w, "hunter", at(100, 0))

	assert.Equal(t, "creature_wander", w.Brain.Decide(wolf).Reason)

	wolf.Provoked, wolf.ProvokedBy = true, "blue"
	in := w.Brain.Decide(wolf)
	assert.Equal(t, "creature_fight", in.Reason)
	assert.Equal(t, "hunter", in.TargetID)

	// nobody left: walk home, then calm down
	require.True(t, w.Store.Remove("hunter"))
	wolf.Pos = Vec2{300, 0}
	assert.Equal(t, "creature_home", w.Brain.Decide(wolf).Reason)
	assert.True(t, wolf.Provoked)

	wolf.Pos = Vec2{10, 0}
	in = w.Brain.Decide(wolf)
	assert.Equal(t, "creature_wander", in.Reason)
	assert.True(t, in.Calm)
	assert.True(t, wolf.Provoked, "calming waits for the commit phase")

	w.commit(wolf, in)
	assert.False(t, wolf.Provoked)
	assert.Empty(t, wolf.ProvokedBy)
}

func TestDecide_GuardStates(t *testing.T) {
	w := guardWorld(t)
	g := addGuard(t, w, "g1", RoleDPS)
	g.Pos = Vec2{100, 0}

	in := w.Brain.Decide(g)
	assert.Equal(t, "guard_idle", in.Reason)
	assert.Equal(t, Vec2{}, in.Dest)

	addUnit(t, w, "intruder", at(80, 0))
	w.Squads.Update()
	require.Equal(t, GuardActive, g.Guard.State())
	in = w.Brain.Decide(g)
	assert.Equal(t, "guard_engage", in.Reason)
	assert.Equal(t, "intruder", in.TargetID)
}

func TestDecide_GuardHealerPolicy(t *testing.T) {
	w := guardWorld(t)
	addGuard(t, w, "g1", RoleDPS)
	h1 := addGuard(t, w, "h1", RoleHealer)
	h1.Slots[0] = "mend"
	h1.Mana, h1.MaxMana = 100, 100
	addUnit(t, w, "intruder", at(80, 0))
	w.Squads.Update()
	require.Equal(t, GuardActive, h1.Guard.State())
	ball, _ := w.Squads.Get(flagKey)

	lead, _ := w.Store.Unit("g1")
	lead.HP = 30
	in := w.Brain.Decide(h1)
	assert.Equal(t, "h1_emergency", in.Reason)
	assert.Equal(t, GateH1Heal, in.Gate)
	assert.Equal(t, AtUnit("g1"), in.Cast)

	ball.TakeGate(GateH1Heal, 0, 1.2)
	w.Status.ApplyDot(lead, "burn", "", nil, 1)
	in = w.Brain.Decide(h1)
	assert.Equal(t, "h1_cleanse", in.Reason)
	assert.Equal(t, "g1", in.Cleanse)
}
