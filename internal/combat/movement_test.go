package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_StraightAndClamped(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")

	require.True(t, w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0.1))
	assert.InDelta(t, 10, u.Pos.X, 1e-9)
	assert.Equal(t, Vec2{1, 0}, u.Facing)

	require.True(t, w.Mover.MoveWithAvoidance(u, Vec2{15, 0}, 1))
	assert.InDelta(t, 15, u.Pos.X, 1e-9)

	assert.False(t, w.Mover.MoveWithAvoidance(u, Vec2{15, 0}, 1))
	assert.False(t, w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0))
}

func TestMove_CrowdControl(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")

	w.Status.ApplyBuff(u, "slow", "", nil)
	w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0.1)
	assert.InDelta(t, 5, u.Pos.X, 1e-9)

	w.Status.ApplyBuff(u, "root", "", nil)
	assert.False(t, w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0.1))
	assert.InDelta(t, 5, u.Pos.X, 1e-9)
}

func TestMove_DetoursAroundObstacle(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	rock := Vec2{30, 0}
	w.Store.AddObstacle(Obstacle{Kind: "rock", Pos: rock, Radius: 15})

	require.True(t, w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0.1))
	assert.GreaterOrEqual(t, u.Pos.Dist(rock), 25.0)
	assert.InDelta(t, 10, u.Pos.Len(), 1e-9)
	assert.Greater(t, u.Pos.Y, 0.0)
}

func TestMove_AllowsLeavingOverlap(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", at(20, 0))
	w.Store.AddObstacle(Obstacle{Kind: "rock", Pos: Vec2{30, 0}, Radius: 15})

	require.True(t, w.Mover.MoveWithAvoidance(u, Vec2{-100, 0}, 0.1))
	assert.InDelta(t, 10, u.Pos.X, 1e-9)
}

func TestMove_HostileWallBlocksOwnWallDoesNot(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.Store.AddSite(&Site{ID: "keep", Team: "red", Pos: Vec2{30, 0}, Radius: 60, Wall: NewWall(100, 15)}))
	blue := addUnit(t, w, "blue", kind(KindEnemy))
	red := addUnit(t, w, "red", kind(KindEnemy), team("red"), at(0, 100))

	w.Mover.MoveWithAvoidance(blue, Vec2{100, 0}, 0.1)
	assert.Greater(t, blue.Pos.Y, 0.0)

	red.Pos = Vec2{}
	w.Mover.MoveWithAvoidance(red, Vec2{100, 0}, 0.1)
	assert.Equal(t, Vec2{10, 0}, red.Pos)
}

func TestMove_EnemiesHardSeparate(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", kind(KindEnemy), team("red"))
	other := addUnit(t, w, "other", kind(KindEnemy), team("red"), at(15, 0))

	require.True(t, w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0.1))
	// never closes on a same-team neighbour inside the spacing
	assert.Greater(t, u.Pos.Dist(other.Pos), 15.0)
	assert.Greater(t, u.Pos.Y, 0.0)
}

func TestMove_FriendliesSoftNudge(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u")
	addUnit(t, w, "other", at(15, 0))

	require.True(t, w.Mover.MoveWithAvoidance(u, Vec2{100, 0}, 0.1))
	// straight through, then pushed back by 35% of the overlap
	assert.InDelta(t, 10-13*0.35, u.Pos.X, 1e-9)
}

func TestMove_StuckUnitStartsGhosting(t *testing.T) {
	w := newTestWorld(t)
	u := addUnit(t, w, "u", kind(KindEnemy), at(50, 0))
	w.Store.AddObstacle(Obstacle{Kind: "mountain", Pos: Vec2{}, Radius: 100})

	ghosted := false
	for i := 0; i < 60 && !ghosted; i++ {
		w.Mover.MoveWithAvoidance(u, Vec2{}, 0.1)
		w.Env.Time += 0.1
		ghosted = w.Mover.Ghosting(u)
	}
	require.True(t, ghosted)
	assert.Zero(t, u.Move.StuckFor)

	before := u.Pos.Len()
	w.Mover.MoveWithAvoidance(u, Vec2{}, 0.1)
	assert.Less(t, u.Pos.Len(), before)
}
