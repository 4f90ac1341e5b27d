package combat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AssignsPrefixedIDs(t *testing.T) {
	s := NewStore()
	u := &Unit{Kind: KindEnemy, HP: 10, MaxHP: 10}
	require.NoError(t, s.AddUnit(u))
	assert.True(t, strings.HasPrefix(u.ID, "enemy_"))
	assert.Len(t, u.ID, len("enemy_")+8)

	got, ok := s.Unit(u.ID)
	require.True(t, ok)
	assert.Same(t, u, got)
}

func TestStore_RejectsDuplicateID(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddUnit(&Unit{ID: "a", HP: 1, MaxHP: 1}))
	err := s.AddUnit(&Unit{ID: "a", HP: 1, MaxHP: 1})
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, s.Units(), 1)
}

func TestStore_MustAddUnitPanicsOnCollision(t *testing.T) {
	s := NewStore()
	s.MustAddUnit(&Unit{ID: "a"})
	assert.Panics(t, func() { s.MustAddUnit(&Unit{ID: "a"}) })
}

func TestStore_RemoveMissesLookups(t *testing.T) {
	s := NewStore()
	s.MustAddUnit(&Unit{ID: "a", HP: 1, MaxHP: 1})
	s.MustAddUnit(&Unit{ID: "b", HP: 1, MaxHP: 1})
	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	_, ok := s.Unit("a")
	assert.False(t, ok)
	assert.Len(t, s.Units(), 1)
}

func TestStore_HostilesSkipDeadAndNeutral(t *testing.T) {
	s := NewStore()
	me := s.MustAddUnit(&Unit{ID: "me", Team: "blue", Kind: KindFriendly, HP: 1, MaxHP: 1})
	s.MustAddUnit(&Unit{ID: "far", Team: "red", Kind: KindEnemy, HP: 1, MaxHP: 1, Pos: Vec2{100, 0}})
	s.MustAddUnit(&Unit{ID: "near", Team: "red", Kind: KindEnemy, HP: 1, MaxHP: 1, Pos: Vec2{10, 0}})
	s.MustAddUnit(&Unit{ID: "dead", Team: "red", Kind: KindEnemy, HP: 0, MaxHP: 1, Dead: true})
	s.MustAddUnit(&Unit{ID: "wolf", Kind: KindCreature, HP: 1, MaxHP: 1, Pos: Vec2{5, 0}})

	hs := s.Hostiles(me)
	require.Len(t, hs, 2)
	assert.Equal(t, "near", hs[0].ID)
	assert.Equal(t, "far", hs[1].ID)
}

func TestHostile_ProvokedCreature(t *testing.T) {
	blue := &Unit{ID: "b", Team: "blue", Kind: KindFriendly}
	red := &Unit{ID: "r", Team: "red", Kind: KindEnemy}
	wolf := &Unit{ID: "w", Kind: KindCreature}
	assert.False(t, Hostile(blue, wolf))

	wolf.Provoked, wolf.ProvokedBy = true, "blue"
	assert.True(t, Hostile(blue, wolf))
	assert.True(t, Hostile(wolf, blue))
	assert.False(t, Hostile(red, wolf))
}

func TestWall_SideFacing(t *testing.T) {
	w := NewWall(100, 30)
	c := Vec2{0, 0}
	assert.Equal(t, SideEast, w.SideFacing(c, Vec2{50, 1}))
	assert.Equal(t, SideNorth, w.SideFacing(c, Vec2{0, 50}))
	assert.Equal(t, SideWest, w.SideFacing(c, Vec2{-50, 0}))
	assert.Equal(t, SideSouth, w.SideFacing(c, Vec2{0, -50}))

	w.Sides[SideEast].HP = 0
	assert.NotEqual(t, SideEast, w.SideFacing(c, Vec2{50, 0}))
	assert.True(t, w.Standing())
	assert.False(t, w.Damaged())
}
