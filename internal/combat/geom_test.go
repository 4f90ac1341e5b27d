package combat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_NormOfZeroIsZero(t *testing.T) {
	assert.Equal(t, Vec2{}, Vec2{}.Norm())
}

func TestVec2_Rotate(t *testing.T) {
	v := Vec2{1, 0}.Rotate(math.Pi / 2)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, 1, v.Y, 1e-9)
}

func TestAngleBetween(t *testing.T) {
	assert.InDelta(t, math.Pi/2, AngleBetween(Vec2{1, 0}, Vec2{0, 3}), 1e-9)
	assert.InDelta(t, math.Pi, AngleBetween(Vec2{1, 0}, Vec2{-2, 0}), 1e-9)
	assert.Equal(t, 0.0, AngleBetween(Vec2{}, Vec2{1, 0}))
}

func TestSegmentCircle(t *testing.T) {
	hit, frac := SegmentCircle(Vec2{0, 0}, Vec2{10, 0}, Vec2{5, 1}, 2)
	assert.True(t, hit)
	assert.InDelta(t, 0.5, frac, 1e-9)

	hit, _ = SegmentCircle(Vec2{0, 0}, Vec2{10, 0}, Vec2{5, 5}, 2)
	assert.False(t, hit)
}
