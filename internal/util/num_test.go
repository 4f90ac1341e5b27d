package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 10))
	assert.Equal(t, 10.0, Clamp(42, 0, 10))
	assert.Equal(t, 4.5, Clamp(4.5, 0, 10))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 10))
	assert.Equal(t, 0.0, Clamp(math.Inf(1), 0, 10))
}

func TestHash01_StableAndBounded(t *testing.T) {
	a := Hash01("guard_1")
	assert.Equal(t, a, Hash01("guard_1"))
	assert.GreaterOrEqual(t, a, 0.0)
	assert.Less(t, a, 1.0)
}

func TestNew_ZeroSeedIsDeterministic(t *testing.T) {
	assert.Equal(t, New(0).Int63(), New(1).Int63())
}

func TestBetween(t *testing.T) {
	r := New(7)
	for i := 0; i < 100; i++ {
		v := Between(r, 2, 4)
		assert.GreaterOrEqual(t, v, 2.0)
		assert.Less(t, v, 4.0)
	}
	assert.Equal(t, 3.0, Between(r, 3, 3))
}
