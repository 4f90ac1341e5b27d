package util

import "math/rand"

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Between returns a uniform value in [lo, hi). hi <= lo yields lo.
func Between(rng *rand.Rand, lo, hi float64) float64 {
	if rng == nil || hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
