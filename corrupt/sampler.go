package corrupt

import (
	"math"
	"math/rand/v2"
)

// Warp feeds a uniform draw u in [0,1) through 1-cos(u*pi/2). The result
// stays in [0,1) and is monotonically increasing, with most of its mass near
// 0, so weak corruption is the common case while strong corruption remains
// reachable.
func Warp(u float64) float64 {
	return 1 - math.Cos(u*math.Pi/2)
}

// BiasedRand draws one corruption strength from rng.
func BiasedRand(rng *rand.Rand) float64 {
	return Warp(rng.Float64())
}
