package devana

import (
	"math"
	"math/rand"
)

// Rand is the random number source used by all solvers in this repository.
// Swap it out (e.g. with a fixed-seed source) for reproducible runs.
var Rand Rng = rand.New(rand.NewSource(1))

type Rng interface {
	Float64() float64
	Intn(n int) int
	Perm(n int) []int
}

func RandFloat() float64 { return Rand.Float64() }

// RandPop generates n randomly positioned points in the boxed bounds defined
// by low and up.  The number of dimensions is equal to len(low).  Returned
// points have their values initialized to +infinity.
func RandPop(n int, low, up []float64) []Point {
	if len(low) != len(up) {
		panic("low and up vectors are not same length")
	}

	ndims := len(low)

	points := make([]Point, n)
	for i := 0; i < n; i++ {
		pos := make([]float64, ndims)
		for j := range pos {
			pos[j] = low[j] + RandFloat()*(up[j]-low[j])
		}
		points[i] = NewPoint(pos, math.Inf(1))
	}
	return points
}
