// Package mesh provides projection of arbitrary-dimensional points onto
// (potentially discrete, potentially bounded) grids.  The optimizers use a
// Bounded mesh to keep candidate solutions inside their box bounds; the beam
// model uses an Infinite mesh to snap spring/damper locations to grid nodes.
package mesh

import (
	"fmt"
	"math"
)

// Mesh is an interface for projecting arbitrary dimensional points onto some
// kind of (potentially discrete) mesh.
type Mesh interface {
	// Nearest returns the nearest mesh point to p.
	Nearest(p []float64) []float64
}

// Infinite is a grid-based, linear-axis mesh that extends in all dimensions
// without bounds.  The length of Origin defines the dimensionality of the
// mesh.  If Origin == nil, the dimensionality is set by the first call to
// Nearest.  If Step == 0, then the mesh represents continuous space and the
// Nearest method just returns the point passed to it.
type Infinite struct {
	Origin []float64
	// Step represents the discretization or grid size of the mesh.
	Step float64
}

// Nearest returns the nearest grid point to p by rounding each dimensional
// position to the nearest grid point.
func (sm *Infinite) Nearest(p []float64) []float64 {
	if sm.Step == 0 {
		return append([]float64{}, p...)
	} else if l := len(sm.Origin); l != 0 && l != len(p) {
		panic(fmt.Sprintf("origin len %v incompatible with point len %v", l, len(p)))
	}

	if len(sm.Origin) == 0 {
		sm.Origin = make([]float64, len(p))
	}

	nearest := make([]float64, len(p))
	for i := range p {
		n := math.Round((p[i] - sm.Origin[i]) / sm.Step)
		nearest[i] = sm.Origin[i] + n*sm.Step
	}
	return nearest
}

// Bounded wraps another mesh with box bounds.  Points outside the bounds
// slide to the nearest in-bounds value before being projected onto the inner
// mesh.  Degenerate bounds (Lower[i] == Upper[i]) pin dimension i exactly -
// the optimizers rely on this to hold fixed parameters at their value.
type Bounded struct {
	Lower []float64
	Upper []float64
	core  Mesh
}

func NewBounded(m Mesh, lower, upper []float64) *Bounded {
	if len(lower) != len(upper) {
		panic("mesh lower and upper bound vectors have different lengths")
	}
	for i := range lower {
		if lower[i] > upper[i] {
			panic(fmt.Sprintf("mesh bound %v is inverted: lower %v > upper %v", i, lower[i], upper[i]))
		}
	}
	return &Bounded{
		Lower: lower,
		Upper: upper,
		core:  m,
	}
}

// NewBox returns a continuous mesh bounded by lower and upper.
func NewBox(lower, upper []float64) *Bounded {
	return NewBounded(&Infinite{}, lower, upper)
}

// Nearest returns the nearest bounded grid point to p by sliding each
// dimensional position to the nearest value inside bounds and then rounding
// to the nearest grid point.
func (m *Bounded) Nearest(p []float64) []float64 {
	pdup := make([]float64, len(p))
	copy(pdup, p)
	for i := range pdup {
		pdup[i] = math.Max(m.Lower[i], pdup[i])
		pdup[i] = math.Min(m.Upper[i], pdup[i])
	}
	return m.core.Nearest(pdup)
}
