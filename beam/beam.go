// Package beam models transverse vibration of a clamped-free
// Euler-Bernoulli beam on a finite-difference grid and provides frequency
// response computation for beams fitted with discrete springs and dampers.
package beam

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/mahan2079/devana/mesh"
)

// ClampPenalty is the diagonal stiffness added at the fixed end.  It is
// large enough to pin the clamped node without destroying the conditioning
// of the dynamic stiffness matrix.
const ClampPenalty = 1e12

// Quantity selects what a frequency response describes.
type Quantity int

const (
	Displacement Quantity = iota
	Velocity
	Acceleration
)

func (q Quantity) String() string {
	switch q {
	case Displacement:
		return "displacement"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	}
	return fmt.Sprintf("quantity(%v)", int(q))
}

// Attachment is a discrete spring or damper: a magnitude acting at a
// position along the beam axis.  Positions snap to the nearest grid node.
type Attachment struct {
	X     float64
	Value float64
}

// PointLoad is a harmonic force of constant amplitude applied at one
// position along the beam.
type PointLoad struct {
	X         float64
	Amplitude float64
}

// Model is a clamped-free beam discretized with NumElements equal segments.
// The stiffness operator is the fourth-derivative finite-difference stencil
// with boundary rows folded for the clamped and free ends; mass is lumped
// per node.  Damping is Rayleigh (AlphaM*M + BetaK*K) plus any discrete
// dampers.
type Model struct {
	Length        float64
	Width         float64
	Thickness     float64
	YoungsModulus float64
	Density       float64
	NumElements   int
	AlphaM        float64
	BetaK         float64

	grid *mesh.Infinite
	m    []float64 // lumped mass diagonal
	k    *mat.Dense
}

func NewModel(length, width, thickness, youngsModulus, density float64, numElements int) (*Model, error) {
	if length <= 0 || width <= 0 || thickness <= 0 {
		return nil, fmt.Errorf("beam dimensions must be positive, got %v x %v x %v", length, width, thickness)
	}
	if youngsModulus <= 0 || density <= 0 {
		return nil, fmt.Errorf("beam material constants must be positive, got E=%v rho=%v", youngsModulus, density)
	}
	if numElements < 4 {
		return nil, fmt.Errorf("beam needs at least 4 elements, got %v", numElements)
	}

	mdl := &Model{
		Length:        length,
		Width:         width,
		Thickness:     thickness,
		YoungsModulus: youngsModulus,
		Density:       density,
		NumElements:   numElements,
	}
	mdl.grid = &mesh.Infinite{Origin: []float64{0}, Step: mdl.DX()}
	mdl.assemble()
	return mdl, nil
}

// NumNodes returns the node count of the grid, including both ends.
func (mdl *Model) NumNodes() int { return mdl.NumElements + 1 }

// DX returns the grid spacing.
func (mdl *Model) DX() float64 { return mdl.Length / float64(mdl.NumElements) }

// NodeAt snaps a position along the beam to the index of the nearest grid
// node.
func (mdl *Model) NodeAt(x float64) int {
	snapped := mdl.grid.Nearest([]float64{x})[0]
	n := int(math.Round(snapped / mdl.DX()))
	if n < 0 {
		n = 0
	} else if n >= mdl.NumNodes() {
		n = mdl.NumNodes() - 1
	}
	return n
}

func (mdl *Model) assemble() {
	n := mdl.NumNodes()
	dx := mdl.DX()
	area := mdl.Width * mdl.Thickness
	inertia := mdl.Width * math.Pow(mdl.Thickness, 3) / 12
	c := mdl.YoungsModulus * inertia / math.Pow(dx, 4)

	mdl.m = make([]float64, n)
	for i := range mdl.m {
		mdl.m[i] = mdl.Density * area * dx
	}

	k := mat.NewDense(n, n, nil)
	stamp := func(row int, col0 int, coefs ...float64) {
		for j, v := range coefs {
			k.Set(row, col0+j, c*v)
		}
	}

	// clamped end: the penalty pins node 0, the next row folds the ghost
	// node across the clamp (zero deflection and slope)
	k.Set(0, 0, ClampPenalty)
	stamp(1, 0, -4, 7, -4, 1)

	for i := 2; i < n-2; i++ {
		stamp(i, i-2, 1, -4, 6, -4, 1)
	}

	// free end: ghost nodes eliminated through zero moment and zero shear
	stamp(n-2, n-4, 1, -4, 5, -2)
	stamp(n-1, n-3, 2, -4, 2)

	mdl.k = k
}

// Response holds the complex frequency response of every node over a grid
// of angular frequencies: W[node][i] corresponds to Omega[i].
type Response struct {
	Quantity Quantity
	Omega    []float64
	W        [][]complex128
}

// Magnitude returns |W| for one node across the frequency grid.
func (r *Response) Magnitude(node int) []float64 {
	out := make([]float64, len(r.Omega))
	for i, w := range r.W[node] {
		out[i] = cmplx.Abs(w)
	}
	return out
}

// Derive converts a displacement response into velocity or acceleration by
// frequency-domain differentiation.  Deriving a non-displacement response
// is an error.
func (r *Response) Derive(q Quantity) (*Response, error) {
	if r.Quantity != Displacement {
		return nil, fmt.Errorf("cannot derive %v from %v", q, r.Quantity)
	}
	if q == Displacement {
		return r, nil
	}

	out := &Response{Quantity: q, Omega: r.Omega, W: make([][]complex128, len(r.W))}
	for node := range r.W {
		out.W[node] = make([]complex128, len(r.Omega))
		for i, w := range r.W[node] {
			omega := r.Omega[i]
			switch q {
			case Velocity:
				out.W[node][i] = w * complex(0, omega)
			case Acceleration:
				out.W[node][i] = w * complex(-omega*omega, 0)
			}
		}
	}
	return out, nil
}

// FrequencyResponse solves (-omega^2*M + i*omega*C + K)w = F across the
// omega grid.  Springs and dampers contribute diagonal terms at their
// nearest grid nodes.  The clamped node is zeroed after each solve so the
// boundary is exact rather than penalty-small.
func (mdl *Model) FrequencyResponse(omega []float64, springs, dampers []Attachment, load PointLoad) (*Response, error) {
	if len(omega) == 0 {
		return nil, errors.New("frequency grid is empty")
	}

	n := mdl.NumNodes()

	kaug := mat.NewDense(n, n, nil)
	kaug.Copy(mdl.k)
	for _, s := range springs {
		i := mdl.NodeAt(s.X)
		kaug.Set(i, i, kaug.At(i, i)+s.Value)
	}

	cdiag := make([]float64, n)
	for _, d := range dampers {
		cdiag[mdl.NodeAt(d.X)] += d.Value
	}

	fnode := mdl.NodeAt(load.X)

	resp := &Response{Quantity: Displacement, Omega: omega, W: make([][]complex128, n)}
	for i := range resp.W {
		resp.W[i] = make([]complex128, len(omega))
	}

	// complex system solved through its real embedding, same scheme as the
	// DVA sweep solver
	A := mat.NewDense(2*n, 2*n, nil)
	b := mat.NewVecDense(2*n, nil)
	var x mat.VecDense

	for idx, w := range omega {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				kij := kaug.At(i, j)
				cij := mdl.AlphaM*mdl.massAt(i, j) + mdl.BetaK*mdl.k.At(i, j)
				if i == j {
					cij += cdiag[i]
				}
				reij := -w*w*mdl.massAt(i, j) + kij
				imij := w * cij
				A.Set(i, j, reij)
				A.Set(i+n, j+n, reij)
				A.Set(i, j+n, -imij)
				A.Set(i+n, j, imij)
			}
			b.SetVec(i, 0)
			b.SetVec(i+n, 0)
		}
		b.SetVec(fnode, load.Amplitude)

		if err := x.SolveVec(A, b); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return nil, fmt.Errorf("singular beam system at frequency index %v (omega=%v): %w", idx, w, err)
			}
		}

		for i := 0; i < n; i++ {
			resp.W[i][idx] = complex(x.AtVec(i), x.AtVec(i+n))
		}
		resp.W[0][idx] = 0
	}
	return resp, nil
}

func (mdl *Model) massAt(i, j int) float64 {
	if i != j {
		return 0
	}
	return mdl.m[i]
}

// TargetSpec is one term of a response objective: a desired magnitude of
// some quantity at a location, optionally with inequality bounds.  Bound
// violations are penalized ten times harder than target misses.
type TargetSpec struct {
	Quantity Quantity
	X        float64
	Target   float64
	Weight   float64
	Min      float64
	Max      float64
	HasMin   bool
	HasMax   bool
}

const hingeFactor = 10

// Objective scores a displacement response against the targets: the
// weighted mean squared error of response magnitude versus target over the
// whole frequency grid, plus hinge penalties for violated bounds.  Lower is
// better.
func (mdl *Model) Objective(resp *Response, targets []TargetSpec) (float64, error) {
	if resp.Quantity != Displacement {
		return 0, fmt.Errorf("objective needs a displacement response, got %v", resp.Quantity)
	}
	if len(targets) == 0 {
		return 0, errors.New("no targets given")
	}

	tot := 0.0
	count := 0
	for _, t := range targets {
		derived, err := resp.Derive(t.Quantity)
		if err != nil {
			return 0, err
		}
		node := mdl.NodeAt(t.X)
		for _, m := range derived.Magnitude(node) {
			diff := m - t.Target
			tot += t.Weight * diff * diff
			if t.HasMax && m > t.Max {
				over := m - t.Max
				tot += hingeFactor * t.Weight * over * over
			}
			if t.HasMin && m < t.Min {
				under := t.Min - m
				tot += hingeFactor * t.Weight * under * under
			}
			count++
		}
	}
	return tot / float64(count), nil
}
