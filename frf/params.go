package frf

import (
	"fmt"
)

// MainParams holds the fixed primary-system constants: two primary masses
// suspended between a lower and an upper exciter base.  Branch i carries
// stiffness Lambda[i] and damping Nu[i]:
//
//	0: mass1-lower base
//	1: mass2-upper base
//	2: mass1-mass2
//	3: mass1-upper base
//	4: mass2-lower base
//
// ALow and AUpp are the excitation amplitudes of the two bases, F1 and F2
// direct harmonic force amplitudes on the primary masses.  OmegaDC and
// ZetaDC are the characteristic frequency and damping scale applied during
// the sweep solve.
type MainParams struct {
	Mu      float64
	Lambda  [5]float64
	Nu      [5]float64
	ALow    float64
	AUpp    float64
	F1      float64
	F2      float64
	OmegaDC float64
	ZetaDC  float64
}

// NumDVAParams is the length of the flat DVA design vector.
const NumDVAParams = 47

// DVAParams is the full absorber design: three absorber masses, each with
// five coupling branches.  Branch b = 5*j+k of absorber j connects it to
//
//	k=0: the lower base
//	k=1: primary mass 1
//	k=2: primary mass 2
//	k=3: the upper base
//	k=4: the next absorber (cyclic)
//
// and carries an inerter Beta[b], a spring Lambda[b], and a damper Nu[b].
// The last branch (absorber 3 back to absorber 1, closing the ring) carries
// no damper, so the damper set has 14 entries and the full design vector has
// exactly 47 parameters.  The zero value describes a system with no
// absorbers attached: every absorber row of the assembled matrices is
// identically zero and the solve reduces to the bare two-mass primary
// system.
type DVAParams struct {
	Beta   [15]float64
	Lambda [15]float64
	Mu     [3]float64
	Nu     [14]float64
}

// DVAFromSlice unpacks a flat 47-element design vector ordered
// beta_1..15, lambda_1..15, mu_1..3, nu_1..14.  Any other length is a fatal
// parameter error.
func DVAFromSlice(v []float64) (DVAParams, error) {
	var d DVAParams
	if len(v) != NumDVAParams {
		return d, fmt.Errorf("dva design vector has %v parameters, want %v", len(v), NumDVAParams)
	}
	copy(d.Beta[:], v[0:15])
	copy(d.Lambda[:], v[15:30])
	copy(d.Mu[:], v[30:33])
	copy(d.Nu[:], v[33:47])
	return d, nil
}

// Slice flattens the design back into canonical parameter order.
func (d DVAParams) Slice() []float64 {
	v := make([]float64, 0, NumDVAParams)
	v = append(v, d.Beta[:]...)
	v = append(v, d.Lambda[:]...)
	v = append(v, d.Mu[:]...)
	v = append(v, d.Nu[:]...)
	return v
}

// ParamNames returns the canonical names of the 47 DVA parameters in design
// vector order.
func ParamNames() []string {
	names := make([]string, 0, NumDVAParams)
	for i := 1; i <= 15; i++ {
		names = append(names, fmt.Sprintf("beta_%d", i))
	}
	for i := 1; i <= 15; i++ {
		names = append(names, fmt.Sprintf("lambda_%d", i))
	}
	for i := 1; i <= 3; i++ {
		names = append(names, fmt.Sprintf("mu_%d", i))
	}
	for i := 1; i <= 14; i++ {
		names = append(names, fmt.Sprintf("nu_%d", i))
	}
	return names
}

// ParamSpec declares the search range of one DVA parameter.  Low == Up pins
// the parameter to that value for the whole optimization.
type ParamSpec struct {
	Name string
	Low  float64
	Up   float64
}

func (s ParamSpec) Fixed() bool { return s.Low == s.Up }

// DefaultBounds returns a full 47-row parameter table with conventional
// search ranges: couplings in [0, 2.5] and absorber masses in [0, 0.75].
func DefaultBounds() []ParamSpec {
	names := ParamNames()
	specs := make([]ParamSpec, len(names))
	for i, name := range names {
		up := 2.5
		if i >= 30 && i < 33 { // absorber masses
			up = 0.75
		}
		specs[i] = ParamSpec{Name: name, Low: 0, Up: up}
	}
	return specs
}
