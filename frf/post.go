package frf

import (
	"encoding/json"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/integrate"
)

// PairStat is a statistic computed between peaks I and J (1-based indices
// into the truncated peak list).
type PairStat struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	Value float64 `json:"value"`
}

// MassResult is the post-processed response record of one active DOF.
// Everything except Magnitude is plain scalars and small slices so the
// record serializes directly to JSON.
type MassResult struct {
	Magnitude      []float64  `json:"magnitude"`
	PeakPositions  []float64  `json:"peak_positions"`
	PeakValues     []float64  `json:"peak_values"`
	Bandwidths     []PairStat `json:"bandwidths"`
	Slopes         []PairStat `json:"slopes"`
	AreaUnderCurve float64    `json:"area_under_curve"`
	SlopeMax       float64    `json:"slope_max"`
}

// MarshalJSON encodes the record with NaN statistics (slope_max with fewer
// than two peaks, area of an empty grid) as null, which encoding/json would
// otherwise reject.
func (m *MassResult) MarshalJSON() ([]byte, error) {
	type alias MassResult
	a := struct {
		*alias
		AreaUnderCurve *float64 `json:"area_under_curve"`
		SlopeMax       *float64 `json:"slope_max"`
	}{alias: (*alias)(m)}
	if !math.IsNaN(m.AreaUnderCurve) {
		a.AreaUnderCurve = &m.AreaUnderCurve
	}
	if !math.IsNaN(m.SlopeMax) {
		a.SlopeMax = &m.SlopeMax
	}
	return json.Marshal(a)
}

func (m *MassResult) UnmarshalJSON(data []byte) error {
	type alias MassResult
	a := struct {
		*alias
		AreaUnderCurve *float64 `json:"area_under_curve"`
		SlopeMax       *float64 `json:"slope_max"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.AreaUnderCurve = math.NaN()
	m.SlopeMax = math.NaN()
	if a.AreaUnderCurve != nil {
		m.AreaUnderCurve = *a.AreaUnderCurve
	}
	if a.SlopeMax != nil {
		m.SlopeMax = *a.SlopeMax
	}
	return nil
}

// maxPeaks caps how many detected peaks are kept for pairwise statistics.
const maxPeaks = 5

// postProcess converts one DOF's complex response into its result record.
func postProcess(resp []complex128, omega []float64) *MassResult {
	mag := make([]float64, len(resp))
	for i, a := range resp {
		mag[i] = cmplx.Abs(a)
	}

	positions, values := findPeaks(mag, omega)
	r := &MassResult{
		Magnitude:      mag,
		PeakPositions:  positions,
		PeakValues:     values,
		AreaUnderCurve: areaUnderCurve(omega, mag),
		SlopeMax:       math.NaN(),
	}

	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			dpos := positions[j] - positions[i]
			slope := 0.0
			if dpos != 0 {
				slope = (values[j] - values[i]) / dpos
			}
			r.Bandwidths = append(r.Bandwidths, PairStat{I: i + 1, J: j + 1, Value: dpos})
			r.Slopes = append(r.Slopes, PairStat{I: i + 1, J: j + 1, Value: slope})
		}
	}

	for _, s := range r.Slopes {
		if math.IsNaN(r.SlopeMax) || math.Abs(s.Value) > math.Abs(r.SlopeMax) {
			r.SlopeMax = s.Value
		}
	}
	return r
}

// findPeaks locates strict local maxima of mag over the omega grid.  When
// more than maxPeaks are found only the largest survive, ordered by
// descending magnitude.  That truncation order - not position order - is
// what the pairwise statistics are computed in; downstream scoring is
// calibrated against it.
func findPeaks(mag, omega []float64) (positions, values []float64) {
	var idx []int
	for i := 1; i < len(mag)-1; i++ {
		if mag[i] > mag[i-1] && mag[i] > mag[i+1] {
			idx = append(idx, i)
		}
	}

	if len(idx) > maxPeaks {
		sort.SliceStable(idx, func(a, b int) bool { return mag[idx[a]] > mag[idx[b]] })
		idx = idx[:maxPeaks]
	}

	for _, i := range idx {
		positions = append(positions, omega[i])
		values = append(values, mag[i])
	}
	return positions, values
}

// areaUnderCurve integrates mag over omega with Simpson's rule, degrading
// gracefully on short grids.
func areaUnderCurve(omega, mag []float64) float64 {
	switch {
	case len(mag) == 0:
		return math.NaN()
	case len(mag) == 1:
		return 0
	case len(mag) == 2:
		return integrate.Trapezoidal(omega, mag)
	default:
		return integrate.Simpsons(omega, mag)
	}
}
