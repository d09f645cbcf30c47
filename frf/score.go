package frf

// Kind enumerates the scoreable response criteria.
type Kind int

const (
	PeakValue Kind = iota
	PeakPosition
	Bandwidth
	Slope
	AreaUnderCurve
	SlopeMax
)

// Criterion is a typed criterion key.  I and J are 1-based peak indices:
// PeakValue/PeakPosition use I only, Bandwidth/Slope use the (I, J) pair,
// and the aggregate kinds ignore both.
type Criterion struct {
	Kind Kind
	I    int
	J    int
}

// Goal pairs a target value with its weight in the composite measure.
type Goal struct {
	Target float64
	Weight float64
}

// Goals maps criteria to goals for one mass.  Sparse maps are fine: missing
// criteria simply contribute nothing.
type Goals map[Criterion]Goal

// score accumulates the per-mass composite measures and the grand singular
// response onto res.  For each declared criterion with nonzero weight and
// nonzero target the contribution is weight*(actual/target).  Peak-position
// criteria are informational only and never scored.  Criteria that reference
// peaks or pairs the result does not have read an actual value of 0.
func score(res *Result, goals map[int]Goals) {
	res.Composite = make(map[int]float64, len(res.Masses))
	res.SingularResponse = 0

	for massID, mr := range res.Masses {
		composite := 0.0
		for crit, goal := range goals[massID] {
			if goal.Weight == 0 || crit.Kind == PeakPosition {
				continue
			}
			if goal.Target == 0 {
				continue // avoid divide-by-zero
			}
			composite += goal.Weight * (criterionValue(mr, crit) / goal.Target)
		}
		res.Composite[massID] = composite
		res.SingularResponse += composite
	}
}

func criterionValue(mr *MassResult, crit Criterion) float64 {
	switch crit.Kind {
	case PeakValue:
		if crit.I >= 1 && crit.I <= len(mr.PeakValues) {
			return mr.PeakValues[crit.I-1]
		}
	case Bandwidth:
		return pairValue(mr.Bandwidths, crit.I, crit.J)
	case Slope:
		return pairValue(mr.Slopes, crit.I, crit.J)
	case AreaUnderCurve:
		return mr.AreaUnderCurve
	case SlopeMax:
		return mr.SlopeMax
	}
	return 0
}

func pairValue(stats []PairStat, i, j int) float64 {
	for _, s := range stats {
		if s.I == i && s.J == j {
			return s.Value
		}
	}
	return 0
}
