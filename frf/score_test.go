package frf

import "testing"

func TestScoreAreaCriterion(t *testing.T) {
	res := &Result{
		Masses: map[int]*MassResult{
			1: {AreaUnderCurve: 4.0},
		},
	}
	goals := map[int]Goals{
		1: {Criterion{Kind: AreaUnderCurve}: {Target: 2.0, Weight: 1.0}},
	}

	score(res, goals)
	if res.Composite[1] != 2.0 {
		t.Errorf("composite = %v, want exactly 2.0", res.Composite[1])
	}
	if res.SingularResponse != 2.0 {
		t.Errorf("singular response = %v, want 2.0", res.SingularResponse)
	}
}

func TestScoreSkipsAndDefaults(t *testing.T) {
	res := &Result{
		Masses: map[int]*MassResult{
			1: {
				PeakValues:    []float64{10, 20},
				PeakPositions: []float64{100, 200},
				Bandwidths:    []PairStat{{I: 1, J: 2, Value: 100}},
			},
			2: {},
		},
	}
	goals := map[int]Goals{
		1: {
			// zero weight: skipped
			Criterion{Kind: PeakValue, I: 1}: {Target: 5, Weight: 0},
			// zero target: skipped, no divide-by-zero
			Criterion{Kind: PeakValue, I: 2}: {Target: 0, Weight: 1},
			// peak positions are informational only
			Criterion{Kind: PeakPosition, I: 1}: {Target: 50, Weight: 1},
			// missing pair reads 0.0
			Criterion{Kind: Bandwidth, I: 2, J: 3}: {Target: 10, Weight: 1},
			// the one live criterion: 1 * 100/50
			Criterion{Kind: Bandwidth, I: 1, J: 2}: {Target: 50, Weight: 1},
		},
	}

	score(res, goals)
	if res.Composite[1] != 2.0 {
		t.Errorf("composite[1] = %v, want 2.0", res.Composite[1])
	}
	if res.Composite[2] != 0 {
		t.Errorf("composite[2] = %v, want 0 (no goals declared)", res.Composite[2])
	}
	if res.SingularResponse != 2.0 {
		t.Errorf("singular response = %v, want 2.0", res.SingularResponse)
	}
}

func TestScoreSumsAcrossMasses(t *testing.T) {
	res := &Result{
		Masses: map[int]*MassResult{
			1: {AreaUnderCurve: 2},
			2: {AreaUnderCurve: 6},
		},
	}
	crit := Criterion{Kind: AreaUnderCurve}
	goals := map[int]Goals{
		1: {crit: {Target: 2, Weight: 1}},
		2: {crit: {Target: 2, Weight: 0.5}},
	}

	score(res, goals)
	if res.SingularResponse != 1.0+1.5 {
		t.Errorf("singular response = %v, want 2.5", res.SingularResponse)
	}
}
