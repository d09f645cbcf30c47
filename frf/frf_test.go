package frf

import (
	"errors"
	"math"
	"testing"
)

func testMain() MainParams {
	return MainParams{
		Mu:      1.0,
		Lambda:  [5]float64{1, 1, 0.5, 0.5, 0.5},
		Nu:      [5]float64{0.75, 0.75, 0.75, 0.75, 0.75},
		ALow:    0.05,
		AUpp:    0.05,
		F1:      100,
		F2:      100,
		OmegaDC: 5000,
		ZetaDC:  0.01,
	}
}

func testSweep() Sweep { return Sweep{Start: 0, End: 10000, Points: 1200} }

func TestSolveBaselineMasses(t *testing.T) {
	res, err := SolveBaseline(testMain(), testSweep(), nil)
	if err != nil {
		t.Fatalf("baseline solve failed: %v", err)
	}

	for _, id := range []int{1, 2} {
		mr, ok := res.Masses[id]
		if !ok {
			t.Errorf("mass_%v missing from baseline result", id)
			continue
		}
		if len(mr.Magnitude) != 1200 {
			t.Errorf("mass_%v magnitude has %v samples, want 1200", id, len(mr.Magnitude))
		}
		for i, v := range mr.Magnitude {
			if math.IsNaN(v) || v < 0 {
				t.Errorf("mass_%v magnitude[%v] = %v", id, i, v)
				break
			}
		}
	}
	for _, id := range []int{3, 4, 5} {
		if _, ok := res.Masses[id]; ok {
			t.Errorf("degenerate absorber mass_%v present in baseline result", id)
		}
	}
}

func TestSolveIsPure(t *testing.T) {
	var dva DVAParams
	dva.Mu = [3]float64{0.1, 0.1, 0.1}
	dva.Lambda[0] = 1.2
	dva.Lambda[5] = 0.8
	dva.Lambda[10] = 0.4
	dva.Nu[0] = 0.05
	dva.Nu[5] = 0.05
	dva.Nu[10] = 0.05

	sweep := Sweep{Start: 1, End: 5000, Points: 300}
	r1, err := Solve(testMain(), dva, sweep, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Solve(testMain(), dva, sweep, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(r1.Masses) != len(r2.Masses) {
		t.Fatalf("mass count differs between identical solves: %v != %v", len(r1.Masses), len(r2.Masses))
	}
	for id, m1 := range r1.Masses {
		m2 := r2.Masses[id]
		for i := range m1.Magnitude {
			if m1.Magnitude[i] != m2.Magnitude[i] {
				t.Fatalf("mass_%v magnitude[%v] differs: %v != %v", id, i, m1.Magnitude[i], m2.Magnitude[i])
			}
		}
	}
}

func TestSolveActiveAbsorbers(t *testing.T) {
	// attach all three absorbers; all five DOFs should survive reduction
	var dva DVAParams
	for j := 0; j < 3; j++ {
		dva.Mu[j] = 0.2
	}
	for b := 0; b < 15; b++ {
		dva.Lambda[b] = 0.5
	}
	for b := 0; b < len(dva.Nu); b++ {
		dva.Nu[b] = 0.1
	}

	res, err := Solve(testMain(), dva, Sweep{Start: 1, End: 2000, Points: 200}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Masses) != 5 {
		t.Errorf("got %v active masses, want 5", len(res.Masses))
	}
}

func TestSolveSinglePoint(t *testing.T) {
	res, err := SolveBaseline(testMain(), Sweep{Start: 100, End: 100, Points: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	mr := res.Masses[1]
	if len(mr.Magnitude) != 1 {
		t.Fatalf("single-point sweep produced %v samples", len(mr.Magnitude))
	}
	if len(mr.PeakPositions) != 0 {
		t.Errorf("single sample cannot contain peaks, got %v", len(mr.PeakPositions))
	}
	if mr.AreaUnderCurve != 0 {
		t.Errorf("single-sample area = %v, want 0", mr.AreaUnderCurve)
	}
	if !math.IsNaN(mr.SlopeMax) {
		t.Errorf("slope_max with no peaks = %v, want NaN", mr.SlopeMax)
	}
}

func TestDescendingSweep(t *testing.T) {
	if _, err := (Sweep{Start: 5000, End: 1, Points: 50}).Omega(); err == nil {
		t.Error("descending sweep accepted, want error")
	}
	// reversed start/end must surface as a parameter error, never a panic
	if _, err := Solve(testMain(), DVAParams{}, Sweep{Start: 5000, End: 1, Points: 50}, nil); err == nil {
		t.Error("Solve accepted a descending sweep, want error")
	}

	// equal endpoints are still a valid degenerate grid
	w, err := (Sweep{Start: 100, End: 100, Points: 3}).Omega()
	if err != nil {
		t.Fatalf("constant sweep rejected: %v", err)
	}
	for i, v := range w {
		if v != 100 {
			t.Errorf("constant sweep omega[%v] = %v, want 100", i, v)
		}
	}
}

func TestDVAFromSliceLength(t *testing.T) {
	for _, n := range []int{0, 46, 48, 100} {
		if _, err := DVAFromSlice(make([]float64, n)); err == nil {
			t.Errorf("length %v accepted, want error", n)
		}
	}
	v := make([]float64, NumDVAParams)
	for i := range v {
		v[i] = float64(i)
	}
	d, err := DVAFromSlice(v)
	if err != nil {
		t.Fatalf("valid length rejected: %v", err)
	}
	back := d.Slice()
	for i := range v {
		if back[i] != v[i] {
			t.Fatalf("round trip differs at %v: %v != %v", i, back[i], v[i])
		}
	}
}

func TestAllZeroSystem(t *testing.T) {
	_, err := SolveBaseline(MainParams{}, Sweep{Start: 0, End: 10, Points: 5}, nil)
	if !errors.Is(err, ErrAllZeroDOFs) {
		t.Errorf("zero system returned %v, want ErrAllZeroDOFs", err)
	}
}

func TestBaselineMatchesZeroDVA(t *testing.T) {
	sweep := Sweep{Start: 1, End: 3000, Points: 400}
	base, err := SolveBaseline(testMain(), sweep, nil)
	if err != nil {
		t.Fatal(err)
	}
	zero, err := Solve(testMain(), DVAParams{}, sweep, nil)
	if err != nil {
		t.Fatal(err)
	}
	for id, bm := range base.Masses {
		zm := zero.Masses[id]
		for i := range bm.Magnitude {
			if bm.Magnitude[i] != zm.Magnitude[i] {
				t.Fatalf("mass_%v baseline differs from zero-DVA solve at %v", id, i)
			}
		}
	}
}
