package mesh

import (
	"math"
	"testing"
)

func TestInfiniteNearest(t *testing.T) {
	var tests = []struct {
		origin []float64
		step   float64
		p      []float64
		want   []float64
	}{
		{origin: nil, step: 0, p: []float64{1.3, -2.7}, want: []float64{1.3, -2.7}},
		{origin: []float64{0, 0}, step: 0.5, p: []float64{1.3, -2.7}, want: []float64{1.5, -2.5}},
		{origin: []float64{0.1, 0}, step: 1, p: []float64{1.7, 0.4}, want: []float64{2.1, 0}},
	}

	for i, test := range tests {
		m := &Infinite{Origin: test.origin, Step: test.step}
		got := m.Nearest(test.p)
		for j := range got {
			if math.Abs(got[j]-test.want[j]) > 1e-12 {
				t.Errorf("test %v: Nearest(%v) = %v, want %v", i, test.p, got, test.want)
				break
			}
		}
	}
}

func TestBoundedNearest(t *testing.T) {
	low := []float64{0, -1, 3}
	up := []float64{1, 1, 3}
	m := NewBox(low, up)

	got := m.Nearest([]float64{-0.5, 2, 7})
	want := []float64{0, 1, 3}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("Nearest = %v, want %v", got, want)
			break
		}
	}

	// degenerate bound pins dimension exactly
	if got[2] != 3 {
		t.Errorf("pinned dimension moved: got %v, want 3", got[2])
	}

	// in-bounds points pass through untouched on a continuous mesh
	p := []float64{0.25, 0.5, 3}
	got = m.Nearest(p)
	for i := range got {
		if got[i] != p[i] {
			t.Errorf("in-bounds Nearest = %v, want %v", got, p)
			break
		}
	}
}
