package ga

import (
	"database/sql"
	"math"
	"math/rand"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/mahan2079/devana"
	"github.com/mahan2079/devana/bench"
	"github.com/mahan2079/devana/mesh"
)

const maxeval = 30000

func seed(n int64) { devana.Rand = rand.New(rand.NewSource(n)) }

func TestSimple(t *testing.T) {
	seed(7)
	fn := bench.Ackley{}
	low, up := fn.Bounds()
	optimum := fn.Optima()[0].Val

	it := NewIterator(nil, devana.RandPop(60, low, up), low, up)
	best, neval, err := bench.Benchmark(it, fn, .01, maxeval)
	if err != nil {
		t.Fatalf("[ERROR] %v", err)
	}

	t.Logf("[INFO] %v evals: optimum is %v, got %v", neval, optimum, best.Val)
	if best.Val > 1.0 {
		t.Errorf("[FAIL] best %v never got near optimum %v", best.Val, optimum)
	}
	if !bench.InsideBounds(best.Pos(), fn) {
		t.Errorf("[FAIL] best position %v escaped the bounds", best.Pos())
	}
}

func TestBestMonotone(t *testing.T) {
	seed(13)
	fn := bench.Styblinski{NDim: 4}
	low, up := fn.Bounds()
	m := mesh.NewBox(low, up)
	obj := devana.Func(fn.Eval)

	it := NewIterator(nil, devana.RandPop(40, low, up), low, up)
	prev := math.Inf(1)
	for gen := 0; gen < 50; gen++ {
		best, _, err := it.Iterate(obj, m)
		if err != nil {
			t.Fatalf("[ERROR] gen %v: %v", gen, err)
		}
		if best.Val > prev {
			t.Fatalf("[FAIL] gen %v: best worsened from %v to %v", gen, prev, best.Val)
		}
		prev = best.Val
	}
}

// Genes must stay inside their bounds after selection, crossover, and
// mutation, and a gene with identical lower and upper bound can never move.
func TestBoundsAndPinnedGenes(t *testing.T) {
	seed(21)
	low := []float64{0, 0, 1.25, 0, 0}
	up := []float64{2.5, 2.5, 1.25, 2.5, 2.5}
	obj := devana.Func(func(v []float64) float64 {
		tot := 0.0
		for _, x := range v {
			tot += x * x
		}
		return tot
	})

	it := NewIterator(nil, devana.RandPop(30, low, up), low, up)
	for gen := 0; gen < 30; gen++ {
		if _, _, err := it.Iterate(obj, nil); err != nil {
			t.Fatalf("[ERROR] gen %v: %v", gen, err)
		}
	}

	for i, p := range it.Pop {
		for g := 0; g < p.Len(); g++ {
			if p.At(g) < low[g] || p.At(g) > up[g] {
				t.Errorf("[FAIL] indiv %v gene %v = %v outside [%v,%v]", i, g, p.At(g), low[g], up[g])
			}
		}
		if p.At(2) != 1.25 {
			t.Errorf("[FAIL] indiv %v pinned gene moved to %v", i, p.At(2))
		}
	}
}

func TestAdaptiveRates(t *testing.T) {
	seed(3)
	low := []float64{0, 0}
	up := []float64{1, 1}
	// a flat objective never improves, so stagnation is guaranteed
	obj := devana.Func(func(v []float64) float64 { return 5 })

	it := NewIterator(nil, devana.RandPop(20, low, up), low, up,
		AdaptiveRates(2, 0.4, 0.9, 0.05, 0.5))
	for gen := 0; gen < 3; gen++ {
		if _, _, err := it.Iterate(obj, nil); err != nil {
			t.Fatalf("[ERROR] gen %v: %v", gen, err)
		}
	}

	cxpb, mutpb := it.Rates()
	if cxpb != 0.4 || mutpb != 0.5 {
		t.Errorf("[FAIL] rates after stagnation are (%v,%v), want explore phase (0.4,0.5)", cxpb, mutpb)
	}

	st := it.Stats()
	if st.Min != 5 || st.Max != 5 || st.Mean != 5 || st.Std != 0 {
		t.Errorf("[FAIL] flat population stats are %+v", st)
	}
}

func TestDb(t *testing.T) {
	seed(5)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	fn := bench.Ackley{}
	low, up := fn.Bounds()
	it := NewIterator(nil, devana.RandPop(20, low, up), low, up, DB(db))

	if _, _, err := bench.Benchmark(it, fn, .01, 2000); err != nil {
		t.Fatalf("[ERROR] %v", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM " + TblIndivs).Scan(&count)
	if err != nil {
		t.Errorf("[ERROR] indivs table query failed: %v", err)
	} else if count == 0 {
		t.Errorf("[ERROR] indivs table has no rows")
	}

	count = 0
	err = db.QueryRow("SELECT COUNT(*) FROM " + TblBest).Scan(&count)
	if err != nil {
		t.Errorf("[ERROR] best table query failed: %v", err)
	} else if count == 0 {
		t.Errorf("[ERROR] best table has no rows")
	}
}
