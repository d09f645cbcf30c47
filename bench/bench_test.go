package bench_test

import (
	"math"
	"testing"

	"github.com/mahan2079/devana/bench"
)

// Every benchmark function must place its optima inside its own bounds and
// evaluate there to the advertised value.
func TestOptima(t *testing.T) {
	for _, fn := range bench.AllFuncs {
		_, up := fn.Bounds()
		for _, opt := range fn.Optima() {
			if !bench.InsideBounds(opt.Pos(), fn) {
				t.Errorf("[FAIL:%v] optimum %v lies outside the bounds", fn.Name(), opt.Pos())
			}
			got := fn.Eval(opt.Pos())
			tol := 1e-3 * math.Max(1, math.Abs(opt.Val))
			if math.Abs(got-opt.Val) > tol {
				t.Errorf("[FAIL:%v] Eval(optimum) = %v, want %v", fn.Name(), got, opt.Val)
			}
		}

		out := make([]float64, len(up))
		for i := range out {
			out[i] = up[i] + 1
		}
		if v := fn.Eval(out); !math.IsInf(v, 1) {
			t.Errorf("[FAIL:%v] out-of-bounds eval = %v, want +Inf", fn.Name(), v)
		}
	}
}
