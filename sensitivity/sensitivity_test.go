package sensitivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahan2079/devana/frf"
)

func testRequest() Request {
	bounds := map[string][2]float64{}
	for _, spec := range frf.DefaultBounds() {
		bounds[spec.Name] = [2]float64{spec.Low, spec.Up}
	}
	return Request{
		Main: frf.MainParams{
			Mu:      1.0,
			Lambda:  [5]float64{1, 1, 0.5, 0.5, 0.5},
			Nu:      [5]float64{0.75, 0.75, 0.75, 0.75, 0.75},
			ALow:    0.05,
			AUpp:    0.05,
			F1:      100,
			F2:      100,
			OmegaDC: 5000,
			ZetaDC:  0.01,
		},
		Order:       frf.ParamNames(),
		Bounds:      bounds,
		Sweep:       frf.Sweep{Start: 0, End: 10000, Points: 80},
		Goals:       map[int]frf.Goals{1: {frf.Criterion{Kind: frf.AreaUnderCurve}: frf.Goal{Target: 1, Weight: 1}}},
		SampleSizes: []int{32, 64},
	}
}

func TestRequestValidate(t *testing.T) {
	req := testRequest()
	require.NoError(t, req.Validate())

	short := testRequest()
	short.Order = short.Order[:10]
	assert.Error(t, short.Validate())

	unknown := testRequest()
	unknown.Order = append([]string{}, unknown.Order...)
	unknown.Order[0] = "bogus"
	assert.Error(t, unknown.Validate())

	dup := testRequest()
	dup.Order = append([]string{}, dup.Order...)
	dup.Order[1] = dup.Order[0]
	assert.Error(t, dup.Validate())

	missing := testRequest()
	missing.Bounds = map[string][2]float64{}
	assert.Error(t, missing.Validate())

	inverted := testRequest()
	inverted.Bounds[inverted.Order[0]] = [2]float64{2, 1}
	assert.Error(t, inverted.Validate())

	empty := testRequest()
	empty.SampleSizes = nil
	assert.Error(t, empty.Validate())
}

func TestLowUp(t *testing.T) {
	req := testRequest()
	low, up, err := req.LowUp()
	require.NoError(t, err)
	require.Len(t, low, frf.NumDVAParams)
	require.Len(t, up, frf.NumDVAParams)
	for i := range low {
		assert.LessOrEqual(t, low[i], up[i])
	}
}

func TestEvaluate(t *testing.T) {
	req := testRequest()
	ev := Evaluator{Main: req.Main, Sweep: req.Sweep, Goals: req.Goals}

	// the zero vector is the baseline system and must match a direct solve
	zero := make([]float64, frf.NumDVAParams)
	res, err := frf.SolveBaseline(req.Main, req.Sweep, req.Goals)
	require.NoError(t, err)
	assert.Equal(t, res.SingularResponse, ev.Evaluate(zero))

	// wrong shape scores the penalty instead of failing
	assert.Equal(t, float64(EvalPenalty), ev.Evaluate(make([]float64, 10)))

	// a degenerate main system cannot be solved at all
	dead := ev
	dead.Main = frf.MainParams{}
	assert.Equal(t, float64(EvalPenalty), dead.Evaluate(zero))
}
