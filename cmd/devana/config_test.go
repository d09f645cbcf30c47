package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahan2079/devana/frf"
)

const sampleConfig = `
main:
  mu: 1.0
  lambda: [1, 1, 0.5, 0.5, 0.5]
  nu: [0.75, 0.75, 0.75, 0.75, 0.75]
  a_low: 0.05
  a_upp: 0.05
  f_1: 100
  f_2: 100
  omega_dc: 5000
  zeta_dc: 0.01
sweep:
  start: 0
  end: 10000
  points: 1200
goals:
  - mass: 1
    kind: area_under_curve
    target: 1.0
    weight: 1.0
  - mass: 2
    kind: bandwidth
    i: 1
    j: 2
    target: 300
    weight: 0.5
bounds:
  - name: mu_1
    low: 0.1
    up: 0.5
ga:
  pop_size: 40
  generations: 100
  cx_pb: 0.7
  mut_pb: 0.2
  tolerance: 1e-3
  sparsity_alpha: 0.01
  seed: 42
beam:
  length: 1.0
  width: 0.05
  thickness: 0.01
  youngs_modulus: 210e9
  density: 7800
  num_elements: 40
  omega:
    start: 10
    end: 2000
    points: 50
  load:
    x: 1.0
    amplitude: 1.0
  targets:
    - quantity: displacement
      x: 1.0
      target: 0.0
      weight: 1.0
      max: 0.001
  values:
    candidates: [0.5, 0.75, 1.0]
    num_springs: 2
    num_dampers: 1
    k_low: 0
    k_up: 1e6
    c_low: 0
    c_up: 1e3
    max_iters: 20
    population: 15
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	main := cfg.mainParams()
	assert.Equal(t, 1.0, main.Mu)
	assert.Equal(t, [5]float64{1, 1, 0.5, 0.5, 0.5}, main.Lambda)
	assert.Equal(t, 5000.0, main.OmegaDC)

	sweep := cfg.sweep()
	assert.Equal(t, frf.Sweep{Start: 0, End: 10000, Points: 1200}, sweep)

	goals, err := cfg.goals()
	require.NoError(t, err)
	require.Contains(t, goals, 1)
	require.Contains(t, goals, 2)
	auc := goals[1][frf.Criterion{Kind: frf.AreaUnderCurve}]
	assert.Equal(t, frf.Goal{Target: 1, Weight: 1}, auc)
	bw := goals[2][frf.Criterion{Kind: frf.Bandwidth, I: 1, J: 2}]
	assert.Equal(t, frf.Goal{Target: 300, Weight: 0.5}, bw)
}

func TestBoundOverrides(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	specs, err := cfg.bounds()
	require.NoError(t, err)
	require.Len(t, specs, frf.NumDVAParams)

	overridden := false
	for _, s := range specs {
		if s.Name == "mu_1" {
			assert.Equal(t, 0.1, s.Low)
			assert.Equal(t, 0.5, s.Up)
			overridden = true
		}
	}
	assert.True(t, overridden, "mu_1 override not applied")
}

func TestWorkerConfig(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	wcfg, err := cfg.workerConfig()
	require.NoError(t, err)
	assert.Equal(t, 40, wcfg.PopSize)
	assert.Equal(t, 100, wcfg.Generations)
	assert.Equal(t, 0.7, wcfg.CxPb)
	assert.Equal(t, 0.01, wcfg.SparsityAlpha)
	assert.Equal(t, int64(42), wcfg.Seed)
	assert.Len(t, wcfg.Params, frf.NumDVAParams)
}

func TestBeamConfig(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NotNil(t, cfg.Beam)

	mdl, err := cfg.Beam.model()
	require.NoError(t, err)
	assert.Equal(t, 41, mdl.NumNodes())

	omega, err := cfg.Beam.omega()
	require.NoError(t, err)
	assert.Len(t, omega, 50)
	assert.Equal(t, 10.0, omega[0])
	assert.InDelta(t, 2000.0, omega[49], 1e-9)

	targets, err := cfg.Beam.targets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.True(t, targets[0].HasMax)
	assert.Equal(t, 0.001, targets[0].Max)
	assert.False(t, targets[0].HasMin)
}

func TestConfigErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeConfig(t, "main: ["))
	assert.Error(t, err)

	cfg, err := LoadConfigFile(writeConfig(t, `
goals:
  - mass: 1
    kind: nonsense
`))
	require.NoError(t, err)
	_, err = cfg.goals()
	assert.Error(t, err)

	cfg, err = LoadConfigFile(writeConfig(t, `
goals:
  - mass: 9
    kind: peak_value
`))
	require.NoError(t, err)
	_, err = cfg.goals()
	assert.Error(t, err)

	cfg, err = LoadConfigFile(writeConfig(t, `
bounds:
  - name: nothere
    low: 0
    up: 1
`))
	require.NoError(t, err)
	_, err = cfg.bounds()
	assert.Error(t, err)

	cfg, err = LoadConfigFile(writeConfig(t, `
beam:
  targets:
    - quantity: jerk
`))
	require.NoError(t, err)
	_, err = cfg.Beam.targets()
	assert.Error(t, err)
}
