package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mahan2079/devana/beam"
	"github.com/mahan2079/devana/frf"
	"github.com/mahan2079/devana/worker"
)

// Config is the YAML schema shared by every subcommand.  Sections a
// subcommand does not use may be omitted.
type Config struct {
	Main  MainConfig   `yaml:"main"`
	Sweep SweepConfig  `yaml:"sweep"`
	Goals []GoalConfig `yaml:"goals"`
	DVA   []float64    `yaml:"dva"`

	Bounds []BoundConfig `yaml:"bounds"`
	GA     GAConfig      `yaml:"ga"`

	Beam *BeamConfig `yaml:"beam"`
}

type MainConfig struct {
	Mu      float64    `yaml:"mu"`
	Lambda  [5]float64 `yaml:"lambda"`
	Nu      [5]float64 `yaml:"nu"`
	ALow    float64    `yaml:"a_low"`
	AUpp    float64    `yaml:"a_upp"`
	F1      float64    `yaml:"f_1"`
	F2      float64    `yaml:"f_2"`
	OmegaDC float64    `yaml:"omega_dc"`
	ZetaDC  float64    `yaml:"zeta_dc"`
}

type SweepConfig struct {
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	Points int     `yaml:"points"`
}

type GoalConfig struct {
	Mass   int     `yaml:"mass"`
	Kind   string  `yaml:"kind"`
	I      int     `yaml:"i"`
	J      int     `yaml:"j"`
	Target float64 `yaml:"target"`
	Weight float64 `yaml:"weight"`
}

type BoundConfig struct {
	Name string  `yaml:"name"`
	Low  float64 `yaml:"low"`
	Up   float64 `yaml:"up"`
}

type GAConfig struct {
	PopSize       int     `yaml:"pop_size"`
	Generations   int     `yaml:"generations"`
	CxPb          float64 `yaml:"cx_pb"`
	MutPb         float64 `yaml:"mut_pb"`
	Tolerance     float64 `yaml:"tolerance"`
	SparsityAlpha float64 `yaml:"sparsity_alpha"`
	Seed          int64   `yaml:"seed"`

	Adaptive        bool    `yaml:"adaptive"`
	StagnationLimit int     `yaml:"stagnation_limit"`
	CxMin           float64 `yaml:"cx_min"`
	CxMax           float64 `yaml:"cx_max"`
	MutMin          float64 `yaml:"mut_min"`
	MutMax          float64 `yaml:"mut_max"`
}

type BeamConfig struct {
	Length        float64 `yaml:"length"`
	Width         float64 `yaml:"width"`
	Thickness     float64 `yaml:"thickness"`
	YoungsModulus float64 `yaml:"youngs_modulus"`
	Density       float64 `yaml:"density"`
	NumElements   int     `yaml:"num_elements"`
	AlphaM        float64 `yaml:"alpha_m"`
	BetaK         float64 `yaml:"beta_k"`

	Omega   SweepConfig        `yaml:"omega"`
	Load    LoadConfig         `yaml:"load"`
	Targets []BeamTargetConfig `yaml:"targets"`

	Values    *BeamValuesConfig    `yaml:"values"`
	Placement *BeamPlacementConfig `yaml:"placement"`
}

type LoadConfig struct {
	X         float64 `yaml:"x"`
	Amplitude float64 `yaml:"amplitude"`
}

type BeamTargetConfig struct {
	Quantity string   `yaml:"quantity"`
	X        float64  `yaml:"x"`
	Target   float64  `yaml:"target"`
	Weight   float64  `yaml:"weight"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
}

type BeamValuesConfig struct {
	Candidates []float64 `yaml:"candidates"`
	NumSprings int       `yaml:"num_springs"`
	NumDampers int       `yaml:"num_dampers"`
	KLow       float64   `yaml:"k_low"`
	KUp        float64   `yaml:"k_up"`
	CLow       float64   `yaml:"c_low"`
	CUp        float64   `yaml:"c_up"`
	MaxIters   int       `yaml:"max_iters"`
	Population int       `yaml:"population"`
}

type BeamPlacementConfig struct {
	NumSprings int     `yaml:"num_springs"`
	NumDampers int     `yaml:"num_dampers"`
	XLow       float64 `yaml:"x_low"`
	XUp        float64 `yaml:"x_up"`
	KLow       float64 `yaml:"k_low"`
	KUp        float64 `yaml:"k_up"`
	CLow       float64 `yaml:"c_low"`
	CUp        float64 `yaml:"c_up"`
	MaxIters   int     `yaml:"max_iters"`
	Population int     `yaml:"population"`
}

func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func (c *Config) mainParams() frf.MainParams {
	return frf.MainParams{
		Mu:      c.Main.Mu,
		Lambda:  c.Main.Lambda,
		Nu:      c.Main.Nu,
		ALow:    c.Main.ALow,
		AUpp:    c.Main.AUpp,
		F1:      c.Main.F1,
		F2:      c.Main.F2,
		OmegaDC: c.Main.OmegaDC,
		ZetaDC:  c.Main.ZetaDC,
	}
}

func (c *Config) sweep() frf.Sweep {
	return frf.Sweep{Start: c.Sweep.Start, End: c.Sweep.End, Points: c.Sweep.Points}
}

var kindNames = map[string]frf.Kind{
	"peak_value":       frf.PeakValue,
	"peak_position":    frf.PeakPosition,
	"bandwidth":        frf.Bandwidth,
	"slope":            frf.Slope,
	"area_under_curve": frf.AreaUnderCurve,
	"slope_max":        frf.SlopeMax,
}

func (c *Config) goals() (map[int]frf.Goals, error) {
	out := map[int]frf.Goals{}
	for _, g := range c.Goals {
		kind, ok := kindNames[g.Kind]
		if !ok {
			return nil, fmt.Errorf("unknown goal kind %q", g.Kind)
		}
		if g.Mass < 1 || g.Mass > frf.NumDOF {
			return nil, fmt.Errorf("goal mass %v out of range 1..%v", g.Mass, frf.NumDOF)
		}
		if out[g.Mass] == nil {
			out[g.Mass] = frf.Goals{}
		}
		crit := frf.Criterion{Kind: kind, I: g.I, J: g.J}
		out[g.Mass][crit] = frf.Goal{Target: g.Target, Weight: g.Weight}
	}
	return out, nil
}

// bounds starts from the default parameter table and applies any overrides
// by name.
func (c *Config) bounds() ([]frf.ParamSpec, error) {
	specs := frf.DefaultBounds()
	index := map[string]int{}
	for i, s := range specs {
		index[s.Name] = i
	}
	for _, b := range c.Bounds {
		i, ok := index[b.Name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q in bounds", b.Name)
		}
		if b.Low > b.Up {
			return nil, fmt.Errorf("parameter %q has inverted bounds [%v,%v]", b.Name, b.Low, b.Up)
		}
		specs[i].Low = b.Low
		specs[i].Up = b.Up
	}
	return specs, nil
}

func (c *Config) workerConfig() (worker.Config, error) {
	goals, err := c.goals()
	if err != nil {
		return worker.Config{}, err
	}
	specs, err := c.bounds()
	if err != nil {
		return worker.Config{}, err
	}
	return worker.Config{
		Main:            c.mainParams(),
		Sweep:           c.sweep(),
		Goals:           goals,
		Params:          specs,
		PopSize:         c.GA.PopSize,
		Generations:     c.GA.Generations,
		CxPb:            c.GA.CxPb,
		MutPb:           c.GA.MutPb,
		Tolerance:       c.GA.Tolerance,
		SparsityAlpha:   c.GA.SparsityAlpha,
		Seed:            c.GA.Seed,
		Adaptive:        c.GA.Adaptive,
		StagnationLimit: c.GA.StagnationLimit,
		CxMin:           c.GA.CxMin,
		CxMax:           c.GA.CxMax,
		MutMin:          c.GA.MutMin,
		MutMax:          c.GA.MutMax,
	}, nil
}

var quantityNames = map[string]beam.Quantity{
	"displacement": beam.Displacement,
	"velocity":     beam.Velocity,
	"acceleration": beam.Acceleration,
}

func (bc *BeamConfig) model() (*beam.Model, error) {
	mdl, err := beam.NewModel(bc.Length, bc.Width, bc.Thickness, bc.YoungsModulus, bc.Density, bc.NumElements)
	if err != nil {
		return nil, err
	}
	mdl.AlphaM = bc.AlphaM
	mdl.BetaK = bc.BetaK
	return mdl, nil
}

func (bc *BeamConfig) omega() ([]float64, error) {
	s := frf.Sweep{Start: bc.Omega.Start, End: bc.Omega.End, Points: bc.Omega.Points}
	return s.Omega()
}

func (bc *BeamConfig) targets() ([]beam.TargetSpec, error) {
	out := make([]beam.TargetSpec, 0, len(bc.Targets))
	for _, t := range bc.Targets {
		q, ok := quantityNames[t.Quantity]
		if !ok {
			return nil, fmt.Errorf("unknown quantity %q", t.Quantity)
		}
		spec := beam.TargetSpec{
			Quantity: q,
			X:        t.X,
			Target:   t.Target,
			Weight:   t.Weight,
		}
		if t.Min != nil {
			spec.HasMin = true
			spec.Min = *t.Min
		}
		if t.Max != nil {
			spec.HasMax = true
			spec.Max = *t.Max
		}
		out = append(out, spec)
	}
	return out, nil
}
