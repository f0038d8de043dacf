package config

import (
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/stressosaurus/dmd-introduction/internal/dmd"
	"github.com/stressosaurus/dmd-introduction/internal/experiment"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/integrators"
	"github.com/stressosaurus/dmd-introduction/internal/spectral"
	"gopkg.in/yaml.v3"
)

const (
	DefaultM         = 256
	DefaultDt        = 0.05
	DefaultSteps     = 400
	DefaultC0        = 0.25
	DefaultRho       = 0.25
	DefaultQ         = 0.95
	DefaultAmplitude = 0.02
	DefaultMode      = 1
	DefaultRank      = 10
)

type Config struct {
	Grid      GridConfig    `yaml:"grid"`
	Time      TimeConfig    `yaml:"time"`
	Params    ParamsConfig  `yaml:"params"`
	Initial   InitialConfig `yaml:"initial"`
	Nonlinear string        `yaml:"nonlinear"`
	DMD       DMDConfig     `yaml:"dmd"`
	PCA       PCAConfig     `yaml:"pca"`
	Seed      int64         `yaml:"seed"`
}

type GridConfig struct {
	M int `yaml:"m"`
}

type TimeConfig struct {
	Dt    float64 `yaml:"dt"`
	Steps int     `yaml:"steps"`
}

type ParamsConfig struct {
	C0  float64 `yaml:"c0"`
	Rho float64 `yaml:"rho"`
	Q   float64 `yaml:"q"`
}

type InitialConfig struct {
	Kind      string  `yaml:"kind"`
	Amplitude float64 `yaml:"amplitude"`
	Mode      int     `yaml:"mode"`
}

// DMDConfig selects the analysed window and the truncation. Energy is only
// consulted when Rank is zero.
type DMDConfig struct {
	Rank      int     `yaml:"rank"`
	Energy    float64 `yaml:"energy"`
	Tolerance float64 `yaml:"tolerance"`
	Start     int     `yaml:"start"`
	Length    int     `yaml:"length"`
}

type PCAConfig struct {
	Rank int  `yaml:"rank"`
	Skip bool `yaml:"skip"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{M: DefaultM},
		Time: TimeConfig{Dt: DefaultDt, Steps: DefaultSteps},
		Params: ParamsConfig{
			C0:  DefaultC0,
			Rho: DefaultRho,
			Q:   DefaultQ,
		},
		Initial: InitialConfig{
			Kind:      "cosine",
			Amplitude: DefaultAmplitude,
			Mode:      DefaultMode,
		},
		Nonlinear: "rk2",
		DMD:       DMDConfig{Rank: DefaultRank},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Validate checks every field that can be checked before integrating.
func (c *Config) Validate() error {
	if err := c.SpectralParams().Validate(); err != nil {
		return err
	}
	if c.Time.Steps < 1 {
		return field.Invalid("steps must be positive, got %d", c.Time.Steps)
	}
	if !slices.Contains(spectral.InitialKinds(), c.Initial.Kind) && c.Initial.Kind != "" {
		return field.Invalid("unknown initial condition %q", c.Initial.Kind)
	}
	if math.IsNaN(c.Initial.Amplitude) || math.IsInf(c.Initial.Amplitude, 0) {
		return field.Invalid("initial amplitude must be finite")
	}
	if _, err := integrators.Get(c.nonlinear()); err != nil {
		return err
	}
	return c.ValidateAnalysis()
}

// ValidateAnalysis checks the DMD and PCA sections against the run length.
func (c *Config) ValidateAnalysis() error {
	d := c.DMD
	if d.Rank < 0 || d.Start < 0 || d.Length < 0 || d.Tolerance < 0 || c.PCA.Rank < 0 {
		return field.Invalid("dmd/pca settings must be non-negative")
	}
	if d.Rank == 0 && !(d.Energy > 0 && d.Energy <= 1) {
		return field.Invalid("dmd needs a rank or an energy fraction in (0, 1], got rank 0 and energy %g", d.Energy)
	}
	length := d.Length
	if length == 0 {
		length = c.Time.Steps - d.Start
	}
	if length < 2 || d.Start+length > c.Time.Steps {
		return field.Invalid("dmd window [%d, %d) needs at least 2 of the %d snapshots", d.Start, d.Start+length, c.Time.Steps)
	}
	if maxRank := min(c.Grid.M, length-1); d.Rank > maxRank {
		return field.Invalid("dmd rank %d exceeds min(M, L−1) = %d", d.Rank, maxRank)
	}
	if maxRank := min(c.Grid.M, length); c.PCA.Rank > maxRank {
		return field.Invalid("pca rank %d exceeds min(M, L) = %d", c.PCA.Rank, maxRank)
	}
	return nil
}

func (c *Config) nonlinear() string {
	if c.Nonlinear == "" {
		return "rk2"
	}
	return c.Nonlinear
}

func (c *Config) SpectralParams() spectral.Params {
	return spectral.Params{
		M:   c.Grid.M,
		Dt:  c.Time.Dt,
		C0:  c.Params.C0,
		Rho: c.Params.Rho,
		Q:   c.Params.Q,
	}
}

func (c *Config) InitialSpec() spectral.InitialSpec {
	return spectral.InitialSpec{
		Kind:      c.Initial.Kind,
		Amplitude: c.Initial.Amplitude,
		Mode:      c.Initial.Mode,
		Seed:      c.Seed,
	}
}

func (c *Config) AnalysisConfig() experiment.AnalysisConfig {
	return experiment.AnalysisConfig{
		Start:  c.DMD.Start,
		Length: c.DMD.Length,
		DMD: dmd.Options{
			Rank:      c.DMD.Rank,
			Energy:    c.DMD.Energy,
			Dt:        c.Time.Dt,
			Tolerance: c.DMD.Tolerance,
		},
		PCARank: c.PCA.Rank,
		SkipPCA: c.PCA.Skip,
	}
}

// Experiment converts the file form into the numeric pipeline configuration.
func (c *Config) Experiment() experiment.Config {
	return experiment.Config{
		Params:    c.SpectralParams(),
		Nonlinear: c.nonlinear(),
		Initial:   c.InitialSpec(),
		Steps:     c.Time.Steps,
		Analysis:  c.AnalysisConfig(),
	}
}
