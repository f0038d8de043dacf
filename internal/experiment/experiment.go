package experiment

import (
	"context"
	"fmt"

	"github.com/stressosaurus/dmd-introduction/internal/analysis"
	"github.com/stressosaurus/dmd-introduction/internal/dmd"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/linalg"
	"github.com/stressosaurus/dmd-introduction/internal/pca"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
	"github.com/stressosaurus/dmd-introduction/internal/spectral"
	"gonum.org/v1/gonum/mat"
)

// Config describes one integrate-then-decompose experiment.
type Config struct {
	Params    spectral.Params
	Nonlinear string
	Initial   spectral.InitialSpec
	Steps     int // snapshots, including the initial condition
	Analysis  AnalysisConfig
}

// AnalysisConfig selects the window and the decomposition ranks.
type AnalysisConfig struct {
	Start  int
	Length int // 0 runs the window to the end of the series
	// DMD.Dt is filled from the run when zero.
	DMD     dmd.Options
	PCARank int // 0 reuses the DMD rank
	SkipPCA bool
}

// Report collects the outputs of one experiment.
type Report struct {
	Run    *sim.Result // nil when analysing a stored series
	Series mat.CMatrix
	Window *mat.CDense
	Start  int

	DMD *dmd.Model
	PCA *pca.Model

	DMDError float64
	PCAError float64
	// ForecastError compares the DMD extrapolation with the columns after the
	// window; HasForecast is false when the window reaches the end.
	ForecastError float64
	HasForecast   bool
}

type Experiment struct {
	cfg       Config
	stepper   *spectral.Stepper
	u0        field.Field
	simulator *sim.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup resolves the stepper and initial condition and attaches metrics.
func (e *Experiment) Setup(reg *Registry, metrics []sim.Metric) error {
	nl, err := reg.GetNonlinear(e.cfg.Nonlinear)
	if err != nil {
		return err
	}
	stepper, err := spectral.New(e.cfg.Params, nl)
	if err != nil {
		return err
	}
	ic, err := reg.GetInitial(e.cfg.Initial)
	if err != nil {
		return err
	}

	e.stepper = stepper
	e.u0 = ic(e.cfg.Params.M)
	e.simulator = sim.New(stepper)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Stepper returns the configured split-step integrator.
func (e *Experiment) Stepper() *spectral.Stepper {
	return e.stepper
}

// InitialField returns a copy of the initial condition.
func (e *Experiment) InitialField() field.Field {
	return e.u0.Clone()
}

// Integrate produces the M×N series.
func (e *Experiment) Integrate(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.u0, sim.Config{Steps: e.cfg.Steps, ValidateField: true})
}

// Run integrates and then analyses the configured window.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	res, err := e.Integrate(ctx)
	if err != nil {
		return nil, err
	}
	acfg := e.cfg.Analysis
	if acfg.DMD.Dt == 0 {
		acfg.DMD.Dt = e.cfg.Params.Dt
	}
	report, err := Analyze(res.Series, acfg)
	if err != nil {
		return nil, err
	}
	report.Run = res
	return report, nil
}

// Window copies columns [start, start+length) of series. A zero length runs
// to the last column.
func Window(series mat.CMatrix, start, length int) (*mat.CDense, error) {
	_, n := series.Dims()
	if length == 0 {
		length = n - start
	}
	if start < 0 || length < 1 || start+length > n {
		return nil, field.Invalid("window [%d, %d) outside series of %d columns", start, start+length, n)
	}
	return linalg.Columns(series, start, start+length), nil
}

// Analyze fits DMD and PCA to a window of series and scores both
// reconstructions.
func Analyze(series mat.CMatrix, cfg AnalysisConfig) (*Report, error) {
	m, n := series.Dims()
	window, err := Window(series, cfg.Start, cfg.Length)
	if err != nil {
		return nil, err
	}
	_, length := window.Dims()

	model, err := dmd.Fit(window, cfg.DMD)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Series:   series,
		Window:   window,
		Start:    cfg.Start,
		DMD:      model,
		DMDError: analysis.RelativeError(window, model.Series(length)),
	}

	if end := cfg.Start + length; end < n {
		held := linalg.Columns(series, end, n)
		forecast := mat.NewCDense(m, n-end, nil)
		for j := end; j < n; j++ {
			field.SetColumn(forecast, j-end, model.Reconstruct(float64(j-cfg.Start)*model.Dt))
		}
		report.ForecastError = analysis.RelativeError(held, forecast)
		report.HasForecast = true
	}

	if !cfg.SkipPCA {
		rank := cfg.PCARank
		if rank == 0 {
			rank = model.Rank
		}
		p, err := pca.Fit(window, rank)
		if err != nil {
			return nil, err
		}
		report.PCA = p
		report.PCAError = analysis.RelativeError(window, p.Reconstruct())
	}

	return report, nil
}
