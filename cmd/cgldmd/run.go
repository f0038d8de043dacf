package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stressosaurus/dmd-introduction/internal/analysis"
	"github.com/stressosaurus/dmd-introduction/internal/config"
	"github.com/stressosaurus/dmd-introduction/internal/experiment"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
	"github.com/stressosaurus/dmd-introduction/internal/storage"
	"github.com/stressosaurus/dmd-introduction/internal/viz"
)

// progress prints a line every tenth of the run.
type progress struct {
	every int
	total int
}

func newProgress(total int) *progress {
	return &progress{every: max(total/10, 1), total: total}
}

func (p *progress) OnStep(step int, u field.Field, t float64) {
	if step%p.every != 0 && step != p.total-1 {
		return
	}
	fmt.Printf("  step %6d/%d  t=%8.3f  ‖u‖=%.6f\n", step, p.total-1, t, u.Norm())
}

func setupExperiment(cfg *config.Config) (*experiment.Experiment, error) {
	reg := experiment.NewRegistry()
	exp := experiment.New(cfg.Experiment())
	if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
		return nil, err
	}
	exp.Simulator().AddObserver(newProgress(cfg.Time.Steps))
	return exp, nil
}

func printConfig(cfg *config.Config) {
	fmt.Printf("M=%d dt=%g steps=%d c0=%g rho=%g q=%g initial=%s nonlinear=%s\n",
		cfg.Grid.M, cfg.Time.Dt, cfg.Time.Steps, cfg.Params.C0, cfg.Params.Rho, cfg.Params.Q,
		cfg.Initial.Kind, cfg.Nonlinear)
}

func printMetrics(metrics map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(metrics) {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	exp, err := setupExperiment(cfg)
	if err != nil {
		return err
	}

	printConfig(cfg)
	start := time.Now()
	result, err := exp.Integrate(cmd.Context())
	if err != nil {
		return err
	}
	slog.Debug("integration finished", slog.Int("steps", result.StepsTaken), slog.Duration("elapsed", time.Since(start)))

	runID, err := st.Save(runLabel(), cfg, result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	fmt.Printf("\nrun saved: %s\n", runID)
	printMetrics(result.Metrics)
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAnalysis(); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	exp, err := setupExperiment(cfg)
	if err != nil {
		return err
	}

	printConfig(cfg)
	report, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	runID, err := st.Save(runLabel(), cfg, report.Run)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := st.SaveAnalysis(runID, storage.Summarize(report)); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	fmt.Printf("\nrun saved: %s\n", runID)
	printMetrics(report.Run.Metrics)
	printReport(report)
	return nil
}

// compareNonlinear integrates the same configuration with every registered
// sub-stepper concurrently and reports the deviation from the default one.
func compareNonlinear(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	names := reg.ListNonlinear()

	ensemble := sim.NewEnsemble()
	var u0 field.Field
	for _, name := range names {
		cfg := base.Clone()
		cfg.Nonlinear = name
		exp := experiment.New(cfg.Experiment())
		if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
			return err
		}
		ensemble.Add(exp.Simulator())
		u0 = exp.InitialField()
	}

	fmt.Printf("comparing nonlinear sub-steppers (M=%d, dt=%g, steps=%d)\n\n", base.Grid.M, base.Time.Dt, base.Time.Steps)
	start := time.Now()
	results, err := ensemble.Run(cmd.Context(), u0, sim.Config{Steps: base.Time.Steps, ValidateField: true})
	if err != nil {
		return err
	}
	slog.Debug("comparison finished", slog.Int("steppers", ensemble.Len()), slog.Duration("elapsed", time.Since(start)))

	ref := results[slices.Index(names, "rk2")]
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tPEAK\tENERGY DRIFT\tVS RK2")
	for i, name := range names {
		res := results[i]
		fmt.Fprintf(w, "%s\t%.6f\t%.3e\t%.3e\n", name,
			res.Metrics["peak_amplitude"], res.Metrics["energy_drift"],
			analysis.RelativeError(ref.Series, res.Series))
	}
	return w.Flush()
}

func printReport(report *experiment.Report) {
	m := report.DMD
	_, length := report.Window.Dims()
	fmt.Printf("\nDMD window [%d, %d) rank %d\n", report.Start, report.Start+length, m.Rank)
	fmt.Printf("  singular values: %s\n", logSparkline(m.Singular))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  MODE\t|b|\t|λ|\tGROWTH\tFREQUENCY")
	for _, mode := range m.Spectrum() {
		fmt.Fprintf(w, "  %d\t%.4e\t%.6f\t%+.4e\t%+.4e\n", mode.Index, mode.Amplitude, mode.Magnitude, mode.Growth, mode.Frequency)
	}
	w.Flush()

	fmt.Printf("\nreconstruction error  dmd: %.3e", report.DMDError)
	if report.PCA != nil {
		fmt.Printf("  pca: %.3e (captured %.4f)", report.PCAError, report.PCA.Captured())
	}
	fmt.Println()
	if report.HasForecast {
		fmt.Printf("forecast error        dmd: %.3e\n", report.ForecastError)
	}
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// logSparkline draws log10 of positive values; singular values span many
// decades.
func logSparkline(values []float64) string {
	logs := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			logs = append(logs, math.Log10(v))
		}
	}
	if len(logs) == 0 {
		return ""
	}
	return viz.Sparkline(logs, min(len(logs), 40))
}
