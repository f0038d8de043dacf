package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/stressosaurus/dmd-introduction/internal/analysis"
	"github.com/stressosaurus/dmd-introduction/internal/config"
	"github.com/stressosaurus/dmd-introduction/internal/dmd"
	"github.com/stressosaurus/dmd-introduction/internal/experiment"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"github.com/stressosaurus/dmd-introduction/internal/linalg"
	"github.com/stressosaurus/dmd-introduction/internal/pca"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
	"github.com/stressosaurus/dmd-introduction/internal/spectral"
	"github.com/stressosaurus/dmd-introduction/internal/storage"
	"github.com/stressosaurus/dmd-introduction/internal/viz"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// storedRun is a run loaded back with the configuration it was produced
// from, resized to the stored series.
type storedRun struct {
	meta   *storage.RunMetadata
	series *mat.CDense
	cfg    *config.Config
}

func loadRun(cmd *cobra.Command, runID string) (*storedRun, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if meta.Config != nil {
		cfg = meta.Config.Clone()
	}
	rows, cols := series.Dims()
	cfg.Grid.M = rows
	cfg.Time.Steps = cols
	cfg.Time.Dt = meta.Dt
	applyAnalysisFlags(cmd, cfg)

	return &storedRun{meta: meta, series: series, cfg: cfg}, nil
}

func (r *storedRun) analyze() (*experiment.Report, error) {
	if err := r.cfg.ValidateAnalysis(); err != nil {
		return nil, err
	}
	return experiment.Analyze(r.series, r.cfg.AnalysisConfig())
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tM\tN\tDT\tPEAK\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%.4f\t%s\n",
			run.ID, run.Name, run.Rows, run.Cols, run.Dt,
			run.Metrics["peak_amplitude"], run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tM\tDT\tSTEPS\tC0\tRHO\tQ\tINITIAL\tDMD")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		selection := fmt.Sprintf("rank %d", p.DMD.Rank)
		if p.DMD.Rank == 0 {
			selection = fmt.Sprintf("energy %g", p.DMD.Energy)
		}
		fmt.Fprintf(w, "%s\t%d\t%g\t%d\t%g\t%g\t%g\t%s\t%s\n",
			name, p.Grid.M, p.Time.Dt, p.Time.Steps, p.Params.C0, p.Params.Rho, p.Params.Q,
			p.Initial.Kind, selection)
	}
	return w.Flush()
}

func dmdRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	report, err := run.analyze()
	if err != nil {
		var degenerate *field.DegeneracyError
		if errors.As(err, &degenerate) {
			fmt.Printf("fit is degenerate at stage %s, index %d; try a lower --rank\n", degenerate.Stage, degenerate.Index)
		}
		return err
	}

	printReport(report)

	if saveAnalysis {
		st := storage.New(dataDir)
		if err := st.SaveAnalysis(run.meta.ID, storage.Summarize(report)); err != nil {
			return fmt.Errorf("failed to save analysis: %w", err)
		}
		fmt.Printf("\nanalysis saved: %s\n", run.meta.ID)
	}
	return nil
}

func pcaRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if err := run.cfg.ValidateAnalysis(); err != nil {
		return err
	}
	window, err := experiment.Window(run.series, run.cfg.DMD.Start, run.cfg.DMD.Length)
	if err != nil {
		return err
	}

	k := run.cfg.PCA.Rank
	if k == 0 {
		k = run.cfg.DMD.Rank
	}
	if k == 0 {
		values, err := linalg.SingularValues(window)
		if err != nil {
			return err
		}
		k = linalg.RankForEnergy(values, run.cfg.DMD.Energy)
	}
	model, err := pca.Fit(window, k)
	if err != nil {
		return err
	}

	_, length := window.Dims()
	fmt.Printf("PCA window [%d, %d) rank %d\n", run.cfg.DMD.Start, run.cfg.DMD.Start+length, model.Rank)
	fmt.Printf("  singular values: %s\n", logSparkline(model.Values))

	explained := model.ExplainedEnergy()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  K\tσ\tCUMULATIVE ENERGY")
	for i, s := range model.Singular {
		fmt.Fprintf(w, "  %d\t%.4e\t%.8f\n", i+1, s, explained[i])
	}
	w.Flush()

	fmt.Printf("\nreconstruction error  pca: %.3e (captured %.6f)\n",
		analysis.RelativeError(window, model.Reconstruct()), model.Captured())
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	_, n := series.Dims()

	cols := columns
	if len(cols) == 0 {
		cols = []int{0, n - 1}
	}
	data := make([][]float64, 0, len(cols))
	for _, j := range cols {
		if j < 0 || j >= n {
			return field.Invalid("column %d out of range [0, %d)", j, n)
		}
		data = append(data, field.Column(series, j).Abs())
	}

	fmt.Println(asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s |u(x)| at t = %s", meta.ID, columnTimes(cols, meta.Dt)))))

	norms := make([]float64, n)
	for j := range norms {
		norms[j] = field.Column(series, j).Norm()
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(norms,
		asciigraph.Height(height/2+1),
		asciigraph.Width(width),
		asciigraph.Caption("‖u‖ over time")))
	return nil
}

func columnTimes(cols []int, dt float64) string {
	parts := make([]string, len(cols))
	for i, j := range cols {
		parts[i] = fmt.Sprintf("%.3g", float64(j)*dt)
	}
	return strings.Join(parts, ", ")
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	m, n := run.series.Dims()
	if row < 0 || row >= m {
		return field.Invalid("row %d out of range [0, %d)", row, m)
	}
	dt := run.meta.Dt

	last := field.Column(run.series, n-1)
	spatial := analysis.SpatialSpectrum(last)
	k := field.Wavenumbers(m)
	peak := analysis.DominantIndex(spatial[1:]) + 1
	fmt.Printf("spatial spectrum of the final field\n")
	fmt.Printf("  mean power |û_0|²: %.6e\n", spatial[0])
	fmt.Printf("  dominant wavenumber: k=%g (|û|²=%.6e)\n", k[peak], spatial[peak])

	logSpatial := make([]float64, len(spatial))
	for i, p := range spatial {
		logSpatial[i] = math.Log10(p + 1e-300)
	}
	fmt.Println(asciigraph.Plot(logSpatial[:m/2+1],
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("log10 |û_k|², k = 0..M/2")))

	temporal := analysis.TemporalSpectrum(run.series, row)
	freqs := analysis.Frequencies(n, dt)
	fmt.Printf("\ntemporal spectrum of Re u at x_%d\n", row)
	if len(temporal) > 1 {
		idx := analysis.DominantIndex(temporal[1:]) + 1
		fmt.Printf("  dominant angular frequency: %.6f\n", freqs[idx])
	}
	fmt.Printf("  mean phase velocity: %.6f\n", analysis.MeanFrequency(run.series, row, dt))

	portrait := analysis.PhasePortrait(run.series, row)
	fmt.Println("\nphase portrait (Re u, Im u)")
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 20))

	if lyapunovSteps > 0 {
		stepper, err := storedStepper(run.cfg, run.cfg.SpectralParams())
		if err != nil {
			return err
		}
		lambda := analysis.LyapunovExponent(stepper, last, lyapunovSteps, 1e-8)
		fmt.Printf("largest Lyapunov exponent over %d steps from the final field: %.6f\n", lyapunovSteps, lambda)
	}
	return nil
}

func storedStepper(cfg *config.Config, p spectral.Params) (sim.Stepper, error) {
	reg := experiment.NewRegistry()
	nl, err := reg.GetNonlinear(cfg.Nonlinear)
	if err != nil {
		return nil, err
	}
	return spectral.New(p, nl)
}

func sweepParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sweepSamples < 1 {
		return field.Invalid("sweep needs at least one sample, got %d", sweepSamples)
	}

	set := map[string]func(p *spectral.Params, v float64){
		"rho": func(p *spectral.Params, v float64) { p.Rho = v },
		"c0":  func(p *spectral.Params, v float64) { p.C0 = v },
		"q":   func(p *spectral.Params, v float64) { p.Q = v },
	}[sweepParam]
	if set == nil {
		return field.Invalid("unknown sweep parameter %q (rho, c0, q)", sweepParam)
	}

	values := []float64{sweepFrom}
	if sweepSamples > 1 {
		values = floats.Span(make([]float64, sweepSamples), sweepFrom, sweepTo)
	}

	reg := experiment.NewRegistry()
	ic, err := reg.GetInitial(cfg.InitialSpec())
	if err != nil {
		return err
	}
	build := func(v float64) (sim.Stepper, error) {
		p := cfg.SpectralParams()
		set(&p, v)
		return storedStepper(cfg, p)
	}

	fmt.Printf("sweeping %s over [%g, %g] (%d values, transient %d, record %d)\n\n",
		sweepParam, sweepFrom, sweepTo, len(values), transient, record)
	points, err := analysis.Sweep(build, values, ic(cfg.Grid.M), transient, record)
	if err != nil {
		return err
	}

	fmt.Println(analysis.BifurcationToASCII(points, 60, 20))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tDISTINCT PEAKS\tMAX |u|\n", strings.ToUpper(sweepParam))
	for _, p := range points {
		hi := 0.0
		if len(p.Values) > 0 {
			hi = floats.Max(p.Values)
		}
		fmt.Fprintf(w, "%.4f\t%d\t%.6f\n", p.Param, len(p.Values), hi)
	}
	return w.Flush()
}

func viewRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	var recon mat.CMatrix
	if overlay {
		report, err := run.analyze()
		if err != nil {
			return err
		}
		recon = fullReconstruction(report.DMD, run.series, report.Start)
	}

	model, err := viz.NewModel(run.meta.ID, run.series, recon, run.meta.Dt)
	if err != nil {
		return err
	}
	return viz.Run(model)
}

// fullReconstruction evaluates the model at every column of series, with
// τ measured from the window start.
func fullReconstruction(model *dmd.Model, series mat.CMatrix, start int) *mat.CDense {
	m, n := series.Dims()
	out := mat.NewCDense(m, n, nil)
	for j := 0; j < n; j++ {
		field.SetColumn(out, j, model.Reconstruct(float64(j-start)*model.Dt))
	}
	return out
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	w, done, err := outputWriter()
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(w, series, meta.Dt); err != nil {
		done()
		return err
	}
	return done()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	w, done, err := outputWriter()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, series); err != nil {
		done()
		return err
	}
	return done()
}

func outputWriter() (*os.File, func() error, error) {
	if output == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
