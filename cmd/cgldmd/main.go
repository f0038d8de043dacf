package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"
	"github.com/stressosaurus/dmd-introduction/internal/config"
	"github.com/stressosaurus/dmd-introduction/internal/spectral"
	"github.com/stressosaurus/dmd-introduction/internal/storage"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	runName    string

	// integration overrides
	gridM     int
	dt        float64
	steps     int
	c0        float64
	rho       float64
	q         float64
	initKind  string
	amplitude float64
	initMode  int
	nonlinear string
	seed      int64

	// analysis overrides
	rank         int
	energy       float64
	tolerance    float64
	windowStart  int
	windowLength int
	pcaRank      int
	skipPCA      bool
	saveAnalysis bool

	// plotting
	columns []int
	row     int
	width   int
	height  int
	output  string
	overlay bool

	// analyze / sweep
	lyapunovSteps int
	sweepParam    string
	sweepFrom     float64
	sweepTo       float64
	sweepSamples  int
	transient     int
	record        int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger := slog.Default()
		err := xerrors.New(err)
		logger.ErrorContext(context.Background(), "command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flag variables are reset to their
// defaults each time it is called.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cgldmd",
		Short:         "Ginzburg-Landau split-step solver with DMD and PCA analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cgldmd", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the equation and save the series",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "integrate, fit DMD and PCA, and save both",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
	addRunFlags(pipelineCmd)
	addAnalysisFlags(pipelineCmd)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare nonlinear sub-steppers on one configuration",
		Args:  cobra.NoArgs,
		RunE:  compareNonlinear,
	}
	addRunFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	dmdCmd := &cobra.Command{
		Use:   "dmd [run_id]",
		Short: "fit DMD to a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  dmdRun,
	}
	addAnalysisFlags(dmdCmd)
	dmdCmd.Flags().BoolVar(&saveAnalysis, "save", false, "store the analysis next to the run")

	pcaCmd := &cobra.Command{
		Use:   "pca [run_id]",
		Short: "fit the PCA baseline to a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  pcaRun,
	}
	addAnalysisFlags(pcaCmd)

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot |u| at selected columns",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntSliceVar(&columns, "columns", nil, "columns to plot (default first and last)")
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 12, "plot height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectra, phase and Lyapunov estimate of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&row, "row", 0, "grid point for temporal analysis")
	analyzeCmd.Flags().IntVar(&lyapunovSteps, "lyapunov-steps", 200, "steps for the Lyapunov estimate (0 skips it)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one equation parameter and record peak amplitudes",
		Args:  cobra.NoArgs,
		RunE:  sweepParams,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "rho", "parameter to sweep (rho, c0, q)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.05, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSamples, "samples", 20, "number of values")
	sweepCmd.Flags().IntVar(&transient, "transient", 200, "steps discarded per value")
	sweepCmd.Flags().IntVar(&record, "record", 100, "steps recorded per value")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the series as CSV (t, x, re, im, abs)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata and series as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "scrub through a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}
	addAnalysisFlags(viewCmd)
	viewCmd.Flags().BoolVar(&overlay, "dmd", false, "overlay the DMD reconstruction")

	rootCmd.AddCommand(runCmd, pipelineCmd, compareCmd, listCmd, dmdCmd, pcaCmd,
		plotCmd, analyzeCmd, sweepCmd, exportCSVCmd, exportJSONCmd, presetsCmd, viewCmd)
	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&runName, "name", "", "run name (default preset name or cgl)")
	cmd.Flags().IntVar(&gridM, "m", config.DefaultM, "grid points")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "snapshots including the initial condition")
	cmd.Flags().Float64Var(&c0, "c0", config.DefaultC0, "dispersion coefficient c0")
	cmd.Flags().Float64Var(&rho, "rho", config.DefaultRho, "linear growth rate ρ")
	cmd.Flags().Float64Var(&q, "q", config.DefaultQ, "diffusion scale q")
	cmd.Flags().StringVar(&initKind, "initial", "cosine", "initial condition ("+strings.Join(spectral.InitialKinds(), ", ")+")")
	cmd.Flags().Float64Var(&amplitude, "amplitude", config.DefaultAmplitude, "initial perturbation amplitude")
	cmd.Flags().IntVar(&initMode, "mode", config.DefaultMode, "initial wavenumber")
	cmd.Flags().StringVar(&nonlinear, "nonlinear", "rk2", "nonlinear sub-stepper (rk2, euler, rk4)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "noise seed")
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&rank, "rank", config.DefaultRank, "DMD truncation rank (0 selects by --energy)")
	cmd.Flags().Float64Var(&energy, "energy", 0, "energy fraction for automatic rank selection")
	cmd.Flags().Float64Var(&tolerance, "tol", 0, "relative singular value floor (0 uses the default)")
	cmd.Flags().IntVar(&windowStart, "start", 0, "first column of the analysed window")
	cmd.Flags().IntVar(&windowLength, "length", 0, "window length (0 runs to the end)")
	cmd.Flags().IntVar(&pcaRank, "pca-rank", 0, "PCA rank (0 reuses the DMD rank)")
	cmd.Flags().BoolVar(&skipPCA, "skip-pca", false, "skip the PCA baseline")
}

func setupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig resolves the preset or config file and applies the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("m") {
		cfg.Grid.M = gridM
	}
	if flags.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Time.Steps = steps
	}
	if flags.Changed("c0") {
		cfg.Params.C0 = c0
	}
	if flags.Changed("rho") {
		cfg.Params.Rho = rho
	}
	if flags.Changed("q") {
		cfg.Params.Q = q
	}
	if flags.Changed("initial") {
		cfg.Initial.Kind = initKind
	}
	if flags.Changed("amplitude") {
		cfg.Initial.Amplitude = amplitude
	}
	if flags.Changed("mode") {
		cfg.Initial.Mode = initMode
	}
	if flags.Changed("nonlinear") {
		cfg.Nonlinear = nonlinear
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	applyAnalysisFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyAnalysisFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("rank") {
		cfg.DMD.Rank = rank
	}
	if flags.Changed("energy") {
		cfg.DMD.Energy = energy
	}
	if flags.Changed("tol") {
		cfg.DMD.Tolerance = tolerance
	}
	if flags.Changed("start") {
		cfg.DMD.Start = windowStart
	}
	if flags.Changed("length") {
		cfg.DMD.Length = windowLength
	}
	if flags.Changed("pca-rank") {
		cfg.PCA.Rank = pcaRank
	}
	if flags.Changed("skip-pca") {
		cfg.PCA.Skip = skipPCA
	}
}

func runLabel() string {
	switch {
	case runName != "":
		return runName
	case preset != "":
		return preset
	default:
		return "cgl"
	}
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	return st, nil
}
