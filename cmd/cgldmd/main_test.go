package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stressosaurus/dmd-introduction/internal/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func onlyRun(t *testing.T, dir string) storage.RunMetadata {
	t.Helper()
	runs, err := storage.New(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	return runs[0]
}

func TestLoadConfigPrecedence(t *testing.T) {
	root := newRootCmd()
	runCmd, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	flags := runCmd.Flags()
	for name, value := range map[string]string{"preset": "example", "rho": "0.5", "steps": "7"} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("Set %s: %v", name, err)
		}
	}

	cfg, err := loadConfig(runCmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Grid.M != 8 || cfg.Time.Dt != 0.01 {
		t.Errorf("preset values lost: M=%d dt=%g", cfg.Grid.M, cfg.Time.Dt)
	}
	if cfg.Params.Rho != 0.5 || cfg.Time.Steps != 7 {
		t.Errorf("overrides not applied: rho=%g steps=%d", cfg.Params.Rho, cfg.Time.Steps)
	}
	if cfg.Params.C0 != 0.25 {
		t.Errorf("unchanged flag overwrote preset: c0=%g", cfg.Params.C0)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"unknown preset", map[string]string{"preset": "turbulent"}},
		{"missing file", map[string]string{"config": "/nonexistent/cgl.yaml"}},
		{"bad dt", map[string]string{"dt": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			runCmd, _, _ := root.Find([]string{"run"})
			for name, value := range tt.flags {
				if err := runCmd.Flags().Set(name, value); err != nil {
					t.Fatalf("Set %s: %v", name, err)
				}
			}
			if _, err := loadConfig(runCmd); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunAndExport(t *testing.T) {
	dir := t.TempDir()
	if err := execute(t, "--data", dir, "run", "--preset", "example"); err != nil {
		t.Fatalf("run: %v", err)
	}

	meta := onlyRun(t, dir)
	if meta.Rows != 8 || meta.Cols != 5 || meta.Name != "example" {
		t.Errorf("unexpected run %+v", meta)
	}

	out := filepath.Join(dir, "series.csv")
	if err := execute(t, "--data", dir, "export-csv", meta.ID, "-o", out); err != nil {
		t.Fatalf("export-csv: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if lines == 0 && scanner.Text() != "t,x,re,im,abs" {
			t.Errorf("header = %q", scanner.Text())
		}
		lines++
	}
	if want := 1 + 8*5; lines != want {
		t.Errorf("csv has %d lines, want %d", lines, want)
	}

	jsonOut := filepath.Join(dir, "run.json")
	if err := execute(t, "--data", dir, "export-json", meta.ID, "-o", jsonOut); err != nil {
		t.Fatalf("export-json: %v", err)
	}
	data, err := os.ReadFile(jsonOut)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), meta.ID) {
		t.Error("json export does not name the run")
	}
}

func TestPipelineStoresAnalysis(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, "--data", dir, "pipeline", "--name", "small",
		"--m", "16", "--dt", "0.01", "--steps", "40", "--rank", "3", "--length", "30")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	meta := onlyRun(t, dir)
	summary, err := storage.New(dir).LoadAnalysis(meta.ID)
	if err != nil {
		t.Fatalf("LoadAnalysis: %v", err)
	}
	if summary.Rank != 3 || summary.Length != 30 || len(summary.Modes) != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.ForecastError == nil {
		t.Error("expected a forecast error for the held-out columns")
	}

	if err := execute(t, "--data", dir, "dmd", meta.ID, "--rank", "2", "--save"); err != nil {
		t.Fatalf("dmd: %v", err)
	}
	summary, err = storage.New(dir).LoadAnalysis(meta.ID)
	if err != nil {
		t.Fatalf("LoadAnalysis: %v", err)
	}
	if summary.Rank != 2 || summary.Length != 30 {
		t.Errorf("dmd --save did not replace the analysis: %+v", summary)
	}

	for _, args := range [][]string{
		{"pca", meta.ID},
		{"plot", meta.ID},
		{"analyze", meta.ID, "--lyapunov-steps", "20"},
		{"list"},
	} {
		if err := execute(t, append([]string{"--data", dir}, args...)...); err != nil {
			t.Errorf("%s: %v", args[0], err)
		}
	}
}

func TestDMDRejectsExcessRank(t *testing.T) {
	dir := t.TempDir()
	if err := execute(t, "--data", dir, "run", "--preset", "example"); err != nil {
		t.Fatalf("run: %v", err)
	}
	meta := onlyRun(t, dir)
	if err := execute(t, "--data", dir, "dmd", meta.ID, "--rank", "5"); err == nil {
		t.Error("expected error for rank above L-1")
	}
}

func TestSweep(t *testing.T) {
	err := execute(t, "--data", t.TempDir(), "sweep", "--preset", "example",
		"--param", "rho", "--from", "0.1", "--to", "0.3", "--samples", "3",
		"--transient", "5", "--record", "5")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if err := execute(t, "sweep", "--param", "mu"); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestCompareAndPresets(t *testing.T) {
	if err := execute(t, "compare", "--preset", "example"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := execute(t, "presets"); err != nil {
		t.Fatalf("presets: %v", err)
	}
}
