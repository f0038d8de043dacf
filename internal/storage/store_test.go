package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stressosaurus/dmd-introduction/internal/config"
	"github.com/stressosaurus/dmd-introduction/internal/dmd"
	"github.com/stressosaurus/dmd-introduction/internal/experiment"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
	"gonum.org/v1/gonum/mat"
)

func testSeries() *mat.CDense {
	return mat.NewCDense(3, 2, []complex128{
		1 + 2i, -0.5,
		3i, 4 - 1i,
		0, 1e-300 + 7i,
	})
}

func TestSeriesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := testSeries()
	if err := WriteSeries(&buf, want); err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("CGLF")) {
		t.Error("missing magic")
	}

	got, err := ReadSeries(&buf)
	if err != nil {
		t.Fatalf("ReadSeries: %v", err)
	}
	if !mat.CEqual(got, want) {
		t.Errorf("round trip changed series")
	}
}

func TestReadSeriesRejectsBadInput(t *testing.T) {
	var good bytes.Buffer
	if err := WriteSeries(&good, testSeries()); err != nil {
		t.Fatal(err)
	}
	raw := good.Bytes()

	badMagic := append([]byte("XXXX"), raw[4:]...)
	badVersion := append([]byte(nil), raw...)
	badVersion[4] = 9
	badShape := append([]byte(nil), raw...)
	badShape[8] = 5

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"magic", badMagic},
		{"version", badVersion},
		{"shape", badShape},
		{"truncated", raw[:len(raw)-8]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadSeries(bytes.NewReader(tt.data)); !errors.Is(err, ErrBadSeries) {
				t.Errorf("got %v, want ErrBadSeries", err)
			}
		})
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.GetPreset("example")
	result := &sim.Result{
		Series:  testSeries(),
		Times:   []float64{0, 0.01},
		Metrics: map[string]float64{"energy": 1.5},
	}

	runID, err := st.Save("example", cfg, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "example_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Rows != 3 || meta.Cols != 2 || meta.Dt != 0.01 {
		t.Errorf("metadata shape %d×%d dt %g", meta.Rows, meta.Cols, meta.Dt)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if meta.Config == nil || *meta.Config != *cfg {
		t.Errorf("config not preserved: %+v", meta.Config)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if !mat.CEqual(series, result.Series) {
		t.Error("series changed on disk")
	}

	if _, err := st.Load("missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing run: got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("empty store: %v, %v", runs, err)
	}

	result := &sim.Result{Series: testSeries()}
	first, err := st.Save("a", config.DefaultConfig(), result)
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Save("b", config.DefaultConfig(), result)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("order %s, %s; want %s, %s", runs[0].ID, runs[1].ID, first, second)
	}
}

func TestStoreSaveFailureLeavesNoRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	result := &sim.Result{
		Series:  testSeries(),
		Metrics: map[string]float64{"energy": math.NaN()},
	}
	if _, err := st.Save("broken", config.DefaultConfig(), result); err == nil {
		t.Fatal("expected error for unencodable metrics")
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed save left %d entries behind", len(entries))
	}
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List after failed save: %v, %v", runs, err)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, testSeries(), 0.5); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1+6 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0][0] != "t" || records[4][0] != "0.500000" || records[4][2] != "-0.5" {
		t.Errorf("unexpected rows: %v", records)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := &RunMetadata{ID: "r", Dt: 0.1, Metrics: map[string]float64{"peak_amplitude": 2}}
	if err := ExportJSON(&buf, meta, testSeries()); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Rows != 3 || data.Cols != 2 || len(data.Times) != 2 || data.Times[1] != 0.1 {
		t.Errorf("shape: %+v", data)
	}
	if data.Real[1][1] != 4 || data.Imag[1][1] != -1 {
		t.Errorf("column 1: re %v im %v", data.Real[1], data.Imag[1])
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save("x", config.DefaultConfig(), &sim.Result{Series: testSeries()})
	if err != nil {
		t.Fatal(err)
	}

	model := &dmd.Model{
		Lambda:     []complex128{0.5i, 1},
		Omega:      []complex128{-1 + 2i, 0},
		Amplitudes: []complex128{1, 3},
		Rank:       2,
		Dt:         0.1,
	}
	report := &experiment.Report{
		Window:        mat.NewCDense(3, 2, nil),
		DMD:           model,
		DMDError:      0.01,
		ForecastError: 0.2,
		HasForecast:   true,
	}

	summary := Summarize(report)
	if summary.PCAError != nil || summary.ForecastError == nil {
		t.Errorf("optional errors: %+v", summary)
	}
	if summary.Modes[0].Amplitude != 3 {
		t.Errorf("modes not ordered by amplitude: %+v", summary.Modes)
	}

	if err := st.SaveAnalysis(runID, summary); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	loaded, err := st.LoadAnalysis(runID)
	if err != nil {
		t.Fatalf("LoadAnalysis: %v", err)
	}
	if loaded.Rank != 2 || *loaded.ForecastError != 0.2 || loaded.Modes[1].Omega != [2]float64{-1, 2} {
		t.Errorf("loaded %+v", loaded)
	}

	if err := st.SaveAnalysis("missing", summary); err == nil {
		t.Error("expected error for missing run")
	}
}
