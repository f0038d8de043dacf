package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math/cmplx"
	"strconv"

	"github.com/stressosaurus/dmd-introduction/internal/dmd"
	"github.com/stressosaurus/dmd-introduction/internal/experiment"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

// ExportData is the JSON form of a stored run.
type ExportData struct {
	ID      string             `json:"id"`
	Dt      float64            `json:"dt"`
	Rows    int                `json:"rows"`
	Cols    int                `json:"cols"`
	Grid    []float64          `json:"grid"`
	Times   []float64          `json:"times"`
	Real    [][]float64        `json:"real"` // Real[j][i] = Re u(x_i, t_j)
	Imag    [][]float64        `json:"imag"`
	Metrics map[string]float64 `json:"metrics"`
}

// ExportJSON writes the metadata and full series of a run.
func ExportJSON(w io.Writer, meta *RunMetadata, series mat.CMatrix) error {
	m, n := series.Dims()
	data := ExportData{
		ID:      meta.ID,
		Dt:      meta.Dt,
		Rows:    m,
		Cols:    n,
		Grid:    field.Grid(m),
		Times:   times(n, meta.Dt),
		Real:    make([][]float64, n),
		Imag:    make([][]float64, n),
		Metrics: meta.Metrics,
	}
	for j := 0; j < n; j++ {
		col := field.Column(series, j)
		data.Real[j] = col.Real()
		data.Imag[j] = make([]float64, m)
		for i, v := range col {
			data.Imag[j][i] = imag(v)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes one row per grid point and snapshot: t, x, re, im, abs.
func ExportCSV(w io.Writer, series mat.CMatrix, dt float64) error {
	m, n := series.Dims()
	grid := field.Grid(m)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "x", "re", "im", "abs"}); err != nil {
		return err
	}
	for j := 0; j < n; j++ {
		t := strconv.FormatFloat(float64(j)*dt, 'f', 6, 64)
		for i := 0; i < m; i++ {
			v := series.At(i, j)
			row := []string{
				t,
				strconv.FormatFloat(grid[i], 'f', 6, 64),
				strconv.FormatFloat(real(v), 'g', -1, 64),
				strconv.FormatFloat(imag(v), 'g', -1, 64),
				strconv.FormatFloat(cmplx.Abs(v), 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func times(n int, dt float64) []float64 {
	t := make([]float64, n)
	for j := range t {
		t[j] = float64(j) * dt
	}
	return t
}

// ModeSummary is one DMD mode with complex values split into (re, im).
type ModeSummary struct {
	Lambda    [2]float64 `json:"lambda"`
	Omega     [2]float64 `json:"omega"`
	Amplitude float64    `json:"amplitude"`
}

// AnalysisSummary is the persisted outcome of a DMD/PCA analysis.
type AnalysisSummary struct {
	Start         int           `json:"start"`
	Length        int           `json:"length"`
	Rank          int           `json:"rank"`
	Dt            float64       `json:"dt"`
	Modes         []ModeSummary `json:"modes"`
	Singular      []float64     `json:"singular"`
	DMDError      float64       `json:"dmd_error"`
	PCAError      *float64      `json:"pca_error,omitempty"`
	ForecastError *float64      `json:"forecast_error,omitempty"`
}

// Summarize flattens a report for storage. Modes are ordered by amplitude.
func Summarize(report *experiment.Report) *AnalysisSummary {
	_, length := report.Window.Dims()
	summary := &AnalysisSummary{
		Start:    report.Start,
		Length:   length,
		Rank:     report.DMD.Rank,
		Dt:       report.DMD.Dt,
		Singular: report.DMD.Singular,
		DMDError: report.DMDError,
	}
	for _, mode := range report.DMD.Spectrum() {
		summary.Modes = append(summary.Modes, modeSummary(mode))
	}
	if report.PCA != nil {
		v := report.PCAError
		summary.PCAError = &v
	}
	if report.HasForecast {
		v := report.ForecastError
		summary.ForecastError = &v
	}
	return summary
}

func modeSummary(m dmd.Mode) ModeSummary {
	return ModeSummary{
		Lambda:    [2]float64{real(m.Lambda), imag(m.Lambda)},
		Omega:     [2]float64{real(m.Omega), imag(m.Omega)},
		Amplitude: m.Amplitude,
	}
}
