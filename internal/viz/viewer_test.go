package viz

import (
	"errors"
	"math/cmplx"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

func rotating(rows, cols int) *mat.CDense {
	s := mat.NewCDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		field.SetColumn(s, j, field.Sample(rows, func(x float64) complex128 {
			return (1 + 0.1*complex(float64(j), 0)) * cmplx.Exp(complex(0, x+0.2*float64(j)))
		}))
	}
	return s
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "end":
		msg = tea.KeyMsg{Type: tea.KeyEnd}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewModelValidates(t *testing.T) {
	if _, err := NewModel("x", rotating(8, 4), rotating(8, 3), 0.1); !errors.Is(err, field.ErrDimensionMismatch) {
		t.Errorf("shape mismatch: got %v", err)
	}
	if _, err := NewModel("x", rotating(8, 4), nil, 0.1); err != nil {
		t.Errorf("no reconstruction: %v", err)
	}
}

func TestScrubbing(t *testing.T) {
	m, err := NewModel("run", rotating(8, 5), nil, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	m = press(m, "left")
	if m.Column() != 0 {
		t.Errorf("scrubbed before start: %d", m.Column())
	}
	m = press(press(m, "right"), "right")
	if m.Column() != 2 {
		t.Errorf("column %d, want 2", m.Column())
	}
	m = press(m, "end")
	m = press(m, "right")
	if m.Column() != 4 {
		t.Errorf("scrubbed past end: %d", m.Column())
	}

	m = press(m, "k")
	if m.Row() != 1 {
		t.Errorf("row %d, want 1", m.Row())
	}
	m = press(press(m, "j"), "j")
	if m.Row() != 7 {
		t.Errorf("row wraps to %d, want 7", m.Row())
	}

	m = press(m, "d")
	if m.Overlay() {
		t.Error("overlay enabled without reconstruction")
	}
}

func TestAutoplay(t *testing.T) {
	m, err := NewModel("run", rotating(8, 3), rotating(8, 3), 0.1)
	if err != nil {
		t.Fatal(err)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if !m.Playing() || cmd == nil {
		t.Fatal("space should start playback with a tick")
	}
	for i := 0; i < 5; i++ {
		next, _ = m.Update(TickMsg{})
		m = next.(Model)
	}
	if m.Column() != 2 || m.Playing() {
		t.Errorf("after playback: column %d playing %v", m.Column(), m.Playing())
	}

	if !m.Overlay() {
		t.Error("overlay should start on with a reconstruction")
	}
	m = press(m, "d")
	if m.Overlay() {
		t.Error("d should toggle overlay off")
	}
}

func TestViewRenders(t *testing.T) {
	m, err := NewModel("cgl run", rotating(16, 6), rotating(16, 6), 0.05)
	if err != nil {
		t.Fatal(err)
	}
	m = press(press(m, "right"), "right")

	out := m.View()
	for _, want := range []string{"cgl run", "PAUSED", "DMD reconstruction", "0.1000"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "t")
	if out := m.View(); !strings.Contains(out, "cgl run") {
		t.Error("view after theme change missing title")
	}
}

func TestCanvasPlotPath(t *testing.T) {
	c := NewCanvas(4, 2)
	c.PlotPath([]float64{0, 1}, []float64{0, 1})
	if c.String() == NewCanvas(4, 2).String() {
		t.Error("nothing drawn")
	}
	if lines := strings.Count(c.String(), "\n"); lines != 2 {
		t.Errorf("got %d lines", lines)
	}

	c.Clear()
	c.Set(-1, 0)
	c.Set(100, 100)
	if c.String() != NewCanvas(4, 2).String() {
		t.Error("out-of-range dots should be ignored")
	}
}

func TestSparklineAndProgress(t *testing.T) {
	if got := Sparkline([]float64{0, 1}, 2); got != "▁█" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := ProgressBar(0.5, 4); got != "██░░" {
		t.Errorf("ProgressBar = %q", got)
	}
	if got := ProgressBar(2, 2); got != "██" {
		t.Errorf("clamped ProgressBar = %q", got)
	}
}
