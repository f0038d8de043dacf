package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/stressosaurus/dmd-introduction/internal/field"
	"gonum.org/v1/gonum/mat"
)

const (
	plotWidth   = 64
	plotHeight  = 14
	traceWidth  = 24
	traceHeight = 10
	frameDelay  = time.Second / 20
)

type TickMsg time.Time

// Model scrubs through the columns of a series.
type Model struct {
	title   string
	series  mat.CMatrix
	recon   mat.CMatrix
	dt      float64
	rows    int
	cols    int
	col     int
	row     int
	playing bool
	overlay bool
	theme   int
	energy  []float64
	canvas  *Canvas
}

// NewModel builds a viewer for series. recon may be nil; when given it must
// have the same shape and is shown with the D key.
func NewModel(title string, series, recon mat.CMatrix, dt float64) (Model, error) {
	rows, cols := series.Dims()
	if rows == 0 || cols == 0 {
		return Model{}, field.Invalid("empty series")
	}
	if recon != nil {
		if r, c := recon.Dims(); r != rows || c != cols {
			return Model{}, fmt.Errorf("%w: reconstruction is %d×%d, series is %d×%d", field.ErrDimensionMismatch, r, c, rows, cols)
		}
	}

	energy := make([]float64, cols)
	for j := range energy {
		n := field.Column(series, j).Norm()
		energy[j] = n * n
	}

	return Model{
		title:   title,
		series:  series,
		recon:   recon,
		dt:      dt,
		rows:    rows,
		cols:    cols,
		overlay: recon != nil,
		energy:  energy,
		canvas:  NewCanvas(traceWidth, traceHeight),
	}, nil
}

func tick() tea.Cmd {
	return tea.Tick(frameDelay, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Column is the snapshot index on screen.
func (m Model) Column() int { return m.col }

// Row is the grid point traced in the side panel.
func (m Model) Row() int { return m.row }

func (m Model) Playing() bool { return m.playing }

func (m Model) Overlay() bool { return m.overlay }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.playing = false
			m.col = max(m.col-1, 0)
		case "right", "l":
			m.playing = false
			m.col = min(m.col+1, m.cols-1)
		case "home":
			m.col = 0
		case "end":
			m.col = m.cols - 1
		case "up", "k":
			m.row = (m.row + 1) % m.rows
		case "down", "j":
			m.row = (m.row - 1 + m.rows) % m.rows
		case " ":
			m.playing = !m.playing
			if m.playing {
				if m.col == m.cols-1 {
					m.col = 0
				}
				return m, tick()
			}
		case "d":
			if m.recon != nil {
				m.overlay = !m.overlay
			}
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		}
	case TickMsg:
		if !m.playing {
			return m, nil
		}
		if m.col >= m.cols-1 {
			m.playing = false
			return m, nil
		}
		m.col++
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	theme := Themes[m.theme]
	st := newStyles(theme)

	u := field.Column(m.series, m.col)
	data := [][]float64{u.Abs()}
	colors := []asciigraph.AnsiColor{theme.Field}
	caption := "|u(x)|"
	if m.overlay && m.recon != nil {
		data = append(data, field.Column(m.recon, m.col).Abs())
		colors = append(colors, theme.Overlay)
		caption = "|u(x)| and DMD reconstruction"
	}
	plot := asciigraph.PlotMany(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)

	var side strings.Builder
	side.WriteString(st.header.Render(fmt.Sprintf("u at x[%d]", m.row)) + "\n")
	side.WriteString(m.trace() + "\n")
	fmt.Fprintf(&side, "%s%s\n", st.label.Render("t"), st.value.Render(fmt.Sprintf("%.4f", float64(m.col)*m.dt)))
	fmt.Fprintf(&side, "%s%s\n", st.label.Render("snapshot"), st.value.Render(fmt.Sprintf("%d/%d", m.col, m.cols-1)))
	fmt.Fprintf(&side, "%s%s\n", st.label.Render("‖u‖²"), st.value.Render(fmt.Sprintf("%.6g", m.energy[m.col])))
	v := u[m.row]
	fmt.Fprintf(&side, "%s%s\n", st.label.Render("u"), st.value.Render(fmt.Sprintf("%.4f%+.4fi", real(v), imag(v))))
	side.WriteString(st.accent.Render(Sparkline(m.energy, traceWidth)) + "\n")

	status := "PAUSED"
	if m.playing {
		status = "PLAYING"
	}
	header := st.header.Render(m.title) + "  " + st.accent.Render(status)
	bar := ProgressBar(float64(m.col)/float64(max(m.cols-1, 1)), plotWidth)
	help := st.help.Render("←/→ scrub  space play  ↑/↓ point  d overlay  t theme  q quit")

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		st.panel.Render(plot),
		st.panel.Render(side.String()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, bar, help)
}

// trace draws u(x_row, t) for the snapshots up to the current one.
func (m Model) trace() string {
	m.canvas.Clear()
	xs := make([]float64, m.col+1)
	ys := make([]float64, m.col+1)
	for j := 0; j <= m.col; j++ {
		v := m.series.At(m.row, j)
		xs[j], ys[j] = real(v), imag(v)
	}
	m.canvas.PlotPath(xs, ys)
	return m.canvas.String()
}

// Run starts the viewer on the terminal.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
