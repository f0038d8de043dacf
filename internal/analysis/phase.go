package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Point is one (Re u, Im u) sample.
type Point struct{ X, Y float64 }

// PhasePortrait2D holds the trajectory of u at one grid point in the complex
// plane.
type PhasePortrait2D struct {
	Row    int
	Points []Point
}

// PhasePortrait collects u(x_row, t_j) for every column of series. It returns
// nil for a row outside the grid.
func PhasePortrait(series mat.CMatrix, row int) *PhasePortrait2D {
	m, n := series.Dims()
	if row < 0 || row >= m {
		return nil
	}
	portrait := &PhasePortrait2D{Row: row, Points: make([]Point, n)}
	for j := 0; j < n; j++ {
		v := series.At(row, j)
		portrait.Points[j] = Point{X: real(v), Y: imag(v)}
	}
	return portrait
}

// UnwrapPhase returns arg u(x_row, t_j) with 2π jumps removed.
func UnwrapPhase(series mat.CMatrix, row int) []float64 {
	_, n := series.Dims()
	phase := make([]float64, n)
	offset := 0.0
	for j := 0; j < n; j++ {
		p := cmplx.Phase(series.At(row, j))
		if j > 0 {
			prev := phase[j-1] - offset
			switch d := p - prev; {
			case d > math.Pi:
				offset -= 2 * math.Pi
			case d < -math.Pi:
				offset += 2 * math.Pi
			}
		}
		phase[j] = p + offset
	}
	return phase
}

// MeanFrequency is the least-squares slope of the unwrapped phase at one grid
// point, in radians per unit time. For a single rotating mode it matches
// Im ω of the corresponding DMD eigenvalue.
func MeanFrequency(series mat.CMatrix, row int, dt float64) float64 {
	phase := UnwrapPhase(series, row)
	if len(phase) < 2 {
		return 0
	}
	t := make([]float64, len(phase))
	for j := range t {
		t[j] = float64(j) * dt
	}
	_, slope := stat.LinearRegression(t, phase, nil, false)
	return slope
}

// PhasePortraitToASCII renders the portrait with axes where they cross the
// visible area.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := newCanvas(width, height)
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	return canvasString(canvas)
}
