package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

var seriesMagic = [4]byte{'C', 'G', 'L', 'F'}

const seriesVersion uint32 = 1

// ErrBadSeries reports a field file with the wrong header or shape.
var ErrBadSeries = errors.New("invalid series file")

type seriesHeader struct {
	Magic   [4]byte
	Version uint32
	Rows    uint32
	Cols    uint32
}

// WriteSeries encodes c as a little-endian header (magic "CGLF", version,
// rows, cols) followed by the gonum binary encoding of the 2M×N real matrix
// [Re c; Im c].
func WriteSeries(w io.Writer, c mat.CMatrix) error {
	m, n := c.Dims()
	h := seriesHeader{Magic: seriesMagic, Version: seriesVersion, Rows: uint32(m), Cols: uint32(n)}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}

	stacked := mat.NewDense(2*m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := c.At(i, j)
			stacked.Set(i, j, real(v))
			stacked.Set(i+m, j, imag(v))
		}
	}
	_, err := stacked.MarshalBinaryTo(w)
	return err
}

// ReadSeries decodes a series written by WriteSeries.
func ReadSeries(r io.Reader) (*mat.CDense, error) {
	var h seriesHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadSeries, err)
	}
	if h.Magic != seriesMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadSeries, h.Magic[:])
	}
	if h.Version != seriesVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadSeries, h.Version)
	}
	if h.Rows == 0 || h.Cols == 0 {
		return nil, fmt.Errorf("%w: empty %d×%d series", ErrBadSeries, h.Rows, h.Cols)
	}

	var stacked mat.Dense
	if _, err := stacked.UnmarshalBinaryFrom(r); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrBadSeries, err)
	}
	m, n := int(h.Rows), int(h.Cols)
	if rows, cols := stacked.Dims(); rows != 2*m || cols != n {
		return nil, fmt.Errorf("%w: body is %d×%d, header says %d×%d", ErrBadSeries, rows, cols, m, n)
	}

	out := mat.NewCDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, complex(stacked.At(i, j), stacked.At(i+m, j)))
		}
	}
	return out, nil
}
