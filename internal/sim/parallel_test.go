package sim

import (
	"context"
	"errors"
	"math/cmplx"
	"sync/atomic"
	"testing"

	"github.com/stressosaurus/dmd-introduction/internal/field"
)

func TestEnsembleRun(t *testing.T) {
	e := NewEnsemble(New(&decayStepper{dt: 0.1}))
	e.Add(New(&decayStepper{dt: 0.2}))
	if e.Len() != 2 {
		t.Fatalf("Len = %d", e.Len())
	}

	u0 := field.Field{1, 2}
	results, err := e.Run(context.Background(), u0, Config{Steps: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, want := range []complex128{0.81, 0.64} {
		if got := results[i].Series.At(0, 2); cmplx.Abs(got-want) > 1e-12 {
			t.Errorf("member %d: u(0, 2) = %v, want %v", i, got, want)
		}
	}
	if u0[0] != 1 {
		t.Error("initial field modified")
	}
}

func TestEnsembleError(t *testing.T) {
	e := NewEnsemble(New(&decayStepper{dt: 0.1}), New(&blowUpStepper{at: 2}))
	_, err := e.Run(context.Background(), field.Field{1, 1}, Config{Steps: 5, ValidateField: true})
	if !errors.Is(err, field.ErrUnstable) {
		t.Errorf("got %v, want ErrUnstable", err)
	}
}

func TestParallelFor(t *testing.T) {
	for _, tt := range []struct {
		name     string
		n, chunk int
	}{
		{"serial", 3, 10},
		{"chunked", 1000, 7},
		{"zero chunk", 50, 0},
		{"empty", 0, 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			var calls atomic.Int32
			ParallelFor(tt.n, tt.chunk, func(start, end int) {
				calls.Add(1)
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
			if calls.Load() < 1 {
				t.Error("fn never called")
			}
		})
	}
}
