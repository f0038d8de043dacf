package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/stressosaurus/dmd-introduction/internal/field"
)

// Ensemble runs independent simulators from the same initial field, one
// goroutine each. Members must not share a spectral stepper: it reuses
// one FFT coefficient buffer across calls.
type Ensemble struct {
	members []*Simulator
}

func NewEnsemble(members ...*Simulator) *Ensemble {
	return &Ensemble{members: members}
}

func (e *Ensemble) Add(s *Simulator) { e.members = append(e.members, s) }

func (e *Ensemble) Len() int { return len(e.members) }

// Run returns results in member order. The first member error, in member
// order, is returned and the results are discarded.
func (e *Ensemble) Run(ctx context.Context, u0 field.Field, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.members))
	errs := make([]error, len(e.members))

	var wg sync.WaitGroup
	for i, s := range e.members {
		wg.Add(1)
		go func(idx int, s *Simulator) {
			defer wg.Done()
			results[idx], errs[idx] = s.Run(ctx, u0, cfg)
		}(i, s)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ParallelFor splits [0, n) into contiguous chunks of at least minChunk and
// runs fn on each concurrently, one worker per CPU at most.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	workers = max(min(workers, n/minChunk), 1)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
