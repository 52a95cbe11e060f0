package dynamo

import (
	"context"
	"sync"
)

// Ensemble runs independent simulations concurrently, for example the same
// initial conditions at several time steps. Members share no state.
type Ensemble struct {
	members []*Simulation
}

func NewEnsemble(members ...*Simulation) *Ensemble {
	return &Ensemble{members: members}
}

func (e *Ensemble) Len() int { return len(e.members) }

// Run advances member i by steps[i] steps. It waits for every member and
// returns the first error in member order.
func (e *Ensemble) Run(ctx context.Context, steps []int) ([]*Result, error) {
	if len(steps) != len(e.members) {
		return nil, configErr("steps", nil, "need %d step counts, got %d", len(e.members), len(steps))
	}

	results := make([]*Result, len(e.members))
	errs := make([]error, len(e.members))

	var wg sync.WaitGroup
	for i := range e.members {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = e.members[idx].Run(ctx, steps[idx])
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// ParallelFor splits [0, n) into contiguous index ranges and runs fn on
// each range in its own goroutine. Ranges never overlap, so fn may write
// to per-index slots without locking.
func ParallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
