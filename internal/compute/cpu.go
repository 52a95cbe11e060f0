package compute

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/san-kum/relsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// serialThreshold is the body count below which goroutines cost more
// than they save.
const serialThreshold = 16

type CPUBackend struct {
	workers   int
	threshold int
}

// NewCPUBackend uses workers goroutines for large ensembles; workers <= 0
// means runtime.NumCPU().
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers, threshold: serialThreshold}
}

func (c *CPUBackend) Name() string { return fmt.Sprintf("cpu/%d", c.workers) }

func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) NetForces(law dynamo.ForceLaw, bodies []*dynamo.Body, out []r3.Vec) []dynamo.PairGuard {
	n := len(bodies)
	if n < c.threshold || c.workers <= 1 {
		return c.rows(law, bodies, out, 0, n)
	}
	return c.parallel(law, bodies, out)
}

// rows fills out[start:end]. Every body i owns exactly one slot, so row
// ranges can run concurrently without sharing an accumulator.
func (c *CPUBackend) rows(law dynamo.ForceLaw, bodies []*dynamo.Body, out []r3.Vec, start, end int) []dynamo.PairGuard {
	var guards []dynamo.PairGuard
	for i := start; i < end; i++ {
		var sum r3.Vec
		a := bodies[i]
		for j, b := range bodies {
			if i == j {
				continue
			}
			f, clamped := law.Pair(a, b)
			sum = r3.Add(sum, f)
			if clamped && i < j {
				guards = append(guards, dynamo.PairGuard{A: i, B: j, Separation: separation(a, b)})
			}
		}
		out[i] = sum
	}
	return guards
}

func (c *CPUBackend) parallel(law dynamo.ForceLaw, bodies []*dynamo.Body, out []r3.Vec) []dynamo.PairGuard {
	n := len(bodies)
	workers := c.workers
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	local := make([][]dynamo.PairGuard, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(worker, s, e int) {
			defer wg.Done()
			local[worker] = c.rows(law, bodies, out, s, e)
		}(w, start, end)
	}

	wg.Wait()

	var guards []dynamo.PairGuard
	for _, g := range local {
		guards = append(guards, g...)
	}
	return guards
}
