package integrators

import (
	"errors"
	"runtime"

	"github.com/san-kum/relsim/internal/compute"
	"github.com/san-kum/relsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// minChunk is the smallest index range worth a goroutine in the update
// phases.
const minChunk = 64

// SemiImplicitEuler is a synchronized kick-then-drift stepper:
//
//  1. net forces for every body from the pre-step state, into a buffer
//  2. ApplyForce(net, dt) on every body
//  3. StepFreeFlight(dt) on every body, using the updated momentum
//
// No body's update is visible to another body's force within a step.
type SemiImplicitEuler struct {
	law     dynamo.ForceLaw
	backend compute.Backend
	workers int
	forces  []r3.Vec
}

func NewSemiImplicitEuler(law dynamo.ForceLaw, backend compute.Backend) *SemiImplicitEuler {
	if backend == nil {
		backend = compute.Default()
	}
	workers := runtime.NumCPU()
	if cpu, ok := backend.(*compute.CPUBackend); ok {
		workers = cpu.Workers()
	}
	return &SemiImplicitEuler{law: law, backend: backend, workers: workers}
}

func (s *SemiImplicitEuler) Name() string { return "semi-implicit-euler" }

func (s *SemiImplicitEuler) ensureScratch(n int) {
	if len(s.forces) != n {
		s.forces = make([]r3.Vec, n)
	}
}

func (s *SemiImplicitEuler) Step(bodies []*dynamo.Body, dt float64) (dynamo.StepReport, error) {
	if s.law == nil {
		return dynamo.StepReport{}, errors.New("integrators: no force law")
	}
	n := len(bodies)
	s.ensureScratch(n)

	guards := s.backend.NetForces(s.law, bodies, s.forces)

	dynamo.ParallelFor(n, s.workers, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			bodies[i].ApplyForce(s.forces[i], dt)
		}
	})

	dynamo.ParallelFor(n, s.workers, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			bodies[i].StepFreeFlight(dt)
		}
	})

	forces := make([]r3.Vec, n)
	copy(forces, s.forces)
	return dynamo.StepReport{Forces: forces, Guards: guards}, nil
}
