package dynamo

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// BodySpec is the setup tuple for one body. Momentum is the spatial
// momentum; the energy component is derived.
type BodySpec struct {
	Name     string
	Mass     float64
	Charge   float64
	Position FourVector
	Momentum r3.Vec
}

// ForceLaw returns the force exerted by b on a, and whether the pair was
// closer than the law's minimum separation.
type ForceLaw interface {
	Pair(a, b *Body) (force r3.Vec, clamped bool)
}

// Stepper advances a whole ensemble by one time step.
type Stepper interface {
	Step(bodies []*Body, dt float64) (StepReport, error)
}

// StepReport is what a Stepper learned while advancing.
type StepReport struct {
	// Forces holds the net force on each body, computed from the
	// pre-step state.
	Forces []r3.Vec
	Guards []PairGuard
}

// Observer receives a snapshot after setup and after every step. A
// non-nil error stops Run.
type Observer interface {
	OnStep(s Snapshot) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Snapshot) error

func (f ObserverFunc) OnStep(s Snapshot) error { return f(s) }

// Phase is the simulation lifecycle state.
type Phase int

const (
	Idle Phase = iota
	Running
)

func (p Phase) String() string {
	if p == Running {
		return "running"
	}
	return "idle"
}

type Config struct {
	Dt float64
}

func DefaultConfig() Config {
	return Config{Dt: 1.0}
}

// Snapshot is a copy of the ensemble at a step boundary.
type Snapshot struct {
	Step    int
	Time    float64
	Bodies  []Body
	Guards  []PairGuard
	Elapsed time.Duration
}

type Result struct {
	StepsTaken int
	FinalTime  float64
	Clamps     int
	Elapsed    time.Duration
}
