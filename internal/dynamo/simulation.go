package dynamo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/relsim/internal/logging"
)

// Simulation owns an ordered, fixed-size ensemble of bodies. Body index is
// identity for the lifetime of the simulation.
type Simulation struct {
	bodies    []*Body
	stepper   Stepper
	cfg       Config
	t         float64
	steps     int
	clamps    int
	phase     Phase
	log       *logging.Logger
	observers []Observer
	lastGuard []PairGuard
}

type Option func(*Simulation)

func WithLogger(l *logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

// New validates the setup and builds the ensemble. Every failure is a
// *ConfigError and no simulation state exists afterwards.
func New(specs []BodySpec, cfg Config, stepper Stepper, opts ...Option) (*Simulation, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if stepper == nil {
		return nil, configErr("stepper", nil, "no stepper")
	}
	if len(specs) == 0 {
		return nil, configErr("bodies", nil, "at least one body is required")
	}

	s := &Simulation{
		bodies:  make([]*Body, 0, len(specs)),
		stepper: stepper,
		cfg:     cfg,
		phase:   Idle,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, spec := range specs {
		b, err := NewBody(spec.Name, spec.Mass, spec.Charge, spec.Position, spec.Momentum)
		if err != nil {
			return nil, &ConfigError{Field: fmt.Sprintf("bodies[%d]", i), Err: err}
		}
		s.bodies = append(s.bodies, b)
	}

	s.log.Debug("ensemble initialized", "bodies", len(s.bodies), "dt", cfg.Dt)
	return s, nil
}

func validateConfig(cfg Config) error {
	if math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return configErr("dt", ErrNonFinite, "dt must be finite, got %v", cfg.Dt)
	}
	if cfg.Dt <= 0 {
		return configErr("dt", ErrNonPositiveDt, "dt must be positive, got %g", cfg.Dt)
	}
	return nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Len() int       { return len(s.bodies) }
func (s *Simulation) Time() float64  { return s.t }
func (s *Simulation) StepCount() int { return s.steps }
func (s *Simulation) Phase() Phase   { return s.phase }
func (s *Simulation) Dt() float64    { return s.cfg.Dt }
func (s *Simulation) Clamps() int    { return s.clamps }
func (s *Simulation) Config() Config { return s.cfg }

// Bodies returns copies of every body in index order.
func (s *Simulation) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = *b
	}
	return out
}

// Body returns a copy of body i.
func (s *Simulation) Body(i int) (Body, error) {
	if i < 0 || i >= len(s.bodies) {
		return Body{}, fmt.Errorf("body %d of %d: %w", i, len(s.bodies), ErrBodyIndex)
	}
	return *s.bodies[i], nil
}

func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Step:   s.steps,
		Time:   s.t,
		Bodies: s.Bodies(),
		Guards: s.lastGuard,
	}
}

// Step advances by the configured dt.
func (s *Simulation) Step() error {
	return s.Advance(s.cfg.Dt)
}

// Advance moves the whole ensemble forward by exactly one step of dt.
// Close encounters are clamped by the force law and logged; they never
// fail the step.
func (s *Simulation) Advance(dt float64) error {
	if math.IsNaN(dt) || dt <= 0 {
		return fmt.Errorf("advance dt=%g: %w", dt, ErrNonPositiveDt)
	}
	if math.IsInf(dt, 0) {
		return fmt.Errorf("advance dt=%g: %w", dt, ErrNonFinite)
	}

	report, err := s.stepper.Step(s.bodies, dt)
	if err != nil {
		return &SimulationError{Step: s.steps, Time: s.t, Wrapped: err}
	}

	for i := range report.Guards {
		report.Guards[i].Step = s.steps
		g := report.Guards[i]
		s.log.Debug("separation below epsilon, force clamped",
			"step", g.Step, "a", g.A, "b", g.B, "r", g.Separation)
	}
	s.clamps += len(report.Guards)
	s.lastGuard = report.Guards

	s.t += dt
	s.steps++
	s.phase = Running
	return nil
}

// Run notifies observers with the current state, then advances steps
// times, stopping early at a step boundary if ctx is canceled.
func (s *Simulation) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, configErr("steps", nil, "steps must be non-negative, got %d", steps)
	}

	start := time.Now()
	result := &Result{}
	clampsBefore := s.clamps

	if err := s.notify(s.Snapshot()); err != nil {
		return result, err
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, start, clampsBefore)
			return result, ctx.Err()
		default:
		}

		stepStart := time.Now()
		if err := s.Step(); err != nil {
			s.finish(result, start, clampsBefore)
			return result, err
		}
		result.StepsTaken++

		snap := s.Snapshot()
		snap.Elapsed = time.Since(stepStart)
		if err := s.notify(snap); err != nil {
			s.finish(result, start, clampsBefore)
			return result, err
		}
	}

	s.finish(result, start, clampsBefore)
	s.log.Info("run complete", "steps", result.StepsTaken, "t", s.t, "clamps", result.Clamps)
	return result, nil
}

func (s *Simulation) finish(r *Result, start time.Time, clampsBefore int) {
	r.FinalTime = s.t
	r.Clamps = s.clamps - clampsBefore
	r.Elapsed = time.Since(start)
}

func (s *Simulation) notify(snap Snapshot) error {
	for _, o := range s.observers {
		if err := o.OnStep(snap); err != nil {
			return &SimulationError{Step: snap.Step, Time: snap.Time, Wrapped: err}
		}
	}
	return nil
}

// SimulationError wraps a failure with the step at which it happened.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
