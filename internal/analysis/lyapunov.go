package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/relsim/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// StepperFactory builds a fresh stepper for each trajectory; steppers keep
// scratch state and must not be shared between simulations.
type StepperFactory func() dynamo.Stepper

// Divergence is the separation history of two nearby ensembles.
type Divergence struct {
	Times       []float64
	Separations []float64
	// Exponent is the least-squares slope of ln(separation) over time.
	Exponent float64
	// Intercept is ln of the fitted initial separation.
	Intercept float64
}

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method: body `perturbed` is displaced by
// perturbation metres along x and both ensembles are stepped side by
// side. A positive value indicates chaos.
func LyapunovExponent(ctx context.Context, specs []dynamo.BodySpec, cfg dynamo.Config, factory StepperFactory, perturbed int, perturbation float64, steps int) (*Divergence, error) {
	if perturbed < 0 || perturbed >= len(specs) {
		return nil, fmt.Errorf("analysis: body %d out of range", perturbed)
	}
	if perturbation <= 0 {
		return nil, errors.New("analysis: perturbation must be positive")
	}
	if steps < 2 {
		return nil, ErrShortSeries
	}

	shifted := make([]dynamo.BodySpec, len(specs))
	copy(shifted, specs)
	shifted[perturbed].Position[1] += perturbation

	ref, err := dynamo.New(specs, cfg, factory())
	if err != nil {
		return nil, err
	}
	pert, err := dynamo.New(shifted, cfg, factory())
	if err != nil {
		return nil, err
	}

	d := &Divergence{
		Times:       make([]float64, 0, steps),
		Separations: make([]float64, 0, steps),
	}
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ref.Step(); err != nil {
			return nil, err
		}
		if err := pert.Step(); err != nil {
			return nil, err
		}
		sep := separation(ref.Bodies(), pert.Bodies())
		if sep > 0 {
			d.Times = append(d.Times, ref.Time())
			d.Separations = append(d.Separations, sep)
		}
	}
	if len(d.Times) < 2 {
		return nil, ErrShortSeries
	}

	logs := make([]float64, len(d.Separations))
	for i, s := range d.Separations {
		logs[i] = math.Log(s)
	}
	d.Intercept, d.Exponent = stat.LinearRegression(d.Times, logs, nil, false)
	return d, nil
}

// LyapunovSpectrum repeats LyapunovExponent with each body perturbed in
// turn.
func LyapunovSpectrum(ctx context.Context, specs []dynamo.BodySpec, cfg dynamo.Config, factory StepperFactory, perturbation float64, steps int) ([]float64, error) {
	spectrum := make([]float64, len(specs))
	for i := range specs {
		d, err := LyapunovExponent(ctx, specs, cfg, factory, i, perturbation, steps)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		spectrum[i] = d.Exponent
	}
	return spectrum, nil
}

// separation is the spatial distance between two ensembles, summed in
// quadrature over bodies.
func separation(a, b []dynamo.Body) float64 {
	sum := 0.0
	for i := range a {
		pa, pb := a[i].SpatialPosition(), b[i].SpatialPosition()
		dx, dy, dz := pa.X-pb.X, pa.Y-pb.Y, pa.Z-pb.Z
		sum += dx*dx + dy*dy + dz*dz
	}
	return math.Sqrt(sum)
}
