package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/relsim/internal/compute"
	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	earthMass = 5.972e24
	moonMass  = 7.342e22
	moonDist  = 3.844e8
)

func newLaw(t *testing.T) *physics.ForceModel {
	t.Helper()
	law, err := physics.NewForceModel(physics.DefaultEpsilon)
	if err != nil {
		t.Fatalf("force model: %v", err)
	}
	return law
}

func mustBody(t *testing.T, name string, mass, charge float64, pos r3.Vec, v r3.Vec) *dynamo.Body {
	t.Helper()
	b, err := dynamo.NewBodyFromVelocity(name, mass, charge, dynamo.FromSpatial(0, pos), v)
	if err != nil {
		t.Fatalf("body %s: %v", name, err)
	}
	return b
}

func relErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

func TestEarthMoonSingleStep(t *testing.T) {
	law := newLaw(t)
	earth := mustBody(t, "earth", earthMass, 0, r3.Vec{}, r3.Vec{})
	moon := mustBody(t, "moon", moonMass, 0, r3.Vec{X: moonDist}, r3.Vec{})
	bodies := []*dynamo.Body{earth, moon}

	dt := 60.0
	stepper := NewSemiImplicitEuler(law, compute.NewCPUBackend(1))
	report, err := stepper.Step(bodies, dt)
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}

	f := physics.GravitationalConstant * earthMass * moonMass / (moonDist * moonDist)
	if relErr(report.Forces[0].X, f) > 1e-12 {
		t.Errorf("force on earth = %g, want %g", report.Forces[0].X, f)
	}

	// Kick then drift: dv = F/m*dt, dx = dv*dt.
	wantEarthV := f / earthMass * dt
	wantMoonV := -f / moonMass * dt

	if got := earth.Velocity().X; relErr(got, wantEarthV) > 1e-9 {
		t.Errorf("earth vx = %g, want %g", got, wantEarthV)
	}
	if got := moon.Velocity().X; relErr(got, wantMoonV) > 1e-9 {
		t.Errorf("moon vx = %g, want %g", got, wantMoonV)
	}

	earthShift := earth.SpatialPosition().X
	if earthShift <= 0 || earthShift >= 1 {
		t.Errorf("earth shifted %g m, want (0, 1)", earthShift)
	}
	if relErr(earthShift, wantEarthV*dt) > 1e-9 {
		t.Errorf("earth shift = %g, want %g", earthShift, wantEarthV*dt)
	}

	moonShift := moon.SpatialPosition().X - moonDist
	if relErr(moonShift, wantMoonV*dt) > 1e-6 {
		t.Errorf("moon shift = %g, want %g", moonShift, wantMoonV*dt)
	}

	if math.Abs(earth.Time()-dt) > 1e-9 || math.Abs(moon.Time()-dt) > 1e-9 {
		t.Errorf("body times = %g, %g, want %g", earth.Time(), moon.Time(), dt)
	}
	if len(report.Guards) != 0 {
		t.Errorf("unexpected guards: %v", report.Guards)
	}
}

func TestStepUsesPreStepPositions(t *testing.T) {
	law := newLaw(t)
	a := mustBody(t, "a", 1e20, 0, r3.Vec{}, r3.Vec{})
	b := mustBody(t, "b", 3e20, 0, r3.Vec{X: 1e6, Y: 2e5}, r3.Vec{})

	stepper := NewSemiImplicitEuler(law, compute.NewCPUBackend(1))
	if _, err := stepper.Step([]*dynamo.Body{a, b}, 10); err != nil {
		t.Fatal(err)
	}

	pa := a.Momentum().Spatial()
	pb := b.Momentum().Spatial()
	if pa != r3.Scale(-1, pb) {
		t.Errorf("momenta not equal and opposite: %v vs %v", pa, pb)
	}
}

func TestStepForceSign(t *testing.T) {
	tests := []struct {
		name      string
		mass      float64
		charge    float64
		dt        float64
		separates bool
	}{
		{"massless like charges", 0, 1e-6, 1e-9, true},
		{"uncharged masses", 1e20, 0, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustBody(t, "a", tt.mass, tt.charge, r3.Vec{}, r3.Vec{})
			b := mustBody(t, "b", tt.mass, tt.charge, r3.Vec{X: 1e6}, r3.Vec{})
			before := r3.Norm(r3.Sub(b.SpatialPosition(), a.SpatialPosition()))

			stepper := NewSemiImplicitEuler(newLaw(t), compute.NewCPUBackend(1))
			if _, err := stepper.Step([]*dynamo.Body{a, b}, tt.dt); err != nil {
				t.Fatal(err)
			}

			after := r3.Norm(r3.Sub(b.SpatialPosition(), a.SpatialPosition()))
			if tt.separates && !(after > before) {
				t.Errorf("separation %g -> %g, want increase", before, after)
			}
			if !tt.separates && !(after < before) {
				t.Errorf("separation %g -> %g, want decrease", before, after)
			}
			if a.Momentum().Spatial() != r3.Scale(-1, b.Momentum().Spatial()) {
				t.Errorf("momenta not equal and opposite: %v vs %v", a.Momentum().Spatial(), b.Momentum().Spatial())
			}
		})
	}
}

func TestStepOrderIndependent(t *testing.T) {
	law := newLaw(t)
	build := func() []*dynamo.Body {
		return []*dynamo.Body{
			mustBody(t, "a", 2e24, 1e3, r3.Vec{}, r3.Vec{Y: 100}),
			mustBody(t, "b", 1e24, -2e3, r3.Vec{X: 1e7}, r3.Vec{X: -50}),
			mustBody(t, "c", 5e23, 0, r3.Vec{Y: 3e7, Z: 1e6}, r3.Vec{}),
		}
	}

	forward := build()
	reversed := build()
	reversed[0], reversed[2] = reversed[2], reversed[0]

	stepper := NewSemiImplicitEuler(law, compute.NewCPUBackend(1))
	for i := 0; i < 5; i++ {
		if _, err := stepper.Step(forward, 30); err != nil {
			t.Fatal(err)
		}
		if _, err := stepper.Step(reversed, 30); err != nil {
			t.Fatal(err)
		}
	}

	pairs := [][2]*dynamo.Body{
		{forward[0], reversed[2]},
		{forward[1], reversed[1]},
		{forward[2], reversed[0]},
	}
	for _, p := range pairs {
		d := r3.Norm(r3.Sub(p[0].SpatialPosition(), p[1].SpatialPosition()))
		if d > 1e-6 {
			t.Errorf("%s diverged by %g m between orderings", p[0].Name(), d)
		}
	}
}

func TestStepKeepsBodiesOnShell(t *testing.T) {
	law := newLaw(t)
	bodies := []*dynamo.Body{
		mustBody(t, "p1", 1.6726e-27, 1.602e-19, r3.Vec{}, r3.Vec{X: 1e7}),
		mustBody(t, "p2", 1.6726e-27, 1.602e-19, r3.Vec{X: 1e-9}, r3.Vec{X: -1e7}),
	}

	stepper := NewSemiImplicitEuler(law, compute.NewCPUBackend(1))
	for i := 0; i < 100; i++ {
		if _, err := stepper.Step(bodies, 1e-18); err != nil {
			t.Fatal(err)
		}
		for _, b := range bodies {
			if r := b.OnShellResidual(); r > 1e-12 {
				t.Fatalf("step %d: %s off shell by %g", i, b.Name(), r)
			}
		}
	}
}

func TestTwoBodyEnergyConservation(t *testing.T) {
	law := newLaw(t)

	vrel := math.Sqrt(physics.GravitationalConstant * (earthMass + moonMass) / moonDist)
	total := earthMass + moonMass
	earth := mustBody(t, "earth", earthMass, 0, r3.Vec{}, r3.Vec{Y: -vrel * moonMass / total})
	moon := mustBody(t, "moon", moonMass, 0, r3.Vec{X: moonDist}, r3.Vec{Y: vrel * earthMass / total})
	bodies := []*dynamo.Body{earth, moon}

	energy := func() float64 {
		return earth.KineticEnergy() + moon.KineticEnergy() + law.Potential(earth, moon)
	}

	e0 := energy()
	if e0 >= 0 {
		t.Fatalf("bound orbit should have negative energy, got %g", e0)
	}

	stepper := NewSemiImplicitEuler(law, compute.NewCPUBackend(1))
	maxDrift := 0.0
	for i := 0; i < 10000; i++ {
		if _, err := stepper.Step(bodies, 60); err != nil {
			t.Fatal(err)
		}
		drift := math.Abs(energy()-e0) / math.Abs(e0)
		maxDrift = math.Max(maxDrift, drift)
	}

	if maxDrift > 1e-3 {
		t.Errorf("energy drift %e exceeds 1e-3", maxDrift)
	}
	t.Logf("max relative energy drift over 10000 steps: %e", maxDrift)
}

func TestSerialAndParallelStepsAgree(t *testing.T) {
	law := newLaw(t)
	build := func() []*dynamo.Body {
		bodies := make([]*dynamo.Body, 40)
		for i := range bodies {
			angle := float64(i) * 0.37
			pos := r3.Vec{X: 1e8 * math.Cos(angle), Y: 1e8 * math.Sin(angle), Z: float64(i) * 1e5}
			bodies[i] = mustBody(t, "b", 1e22*float64(i+1), 0, pos, r3.Vec{Z: float64(i)})
		}
		return bodies
	}

	serial := build()
	parallel := build()
	s1 := NewSemiImplicitEuler(law, compute.NewCPUBackend(1))
	s2 := NewSemiImplicitEuler(law, compute.NewCPUBackend(4))

	for i := 0; i < 10; i++ {
		if _, err := s1.Step(serial, 100); err != nil {
			t.Fatal(err)
		}
		if _, err := s2.Step(parallel, 100); err != nil {
			t.Fatal(err)
		}
	}

	for i := range serial {
		if serial[i].Position() != parallel[i].Position() {
			t.Errorf("body %d: serial %v != parallel %v", i, serial[i].Position(), parallel[i].Position())
		}
	}
}

func TestStepWithoutLaw(t *testing.T) {
	stepper := NewSemiImplicitEuler(nil, nil)
	b := mustBody(t, "a", 1, 0, r3.Vec{}, r3.Vec{})
	if _, err := stepper.Step([]*dynamo.Body{b}, 1); err == nil {
		t.Error("expected error without a force law")
	}
}
