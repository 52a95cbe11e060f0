package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Body is a point particle with a relativistic state.
//
// Position is (ct, x, y, z) and momentum is (E/c, px, py, pz). The energy
// component is never set directly: it is recomputed from the spatial
// momentum and the rest mass whenever momentum changes, so the body stays
// on shell. Body holds no references and is safe to copy by value.
type Body struct {
	name     string
	mass     float64
	charge   float64
	position FourVector
	momentum FourVector
}

// NewBody creates a body from its spatial momentum; the energy is derived.
func NewBody(name string, mass, charge float64, position FourVector, momentum r3.Vec) (*Body, error) {
	if math.IsNaN(mass) || mass < 0 {
		return nil, fmt.Errorf("body %q mass %g: %w", name, mass, ErrNegativeMass)
	}
	if math.IsInf(mass, 0) || !isFinite(charge) || !position.IsFinite() || !vecFinite(momentum) {
		return nil, fmt.Errorf("body %q: %w", name, ErrNonFinite)
	}
	b := &Body{name: name, mass: mass, charge: charge, position: position}
	b.SetMomentum(momentum.X, momentum.Y, momentum.Z)
	return b, nil
}

// NewBodyFromVelocity creates a body moving at v (m/s), using p = gamma*m*v.
func NewBodyFromVelocity(name string, mass, charge float64, position FourVector, v r3.Vec) (*Body, error) {
	beta := r3.Scale(1/SpeedOfLight, v)
	b2 := r3.Norm2(beta)
	if math.IsNaN(b2) || b2 >= 1 {
		return nil, fmt.Errorf("body %q speed %g m/s: %w", name, r3.Norm(v), ErrInvalidVelocity)
	}
	if mass == 0 && b2 > 0 {
		return nil, fmt.Errorf("body %q: momentum from velocity: %w", name, ErrUndefinedGamma)
	}
	gamma := 1 / math.Sqrt(1-b2)
	return NewBody(name, mass, charge, position, r3.Scale(gamma*mass, v))
}

func (b *Body) Name() string         { return b.name }
func (b *Body) Mass() float64        { return b.mass }
func (b *Body) Charge() float64      { return b.charge }
func (b *Body) Position() FourVector { return b.position }
func (b *Body) Momentum() FourVector { return b.momentum }

// SpatialPosition returns (x, y, z) in metres.
func (b *Body) SpatialPosition() r3.Vec { return b.position.Spatial() }

// Time is the coordinate time of the body's four-position in seconds.
func (b *Body) Time() float64 { return b.position[0] / SpeedOfLight }

// Energy is the total energy E in joules.
func (b *Body) Energy() float64 { return b.momentum[0] * SpeedOfLight }

// RestEnergy is m*c^2.
func (b *Body) RestEnergy() float64 { return b.mass * SpeedOfLight * SpeedOfLight }

// KineticEnergy is E - mc^2, evaluated as c|p|^2/(p0 + mc) so that
// slow bodies do not lose it to cancellation.
func (b *Body) KineticEnergy() float64 {
	p2 := r3.Norm2(b.momentum.Spatial())
	if p2 == 0 {
		return 0
	}
	return SpeedOfLight * p2 / (b.momentum[0] + b.mass*SpeedOfLight)
}

// Velocity is the 3-velocity p*c^2/E. A massless body with zero momentum
// has no direction of motion and reports zero.
func (b *Body) Velocity() r3.Vec {
	if b.momentum[0] == 0 {
		return r3.Vec{}
	}
	return r3.Scale(SpeedOfLight/b.momentum[0], b.momentum.Spatial())
}

// Gamma is E/(mc^2).
func (b *Body) Gamma() (float64, error) {
	if b.mass == 0 {
		return 0, fmt.Errorf("body %q: %w", b.name, ErrUndefinedGamma)
	}
	return b.momentum[0] / (b.mass * SpeedOfLight), nil
}

// OnShellResidual returns |p0^2 - |p|^2 - (mc)^2| relative to p0^2; zero
// for an exactly on-shell body.
func (b *Body) OnShellResidual() float64 {
	p0 := b.momentum[0]
	if p0 == 0 {
		return 0
	}
	mc := b.mass * SpeedOfLight
	return math.Abs(p0*p0-r3.Norm2(b.momentum.Spatial())-mc*mc) / (p0 * p0)
}

// SetPosition moves the body without touching its time or momentum.
func (b *Body) SetPosition(x, y, z float64) {
	b.position = b.position.WithSpatial(r3.Vec{X: x, Y: y, Z: z})
}

// SetTime sets the coordinate time (seconds) of the four-position.
func (b *Body) SetTime(t float64) {
	b.position = b.position.WithT(t * SpeedOfLight)
}

// SetMomentum replaces the spatial momentum and recomputes the energy
// component from the on-shell relation. It is the only way energy changes.
func (b *Body) SetMomentum(px, py, pz float64) {
	p := r3.Vec{X: px, Y: py, Z: pz}
	mc := b.mass * SpeedOfLight
	p0 := math.Hypot(r3.Norm(p), mc)
	b.momentum = FromSpatial(p0, p)
}

// StepFreeFlight drifts the body along its velocity for dt seconds and
// advances its coordinate time by dt.
func (b *Body) StepFreeFlight(dt float64) {
	x := r3.Add(b.position.Spatial(), r3.Scale(dt, b.Velocity()))
	b.position = FromSpatial(b.position[0]+SpeedOfLight*dt, x)
}

// ApplyForce adds the impulse f*dt to the spatial momentum, treating f as
// constant over the step.
func (b *Body) ApplyForce(f r3.Vec, dt float64) {
	p := r3.Add(b.momentum.Spatial(), r3.Scale(dt, f))
	b.SetMomentum(p.X, p.Y, p.Z)
}

func (b *Body) String() string {
	return fmt.Sprintf("%s m=%g q=%g x=%v p=%v", b.name, b.mass, b.charge, b.position, b.momentum)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func vecFinite(v r3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}
