package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/relsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// GravitationalConstant in m^3 kg^-1 s^-2.
	GravitationalConstant = 6.67430e-11
	// CoulombConstant in N m^2 C^-2.
	CoulombConstant = 8.987551787e9
	// DefaultEpsilon is the minimum separation in metres below which
	// forces are clamped.
	DefaultEpsilon = 1e-3
)

// ForceModel is the pairwise inverse-square law combining Newtonian
// gravity and the Coulomb force. Both terms are central; there is no
// magnetic term and no retardation.
type ForceModel struct {
	G       float64
	K       float64
	Epsilon float64
}

// NewForceModel returns a model with the physical constants and the given
// minimum separation. Epsilon must be positive: the clamp is mandatory.
func NewForceModel(epsilon float64) (*ForceModel, error) {
	if math.IsNaN(epsilon) || math.IsInf(epsilon, 0) || epsilon <= 0 {
		return nil, &dynamo.ConfigError{
			Field:  "epsilon",
			Reason: fmt.Sprintf("minimum separation must be positive, got %g", epsilon),
		}
	}
	return &ForceModel{G: GravitationalConstant, K: CoulombConstant, Epsilon: epsilon}, nil
}

// geometry returns the unit vector from a to b, the separation used for
// the force magnitude, and whether that separation was clamped.
func (m *ForceModel) geometry(a, b *dynamo.Body) (unit r3.Vec, r float64, clamped bool) {
	d := r3.Sub(b.SpatialPosition(), a.SpatialPosition())
	dist := r3.Norm(d)
	r = dist
	if dist < m.Epsilon {
		r = m.Epsilon
		clamped = true
	}
	if dist == 0 {
		return r3.Vec{}, r, clamped
	}
	return r3.Scale(1/dist, d), r, clamped
}

// Pair implements dynamo.ForceLaw: the force exerted by b on a. Products
// of the pair's masses and charges are formed first so Pair(b, a) is the
// exact negation of Pair(a, b).
//
// Gravity pulls a toward b; the Coulomb term pushes a away from b for
// like charges. When the separation is below Epsilon the magnitude is
// evaluated at Epsilon and clamped is true. Coincident bodies have no
// line of centres and feel no force.
func (m *ForceModel) Pair(a, b *dynamo.Body) (r3.Vec, bool) {
	if a == b {
		return r3.Vec{}, false
	}
	unit, r, clamped := m.geometry(a, b)
	mag := (m.G*(a.Mass()*b.Mass()) - m.K*(a.Charge()*b.Charge())) / (r * r)
	return r3.Scale(mag, unit), clamped
}

// Gravitational is the gravity term of Pair alone.
func (m *ForceModel) Gravitational(a, b *dynamo.Body) r3.Vec {
	if a == b {
		return r3.Vec{}
	}
	unit, r, _ := m.geometry(a, b)
	return r3.Scale(m.G*(a.Mass()*b.Mass())/(r*r), unit)
}

// Electromagnetic is the Coulomb term of Pair alone.
func (m *ForceModel) Electromagnetic(a, b *dynamo.Body) r3.Vec {
	if a == b {
		return r3.Vec{}
	}
	unit, r, _ := m.geometry(a, b)
	return r3.Scale(-m.K*(a.Charge()*b.Charge())/(r*r), unit)
}

// MaxMagnitude bounds |Pair(a, b)| for any separation.
func (m *ForceModel) MaxMagnitude(a, b *dynamo.Body) float64 {
	e2 := m.Epsilon * m.Epsilon
	return math.Abs(m.G*(a.Mass()*b.Mass())-m.K*(a.Charge()*b.Charge())) / e2
}

// Potential is the pair's interaction energy in joules, with the same
// separation clamp as Pair.
func (m *ForceModel) Potential(a, b *dynamo.Body) float64 {
	if a == b {
		return 0
	}
	_, r, _ := m.geometry(a, b)
	return (m.K*(a.Charge()*b.Charge()) - m.G*(a.Mass()*b.Mass())) / r
}
