package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// FourVector is a Minkowski four-vector with metric signature (+,-,-,-).
//
// The same type carries four-positions (ct, x, y, z) and four-momenta
// (E/c, px, py, pz). Index 0 is the time/energy component. Components are
// kept in matching units so that Boost mixes them without conversion
// factors.
type FourVector [4]float64

func NewFourVector(t, x, y, z float64) FourVector {
	return FourVector{t, x, y, z}
}

// FromSpatial builds a four-vector from a time component and a 3-vector.
func FromSpatial(t float64, s r3.Vec) FourVector {
	return FourVector{t, s.X, s.Y, s.Z}
}

func (v FourVector) T() float64 { return v[0] }
func (v FourVector) X() float64 { return v[1] }
func (v FourVector) Y() float64 { return v[2] }
func (v FourVector) Z() float64 { return v[3] }

// Spatial returns components 1..3.
func (v FourVector) Spatial() r3.Vec {
	return r3.Vec{X: v[1], Y: v[2], Z: v[3]}
}

// WithT returns a copy with the time component replaced.
func (v FourVector) WithT(t float64) FourVector {
	v[0] = t
	return v
}

// WithSpatial returns a copy with the spatial components replaced.
func (v FourVector) WithSpatial(s r3.Vec) FourVector {
	v[1], v[2], v[3] = s.X, s.Y, s.Z
	return v
}

func (v FourVector) Add(w FourVector) FourVector {
	return FourVector{v[0] + w[0], v[1] + w[1], v[2] + w[2], v[3] + w[3]}
}

func (v FourVector) Sub(w FourVector) FourVector {
	return FourVector{v[0] - w[0], v[1] - w[1], v[2] - w[2], v[3] - w[3]}
}

func (v FourVector) Scale(f float64) FourVector {
	return FourVector{v[0] * f, v[1] * f, v[2] * f, v[3] * f}
}

// Dot is the Minkowski inner product.
func (v FourVector) Dot(w FourVector) float64 {
	return v[0]*w[0] - v[1]*w[1] - v[2]*w[2] - v[3]*w[3]
}

// Dot is the Minkowski inner product of a and b.
func Dot(a, b FourVector) float64 { return a.Dot(b) }

// Magnitude returns sqrt(|v.v|), so spacelike vectors get a real length.
func (v FourVector) Magnitude() float64 {
	return math.Sqrt(math.Abs(v.Dot(v)))
}

// Unit scales v to unit Minkowski magnitude. Null and zero vectors are
// returned unchanged.
func (v FourVector) Unit() FourVector {
	mag := v.Magnitude()
	if mag == 0 {
		return v
	}
	return v.Scale(1 / mag)
}

// Boost applies a pure Lorentz boost with velocity beta (in units of c).
// It returns ErrInvalidVelocity when |beta| >= 1.
func (v FourVector) Boost(beta r3.Vec) (FourVector, error) {
	b2 := r3.Norm2(beta)
	if math.IsNaN(b2) || b2 >= 1 {
		return v, fmt.Errorf("boost |beta|=%g: %w", math.Sqrt(b2), ErrInvalidVelocity)
	}
	if b2 == 0 {
		return v, nil
	}

	gamma := 1 / math.Sqrt(1-b2)
	x := v.Spatial()
	bx := r3.Dot(beta, x)

	t := gamma * (v[0] - bx)
	coef := (gamma-1)*bx/b2 - gamma*v[0]
	s := r3.Add(x, r3.Scale(coef, beta))

	return FromSpatial(t, s), nil
}

// RotateX rotates the spatial part about the x axis.
func (v FourVector) RotateX(angle float64) FourVector {
	sin, cos := math.Sincos(angle)
	y := v[2]*cos - v[3]*sin
	z := v[2]*sin + v[3]*cos
	v[2], v[3] = y, z
	return v
}

// RotateY rotates the spatial part about the y axis.
func (v FourVector) RotateY(angle float64) FourVector {
	sin, cos := math.Sincos(angle)
	x := v[1]*cos + v[3]*sin
	z := -v[1]*sin + v[3]*cos
	v[1], v[3] = x, z
	return v
}

// RotateZ rotates the spatial part about the z axis.
func (v FourVector) RotateZ(angle float64) FourVector {
	sin, cos := math.Sincos(angle)
	x := v[1]*cos - v[2]*sin
	y := v[1]*sin + v[2]*cos
	v[1], v[2] = x, y
	return v
}

// Rotate applies RotateZ(phi), then RotateY(theta), then RotateZ(psi).
// Angles must already be decomposed in this Z-Y-Z order.
func (v FourVector) Rotate(phi, theta, psi float64) FourVector {
	return v.RotateZ(phi).RotateY(theta).RotateZ(psi)
}

// IsFinite reports whether every component is neither NaN nor Inf.
func (v FourVector) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (v FourVector) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", v[0], v[1], v[2], v[3])
}
