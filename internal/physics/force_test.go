package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

func body(name string, mass, charge float64, pos r3.Vec) *dynamo.Body {
	b, err := dynamo.NewBody(name, mass, charge, dynamo.FromSpatial(0, pos), r3.Vec{})
	Expect(err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("ForceModel", func() {
	var law *physics.ForceModel

	BeforeEach(func() {
		var err error
		law, err = physics.NewForceModel(physics.DefaultEpsilon)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		DescribeTable("rejects a non-positive epsilon",
			func(eps float64) {
				_, err := physics.NewForceModel(eps)
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			},
			Entry("zero", 0.0),
			Entry("negative", -1e-3),
			Entry("NaN", math.NaN()),
			Entry("infinite", math.Inf(1)),
		)

		It("uses the physical constants", func() {
			Expect(law.G).To(Equal(physics.GravitationalConstant))
			Expect(law.K).To(Equal(physics.CoulombConstant))
			Expect(law.Epsilon).To(Equal(physics.DefaultEpsilon))
		})
	})

	Describe("gravity", func() {
		It("pulls each body toward the other with the inverse-square magnitude", func() {
			a := body("a", 5.972e24, 0, r3.Vec{})
			b := body("b", 7.342e22, 0, r3.Vec{X: 3.844e8})

			fa, clamped := law.Pair(a, b)
			Expect(clamped).To(BeFalse())

			want := physics.GravitationalConstant * 5.972e24 * 7.342e22 / (3.844e8 * 3.844e8)
			Expect(fa.X).To(BeNumerically("~", want, want*1e-12))
			Expect(fa.Y).To(BeZero())
			Expect(fa.Z).To(BeZero())

			fb, _ := law.Pair(b, a)
			Expect(fb).To(Equal(r3.Scale(-1, fa)))
		})

		It("is independent of charge", func() {
			a := body("a", 1e10, 2, r3.Vec{})
			b := body("b", 1e10, 3, r3.Vec{Y: 10})
			g := law.Gravitational(a, b)
			Expect(g.Y).To(BeNumerically(">", 0))
			want := physics.GravitationalConstant * 1e20 / 100
			Expect(g.Y).To(BeNumerically("~", want, want*1e-12))
		})
	})

	Describe("electromagnetism", func() {
		It("repels like charges", func() {
			a := body("a", 0, 1e-6, r3.Vec{})
			b := body("b", 0, 1e-6, r3.Vec{X: 1})

			f, _ := law.Pair(a, b)
			Expect(f.X).To(BeNumerically("<", 0))
			Expect(f.X).To(BeNumerically("~", -physics.CoulombConstant*1e-12, 1e-12))
		})

		It("attracts opposite charges", func() {
			a := body("a", 0, 1e-6, r3.Vec{})
			b := body("b", 0, -1e-6, r3.Vec{X: 1})

			f, _ := law.Pair(a, b)
			Expect(f.X).To(BeNumerically(">", 0))
		})

		It("is exactly antisymmetric for unequal bodies", func() {
			pairs := [][2]*dynamo.Body{
				{body("earth", 5.972e24, 0, r3.Vec{}), body("moon", 7.342e22, 0, r3.Vec{X: 3.844e8})},
				{body("p", 1.6726e-27, 1.602e-19, r3.Vec{X: 1e-9}), body("e", 9.109e-31, -1.602e-19, r3.Vec{Y: 3e-10, Z: -2e-10})},
				{body("a", 3e20, 7, r3.Vec{X: 1, Y: 2, Z: 3}), body("b", 1.7e19, 11, r3.Vec{X: -4e5, Y: 9e3, Z: 6})},
			}
			for _, p := range pairs {
				fa, _ := law.Pair(p[0], p[1])
				fb, _ := law.Pair(p[1], p[0])
				Expect(r3.Add(fa, fb)).To(Equal(r3.Vec{}), "%s/%s", p[0].Name(), p[1].Name())
			}
		})

		It("combines with gravity in Pair", func() {
			a := body("a", 1e5, 1e-6, r3.Vec{})
			b := body("b", 2e5, 3e-6, r3.Vec{Z: 2})

			f, _ := law.Pair(a, b)
			sum := r3.Add(law.Gravitational(a, b), law.Electromagnetic(a, b))
			Expect(f.Z).To(BeNumerically("~", sum.Z, math.Abs(sum.Z)*1e-12))
		})
	})

	Describe("close encounters", func() {
		It("evaluates the force at epsilon and reports the clamp", func() {
			a := body("a", 1e3, 0, r3.Vec{})
			b := body("b", 1e3, 0, r3.Vec{X: law.Epsilon / 10})

			f, clamped := law.Pair(a, b)
			Expect(clamped).To(BeTrue())

			bound := law.MaxMagnitude(a, b)
			Expect(r3.Norm(f)).To(BeNumerically("~", bound, bound*1e-12))
		})

		It("never exceeds the bound at any separation", func() {
			a := body("a", 1e3, 1e-3, r3.Vec{})
			for _, d := range []float64{1e-9, 1e-4, 1e-3, 1, 1e3} {
				b := body("b", 2e3, -1e-3, r3.Vec{X: d, Y: d / 2})
				f, _ := law.Pair(a, b)
				Expect(r3.Norm(f)).To(BeNumerically("<=", law.MaxMagnitude(a, b)*(1+1e-12)), "d=%g", d)
			}
		})

		It("gives coincident bodies zero force but still reports the clamp", func() {
			a := body("a", 1e3, 0, r3.Vec{X: 1})
			b := body("b", 1e3, 0, r3.Vec{X: 1})

			f, clamped := law.Pair(a, b)
			Expect(clamped).To(BeTrue())
			Expect(f).To(Equal(r3.Vec{}))
		})

		It("clamps the potential too", func() {
			a := body("a", 1e3, 0, r3.Vec{})
			b := body("b", 1e3, 0, r3.Vec{})
			want := -physics.GravitationalConstant * 1e6 / law.Epsilon
			Expect(law.Potential(a, b)).To(BeNumerically("~", want, math.Abs(want)*1e-12))
		})
	})

	Describe("self-interaction", func() {
		It("is zero", func() {
			a := body("a", 1e30, 1, r3.Vec{X: 5})

			f, clamped := law.Pair(a, a)
			Expect(f).To(Equal(r3.Vec{}))
			Expect(clamped).To(BeFalse())
			Expect(law.Potential(a, a)).To(BeZero())
		})
	})
})
