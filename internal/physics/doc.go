// Package physics provides the pairwise force law for the N-body kernel.
//
// [ForceModel] implements [dynamo.ForceLaw] with two central
// inverse-square terms:
//
//   - gravity, G*mA*mB/r^2, pulling A toward B
//   - Coulomb, k*qA*qB/r^2, pushing A away from B for like charges
//
// Separations below [ForceModel.Epsilon] are evaluated at Epsilon so that
// close encounters cannot produce unbounded forces:
//
//	law, err := physics.NewForceModel(1e-3)
//	f, clamped := law.Pair(a, b)
package physics
