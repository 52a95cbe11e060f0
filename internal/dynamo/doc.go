// Package dynamo provides the relativistic state model and simulation loop.
//
// The package defines the core types of the N-body kernel:
//
//   - [FourVector]: Minkowski four-vector with boosts and rotations
//   - [Body]: a point particle with four-position and on-shell four-momentum
//   - [ForceLaw]: pairwise force interface implemented by physics models
//   - [Stepper]: advances the whole ensemble by one time step
//   - [Simulation]: owns the ensemble and drives steps
//
// # Example
//
//	law, _ := physics.NewForceModel(1e-3)
//	step := integrators.NewSemiImplicitEuler(law, compute.NewCPUBackend(0))
//	sim, err := dynamo.New(specs, dynamo.Config{Dt: 60}, step)
//	if err != nil {
//	    return err // configuration errors are fatal
//	}
//	result, _ := sim.Run(ctx, 1440)
//
// # Units
//
// Four-positions are (ct, x, y, z) in metres and four-momenta are
// (E/c, px, py, pz) in kg m/s, so Lorentz boosts need no conversion
// factors. Body accessors convert back to seconds and joules.
//
// # Thread Safety
//
// Simulation instances are NOT thread-safe. [Ensemble] runs independent
// simulations concurrently.
package dynamo
