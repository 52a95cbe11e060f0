// Package compute provides force accumulation backends.
//
// A [Backend] turns a pairwise [dynamo.ForceLaw] into the net force on
// every body of an ensemble, reading only the state as it was at the start
// of the step:
//
//	backend := compute.NewCPUBackend(0)
//	guards := backend.NetForces(law, bodies, forces)
//
// Small ensembles are summed serially. Larger ones are split across
// goroutines by contiguous body index range; each worker writes only the
// slots it owns and keeps its own guard list, merged afterwards in worker
// order. Serial and parallel sums use the same j-ascending order per body,
// so their results are bit-identical.
package compute
