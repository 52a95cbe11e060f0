package compute

import (
	"github.com/san-kum/relsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Backend accumulates net pairwise forces for a whole ensemble.
//
// NetForces must only read bodies. It overwrites out[i] with the net force
// on body i, summed over j ascending (j != i), and returns one guard per
// clamped unordered pair in (i, j) order with i < j.
type Backend interface {
	Name() string
	NetForces(law dynamo.ForceLaw, bodies []*dynamo.Body, out []r3.Vec) []dynamo.PairGuard
}

// Default returns a CPU backend using every core.
func Default() Backend {
	return NewCPUBackend(0)
}

func separation(a, b *dynamo.Body) float64 {
	return r3.Norm(r3.Sub(b.SpatialPosition(), a.SpatialPosition()))
}
