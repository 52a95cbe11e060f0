package metrics

import (
	"math"

	"github.com/san-kum/relsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Potential is the pair interaction energy of a force law.
type Potential interface {
	Potential(a, b *dynamo.Body) float64
}

// TotalEnergy is the kinetic energy of every body plus the interaction
// energy of every unordered pair. Rest energy is left out so that the
// value stays well conditioned for slow bodies.
func TotalEnergy(bodies []dynamo.Body, pot Potential) float64 {
	var kinetic, potential float64
	for i := range bodies {
		kinetic += bodies[i].KineticEnergy()
	}
	if pot != nil {
		for i := range bodies {
			for j := i + 1; j < len(bodies); j++ {
				potential += pot.Potential(&bodies[i], &bodies[j])
			}
		}
	}
	return kinetic + potential
}

func TotalMomentum(bodies []dynamo.Body) r3.Vec {
	var p r3.Vec
	for i := range bodies {
		p = r3.Add(p, bodies[i].Momentum().Spatial())
	}
	return p
}

// EnergyDrift tracks the largest relative departure of the total energy
// from its value in the first observed snapshot.
type EnergyDrift struct {
	name          string
	pot           Potential
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(pot Potential) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		pot:  pot,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(s dynamo.Snapshot) error {
	energy := TotalEnergy(s.Bodies, e.pot)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
	return nil
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

// Relative is the drift of the latest sample alone.
func (e *EnergyDrift) Relative() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change of total momentum, relative to
// the sum of the bodies' momentum magnitudes in the first snapshot.
type MomentumDrift struct {
	initial  r3.Vec
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) OnStep(s dynamo.Snapshot) error {
	p := TotalMomentum(s.Bodies)
	if m.samples == 0 {
		m.initial = p
		for i := range s.Bodies {
			m.scale += r3.Norm(s.Bodies[i].Momentum().Spatial())
		}
	}
	m.samples++

	if m.scale > 0 {
		m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(p, m.initial))/m.scale)
	}
	return nil
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() { *m = MomentumDrift{} }
