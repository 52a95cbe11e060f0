package metrics

import "github.com/san-kum/relsim/internal/dynamo"

// Stability is the fraction of observed steps on which no pair needed the
// minimum-separation clamp. 1 means every force was evaluated at its true
// separation.
type Stability struct {
	name       string
	violations int
	samples    int
	clamps     int
}

func NewStability() *Stability {
	return &Stability{
		name: "stability",
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(snap dynamo.Snapshot) error {
	// The initial snapshot carries no step.
	if snap.Step == 0 {
		return nil
	}
	s.samples++
	if len(snap.Guards) > 0 {
		s.violations++
		s.clamps += len(snap.Guards)
	}
	return nil
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// Clamps is the total number of clamped pair evaluations seen.
func (s *Stability) Clamps() int { return s.clamps }

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.clamps = 0
}
