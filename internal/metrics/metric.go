package metrics

import "github.com/san-kum/relsim/internal/dynamo"

// Metric accumulates a scalar over the snapshots of a run.
type Metric interface {
	dynamo.Observer
	Name() string
	Value() float64
	Reset()
}

// Values collects the current value of every metric by name.
func Values(ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
