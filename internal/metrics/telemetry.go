package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/relsim/internal/dynamo"
)

// Telemetry exports run progress as Prometheus metrics. It owns its
// registry, so several simulations in one process do not collide.
type Telemetry struct {
	registry  *prometheus.Registry
	drift     *EnergyDrift
	steps     prometheus.Counter
	clamps    prometheus.Counter
	stepTime  prometheus.Histogram
	simTime   prometheus.Gauge
	energy    prometheus.Gauge
	driftNow  prometheus.Gauge
	bodyCount prometheus.Gauge
}

// NewTelemetry registers the run metrics. A nil pot disables the energy
// gauges.
func NewTelemetry(pot Potential) *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relsim_steps_total",
			Help: "Integration steps completed.",
		}),
		clamps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relsim_guard_clamps_total",
			Help: "Pair force evaluations clamped to the minimum separation.",
		}),
		stepTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relsim_step_seconds",
			Help:    "Wall time of one integration step.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relsim_sim_time_seconds",
			Help: "Simulated coordinate time.",
		}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relsim_total_energy_joules",
			Help: "Kinetic plus interaction energy of the ensemble.",
		}),
		driftNow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relsim_energy_drift",
			Help: "Relative energy change since the first snapshot.",
		}),
		bodyCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relsim_bodies",
			Help: "Bodies in the ensemble.",
		}),
	}
	if pot != nil {
		t.drift = NewEnergyDrift(pot)
	}

	t.registry.MustRegister(t.steps, t.clamps, t.stepTime, t.simTime, t.energy, t.driftNow, t.bodyCount)
	return t
}

func (t *Telemetry) OnStep(s dynamo.Snapshot) error {
	t.bodyCount.Set(float64(len(s.Bodies)))
	t.simTime.Set(s.Time)

	if s.Step > 0 {
		t.steps.Inc()
		t.clamps.Add(float64(len(s.Guards)))
		t.stepTime.Observe(s.Elapsed.Seconds())
	}

	if t.drift != nil {
		if err := t.drift.OnStep(s); err != nil {
			return err
		}
		t.energy.Set(t.drift.Current())
		t.driftNow.Set(t.drift.Relative())
	}
	return nil
}

func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// Handler serves the registry in the Prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
