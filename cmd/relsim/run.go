package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/relsim/internal/analysis"
	"github.com/san-kum/relsim/internal/config"
	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/logging"
	"github.com/san-kum/relsim/internal/metrics"
	"github.com/san-kum/relsim/internal/storage"
	"github.com/san-kum/relsim/internal/viz"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, source, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg)

	law, err := newLaw(cfg)
	if err != nil {
		return err
	}

	specs, err := cfg.Specs()
	if err != nil {
		return err
	}
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}

	meta := &storage.RunMetadata{
		Source:  source,
		Dt:      cfg.Dt,
		Steps:   cfg.Steps,
		Epsilon: cfg.Epsilon,
		Bodies:  names,
	}
	drift := metrics.NewEnergyDrift(law)
	momentum := metrics.NewMomentumDrift()
	stability := metrics.NewStability()
	opts := []dynamo.Option{
		dynamo.WithLogger(log),
		dynamo.WithObserver(drift),
		dynamo.WithObserver(momentum),
		dynamo.WithObserver(stability),
	}

	var tel *metrics.Telemetry
	if metricsAddr != "" {
		tel = metrics.NewTelemetry(law)
		opts = append(opts, dynamo.WithObserver(tel))
	}

	sim, rec, err := newRecordedSimulation(cfg, law, meta, opts...)
	if err != nil {
		return err
	}

	if tel != nil {
		stop := serveMetrics(metricsAddr, tel, log)
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Printf("running %s (%d bodies, %d steps of %gs)...\n", source, sim.Len(), cfg.Steps, cfg.Dt)
	start := time.Now()
	result, runErr := sim.Run(ctx, cfg.Steps)
	elapsed := time.Since(start)

	final := *meta
	final.FinalTime = sim.Time()
	final.EnergyDrift = drift.Value()
	final.Clamps = sim.Clamps()
	final.Metrics = metrics.Values(drift, momentum, stability)
	if err := rec.Finish(&final); err != nil {
		return errors.Join(runErr, fmt.Errorf("finish output: %w", err))
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Warning("run interrupted", "step", sim.StepCount(), "output", rec.Location())
		}
		return runErr
	}

	log.Info("run complete", "steps", result.StepsTaken, "clamps", result.Clamps, "elapsed", elapsed)
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run: %s\n", rec.Location())
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final time: %gs\n", result.FinalTime)
	fmt.Println("\nmetrics:")
	keys := make([]string, 0, len(final.Metrics))
	for k := range final.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %.6g\n", k, final.Metrics[k])
	}
	return nil
}

// newRecordedSimulation builds the simulation and only then opens the
// output, so a failed setup leaves nothing on disk.
func newRecordedSimulation(cfg *config.Config, law dynamo.ForceLaw, meta *storage.RunMetadata, opts ...dynamo.Option) (*dynamo.Simulation, storage.Recorder, error) {
	sim, err := buildSimulation(cfg, law, cfg.SimConfig(), opts...)
	if err != nil {
		return nil, nil, err
	}
	rec, err := storage.Open(cfg.Output, meta)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	sim.AddObserver(rec)
	return sim, rec, nil
}

// serveMetrics exposes tel on addr/metrics until the returned func is
// called.
func serveMetrics(addr string, tel *metrics.Telemetry, log *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", tel.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// compareTimeSteps runs the same configuration at several dt over the same
// simulated time, concurrently, and reports how the results converge.
func compareTimeSteps(cmd *cobra.Command, args []string) error {
	cfg, source, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg)

	law, err := newLaw(cfg)
	if err != nil {
		return err
	}

	timeSteps := dts
	if len(timeSteps) == 0 {
		timeSteps = []float64{cfg.Dt, cfg.Dt / 2, cfg.Dt / 4}
	}
	duration := cfg.Dt * float64(cfg.Steps)

	sims := make([]*dynamo.Simulation, len(timeSteps))
	drifts := make([]*metrics.EnergyDrift, len(timeSteps))
	counts := make([]int, len(timeSteps))
	for i, d := range timeSteps {
		if !(d > 0) {
			return fmt.Errorf("dts[%d]: time step must be positive, got %g", i, d)
		}
		drifts[i] = metrics.NewEnergyDrift(law)
		sims[i], err = buildSimulation(cfg, law, dynamo.Config{Dt: d},
			dynamo.WithLogger(log.With("dt", d)), dynamo.WithObserver(drifts[i]))
		if err != nil {
			return err
		}
		counts[i] = int(math.Round(duration / d))
	}

	fmt.Printf("comparing time steps for %s (duration=%gs)\n\n", source, duration)
	start := time.Now()
	results, err := dynamo.NewEnsemble(sims...).Run(cmd.Context(), counts)
	if err != nil {
		return err
	}
	log.Debug("ensemble finished", "members", len(sims), "elapsed", time.Since(start))

	// Final positions are compared against the finest step.
	finest := 0
	for i := range timeSteps {
		if timeSteps[i] < timeSteps[finest] {
			finest = i
		}
	}
	ref := sims[finest].Bodies()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tFINAL_TIME\tENERGY_DRIFT\tCLAMPS\tMAX_DEVIATION")
	for i, sim := range sims {
		dev := 0.0
		for j, b := range sim.Bodies() {
			p, q := b.SpatialPosition(), ref[j].SpatialPosition()
			dev = math.Max(dev, math.Sqrt((p.X-q.X)*(p.X-q.X)+(p.Y-q.Y)*(p.Y-q.Y)+(p.Z-q.Z)*(p.Z-q.Z)))
		}
		fmt.Fprintf(w, "%g\t%d\t%g\t%.3e\t%d\t%.4gm\n",
			timeSteps[i], results[i].StepsTaken, results[i].FinalTime, drifts[i].Value(), results[i].Clamps, dev)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, source, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	law, err := newLaw(cfg)
	if err != nil {
		return err
	}

	factory := func() (*dynamo.Simulation, error) {
		return buildSimulation(cfg, law, cfg.SimConfig(), dynamo.WithLogger(logging.Discard()))
	}
	m, err := viz.NewModel(factory, viz.Options{
		Title:         source,
		StepsPerFrame: frameSteps,
		MaxSteps:      cfg.Steps,
		Potential:     law,
		Theme:         theme,
	})
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	cfg, source, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	law, err := newLaw(cfg)
	if err != nil {
		return err
	}
	specs, err := cfg.Specs()
	if err != nil {
		return err
	}

	factory := func() dynamo.Stepper { return newStepper(cfg, law) }
	d, err := analysis.LyapunovExponent(cmd.Context(), specs, cfg.SimConfig(), factory, bodyIndex, perturbation, cfg.Steps)
	if err != nil {
		return err
	}

	logs := make([]float64, len(d.Separations))
	for i, s := range d.Separations {
		logs[i] = math.Log10(s)
	}
	fmt.Printf("lyapunov: %s, body %d displaced %gm\n\n", source, bodyIndex, perturbation)
	fmt.Println(asciigraph.Plot(logs, asciigraph.Height(12), asciigraph.Width(80), asciigraph.Caption("log10 separation (m)")))
	fmt.Printf("\nexponent: %.6g 1/s\n", d.Exponent)
	if d.Exponent > 0 {
		fmt.Printf("e-folding time: %.6g s\n", 1/d.Exponent)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES\tDT\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%gs\t%d\n", name, len(p.Bodies), p.Dt, p.Steps)
	}
	return w.Flush()
}
