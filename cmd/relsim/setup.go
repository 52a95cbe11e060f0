package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/relsim/internal/compute"
	"github.com/san-kum/relsim/internal/config"
	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/integrators"
	"github.com/san-kum/relsim/internal/logging"
	"github.com/san-kum/relsim/internal/physics"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.yaml"

// loadConfig resolves the configuration from --preset, --config or
// config.yaml in that order, applies explicitly set flags on top and
// validates the result. It also returns the name runs are recorded under.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	var (
		cfg    *config.Config
		source string
	)
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		source = preset
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg, source = c, configFile
	default:
		c, err := config.Load(defaultConfigFile)
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("no %s here; pass --config or --preset", defaultConfigFile)
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg, source = c, defaultConfigFile
	}

	// CLI flags override the file.
	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("epsilon") {
		cfg.Epsilon = epsilon
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("verbosity") {
		cfg.Verbosity = verbosity
	}
	if f := flags.Lookup("output"); f != nil && f.Changed {
		cfg.Output = output
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, source, nil
}

func newLogger(w io.Writer, cfg *config.Config) *logging.Logger {
	return logging.New(w, logging.FromVerbosity(cfg.Verbosity))
}

func newLaw(cfg *config.Config) (*physics.ForceModel, error) {
	return physics.NewForceModel(cfg.Epsilon)
}

func newStepper(cfg *config.Config, law dynamo.ForceLaw) dynamo.Stepper {
	return integrators.NewSemiImplicitEuler(law, compute.NewCPUBackend(cfg.Workers))
}

// buildSimulation turns a validated configuration into a simulation using
// cfg.Dt unless simCfg overrides it.
func buildSimulation(cfg *config.Config, law dynamo.ForceLaw, simCfg dynamo.Config, opts ...dynamo.Option) (*dynamo.Simulation, error) {
	specs, err := cfg.Specs()
	if err != nil {
		return nil, err
	}
	return dynamo.New(specs, simCfg, newStepper(cfg, law), opts...)
}
