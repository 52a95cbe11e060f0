package main

import (
	"fmt"
	"os"

	"github.com/san-kum/relsim/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	output      string
	verbosity   int
	dt          float64
	steps       int
	epsilon     float64
	workers     int
	metricsAddr string
	// Analysis selectors
	bodyIndex    int
	coord        string
	xAxis        string
	yAxis        string
	sectionAxis  string
	sectionLevel float64
	perturbation float64
	// compare
	dts []float64
	// live view
	frameSteps int
	theme      string
	// export-svg
	svgOut    string
	svgWidth  int
	svgHeight int
)

// helpShown records that cobra printed usage, which exits with status 1.
var helpShown bool

// main registers commands and flags and executes the root command. It
// exits with status 1 on any error or when help was requested.
func main() {
	rootCmd := &cobra.Command{
		Use:           "relsim",
		Short:         "relativistic n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpShown = true
		defaultHelp(cmd, args)
	})

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutput, "run directory root or .db file to read runs from")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and record it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	configFlags(runCmd)
	runCmd.Flags().StringVar(&output, "output", "", "run directory root, or a .db/.sqlite file")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run]",
		Short: "plot one coordinate of every body against step",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&coord, "coord", "x", "coordinate to plot")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run]",
		Short: "frequency analysis of one body's coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&bodyIndex, "body", 0, "body index")
	analyzeCmd.Flags().StringVar(&coord, "coord", "x", "coordinate to analyse")

	phaseCmd := &cobra.Command{
		Use:   "phase [run]",
		Short: "phase space plot, or a Poincaré section with --section",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&bodyIndex, "body", 0, "body index")
	phaseCmd.Flags().StringVar(&xAxis, "x-axis", "x", "coordinate for the x-axis")
	phaseCmd.Flags().StringVar(&yAxis, "y-axis", "px", "coordinate for the y-axis")
	phaseCmd.Flags().StringVar(&sectionAxis, "section", "", "record crossings of this coordinate")
	phaseCmd.Flags().Float64Var(&sectionLevel, "level", 0, "section threshold")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest Lyapunov exponent of a configuration",
		Args:  cobra.NoArgs,
		RunE:  runLyapunov,
	}
	configFlags(lyapunovCmd)
	lyapunovCmd.Flags().IntVar(&bodyIndex, "body", 0, "body to perturb")
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1, "initial displacement in metres")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run]",
		Short: "draw every body's x-y trajectory as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run one configuration at several time steps concurrently",
		Args:  cobra.NoArgs,
		RunE:  compareTimeSteps,
	}
	configFlags(compareCmd)
	compareCmd.Flags().Float64SliceVar(&dts, "dts", nil, "time steps to compare (default dt, dt/2, dt/4)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	configFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameSteps, "frame-steps", 10, "simulation steps per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, lyapunovCmd, exportJSONCmd, exportSVGCmd, compareCmd, presetsCmd, liveCmd)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	if err != nil || helpShown {
		os.Exit(1)
	}
}

// configFlags adds the flags that select and override a configuration.
func configFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, or gcfg with .ini/.gcfg); default config.yaml when present")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in configuration")
	cmd.Flags().IntVar(&verbosity, "verbosity", config.DefaultVerbosity, "log verbosity, 0 (fatal) to 4 (debug)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step in seconds")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0, "minimum separation in metres")
	cmd.Flags().IntVar(&workers, "workers", 0, "force workers, 0 for every core")
}
