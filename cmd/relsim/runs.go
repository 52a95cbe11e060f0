package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/relsim/internal/analysis"
	"github.com/san-kum/relsim/internal/export"
	"github.com/san-kum/relsim/internal/storage"
	"github.com/spf13/cobra"
)

const maxPlots = 6

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.ListRuns(dataDir)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tBODIES\tSTEPS\tDT\tDRIFT\tCLAMPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%gs\t%.2e\t%d\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Bodies),
			run.Steps,
			run.Dt,
			run.EnergyDrift,
			run.Clamps,
		)
	}
	return w.Flush()
}

// loadSeries reads a run and splits it per body.
func loadSeries(ref string) (*storage.RunMetadata, [][]storage.Record, error) {
	meta, records, err := storage.LoadRun(dataDir, ref)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", meta.ID)
	}
	return meta, storage.ByBody(records), nil
}

func bodySeries(series [][]storage.Record) ([]storage.Record, error) {
	if bodyIndex < 0 || bodyIndex >= len(series) {
		return nil, fmt.Errorf("body %d out of range (run has %d)", bodyIndex, len(series))
	}
	return series[bodyIndex], nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", len(series[0]))

	for i, s := range series {
		if i == maxPlots {
			fmt.Printf("(%d more bodies not shown)\n", len(series)-i)
			break
		}
		data, err := analysis.Column(s, analysis.Coordinate(coord))
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s: %s vs step", s[0].Name, coord)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}
	s, err := bodySeries(series)
	if err != nil {
		return err
	}
	data, err := analysis.Column(s, analysis.Coordinate(coord))
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("body: %s, coordinate: %s\n\n", s[0].Name, coord)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 1 {
		graph := asciigraph.Plot(ps[1:],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", coord)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	period, err := analysis.DominantPeriod(data, meta.Dt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.6g hz\n", 1/period)
	fmt.Printf("period: %.6g s (%.4g days)\n", period, period/86400)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}
	s, err := bodySeries(series)
	if err != nil {
		return err
	}

	x, y := analysis.Coordinate(xAxis), analysis.Coordinate(yAxis)
	if sectionAxis != "" {
		section, err := analysis.GeneratePoincareSection(s, analysis.Coordinate(sectionAxis), sectionLevel, x, y)
		if err != nil {
			return err
		}
		fmt.Printf("poincaré section: %s, body %s\n", meta.ID, s[0].Name)
		fmt.Printf("%s crossing %g upward, %d points, x-axis: %s, y-axis: %s\n\n", sectionAxis, sectionLevel, len(section.Points), x, y)
		fmt.Print(analysis.PoincareSectionToASCII(section, 70, 20))
		fmt.Println()
		return nil
	}

	portrait, err := analysis.GeneratePhasePortrait(s, x, y)
	if err != nil {
		return err
	}
	fmt.Printf("phase space plot: %s, body %s\n", meta.ID, s[0].Name)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", x, y)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, records, err := storage.LoadRun(dataDir, args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, records)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	svg := export.TrajectoriesToSVG(series, svgWidth, svgHeight)
	if svgOut == "" {
		_, err = fmt.Fprintln(os.Stdout, svg)
		return err
	}
	if !strings.HasSuffix(svgOut, ".svg") {
		svgOut += ".svg"
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bodies from %s)\n", svgOut, len(series), meta.ID)
	return nil
}
