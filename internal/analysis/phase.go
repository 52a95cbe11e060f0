package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/relsim/internal/storage"
)

type Point struct{ X, Y float64 }

// Coordinate names one column of a recorded body state.
type Coordinate string

var coordinates = map[Coordinate]func(r *storage.Record) float64{
	"time":   func(r *storage.Record) float64 { return r.Time },
	"ct":     func(r *storage.Record) float64 { return r.CT },
	"x":      func(r *storage.Record) float64 { return r.X },
	"y":      func(r *storage.Record) float64 { return r.Y },
	"z":      func(r *storage.Record) float64 { return r.Z },
	"p0":     func(r *storage.Record) float64 { return r.P0 },
	"px":     func(r *storage.Record) float64 { return r.Px },
	"py":     func(r *storage.Record) float64 { return r.Py },
	"pz":     func(r *storage.Record) float64 { return r.Pz },
	"vx":     func(r *storage.Record) float64 { return r.Vx },
	"vy":     func(r *storage.Record) float64 { return r.Vy },
	"vz":     func(r *storage.Record) float64 { return r.Vz },
	"gamma":  func(r *storage.Record) float64 { return r.Gamma },
	"energy": func(r *storage.Record) float64 { return r.Energy },
}

func (c Coordinate) accessor() (func(r *storage.Record) float64, error) {
	f, ok := coordinates[c]
	if !ok {
		return nil, fmt.Errorf("unknown coordinate %q", c)
	}
	return f, nil
}

// Column extracts one coordinate from every record of a series.
func Column(series []storage.Record, c Coordinate) ([]float64, error) {
	get, err := c.accessor()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(series))
	for i := range series {
		out[i] = get(&series[i])
	}
	return out, nil
}

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XAxis, YAxis Coordinate
	Points       []Point
}

// GeneratePhasePortrait pairs two coordinates of one body's recorded
// series, e.g. x against px.
func GeneratePhasePortrait(series []storage.Record, xc, yc Coordinate) (*PhasePortrait2D, error) {
	xs, err := Column(series, xc)
	if err != nil {
		return nil, err
	}
	ys, err := Column(series, yc)
	if err != nil {
		return nil, err
	}

	portrait := &PhasePortrait2D{XAxis: xc, YAxis: yc, Points: make([]Point, len(xs))}
	for i := range xs {
		portrait.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return portrait, nil
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	// Find bounds
	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	// Create canvas
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Plot points
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	// Convert to string
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points when a trajectory crosses a plane
type PoincareSection struct {
	Points []Point
}

// GeneratePoincareSection records (rx, ry), linearly interpolated, every
// time coordinate cross passes threshold going upward.
func GeneratePoincareSection(series []storage.Record, cross Coordinate, threshold float64, rx, ry Coordinate) (*PoincareSection, error) {
	cs, err := Column(series, cross)
	if err != nil {
		return nil, err
	}
	xs, err := Column(series, rx)
	if err != nil {
		return nil, err
	}
	ys, err := Column(series, ry)
	if err != nil {
		return nil, err
	}

	section := &PoincareSection{Points: make([]Point, 0)}
	for i := 1; i < len(cs); i++ {
		prev, curr := cs[i-1], cs[i]
		if !(prev < threshold && curr >= threshold) {
			continue
		}
		frac := (threshold - prev) / (curr - prev)
		section.Points = append(section.Points, Point{
			X: xs[i-1] + frac*(xs[i]-xs[i-1]),
			Y: ys[i-1] + frac*(ys[i]-ys[i-1]),
		})
	}

	return section, nil
}

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}

	// Use same logic as phase portrait
	portrait := &PhasePortrait2D{Points: section.Points}
	return PhasePortraitToASCII(portrait, width, height)
}
