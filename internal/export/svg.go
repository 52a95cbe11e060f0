package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/san-kum/relsim/internal/storage"
	"github.com/san-kum/relsim/internal/viz"
)

// palette colours successive bodies, wrapping around.
var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff00", "#ff8800", "#8888ff"}

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%[1]v" height="%[2]v" viewBox="0 0 %[1]v %[2]v">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.PixelWidth()) * scale
	height := float64(canvas.PixelHeight()) * scale
	dotRadius := scale * 0.4

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, fmt.Sprintf("%.0f", width), fmt.Sprintf("%.0f", height))
	sb.WriteString("<g fill=\"#00ff00\">\n")
	for y := 0; y < canvas.PixelHeight(); y++ {
		for x := 0; x < canvas.PixelWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoriesToSVG draws the x-y path of every body series on shared,
// equal-aspect axes with a dot and label at each final position. Series
// come from storage.ByBody.
func TrajectoriesToSVG(series [][]storage.Record, width, height int) string {
	var first *storage.Record
	for _, s := range series {
		if len(s) > 0 {
			first = &s[0]
			break
		}
	}
	if first == nil {
		return ""
	}

	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, s := range series {
		for _, r := range s {
			minX, maxX = min(minX, r.X), max(maxX, r.X)
			minY, maxY = min(minY, r.Y), max(maxY, r.Y)
		}
	}

	span := max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	px := float64(min(width, height))
	project := func(r storage.Record) (float64, float64) {
		return float64(width)/2 + (r.X-cx)/span*px, float64(height)/2 - (r.Y-cy)/span*px
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height)
	for i, s := range series {
		if len(s) == 0 {
			continue
		}
		stroke := palette[i%len(palette)]

		if len(s) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
			for j, r := range s {
				x, y := project(r)
				if j == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		last := s[len(s)-1]
		x, y := project(last)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", x, y, stroke)
		fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
			x+5, y-5, stroke, html.EscapeString(last.Name))
	}
	sb.WriteString("</svg>")
	return sb.String()
}
