package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// starting at U+2800.
const blank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in sub-pixels; it is
// Width*2 sub-pixels wide and Height*4 tall.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col, bit int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, pixelMap[y%4][x%2], true
}

// Set lights the sub-pixel (x, y); out of range is ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= rune(bit)
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= rune(bit)
		c.Grid[row][col] |= blank
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&rune(bit) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Disc fills a square of half-width r around (x, y).
func (c *Canvas) Disc(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps the x-y plane in metres onto canvas sub-pixels, y up.
type Viewport struct {
	Center r3.Vec
	// Scale is sub-pixels per metre.
	Scale float64
}

// FitViewport centres the points and scales them to fill the canvas with
// margin to spare.
func FitViewport(points []r3.Vec, c *Canvas, margin float64) Viewport {
	if len(points) == 0 {
		return Viewport{Scale: 1}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}

	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span == 0 {
		span = 1
	}
	span *= 1 + 2*margin
	px := float64(min(c.PixelWidth(), c.PixelHeight()))

	return Viewport{
		Center: r3.Vec{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2},
		Scale:  px / span,
	}
}

// Project returns the sub-pixel for p on c.
func (v Viewport) Project(p r3.Vec, c *Canvas) (int, int) {
	x := float64(c.PixelWidth())/2 + (p.X-v.Center.X)*v.Scale
	y := float64(c.PixelHeight())/2 - (p.Y-v.Center.Y)*v.Scale
	return int(math.Round(x)), int(math.Round(y))
}

func (v Viewport) Zoom(f float64) Viewport {
	v.Scale *= f
	return v
}
