package storage

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/san-kum/relsim/internal/dynamo"
)

// Record is one body at one step boundary.
type Record struct {
	Step   int     `json:"step"`
	Time   float64 `json:"time"`
	Body   int     `json:"body"`
	Name   string  `json:"name"`
	CT     float64 `json:"ct"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	P0     float64 `json:"p0"`
	Px     float64 `json:"px"`
	Py     float64 `json:"py"`
	Pz     float64 `json:"pz"`
	Vx     float64 `json:"vx"`
	Vy     float64 `json:"vy"`
	Vz     float64 `json:"vz"`
	Gamma  float64 `json:"gamma"`
	Energy float64 `json:"energy"`
}

var header = []string{
	"step", "time", "body", "name",
	"ct", "x", "y", "z",
	"p0", "px", "py", "pz",
	"vx", "vy", "vz",
	"gamma", "energy",
}

// Records flattens a snapshot in body index order. Gamma is 0 for
// massless bodies.
func Records(s dynamo.Snapshot) []Record {
	out := make([]Record, len(s.Bodies))
	for i := range s.Bodies {
		b := &s.Bodies[i]
		x, p, v := b.Position(), b.Momentum(), b.Velocity()
		gamma, err := b.Gamma()
		if err != nil {
			gamma = 0
		}
		out[i] = Record{
			Step: s.Step, Time: s.Time, Body: i, Name: b.Name(),
			CT: x[0], X: x[1], Y: x[2], Z: x[3],
			P0: p[0], Px: p[1], Py: p[2], Pz: p[3],
			Vx: v.X, Vy: v.Y, Vz: v.Z,
			Gamma: gamma, Energy: b.Energy(),
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (r Record) row() []string {
	row := []string{strconv.Itoa(r.Step), formatFloat(r.Time), strconv.Itoa(r.Body), r.Name}
	for _, f := range r.floats() {
		row = append(row, formatFloat(f))
	}
	return row
}

func (r Record) floats() []float64 {
	return []float64{r.CT, r.X, r.Y, r.Z, r.P0, r.Px, r.Py, r.Pz, r.Vx, r.Vy, r.Vz, r.Gamma, r.Energy}
}

func parseRow(row []string) (Record, error) {
	var r Record
	if len(row) != len(header) {
		return r, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	var err error
	if r.Step, err = strconv.Atoi(row[0]); err != nil {
		return r, fmt.Errorf("step: %w", err)
	}
	if r.Time, err = strconv.ParseFloat(row[1], 64); err != nil {
		return r, fmt.Errorf("time: %w", err)
	}
	if r.Body, err = strconv.Atoi(row[2]); err != nil {
		return r, fmt.Errorf("body: %w", err)
	}
	r.Name = row[3]

	dst := []*float64{&r.CT, &r.X, &r.Y, &r.Z, &r.P0, &r.Px, &r.Py, &r.Pz, &r.Vx, &r.Vy, &r.Vz, &r.Gamma, &r.Energy}
	for i, p := range dst {
		if *p, err = strconv.ParseFloat(row[4+i], 64); err != nil {
			return r, fmt.Errorf("%s: %w", header[4+i], err)
		}
	}
	return r, nil
}

// ByBody groups records per body index, each series in step order.
func ByBody(records []Record) [][]Record {
	n := 0
	for _, r := range records {
		if r.Body+1 > n {
			n = r.Body + 1
		}
	}
	series := make([][]Record, n)
	for _, r := range records {
		series[r.Body] = append(series[r.Body], r)
	}
	for _, s := range series {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Step < s[j].Step })
	}
	return series
}
