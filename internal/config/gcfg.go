package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"
)

// gcfgFile is the INI-style layout:
//
//	[run]
//	dt = 60
//	steps = 1440
//
//	[frame]
//	boost = 0.1 0 0
//
//	[body "earth"]
//	order = 0
//	mass = 5.972e24
//	position = 0 0 0
//
// Bodies are ordered by their order key, then by name.
type gcfgFile struct {
	Run struct {
		Dt        float64
		Steps     int
		Epsilon   float64
		Workers   int
		Output    string
		Verbosity int
	}
	Frame struct {
		Boost  string
		Rotate string
	}
	Body map[string]*gcfgBody
}

type gcfgBody struct {
	Order    int
	Mass     float64
	Charge   float64
	Time     float64
	Position string
	Momentum string
	Velocity string
}

func loadGcfg(path string) (*Config, error) {
	def := DefaultConfig()

	var f gcfgFile
	f.Run.Dt = def.Dt
	f.Run.Steps = def.Steps
	f.Run.Epsilon = def.Epsilon
	f.Run.Output = def.Output
	f.Run.Verbosity = def.Verbosity

	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := &Config{
		Dt:        f.Run.Dt,
		Steps:     f.Run.Steps,
		Epsilon:   f.Run.Epsilon,
		Workers:   f.Run.Workers,
		Output:    f.Run.Output,
		Verbosity: f.Run.Verbosity,
	}

	var err error
	if cfg.Frame.Boost, err = parseFloats(f.Frame.Boost); err != nil {
		return nil, fieldErr("frame.boost", err, "%v", err)
	}
	if cfg.Frame.Rotate, err = parseFloats(f.Frame.Rotate); err != nil {
		return nil, fieldErr("frame.rotate", err, "%v", err)
	}

	names := make([]string, 0, len(f.Body))
	for name := range f.Body {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := f.Body[names[i]], f.Body[names[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		gb := f.Body[name]
		bc := BodyConfig{Name: name, Mass: gb.Mass, Charge: gb.Charge, Time: gb.Time}
		for _, field := range []struct {
			key string
			raw string
			dst *[]float64
		}{
			{"position", gb.Position, &bc.Position},
			{"momentum", gb.Momentum, &bc.Momentum},
			{"velocity", gb.Velocity, &bc.Velocity},
		} {
			if *field.dst, err = parseFloats(field.raw); err != nil {
				return nil, fieldErr(fmt.Sprintf("body %q %s", name, field.key), err, "%v", err)
			}
		}
		cfg.Bodies = append(cfg.Bodies, bc)
	}

	return cfg, nil
}

// parseFloats splits a whitespace or comma separated list.
func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
