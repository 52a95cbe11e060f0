package config

import (
	"math"
	"sort"

	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/physics"
)

const (
	earthMass     = 5.972e24
	moonMass      = 7.342e22
	earthMoonDist = 3.844e8

	protonMass   = 1.67262192e-27
	electronMass = 9.1093837e-31
	elementary   = 1.602176634e-19
)

// circular returns the relative speed of a circular two-body orbit.
func circular(m1, m2, r float64) float64 {
	return math.Sqrt(physics.GravitationalConstant * (m1 + m2) / r)
}

func earthMoon() *Config {
	v := circular(earthMass, moonMass, earthMoonDist)
	total := earthMass + moonMass
	return &Config{
		Dt: 60, Steps: 40000, Epsilon: physics.DefaultEpsilon, Output: DefaultOutput,
		Bodies: []BodyConfig{
			{Name: "earth", Mass: earthMass, Position: []float64{0, 0, 0}, Velocity: []float64{0, -v * moonMass / total, 0}},
			{Name: "moon", Mass: moonMass, Position: []float64{earthMoonDist, 0, 0}, Velocity: []float64{0, v * earthMass / total, 0}},
		},
	}
}

func binary() *Config {
	const m, sep = 2e30, 1.5e11
	v := circular(m, m, sep) / 2
	return &Config{
		Dt: 3600, Steps: 20000, Epsilon: physics.DefaultEpsilon, Output: DefaultOutput,
		Bodies: []BodyConfig{
			{Name: "a", Mass: m, Position: []float64{-sep / 2, 0, 0}, Velocity: []float64{0, -v, 0}},
			{Name: "b", Mass: m, Position: []float64{sep / 2, 0, 0}, Velocity: []float64{0, v, 0}},
		},
	}
}

// chargedPair is a hydrogen-like electron orbiting a proton at the Bohr
// radius; gravity is negligible next to the Coulomb term.
func chargedPair() *Config {
	const bohr = 5.29177e-11
	k := physics.CoulombConstant
	v := math.Sqrt(k * elementary * elementary / (electronMass * bohr))
	return &Config{
		Dt: 1e-19, Steps: 20000, Epsilon: 1e-15, Output: DefaultOutput,
		Bodies: []BodyConfig{
			{Name: "proton", Mass: protonMass, Charge: elementary},
			{Name: "electron", Mass: electronMass, Charge: -elementary, Position: []float64{bohr, 0, 0}, Velocity: []float64{0, v, 0}},
		},
	}
}

// closeEncounter aims two bodies head-on so that the separation clamp
// engages near closest approach.
func closeEncounter() *Config {
	return &Config{
		Dt: 1e-3, Steps: 4000, Epsilon: 1e-2, Output: DefaultOutput,
		Bodies: []BodyConfig{
			{Name: "left", Mass: 1e6, Position: []float64{-1, 0, 0}, Velocity: []float64{1, 0, 0}},
			{Name: "right", Mass: 1e6, Position: []float64{1, 0, 0}, Velocity: []float64{-1, 0, 0}},
		},
	}
}

// relativisticFlyby sends a fast proton past a heavy nucleus in a frame
// boosted along the flight direction.
func relativisticFlyby() *Config {
	const goldMass, goldCharge = 3.27e-25, 79 * elementary
	return &Config{
		Dt: 1e-22, Steps: 5000, Epsilon: 1e-18, Output: DefaultOutput,
		Frame: FrameConfig{Boost: []float64{0.3, 0, 0}},
		Bodies: []BodyConfig{
			{Name: "nucleus", Mass: goldMass, Charge: goldCharge},
			{Name: "proton", Mass: protonMass, Charge: elementary, Position: []float64{-1e-13, 5e-15, 0}, Velocity: []float64{0.5 * dynamo.SpeedOfLight, 0, 0}},
		},
	}
}

var Presets = map[string]func() *Config{
	"earth_moon":         earthMoon,
	"binary":             binary,
	"charged_pair":       chargedPair,
	"close_encounter":    closeEncounter,
	"relativistic_flyby": relativisticFlyby,
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	if p, ok := Presets[name]; ok {
		return p()
	}
	return nil
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
