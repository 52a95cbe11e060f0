package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/relsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Epsilon <= 0 {
		t.Error("epsilon should be positive")
	}
	if cfg.Verbosity != 0 {
		t.Errorf("expected verbosity 0, got %d", cfg.Verbosity)
	}
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("default config has no bodies and should not validate, got %v", err)
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			specs, err := cfg.Specs()
			if err != nil {
				t.Fatalf("preset does not build: %v", err)
			}
			if len(specs) != len(cfg.Bodies) {
				t.Errorf("expected %d specs, got %d", len(cfg.Bodies), len(specs))
			}
		})
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("earth_moon")
	a.Bodies[0].Mass = 1
	b := GetPreset("earth_moon")
	if b.Bodies[0].Mass == 1 {
		t.Error("preset mutation leaked between calls")
	}
}

func TestListPresetsSorted(t *testing.T) {
	names := ListPresets()
	if len(names) < 4 {
		t.Fatalf("expected at least 4 presets, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Bodies = []BodyConfig{
		{Name: "a", Mass: 1, Position: []float64{0, 0, 0}},
		{Name: "b", Mass: 2, Position: []float64{1, 0, 0}, Velocity: []float64{0, 1, 0}},
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr error
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, "dt", dynamo.ErrNonPositiveDt},
		{"nan dt", func(c *Config) { c.Dt = math.NaN() }, "dt", dynamo.ErrNonFinite},
		{"negative steps", func(c *Config) { c.Steps = -1 }, "steps", nil},
		{"zero epsilon", func(c *Config) { c.Epsilon = 0 }, "epsilon", nil},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers", nil},
		{"no bodies", func(c *Config) { c.Bodies = nil }, "bodies", nil},
		{"negative mass", func(c *Config) { c.Bodies[0].Mass = -1 }, "bodies[0].mass", dynamo.ErrNegativeMass},
		{"short position", func(c *Config) { c.Bodies[0].Position = []float64{1, 2} }, "bodies[0].position", nil},
		{"infinite velocity", func(c *Config) { c.Bodies[1].Velocity = []float64{math.Inf(1), 0, 0} }, "bodies[1].velocity", dynamo.ErrNonFinite},
		{"faster than light", func(c *Config) { c.Bodies[1].Velocity = []float64{dynamo.SpeedOfLight, 0, 0} }, "bodies[1].velocity", dynamo.ErrInvalidVelocity},
		{"both momentum and velocity", func(c *Config) { c.Bodies[1].Momentum = []float64{1, 0, 0} }, "bodies[1]", nil},
		{"massless with velocity", func(c *Config) { c.Bodies[1].Mass = 0 }, "bodies[1].velocity", dynamo.ErrUndefinedGamma},
		{"duplicate name", func(c *Config) { c.Bodies[1].Name = "a" }, "bodies[1].name", nil},
		{"superluminal boost", func(c *Config) { c.Frame.Boost = []float64{0.8, 0.8, 0} }, "frame.boost", dynamo.ErrInvalidVelocity},
		{"short rotate", func(c *Config) { c.Frame.Rotate = []float64{1} }, "frame.rotate", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !IsConfigError(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ce *dynamo.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *dynamo.ConfigError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ce.Field)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestSpecsFromVelocity(t *testing.T) {
	cfg := validConfig()
	cfg.Bodies[1].Time = 2

	specs, err := cfg.Specs()
	if err != nil {
		t.Fatal(err)
	}

	if specs[1].Position.T() != 2*dynamo.SpeedOfLight {
		t.Errorf("expected ct = 2c, got %g", specs[1].Position.T())
	}
	if math.Abs(specs[1].Momentum.Y-2) > 1e-12 {
		t.Errorf("expected py ~ 2, got %g", specs[1].Momentum.Y)
	}
}

func TestSpecsNamesUnnamedBodies(t *testing.T) {
	cfg := validConfig()
	cfg.Bodies[0].Name = ""
	specs, err := cfg.Specs()
	if err != nil {
		t.Fatal(err)
	}
	if specs[0].Name != "body0" {
		t.Errorf("expected generated name body0, got %q", specs[0].Name)
	}
}

func TestFrameRotation(t *testing.T) {
	cfg := validConfig()
	cfg.Frame.Rotate = []float64{math.Pi / 2, 0, 0}

	specs, err := cfg.Specs()
	if err != nil {
		t.Fatal(err)
	}

	pos := specs[1].Position.Spatial()
	if math.Abs(pos.X) > 1e-12 || math.Abs(pos.Y-1) > 1e-12 {
		t.Errorf("expected (0, 1, 0), got %v", pos)
	}
	p := specs[1].Momentum
	if math.Abs(p.X+2) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("expected momentum (-2, 0, 0), got %v", p)
	}
}

func TestFrameBoostPreservesRestMass(t *testing.T) {
	cfg := validConfig()
	cfg.Frame.Boost = []float64{0.5, 0, 0}

	specs, err := cfg.Specs()
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range specs {
		b, err := dynamo.NewBody(s.Name, s.Mass, s.Charge, s.Position, s.Momentum)
		if err != nil {
			t.Fatal(err)
		}
		v := b.Velocity()
		if math.Abs(v.X+0.5*dynamo.SpeedOfLight) > 1e-3 {
			t.Errorf("%s: expected vx ~ -c/2 in the boosted frame, got %g", s.Name, v.X)
		}
	}

	// The two bodies were simultaneous at t=0 and separated along the
	// boost, so they are no longer simultaneous.
	if specs[0].Position.T() == specs[1].Position.T() {
		t.Error("expected relativity of simultaneity to separate the bodies' times")
	}
}

func TestSaveAndLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("earth_moon")
	cfg.Verbosity = 3

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Dt != cfg.Dt || loaded.Steps != cfg.Steps || loaded.Verbosity != 3 {
		t.Errorf("scalars changed: %+v", loaded)
	}
	if len(loaded.Bodies) != 2 || loaded.Bodies[1].Name != "moon" {
		t.Fatalf("bodies changed: %+v", loaded.Bodies)
	}
	if loaded.Bodies[1].Velocity[1] != cfg.Bodies[1].Velocity[1] {
		t.Errorf("velocity changed: %v vs %v", loaded.Bodies[1].Velocity, cfg.Bodies[1].Velocity)
	}
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "steps: 10\nbodies:\n  - name: solo\n    mass: 1\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Steps != 10 || cfg.Dt != DefaultDt || cfg.Output != DefaultOutput {
		t.Errorf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadGcfg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gcfg")
	data := `[run]
dt = 60
steps = 5
verbosity = 4

[frame]
rotate = 0, 0, 0

[body "moon"]
order = 1
mass = 7.342e22
position = 3.844e8 0 0
velocity = 0 1022 0

[body "earth"]
order = 0
mass = 5.972e24
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Dt != 60 || cfg.Steps != 5 || cfg.Verbosity != 4 {
		t.Errorf("run section not read: %+v", cfg)
	}
	if cfg.Epsilon != DefaultConfig().Epsilon {
		t.Errorf("expected default epsilon, got %g", cfg.Epsilon)
	}
	if len(cfg.Bodies) != 2 || cfg.Bodies[0].Name != "earth" || cfg.Bodies[1].Name != "moon" {
		t.Fatalf("bodies not ordered: %+v", cfg.Bodies)
	}
	if cfg.Bodies[1].Velocity[1] != 1022 {
		t.Errorf("velocity not parsed: %v", cfg.Bodies[1].Velocity)
	}
	if cfg.Bodies[0].Position != nil {
		t.Errorf("expected unset position, got %v", cfg.Bodies[0].Position)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadGcfgBadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ini")
	data := "[body \"x\"]\nmass = 1\nposition = 1 two 3\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !IsConfigError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestParseFloats(t *testing.T) {
	tests := []struct {
		in   string
		want []float64
	}{
		{"", nil},
		{"1 2 3", []float64{1, 2, 3}},
		{"1,2, 3", []float64{1, 2, 3}},
		{"\t-1e3  4.5 ", []float64{-1e3, 4.5}},
	}
	for _, tt := range tests {
		got, err := parseFloats(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("%q: got %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
