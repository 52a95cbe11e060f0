package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 1.0
	DefaultSteps     = 1000
	DefaultVerbosity = 0
	DefaultOutput    = "runs"
)

type Config struct {
	Dt        float64      `yaml:"dt"`
	Steps     int          `yaml:"steps"`
	Epsilon   float64      `yaml:"epsilon"`
	Workers   int          `yaml:"workers"`
	Output    string       `yaml:"output"`
	Verbosity int          `yaml:"verbosity"`
	Frame     FrameConfig  `yaml:"frame,omitempty"`
	Bodies    []BodyConfig `yaml:"bodies"`
}

// FrameConfig moves every initial condition into another inertial frame.
// Rotate holds Z-Y-Z angles (phi, theta, psi) in radians; Boost is the
// frame velocity in units of c. Rotation is applied first.
type FrameConfig struct {
	Boost  []float64 `yaml:"boost,omitempty"`
	Rotate []float64 `yaml:"rotate,omitempty"`
}

// BodyConfig describes one body. Position is in metres and Time in
// seconds. At most one of Momentum (kg m/s) and Velocity (m/s) may be set;
// neither means at rest.
type BodyConfig struct {
	Name     string    `yaml:"name"`
	Mass     float64   `yaml:"mass"`
	Charge   float64   `yaml:"charge,omitempty"`
	Time     float64   `yaml:"time,omitempty"`
	Position []float64 `yaml:"position,omitempty"`
	Momentum []float64 `yaml:"momentum,omitempty"`
	Velocity []float64 `yaml:"velocity,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:        DefaultDt,
		Steps:     DefaultSteps,
		Epsilon:   physics.DefaultEpsilon,
		Output:    DefaultOutput,
		Verbosity: DefaultVerbosity,
	}
}

// Load reads a YAML file, or a gcfg file when the extension is .ini or
// .gcfg. Missing fields keep their defaults. The result is not validated.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".gcfg":
		return loadGcfg(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func fieldErr(field string, cause error, format string, args ...any) *dynamo.ConfigError {
	return &dynamo.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), Err: cause}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Validate checks everything that can be checked before a simulation is
// built and returns the first problem as a *dynamo.ConfigError.
func (c *Config) Validate() error {
	if !finite(c.Dt) {
		return fieldErr("dt", dynamo.ErrNonFinite, "dt must be finite, got %v", c.Dt)
	}
	if c.Dt <= 0 {
		return fieldErr("dt", dynamo.ErrNonPositiveDt, "dt must be positive, got %g", c.Dt)
	}
	if c.Steps < 0 {
		return fieldErr("steps", nil, "steps must be non-negative, got %d", c.Steps)
	}
	if !finite(c.Epsilon) || c.Epsilon <= 0 {
		return fieldErr("epsilon", nil, "epsilon must be positive, got %g", c.Epsilon)
	}
	if c.Workers < 0 {
		return fieldErr("workers", nil, "workers must be non-negative, got %d", c.Workers)
	}
	if err := c.Frame.validate(); err != nil {
		return err
	}
	if len(c.Bodies) == 0 {
		return fieldErr("bodies", nil, "at least one body is required")
	}

	seen := make(map[string]int, len(c.Bodies))
	for i, b := range c.Bodies {
		field := fmt.Sprintf("bodies[%d]", i)
		if b.Name != "" {
			if j, dup := seen[b.Name]; dup {
				return fieldErr(field+".name", nil, "duplicate name %q (also bodies[%d])", b.Name, j)
			}
			seen[b.Name] = i
		}
		if err := b.validate(field); err != nil {
			return err
		}
	}
	return nil
}

func (f FrameConfig) validate() error {
	if len(f.Rotate) != 0 {
		if len(f.Rotate) != 3 {
			return fieldErr("frame.rotate", nil, "need 3 angles, got %d", len(f.Rotate))
		}
		if !allFinite(f.Rotate) {
			return fieldErr("frame.rotate", dynamo.ErrNonFinite, "angles must be finite")
		}
	}
	if len(f.Boost) != 0 {
		if len(f.Boost) != 3 {
			return fieldErr("frame.boost", nil, "need 3 components, got %d", len(f.Boost))
		}
		beta := vec(f.Boost)
		if b2 := r3.Norm2(beta); math.IsNaN(b2) || b2 >= 1 {
			return fieldErr("frame.boost", dynamo.ErrInvalidVelocity, "|beta| must be below 1, got %g", r3.Norm(beta))
		}
	}
	return nil
}

func (b BodyConfig) validate(field string) error {
	if math.IsNaN(b.Mass) || b.Mass < 0 {
		return fieldErr(field+".mass", dynamo.ErrNegativeMass, "mass must be non-negative, got %g", b.Mass)
	}
	if !finite(b.Mass) || !finite(b.Charge) || !finite(b.Time) {
		return fieldErr(field, dynamo.ErrNonFinite, "mass, charge and time must be finite")
	}
	triples := []struct {
		name string
		v    []float64
	}{
		{"position", b.Position},
		{"momentum", b.Momentum},
		{"velocity", b.Velocity},
	}
	for _, t := range triples {
		if len(t.v) != 0 && len(t.v) != 3 {
			return fieldErr(field+"."+t.name, nil, "need 3 components, got %d", len(t.v))
		}
		if !allFinite(t.v) {
			return fieldErr(field+"."+t.name, dynamo.ErrNonFinite, "components must be finite")
		}
	}
	if len(b.Momentum) != 0 && len(b.Velocity) != 0 {
		return fieldErr(field, nil, "set momentum or velocity, not both")
	}
	if len(b.Velocity) != 0 {
		v := vec(b.Velocity)
		if r3.Norm(v) >= dynamo.SpeedOfLight {
			return fieldErr(field+".velocity", dynamo.ErrInvalidVelocity, "speed %g m/s is not below c", r3.Norm(v))
		}
		if b.Mass == 0 && r3.Norm2(v) > 0 {
			return fieldErr(field+".velocity", dynamo.ErrUndefinedGamma, "a massless body needs momentum, not velocity")
		}
	}
	return nil
}

// Specs validates the configuration and converts it into simulation
// setup tuples, moving every body into the configured frame.
//
// Each body's four-position is transformed on its own, so a boost leaves
// bodies with different coordinate times. The simulation clock still
// starts at zero.
func (c *Config) Specs() ([]dynamo.BodySpec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	specs := make([]dynamo.BodySpec, len(c.Bodies))
	for i, bc := range c.Bodies {
		name := bc.Name
		if name == "" {
			name = fmt.Sprintf("body%d", i)
		}
		pos := dynamo.FromSpatial(bc.Time*dynamo.SpeedOfLight, vec(bc.Position))

		var (
			b   *dynamo.Body
			err error
		)
		if len(bc.Velocity) != 0 {
			b, err = dynamo.NewBodyFromVelocity(name, bc.Mass, bc.Charge, pos, vec(bc.Velocity))
		} else {
			b, err = dynamo.NewBody(name, bc.Mass, bc.Charge, pos, vec(bc.Momentum))
		}
		if err != nil {
			return nil, &dynamo.ConfigError{Field: fmt.Sprintf("bodies[%d]", i), Err: err}
		}

		x, p, err := c.Frame.apply(b.Position(), b.Momentum())
		if err != nil {
			return nil, err
		}

		specs[i] = dynamo.BodySpec{
			Name:     name,
			Mass:     bc.Mass,
			Charge:   bc.Charge,
			Position: x,
			Momentum: p.Spatial(),
		}
	}
	return specs, nil
}

// SimConfig is the part of the configuration the simulation itself needs.
func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{Dt: c.Dt}
}

func (f FrameConfig) apply(x, p dynamo.FourVector) (dynamo.FourVector, dynamo.FourVector, error) {
	if len(f.Rotate) == 3 {
		x = x.Rotate(f.Rotate[0], f.Rotate[1], f.Rotate[2])
		p = p.Rotate(f.Rotate[0], f.Rotate[1], f.Rotate[2])
	}
	if len(f.Boost) == 3 {
		beta := vec(f.Boost)
		var err error
		if x, err = x.Boost(beta); err != nil {
			return x, p, fieldErr("frame.boost", err, "boost position")
		}
		if p, err = p.Boost(beta); err != nil {
			return x, p, fieldErr("frame.boost", err, "boost momentum")
		}
	}
	return x, p, nil
}

func vec(v []float64) r3.Vec {
	if len(v) != 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if !finite(f) {
			return false
		}
	}
	return true
}

// IsConfigError reports whether err came from configuration checking.
func IsConfigError(err error) bool {
	return errors.Is(err, dynamo.ErrConfiguration)
}
