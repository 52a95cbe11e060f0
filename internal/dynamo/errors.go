package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for body and simulation operations.
var (
	// ErrConfiguration indicates malformed or missing setup input. It is
	// fatal: no step runs once it has been returned.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidVelocity indicates a boost or velocity at or above c.
	ErrInvalidVelocity = errors.New("dynamo: velocity must be less than c")

	// ErrUndefinedGamma indicates a Lorentz factor requested for a massless body.
	ErrUndefinedGamma = errors.New("dynamo: gamma undefined for massless body")

	// ErrNegativeMass indicates a body constructed with mass < 0.
	ErrNegativeMass = errors.New("dynamo: mass must be non-negative")

	// ErrNonPositiveDt indicates a time step <= 0.
	ErrNonPositiveDt = errors.New("dynamo: dt must be positive")

	// ErrNonFinite indicates a NaN or Inf in a setup value.
	ErrNonFinite = errors.New("dynamo: value is not finite")

	// ErrBodyIndex indicates a read of a body index outside the ensemble.
	ErrBodyIndex = errors.New("dynamo: body index out of range")
)

// ConfigError wraps a setup failure with the offending field.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Unwrap exposes both ErrConfiguration and the specific cause.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func configErr(field string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), Err: err}
}

// PairGuard records a NumericGuardTriggered event: the separation between
// bodies A and B fell below the force model's epsilon and the force was
// evaluated at epsilon instead. It is reported, never returned as an error.
type PairGuard struct {
	Step       int
	A, B       int
	Separation float64
}
