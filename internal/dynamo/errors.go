package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownName indicates a registry lookup for an unregistered name.
	ErrUnknownName = errors.New("dynamo: unknown name")

	// ErrNotFound indicates a stored run does not exist.
	ErrNotFound = errors.New("dynamo: run not found")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ParamError reports a single rejected configuration value.
type ParamError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s=%g: %s", e.Name, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}

// Positive returns a ParamError unless v > 0.
func Positive(name string, v float64) error {
	if v > 0 {
		return nil
	}
	return &ParamError{Name: name, Value: v, Reason: "must be positive"}
}

// NonNegative returns a ParamError unless v >= 0.
func NonNegative(name string, v float64) error {
	if v >= 0 {
		return nil
	}
	return &ParamError{Name: name, Value: v, Reason: "must not be negative"}
}

// InRange returns a ParamError unless lo <= v <= hi.
func InRange(name string, v, lo, hi float64) error {
	if v >= lo && v <= hi {
		return nil
	}
	return &ParamError{Name: name, Value: v, Reason: fmt.Sprintf("must be within [%g, %g]", lo, hi)}
}
