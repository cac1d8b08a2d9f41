// Package integrator provides the ODE solvers used by the propagation driver.
//
// A Solver integrates y' = f(t, y) over a signed span [t0, tf] and may be
// terminated early by events, i.e. continuous switching functions whose zero
// crossings are located to within a time tolerance.
package integrator

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonFinite is returned when the derivative or the state is NaN or infinite.
	ErrNonFinite = errors.New("non-finite value in integration")
	// ErrStepSize is returned when the adaptive step falls below the minimum step size.
	ErrStepSize = errors.New("step size below minimum")
	// ErrMaxSteps is returned when the maximum number of steps is exceeded.
	ErrMaxSteps = errors.New("maximum number of steps exceeded")
	// ErrSpan is returned for an empty integration span.
	ErrSpan = errors.New("empty integration span")
)

// Func is the right hand side of the differential equation. It must write
// the derivative of y at t into dy.
type Func func(t float64, y, dy []float64) error

// EventFunc is a switching function g(t, y).
type EventFunc func(t float64, y []float64) (float64, error)

// Action is called when an event is located. Returning true terminates the integration.
type Action func(t float64, y []float64) bool

// Terminate is an Action which always stops the integration.
func Terminate(t float64, y []float64) bool {
	return true
}

// Event defines a zero crossing to watch. Rising is called when G goes from
// negative to positive in integration order, Falling when it goes from
// positive to negative. A nil hook means that crossing is ignored.
type Event struct {
	Name    string
	G       EventFunc
	Rising  Action
	Falling Action
}

// Config holds the solver settings.
type Config struct {
	// InitialStepSize, if > 0, is the magnitude of the first step. Otherwise it is estimated.
	InitialStepSize float64
	// MinStepSize is the magnitude below which the integration fails.
	MinStepSize float64
	// MaxStepSize, if > 0, bounds the magnitude of every step.
	MaxStepSize float64
	// AbsoluteTolerance and RelativeTolerance drive the adaptive step control.
	AbsoluteTolerance float64
	RelativeTolerance float64
	// MaxStepCount, if > 0, is the number of accepted and rejected steps after which the integration fails.
	MaxStepCount uint
	// EventTolerance is the time tolerance of the event location.
	EventTolerance float64
	// ZeroTolerance is the magnitude under which an event function is considered zero.
	ZeroTolerance float64
}

// DefaultConfig returns sensible settings for orbital problems in km and seconds.
func DefaultConfig() Config {
	return Config{
		MinStepSize:       1e-9,
		AbsoluteTolerance: 1e-10,
		RelativeTolerance: 1e-10,
		MaxStepCount:      2000000,
		EventTolerance:    1e-9,
		ZeroTolerance:     1e-9,
	}
}

// Status is the outcome of a Solve call.
type Status uint8

const (
	// Completed means the end of the span was reached.
	Completed Status = iota + 1
	// Terminated means an event stopped the integration.
	Terminated
	// Failed means a numerical failure occurred.
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Terminated:
		return "terminated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Sample is a point of the integrated trajectory.
type Sample struct {
	T float64
	Y []float64
}

// Statistics about one Solve call.
type Statistics struct {
	StepCount       uint
	RejectedCount   uint
	EvaluationCount uint
	LastStepSize    float64
}

// Solution is the result of a Solve call.
type Solution struct {
	T       float64   // final time
	Y       []float64 // final state
	Samples []Sample  // accepted steps, including the initial and final points
	Status  Status
	Event   int // index of the terminating event, -1 if none
	Stats   Statistics
}

// Solver integrates f from (t0, y0) to tf unless an event terminates the integration first.
type Solver interface {
	Solve(f Func, y0 []float64, t0, tf float64, events []Event, cfg Config) (*Solution, error)
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func clone(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

func direction(t0, tf float64) float64 {
	if tf < t0 {
		return -1
	}
	return 1
}
