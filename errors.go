package epicycle

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned when a propagation is malformed. It is always
// returned before the solver is called and the subjects are left untouched.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{fmt.Sprintf(format, args...)}
}

// SingularityError is returned when a force is evaluated too close to one of its attracting bodies.
type SingularityError struct {
	Body     string  // body whose distance is degenerate
	Distance float64 // distance in km
	Epoch    Epoch
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("singularity: distance to %s is %g km at %s", e.Body, e.Distance, e.Epoch)
}

// NonConvergenceError is returned when no state based stopping condition triggered
// within the propagation span.
type NonConvergenceError struct {
	Stops   []string
	Elapsed float64 // seconds propagated before giving up
	Cause   error   // solver error, if the work budget was exhausted
}

func (e *NonConvergenceError) Error() string {
	msg := fmt.Sprintf("no stopping condition triggered after %.3f s: %s", e.Elapsed, strings.Join(e.Stops, ", "))
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

func (e *NonConvergenceError) Unwrap() error {
	return e.Cause
}
