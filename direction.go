package epicycle

import (
	"fmt"
	"math"
	"strings"
)

// Direction is the direction of time in which a propagation runs.
type Direction uint8

const (
	// Advancing propagates forward in time. It is the default.
	Advancing Direction = iota
	// Retreating propagates backward in time.
	Retreating
	// Infer determines the direction from the time based stopping condition, if any.
	Infer
)

func (d Direction) String() string {
	switch d {
	case Advancing:
		return "advancing"
	case Retreating:
		return "retreating"
	case Infer:
		return "infer"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// sign returns +1 when advancing and -1 when retreating.
func (d Direction) sign() float64 {
	if d == Retreating {
		return -1
	}
	return 1
}

// DirectionFromString returns the direction from its name.
func DirectionFromString(name string) (Direction, error) {
	switch strings.ToLower(name) {
	case "", "advancing", "forward":
		return Advancing, nil
	case "retreating", "backward":
		return Retreating, nil
	case "infer":
		return Infer, nil
	default:
		return 0, configErrorf("unknown direction %q", name)
	}
}

// resolution is the outcome of the validation of a set of stopping conditions.
type resolution struct {
	direction Direction
	timeStop  *Stop   // nil if only state based stops
	elapsed   float64 // signed span in seconds of the dynamical scale, if timeStop is set
	events    []*Stop // state based stops, in the order provided
}

// resolveDirection validates the stopping conditions and resolves the requested direction.
// Elapsed durations of epoch stops are computed in the provided dynamical scale.
func resolveDirection(stops []*Stop, requested Direction, scale TimeScale) (resolution, error) {
	var res resolution
	if requested > Infer {
		return res, configErrorf("invalid direction %s", requested)
	}
	if len(stops) == 0 {
		return res, configErrorf("at least one stopping condition is required")
	}
	var timeStops []string
	for i, st := range stops {
		if st == nil {
			return res, configErrorf("stopping condition #%d is nil", i)
		}
		if st.kind == TimeStop {
			timeStops = append(timeStops, st.String())
			res.timeStop = st
			continue
		}
		res.events = append(res.events, st)
	}
	if len(timeStops) > 1 {
		return res, configErrorf("at most one time based stopping condition is allowed, got %d: %s", len(timeStops), strings.Join(timeStops, "; "))
	}
	if res.timeStop == nil {
		res.direction = requested
		if requested == Infer {
			res.direction = Advancing
		}
		return res, nil
	}
	res.elapsed = res.timeStop.elapsed(scale)
	if res.elapsed == 0 || math.IsNaN(res.elapsed) || math.IsInf(res.elapsed, 0) {
		return res, configErrorf("duration must be non-zero and finite, got %g s: use a state based stop or omit this condition", res.elapsed)
	}
	inferred := Advancing
	if res.elapsed < 0 {
		inferred = Retreating
	}
	if requested != Infer && requested != inferred {
		return res, configErrorf("duration is %g s (%s) but requested direction is %s", res.elapsed, inferred, requested)
	}
	res.direction = inferred
	return res, nil
}
