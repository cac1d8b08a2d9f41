package epicycle

import (
	"fmt"
	"math"
	"strings"
)

// Crossing filters which sign change of a monitored quantity, in physical time, triggers a stop.
type Crossing int8

const (
	// Decreasing triggers when the quantity goes below the target.
	Decreasing Crossing = -1
	// Either triggers on any crossing of the target.
	Either Crossing = 0
	// Increasing triggers when the quantity goes above the target.
	Increasing Crossing = 1
)

func (c Crossing) String() string {
	switch c {
	case Decreasing:
		return "decreasing"
	case Either:
		return "either"
	case Increasing:
		return "increasing"
	default:
		return fmt.Sprintf("Crossing(%d)", int8(c))
	}
}

// CrossingFromString returns the crossing from its name. An empty name is Either.
func CrossingFromString(name string) (Crossing, error) {
	switch strings.ToLower(name) {
	case "", "either":
		return Either, nil
	case "increasing":
		return Increasing, nil
	case "decreasing":
		return Decreasing, nil
	default:
		return 0, configErrorf("unknown crossing %q", name)
	}
}

// StopKind is the variant of a stopping condition.
type StopKind uint8

const (
	// StateStop stops when a calculated quantity crosses a target.
	StateStop StopKind = iota + 1
	// TimeStop stops after a duration or at an epoch.
	TimeStop
)

type spanKind uint8

const (
	spanSeconds spanKind = iota + 1
	spanDays
	spanEpoch
)

// Span is the extent of a time based stopping condition.
type Span struct {
	kind  spanKind
	value float64
	epoch Epoch
}

// Seconds is a signed elapsed duration in seconds.
func Seconds(v float64) Span {
	return Span{kind: spanSeconds, value: v}
}

// Days is a signed elapsed duration in days.
func Days(v float64) Span {
	return Span{kind: spanDays, value: v}
}

// At is an absolute epoch.
func At(e Epoch) Span {
	return Span{kind: spanEpoch, epoch: e}
}

func (s Span) String() string {
	switch s.kind {
	case spanSeconds:
		return fmt.Sprintf("%g s", s.value)
	case spanDays:
		return fmt.Sprintf("%g days", s.value)
	case spanEpoch:
		return s.epoch.String()
	default:
		return "invalid span"
	}
}

// Stop is a stopping condition, either state based or time based.
type Stop struct {
	kind     StopKind
	subject  Subject
	quantity Quantity
	target   float64
	crossing Crossing
	span     Span
}

// NewStop returns a state based stop triggered when q of s crosses target in either direction.
func NewStop(s Subject, q Quantity, target float64) (*Stop, error) {
	return NewCrossingStop(s, q, target, Either)
}

// NewCrossingStop returns a state based stop triggered when q of s crosses target in the provided direction.
func NewCrossingStop(s Subject, q Quantity, target float64, crossing Crossing) (*Stop, error) {
	if s == nil {
		return nil, configErrorf("stopping condition requires a subject")
	}
	if q == nil {
		return nil, configErrorf("stopping condition on %s requires a calculated quantity", s.Name())
	}
	if v, ok := q.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, configErrorf("target of %s must be finite, got %g", q.Name(), target)
	}
	if crossing < Decreasing || crossing > Increasing {
		return nil, configErrorf("invalid crossing direction %s", crossing)
	}
	return &Stop{kind: StateStop, subject: s, quantity: q, target: target, crossing: crossing}, nil
}

// NewTimeStop returns a time based stop. The crossing must be Either: a time based stop has no
// crossing direction, the direction of time follows from the sign of the span.
func NewTimeStop(s Subject, span Span, crossing Crossing) (*Stop, error) {
	if s == nil {
		return nil, configErrorf("stopping condition requires a subject")
	}
	if crossing != Either {
		return nil, configErrorf("time based stopping condition on %s does not take a crossing direction, got %s", s.Name(), crossing)
	}
	st := &Stop{kind: TimeStop, subject: s, crossing: Either, span: span}
	switch span.kind {
	case spanSeconds, spanDays:
		if span.value == 0 {
			return nil, configErrorf("duration must be non-zero: use a state based stop or omit this condition")
		}
		if math.IsNaN(span.value) || math.IsInf(span.value, 0) {
			return nil, configErrorf("duration must be finite, got %g", span.value)
		}
	case spanEpoch:
		if st.elapsed(span.epoch.Scale()) == 0 {
			return nil, configErrorf("epoch %s is the current epoch of %s: use a state based stop or omit this condition", span.epoch, s.Name())
		}
	default:
		return nil, configErrorf("invalid time span")
	}
	return st, nil
}

// NewSecondsStop returns a stop after the signed duration in seconds.
func NewSecondsStop(s Subject, seconds float64) (*Stop, error) {
	return NewTimeStop(s, Seconds(seconds), Either)
}

// NewDaysStop returns a stop after the signed duration in days.
func NewDaysStop(s Subject, days float64) (*Stop, error) {
	return NewTimeStop(s, Days(days), Either)
}

// NewEpochStop returns a stop at the provided epoch.
func NewEpochStop(s Subject, e Epoch) (*Stop, error) {
	return NewTimeStop(s, At(e), Either)
}

// Kind returns the variant of this stop.
func (st *Stop) Kind() StopKind {
	return st.kind
}

// Subject returns the monitored subject.
func (st *Stop) Subject() Subject {
	return st.subject
}

// Quantity returns the monitored quantity, nil for time based stops.
func (st *Stop) Quantity() Quantity {
	return st.quantity
}

// Target returns the target of the quantity.
func (st *Stop) Target() float64 {
	return st.target
}

// Crossing returns the crossing direction, always Either for time based stops.
func (st *Stop) Crossing() Crossing {
	return st.crossing
}

// Span returns the span of a time based stop.
func (st *Stop) Span() Span {
	return st.span
}

// elapsed returns the signed number of seconds from the subject's epoch to the end of the span,
// in the provided time scale.
func (st *Stop) elapsed(scale TimeScale) float64 {
	switch st.span.kind {
	case spanSeconds:
		return st.span.value
	case spanDays:
		return st.span.value * SecondsPerDay
	case spanEpoch:
		return st.span.epoch.In(scale).Sub(st.subject.Epoch())
	}
	return 0
}

// residual returns quantity - target on the provided kinematics.
func (st *Stop) residual(k Kinematics) (float64, error) {
	v, err := st.quantity.Evaluate(k)
	if err != nil {
		return 0, err
	}
	return v - st.target, nil
}

// Residual returns the current value of the quantity minus the target.
func (st *Stop) Residual() (float64, error) {
	if st.kind != StateStop {
		return 0, fmt.Errorf("%s is not a state based stop", st)
	}
	return st.residual(st.subject)
}

// Satisfied returns whether the quantity is within tol of the target.
func (st *Stop) Satisfied(tol float64) (bool, error) {
	res, err := st.Residual()
	if err != nil {
		return false, err
	}
	return math.Abs(res) <= tol, nil
}

func (st *Stop) String() string {
	if st.kind == TimeStop {
		if st.span.kind == spanEpoch {
			return fmt.Sprintf("%s at %s", st.subject.Name(), st.span)
		}
		return fmt.Sprintf("%s after %s", st.subject.Name(), st.span)
	}
	return fmt.Sprintf("%s of %s crosses %g (%s)", st.quantity.Name(), st.subject.Name(), st.target, st.crossing)
}
