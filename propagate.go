package epicycle

import (
	"errors"
	"fmt"

	"github.com/GenAstro/Epicycle-sub001/integrator"
	kitlog "github.com/go-kit/kit/log"
)

// phase is a state of the propagation driver.
type phase uint8

const (
	validating phase = iota
	configuring
	integrating
	finalizing
	done
	failed
)

func (p phase) String() string {
	return [...]string{"validating", "configuring", "integrating", "finalizing", "done", "failed"}[p]
}

// Result is the raw solver outcome of a propagation along with how it was set up.
type Result struct {
	*integrator.Solution
	Direction Direction // resolved direction
	Scale     TimeScale // dynamical time scale
	Fired     *Stop     // state based stop which terminated the propagation, nil otherwise
}

// Propagator propagates subjects until a stopping condition is met.
type Propagator struct {
	Solver    integrator.Solver
	Settings  Settings
	Direction Direction
	Logger    kitlog.Logger
}

// NewPropagator returns an advancing propagator configured from EPICYCLE_CONFIG, or from the
// default settings if there is no configuration.
func NewPropagator() (*Propagator, error) {
	settings, err := EnvSettings()
	if err != nil {
		return nil, err
	}
	solver, err := settings.solver()
	if err != nil {
		return nil, err
	}
	return &Propagator{Solver: solver, Settings: settings, Direction: Advancing, Logger: kitlog.NewNopLogger()}, nil
}

// Propagate propagates the subjects with a default propagator, see Propagator.Propagate.
func Propagate(fm *ForceModel, subjects []Subject, stops ...*Stop) (*Result, error) {
	p, err := NewPropagator()
	if err != nil {
		return nil, err
	}
	return p.Propagate(fm, subjects, stops...)
}

// run tracks the phase of a single propagation call.
type run struct {
	logger kitlog.Logger
	phase  phase
}

func (r *run) enter(p phase, keyvals ...interface{}) {
	r.phase = p
	r.logger.Log(append([]interface{}{"level", "debug", "subsys", "prop", "phase", p}, keyvals...)...)
}

func (r *run) fail(err error) error {
	r.logger.Log("level", "error", "subsys", "prop", "phase", failed, "from", r.phase, "err", err)
	r.phase = failed
	return err
}

// Propagate integrates the force model for all the subjects jointly until one of the stopping
// conditions is met. At most one time based stop is allowed: it defines the span. State based
// stops terminate the integration at their first crossing. The subjects' states, epochs and
// histories are only updated on success.
func (p *Propagator) Propagate(fm *ForceModel, subjects []Subject, stops ...*Stop) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	r := &run{logger: logger}

	r.enter(validating, "subjects", len(subjects), "stops", len(stops))
	if fm == nil {
		return nil, r.fail(configErrorf("force model is nil"))
	}
	if p.Solver == nil {
		return nil, r.fail(configErrorf("propagator has no solver"))
	}
	if err := p.Settings.validate(); err != nil {
		return nil, r.fail(err)
	}
	scale := fm.DynamicalScale()
	res, err := resolveDirection(stops, p.Direction, scale)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(configuring, "direction", res.direction, "scale", scale)
	reg, err := newRegistry(subjects, scale)
	if err != nil {
		return nil, r.fail(err)
	}
	for _, st := range stops {
		if _, ok := reg.lookup(st.subject); !ok {
			return nil, r.fail(configErrorf("%s monitors a subject which is not propagated", st))
		}
	}
	events, err := buildEvents(res.events, reg, res.direction)
	if err != nil {
		return nil, r.fail(err)
	}
	tf := res.direction.sign() * p.Settings.MaxSpan
	if res.timeStop != nil {
		tf = res.elapsed
	}
	y0 := reg.pack()

	r.enter(integrating, "span(s)", tf, "events", len(events))
	sol, err := p.Solver.Solve(reg.dynamics(fm), y0, 0, tf, events, p.Settings.Integrator)
	result := &Result{Solution: sol, Direction: res.direction, Scale: scale}
	if err != nil {
		if res.timeStop == nil && errors.Is(err, integrator.ErrMaxSteps) {
			var elapsed float64
			if sol != nil {
				elapsed = sol.T
			}
			err = &NonConvergenceError{Stops: stopNames(res.events), Elapsed: elapsed, Cause: err}
		} else {
			err = fmt.Errorf("propagation failed: %w", err)
		}
		return result, r.fail(err)
	}
	if sol.Status == integrator.Terminated && sol.Event >= 0 {
		result.Fired = res.events[sol.Event]
	} else if res.timeStop == nil {
		return result, r.fail(&NonConvergenceError{Stops: stopNames(res.events), Elapsed: sol.T})
	}

	r.enter(finalizing, "t(s)", sol.T, "status", sol.Status)
	central := ""
	if body, ok := fm.CentralBody(); ok {
		central = body.Name
	}
	if err := p.finalize(reg, sol, result, central, stops); err != nil {
		return result, r.fail(err)
	}
	r.enter(done, "steps", sol.Stats.StepCount, "evaluations", sol.Stats.EvaluationCount)
	return result, nil
}

// finalize writes the final state, epoch and history segment back to every subject.
func (p *Propagator) finalize(reg *registry, sol *integrator.Solution, result *Result, central string, stops []*Stop) error {
	meta := SegmentMeta{Central: central, Scale: result.Scale, Direction: result.Direction, Stops: stopNames(stops), Terminated: result.Fired != nil}
	states := make([][]float64, len(reg.subjects))
	for i := range reg.subjects {
		states[i] = append([]float64(nil), reg.slice(sol.Y, i)...)
	}
	// States are written first: a subject rejecting its state restores the ones already written.
	previous := make([][]float64, len(reg.subjects))
	for i, s := range reg.subjects {
		previous[i] = s.State()
		if err := s.SetState(states[i]); err != nil {
			for j := 0; j < i; j++ {
				reg.subjects[j].SetState(previous[j])
			}
			return fmt.Errorf("subject %s: %w", s.Name(), err)
		}
	}
	for i, s := range reg.subjects {
		scale := s.Epoch().Scale()
		samples := make([]Sample, len(sol.Samples))
		for k, smp := range sol.Samples {
			samples[k] = Sample{reg.epoch(i, smp.T).In(scale), append([]float64(nil), reg.slice(smp.Y, i)...)}
		}
		s.SetEpoch(reg.epoch(i, sol.T).In(scale))
		s.AppendSegment(NewSegment(samples, meta))
	}
	return nil
}

func stopNames(stops []*Stop) []string {
	names := make([]string, len(stops))
	for i, st := range stops {
		names[i] = st.String()
	}
	return names
}
