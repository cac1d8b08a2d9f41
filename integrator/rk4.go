package integrator

import (
	"errors"
	"fmt"
	"math"
)

// Integrable defines something which can be integrated, i.e. has a state vector.
// WARNING: Implementation must manage its own state based on the iteration.
type Integrable interface {
	GetState() []float64                            // Get the latest state of this integrable.
	SetState(t float64, s []float64)                // Set the state s reached at time t.
	Stop(t float64) bool                            // Return whether to stop the integration at time t.
	Func(t float64, s []float64) ([]float64, error) // ODE function from time t and state s.
}

// RK4 defines a fixed step RK4 integrator.
type RK4 struct {
	X0        float64    // The initial x0.
	StepSize  float64    // The step size, negative to integrate backward.
	Integator Integrable // What is to be integrated.
}

// NewRK4 returns a new RK4 integrator instance.
func NewRK4(x0 float64, stepSize float64, inte Integrable) (*RK4, error) {
	if stepSize == 0 || math.IsNaN(stepSize) {
		return nil, errors.New("config StepSize must be non-zero")
	}
	if inte == nil {
		return nil, errors.New("config Integator may not be nil")
	}
	return &RK4{X0: x0, StepSize: stepSize, Integator: inte}, nil
}

// Solve solves the configured RK4.
// Returns the number of iterations performed and the last X_i, or an error.
func (r *RK4) Solve() (uint64, float64, error) {
	iterNum := uint64(0)
	xi := r.X0
	for !r.Integator.Stop(xi) {
		newState, err := rk4Step(r.Integator.Func, xi, r.Integator.GetState(), r.StepSize)
		if err != nil {
			return iterNum, xi, err
		}
		xi += r.StepSize
		iterNum++ // Don't forget to increment the number of iterations.
		r.Integator.SetState(xi, newState)
	}
	return iterNum, xi, nil
}

func rk4Step(f func(float64, []float64) ([]float64, error), xi float64, state []float64, h float64) ([]float64, error) {
	const (
		half     = 1 / 2.0
		oneSixth = 1 / 6.0
		oneThird = 1 / 3.0
	)
	halfStep := h * half
	n := len(state)
	newState := make([]float64, n)
	k1 := make([]float64, n)
	//k2, k3, k4 are used as buffers AND result variables.
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	tState := make([]float64, n)

	d, err := f(xi, state)
	if err != nil {
		return nil, err
	}
	for i, y := range d {
		k1[i] = y * h
		tState[i] = state[i] + k1[i]*half
	}
	if d, err = f(xi+halfStep, tState); err != nil {
		return nil, err
	}
	for i, y := range d {
		k2[i] = y * h
		tState[i] = state[i] + k2[i]*half
	}
	if d, err = f(xi+halfStep, tState); err != nil {
		return nil, err
	}
	for i, y := range d {
		k3[i] = y * h
		tState[i] = state[i] + k3[i]
	}
	if d, err = f(xi+h, tState); err != nil {
		return nil, err
	}
	for i, y := range d {
		k4[i] = y * h
		newState[i] = state[i] + oneSixth*(k1[i]+k4[i]) + oneThird*(k2[i]+k3[i])
	}
	if !finite(newState) {
		return nil, fmt.Errorf("state at t=%g: %w", xi+h, ErrNonFinite)
	}
	return newState, nil
}

// FixedStep solves with RK4 and a constant step. The step is shrunk so that
// the span is covered by a whole number of steps.
type FixedStep struct {
	Step float64 // magnitude of the step
}

// fixedProblem adapts a Func and its events to the Integrable contract.
type fixedProblem struct {
	f       Func
	n       int
	state   []float64
	t, tf   float64
	steps   uint // steps covering the whole span
	budget  uint // maximum number of steps, zero if unbounded
	tracker *eventTracker
	sol     *Solution
	err     error
}

func (p *fixedProblem) GetState() []float64 {
	return p.state
}

func (p *fixedProblem) Func(t float64, s []float64) ([]float64, error) {
	dy := make([]float64, p.n)
	if err := p.f(t, s, dy); err != nil {
		return nil, err
	}
	if !finite(dy) {
		return nil, fmt.Errorf("derivative at t=%g: %w", t, ErrNonFinite)
	}
	return dy, nil
}

func (p *fixedProblem) SetState(t float64, s []float64) {
	p.sol.Stats.StepCount++
	p.sol.Stats.LastStepSize = t - p.t
	if p.steps == p.sol.Stats.StepCount {
		t = p.tf
	}
	found, err := p.tracker.check(func(ts float64, ys []float64, h float64) ([]float64, error) {
		return rk4Step(p.Func, ts, ys, h)
	}, p.t, p.state, t, s)
	if err != nil {
		p.err = err
		return
	}
	if found != nil {
		p.sol.T, p.sol.Y, p.sol.Status, p.sol.Event = found.t, found.y, Terminated, found.index
		if found.t != p.t {
			p.sol.Samples = append(p.sol.Samples, Sample{found.t, clone(found.y)})
		}
		return
	}
	p.t, p.state = t, s
	p.sol.Samples = append(p.sol.Samples, Sample{t, clone(s)})
}

func (p *fixedProblem) Stop(t float64) bool {
	if p.err != nil || p.sol.Status == Terminated || p.sol.Stats.StepCount >= p.steps {
		return true
	}
	if p.budget > 0 && p.sol.Stats.StepCount >= p.budget {
		p.err = fmt.Errorf("after %d steps at t=%g: %w", p.budget, p.t, ErrMaxSteps)
		return true
	}
	return false
}

// Solve implements the Solver interface.
func (fs FixedStep) Solve(f Func, y0 []float64, t0, tf float64, events []Event, cfg Config) (*Solution, error) {
	if t0 == tf || math.IsNaN(tf) {
		return nil, ErrSpan
	}
	if fs.Step <= 0 {
		return nil, errors.New("fixed step must be positive")
	}
	steps := uint(math.Ceil(math.Abs(tf-t0) / fs.Step))
	sol := &Solution{Event: -1}
	tracker, err := newEventTracker(events, t0, y0, cfg)
	if err != nil {
		return nil, err
	}
	p := &fixedProblem{f: f, n: len(y0), state: clone(y0), t: t0, tf: tf, steps: steps, budget: cfg.MaxStepCount, tracker: tracker, sol: sol}
	sol.Samples = append(sol.Samples, Sample{t0, clone(y0)})
	rk, err := NewRK4(t0, (tf-t0)/float64(steps), p)
	if err != nil {
		return nil, err
	}
	if _, _, err := rk.Solve(); err != nil {
		sol.T, sol.Y, sol.Status = p.t, clone(p.state), Failed
		return sol, err
	}
	if p.err != nil {
		sol.T, sol.Y, sol.Status = p.t, clone(p.state), Failed
		return sol, p.err
	}
	if sol.Status != Terminated {
		sol.T, sol.Y, sol.Status = p.t, clone(p.state), Completed
	}
	return sol, nil
}
