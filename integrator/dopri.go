package integrator

import (
	"fmt"
	"math"
)

// Dormand-Prince RK5(4) tableau.
const (
	dpC2 = 1.0 / 5.0
	dpC3 = 3.0 / 10.0
	dpC4 = 4.0 / 5.0
	dpC5 = 8.0 / 9.0

	dpA21 = 1.0 / 5.0
	dpA31 = 3.0 / 40.0
	dpA32 = 9.0 / 40.0
	dpA41 = 44.0 / 45.0
	dpA42 = -56.0 / 15.0
	dpA43 = 32.0 / 9.0
	dpA51 = 19372.0 / 6561.0
	dpA52 = -25360.0 / 2187.0
	dpA53 = 64448.0 / 6561.0
	dpA54 = -212.0 / 729.0
	dpA61 = 9017.0 / 3168.0
	dpA62 = -355.0 / 33.0
	dpA63 = 46732.0 / 5247.0
	dpA64 = 49.0 / 176.0
	dpA65 = -5103.0 / 18656.0

	dpB1 = 35.0 / 384.0
	dpB3 = 500.0 / 1113.0
	dpB4 = 125.0 / 192.0
	dpB5 = -2187.0 / 6784.0
	dpB6 = 11.0 / 84.0

	dpE1 = dpB1 - 5179.0/57600.0
	dpE3 = dpB3 - 7571.0/16695.0
	dpE4 = dpB4 - 393.0/640.0
	dpE5 = dpB5 - -92097.0/339200.0
	dpE6 = dpB6 - 187.0/2100.0
	dpE7 = -1.0 / 40.0
)

// DormandPrince is an adaptive RK5(4) solver with event location.
type DormandPrince struct {
	Safety   float64 // step size safety factor
	MinScale float64 // smallest step size change ratio
	MaxScale float64 // largest step size change ratio
}

// NewDormandPrince returns a Dormand-Prince solver with the usual step control factors.
func NewDormandPrince() *DormandPrince {
	return &DormandPrince{Safety: 0.9, MinScale: 0.2, MaxScale: 10.0}
}

type dpStage struct {
	f     Func
	n     int
	evals uint
	k     [7][]float64
	tmp   []float64
}

func newDPStage(f Func, n int) *dpStage {
	s := &dpStage{f: f, n: n, tmp: make([]float64, n)}
	for i := range s.k {
		s.k[i] = make([]float64, n)
	}
	return s
}

func (s *dpStage) eval(t float64, y, dy []float64) error {
	s.evals++
	if err := s.f(t, y, dy); err != nil {
		return err
	}
	if !finite(dy) {
		return fmt.Errorf("derivative at t=%g: %w", t, ErrNonFinite)
	}
	return nil
}

// step performs one step of size h, k1 being the derivative at (t, y).
// It returns the new state, its derivative and the embedded error estimate.
func (s *dpStage) step(t float64, y, k1 []float64, h float64) (yNew, k7, errEst []float64, err error) {
	n := s.n
	k := s.k
	copy(k[0], k1)
	tmp := s.tmp
	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*dpA21*k[0][i]
	}
	if err = s.eval(t+dpC2*h, tmp, k[1]); err != nil {
		return
	}
	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(dpA31*k[0][i]+dpA32*k[1][i])
	}
	if err = s.eval(t+dpC3*h, tmp, k[2]); err != nil {
		return
	}
	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(dpA41*k[0][i]+dpA42*k[1][i]+dpA43*k[2][i])
	}
	if err = s.eval(t+dpC4*h, tmp, k[3]); err != nil {
		return
	}
	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(dpA51*k[0][i]+dpA52*k[1][i]+dpA53*k[2][i]+dpA54*k[3][i])
	}
	if err = s.eval(t+dpC5*h, tmp, k[4]); err != nil {
		return
	}
	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(dpA61*k[0][i]+dpA62*k[1][i]+dpA63*k[2][i]+dpA64*k[3][i]+dpA65*k[4][i])
	}
	if err = s.eval(t+h, tmp, k[5]); err != nil {
		return
	}
	yNew = make([]float64, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(dpB1*k[0][i]+dpB3*k[2][i]+dpB4*k[3][i]+dpB5*k[4][i]+dpB6*k[5][i])
	}
	k7 = make([]float64, n)
	if err = s.eval(t+h, yNew, k7); err != nil {
		return
	}
	errEst = make([]float64, n)
	for i := 0; i < n; i++ {
		errEst[i] = h * (dpE1*k[0][i] + dpE3*k[2][i] + dpE4*k[3][i] + dpE5*k[4][i] + dpE6*k[5][i] + dpE7*k7[i])
	}
	return
}

func errorNorm(y, yNew, errEst []float64, cfg Config) float64 {
	var sum float64
	for i := range y {
		sc := cfg.AbsoluteTolerance + cfg.RelativeTolerance*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		sum += math.Pow(errEst[i]/sc, 2)
	}
	return math.Sqrt(sum / float64(len(y)))
}

// initialStep is the first step magnitude heuristic from Hairer, Nørsett and Wanner.
func initialStep(y, f []float64, span float64, cfg Config) float64 {
	if cfg.InitialStepSize > 0 {
		return math.Min(cfg.InitialStepSize, span)
	}
	var d0, d1 float64
	for i := range y {
		sc := cfg.AbsoluteTolerance + cfg.RelativeTolerance*math.Abs(y[i])
		d0 += math.Pow(y[i]/sc, 2)
		d1 += math.Pow(f[i]/sc, 2)
	}
	d0 = math.Sqrt(d0 / float64(len(y)))
	d1 = math.Sqrt(d1 / float64(len(y)))
	h := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h = 0.01 * d0 / d1
	}
	if cfg.MaxStepSize > 0 {
		h = math.Min(h, cfg.MaxStepSize)
	}
	return math.Min(h, span)
}

// Solve implements the Solver interface.
func (dp *DormandPrince) Solve(f Func, y0 []float64, t0, tf float64, events []Event, cfg Config) (*Solution, error) {
	if t0 == tf || math.IsNaN(tf) {
		return nil, ErrSpan
	}
	if len(y0) == 0 {
		return nil, fmt.Errorf("empty initial state")
	}
	dir := direction(t0, tf)
	n := len(y0)
	stage := newDPStage(f, n)
	sol := &Solution{Event: -1}
	fail := func(t float64, y []float64, err error) (*Solution, error) {
		sol.T, sol.Y, sol.Status = t, clone(y), Failed
		sol.Stats.EvaluationCount = stage.evals
		return sol, err
	}

	t := t0
	y := clone(y0)
	if !finite(y) {
		return fail(t, y, fmt.Errorf("initial state: %w", ErrNonFinite))
	}
	k1 := make([]float64, n)
	if err := stage.eval(t, y, k1); err != nil {
		return fail(t, y, err)
	}
	tracker, err := newEventTracker(events, t, y, cfg)
	if err != nil {
		return fail(t, y, err)
	}
	sol.Samples = append(sol.Samples, Sample{t, clone(y)})

	// Sub-steps used by the event location restart from the start of the accepted step.
	var stepK1 []float64
	sub := func(ts float64, ys []float64, h float64) ([]float64, error) {
		yNew, _, _, err := stage.step(ts, ys, stepK1, h)
		return yNew, err
	}

	h := dir * initialStep(y, k1, math.Abs(tf-t0), cfg)
	for {
		if cfg.MaxStepCount > 0 && sol.Stats.StepCount+sol.Stats.RejectedCount >= cfg.MaxStepCount {
			return fail(t, y, fmt.Errorf("after %d steps at t=%g: %w", cfg.MaxStepCount, t, ErrMaxSteps))
		}
		if cfg.MaxStepSize > 0 && math.Abs(h) > cfg.MaxStepSize {
			h = dir * cfg.MaxStepSize
		}
		last := false
		if (t+h-tf)*dir >= 0 {
			h = tf - t
			last = true
		}
		if math.Abs(h) < cfg.MinStepSize && !last {
			return fail(t, y, fmt.Errorf("|h|=%g at t=%g: %w", math.Abs(h), t, ErrStepSize))
		}

		yNew, k7, errEst, err := stage.step(t, y, k1, h)
		if err != nil {
			return fail(t, y, err)
		}
		errRatio := errorNorm(y, yNew, errEst, cfg)
		if math.IsNaN(errRatio) {
			return fail(t, y, fmt.Errorf("error estimate at t=%g: %w", t, ErrNonFinite))
		}
		if errRatio > 1 {
			sol.Stats.RejectedCount++
			h *= math.Max(dp.MinScale, dp.Safety*math.Pow(errRatio, -0.2))
			continue
		}

		tNew := t + h
		if last {
			tNew = tf
		}
		sol.Stats.StepCount++
		sol.Stats.LastStepSize = h

		stepK1 = clone(k1)
		found, err := tracker.check(sub, t, y, tNew, yNew)
		if err != nil {
			return fail(t, y, err)
		}
		if found != nil {
			sol.T, sol.Y = found.t, found.y
			if found.t != t {
				sol.Samples = append(sol.Samples, Sample{found.t, clone(found.y)})
			}
			sol.Status, sol.Event = Terminated, found.index
			sol.Stats.EvaluationCount = stage.evals
			return sol, nil
		}

		t, y, k1 = tNew, yNew, k7
		sol.Samples = append(sol.Samples, Sample{t, clone(y)})
		if last {
			sol.T, sol.Y, sol.Status = t, clone(y), Completed
			sol.Stats.EvaluationCount = stage.evals
			return sol, nil
		}

		scale := dp.MaxScale
		if errRatio > 0 {
			scale = math.Min(dp.MaxScale, math.Max(dp.MinScale, dp.Safety*math.Pow(errRatio, -0.2)))
		}
		h *= scale
	}
}
