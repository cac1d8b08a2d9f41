package epicycle

import (
	"fmt"

	"github.com/GenAstro/Epicycle-sub001/integrator"
	kitlog "github.com/go-kit/kit/log"
	"gonum.org/v1/gonum/mat"
)

// OrbitEstimate is a state along with its state transition matrix Φ from a reference epoch.
type OrbitEstimate struct {
	State  []float64
	Epoch  Epoch
	Φ      *mat.Dense // STM
	logger kitlog.Logger
}

// NewOrbitEstimate returns an estimate of the provided kinematics with an identity STM.
func NewOrbitEstimate(k Kinematics, logger kitlog.Logger) *OrbitEstimate {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	Φ := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		Φ.Set(i, i, 1)
	}
	return &OrbitEstimate{State: k.State(), Epoch: k.Epoch(), Φ: Φ, logger: kitlog.With(logger, "estimate", "stm")}
}

// Propagate integrates the state and the STM for elapsed seconds (negative to go back in time).
// Every term of the force model must have analytic partials. The estimate is only updated on success.
func (e *OrbitEstimate) Propagate(fm *ForceModel, solver integrator.Solver, cfg integrator.Config, elapsed float64) error {
	if fm == nil || solver == nil {
		return configErrorf("estimate requires a force model and a solver")
	}
	anchor := e.Epoch.In(fm.DynamicalScale())
	if _, err := fm.Jacobian(anchor, e.State); err != nil {
		return err
	}
	// The STM of this transition starts from the identity and is then chained to the current one.
	y0 := make([]float64, 42)
	copy(y0, e.State)
	for i := 0; i < 6; i++ {
		y0[6+7*i] = 1
	}
	f := func(t float64, y, dy []float64) error {
		ep := anchor.Add(t)
		if err := fm.Derivative(ep, y[:6], dy[:6]); err != nil {
			return err
		}
		A, err := fm.Jacobian(ep, y[:6])
		if err != nil {
			return err
		}
		Φ := mat.NewDense(6, 6, y[6:42])
		ΦDot := mat.NewDense(6, 6, dy[6:42])
		ΦDot.Mul(A, Φ)
		return nil
	}
	sol, err := solver.Solve(f, y0, 0, elapsed, nil, cfg)
	if err != nil {
		e.logger.Log("level", "error", "subsys", "estimate", "err", err)
		return fmt.Errorf("STM propagation failed: %w", err)
	}
	var Φ mat.Dense
	Φ.Mul(mat.NewDense(6, 6, append([]float64(nil), sol.Y[6:42]...)), e.Φ)
	e.State = append([]float64(nil), sol.Y[:6]...)
	e.Epoch = anchor.Add(sol.T).In(e.Epoch.Scale())
	e.Φ = &Φ
	e.logger.Log("level", "info", "subsys", "estimate", "epoch", e.Epoch, "steps", sol.Stats.StepCount)
	return nil
}

// Deviation returns the state deviation mapped through the STM, i.e. Φ·δx0.
func (e *OrbitEstimate) Deviation(δx0 []float64) []float64 {
	var δx mat.VecDense
	δx.MulVec(e.Φ, mat.NewVecDense(6, append([]float64(nil), δx0...)))
	return δx.RawVector().Data
}
