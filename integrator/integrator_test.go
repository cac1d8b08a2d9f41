package integrator

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// harmonic oscillator: x'' = -x, x(0) = 1, x'(0) = 0, so x(t) = cos(t).
func harmonic(t float64, y, dy []float64) error {
	dy[0] = y[1]
	dy[1] = -y[0]
	return nil
}

func position(t float64, y []float64) (float64, error) {
	return y[0], nil
}

func TestDormandPrinceHarmonic(t *testing.T) {
	cfg := DefaultConfig()
	for _, tf := range []float64{10, -10} {
		sol, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 0, tf, nil, cfg)
		if err != nil {
			t.Fatalf("tf=%f: %s", tf, err)
		}
		if sol.Status != Completed {
			t.Fatalf("tf=%f: status %s", tf, sol.Status)
		}
		if sol.T != tf {
			t.Fatalf("final time %f != %f", sol.T, tf)
		}
		exp := []float64{math.Cos(tf), -math.Sin(tf)}
		if !floats.EqualApprox(sol.Y, exp, 1e-8) {
			t.Fatalf("tf=%f\ngot: %+v\nexp: %+v", tf, sol.Y, exp)
		}
		if len(sol.Samples) < 2 || sol.Samples[0].T != 0 || sol.Samples[len(sol.Samples)-1].T != tf {
			t.Fatalf("invalid samples: %d", len(sol.Samples))
		}
	}
}

func TestDormandPrinceEventDirections(t *testing.T) {
	cfg := DefaultConfig()
	// x = cos(t) falls through zero at π/2 and rises through zero at 3π/2.
	for _, tc := range []struct {
		name           string
		rising, falling Action
		exp            float64
	}{
		{"either", Terminate, Terminate, math.Pi / 2},
		{"falling", nil, Terminate, math.Pi / 2},
		{"rising", Terminate, nil, 3 * math.Pi / 2},
	} {
		ev := Event{Name: tc.name, G: position, Rising: tc.rising, Falling: tc.falling}
		sol, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 0, 20, []Event{ev}, cfg)
		if err != nil {
			t.Fatalf("%s: %s", tc.name, err)
		}
		if sol.Status != Terminated || sol.Event != 0 {
			t.Fatalf("%s: status %s event %d", tc.name, sol.Status, sol.Event)
		}
		if !scalar.EqualWithinAbs(sol.T, tc.exp, 1e-7) {
			t.Fatalf("%s: event at %.10f instead of %.10f", tc.name, sol.T, tc.exp)
		}
		if math.Abs(sol.Y[0]) > 1e-7 {
			t.Fatalf("%s: event function not zero: %e", tc.name, sol.Y[0])
		}
	}
}

func TestDormandPrinceBackwardEvent(t *testing.T) {
	// Backward in time, cos(t) goes from 1 to 0 at -π/2: falling in integration order.
	ev := Event{Name: "backward", G: position, Falling: Terminate}
	sol, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 0, -20, []Event{ev}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(sol.T, -math.Pi/2, 1e-7) {
		t.Fatalf("backward event at %f", sol.T)
	}
}

func TestEventAtInitialTime(t *testing.T) {
	// x = sin(t): starts on the root and rises.
	y0 := []float64{0, 1}
	either := Event{Name: "either", G: position, Rising: Terminate, Falling: Terminate}
	sol, err := NewDormandPrince().Solve(harmonic, y0, 0, 20, []Event{either}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Terminated || sol.T != 0 {
		t.Fatalf("expected immediate termination, got %s at %f", sol.Status, sol.T)
	}
	if !floats.Equal(sol.Y, y0) {
		t.Fatalf("state changed: %+v", sol.Y)
	}
	// A falling only event must skip the initial rise and fire at π.
	falling := Event{Name: "falling", G: position, Falling: Terminate}
	sol, err = NewDormandPrince().Solve(harmonic, y0, 0, 20, []Event{falling}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(sol.T, math.Pi, 1e-7) {
		t.Fatalf("falling event at %f instead of π", sol.T)
	}
}

func TestEarliestEventWins(t *testing.T) {
	late := Event{Name: "late", G: func(t float64, y []float64) (float64, error) { return t - 5, nil }, Rising: Terminate}
	early := Event{Name: "early", G: func(t float64, y []float64) (float64, error) { return t - 2, nil }, Rising: Terminate}
	sol, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 0, 20, []Event{late, early}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Event != 1 || !scalar.EqualWithinAbs(sol.T, 2, 1e-8) {
		t.Fatalf("event %d at %f", sol.Event, sol.T)
	}
}

func TestNonTerminatingAction(t *testing.T) {
	var calls int
	count := func(t float64, y []float64) bool {
		calls++
		return false
	}
	ev := Event{Name: "count", G: position, Rising: count, Falling: count}
	sol, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 0, 10, []Event{ev}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Completed {
		t.Fatalf("status %s", sol.Status)
	}
	// Roots at π/2, 3π/2, 5π/2.
	if calls != 3 {
		t.Fatalf("action called %d times", calls)
	}
}

func TestNonFiniteDerivative(t *testing.T) {
	blowup := func(t float64, y, dy []float64) error {
		dy[0] = 1 / (1 - t)
		if t > 0.5 {
			dy[0] = math.NaN()
		}
		return nil
	}
	sol, err := NewDormandPrince().Solve(blowup, []float64{0}, 0, 2, nil, DefaultConfig())
	if !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	if sol == nil || sol.Status != Failed {
		t.Fatal("expected a failed solution")
	}
}

func TestFuncErrorIsReturned(t *testing.T) {
	sentinel := errors.New("boom")
	f := func(t float64, y, dy []float64) error {
		if t > 1 {
			return sentinel
		}
		dy[0] = 1
		return nil
	}
	if _, err := NewDormandPrince().Solve(f, []float64{0}, 0, 2, nil, DefaultConfig()); !errors.Is(err, sentinel) {
		t.Fatalf("expected the derivative error, got %v", err)
	}
}

func TestMaxSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStepCount = 5
	if _, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 0, 1000, nil, cfg); !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
}

func TestEmptySpan(t *testing.T) {
	if _, err := NewDormandPrince().Solve(harmonic, []float64{1, 0}, 1, 1, nil, DefaultConfig()); !errors.Is(err, ErrSpan) {
		t.Fatalf("expected ErrSpan, got %v", err)
	}
}

func TestFixedStep(t *testing.T) {
	sol, err := FixedStep{Step: 0.01}.Solve(harmonic, []float64{1, 0}, 0, -3.333, nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Completed || sol.T != -3.333 {
		t.Fatalf("status %s at %f", sol.Status, sol.T)
	}
	exp := []float64{math.Cos(-3.333), -math.Sin(-3.333)}
	if !floats.EqualApprox(sol.Y, exp, 1e-7) {
		t.Fatalf("\ngot: %+v\nexp: %+v", sol.Y, exp)
	}
	ev := Event{Name: "zero", G: position, Falling: Terminate}
	sol, err = FixedStep{Step: 0.1}.Solve(harmonic, []float64{1, 0}, 0, 10, []Event{ev}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Terminated || !scalar.EqualWithinAbs(sol.T, math.Pi/2, 1e-5) {
		t.Fatalf("status %s at %f", sol.Status, sol.T)
	}
}

func TestFixedStepBudget(t *testing.T) {
	// The budget is counted while stepping, not against the whole span.
	cfg := DefaultConfig()
	cfg.MaxStepCount = 5
	sol, err := FixedStep{Step: 0.1}.Solve(harmonic, []float64{1, 0}, 0, 1e9, nil, cfg)
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected the step budget to be exhausted, got %v", err)
	}
	if sol == nil || sol.Status != Failed || !scalar.EqualWithinAbs(sol.T, 0.5, 1e-12) || sol.Stats.StepCount != 5 {
		t.Fatalf("failed solution %+v", sol)
	}
	// An event within the budget of a long span is still located.
	cfg.MaxStepCount = 100
	ev := Event{Name: "zero", G: position, Falling: Terminate}
	sol, err = FixedStep{Step: 0.1}.Solve(harmonic, []float64{1, 0}, 0, 1e9, []Event{ev}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Terminated || !scalar.EqualWithinAbs(sol.T, math.Pi/2, 1e-5) {
		t.Fatalf("status %s at %f", sol.Status, sol.T)
	}
	// A span shorter than the budget completes on its end.
	sol, err = FixedStep{Step: 0.3}.Solve(harmonic, []float64{1, 0}, 0, -1, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Completed || sol.T != -1 || sol.Stats.StepCount != 4 {
		t.Fatalf("status %s at %f after %d steps", sol.Status, sol.T, sol.Stats.StepCount)
	}
}

func TestNewRK4(t *testing.T) {
	if _, err := NewRK4(0, 0, &fixedProblem{}); err == nil {
		t.Fatal("zero step accepted")
	}
	if _, err := NewRK4(0, 1, nil); err == nil {
		t.Fatal("nil integrable accepted")
	}
}
