package epicycle

import (
	"math"
	"testing"

	"github.com/GenAstro/Epicycle-sub001/integrator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

func j2Model(t *testing.T) *ForceModel {
	earth, _ := NewPointMassGravity(Earth, nil)
	fm, err := NewForceModel(earth, ZonalHarmonics{Earth, 2})
	if err != nil {
		t.Fatal(err)
	}
	return fm
}

func TestEstimate(t *testing.T) {
	// An estimate propagates the same way as a spacecraft.
	init := NewOrbitFromOE(7000, 0.00001, 30, 80, 40, 0, Earth).State()
	sc, _ := NewSpacecraft("LEO", init, testEpoch)
	est := NewOrbitEstimate(sc, nil)
	st, _ := NewSecondsStop(sc, 3600)
	if _, err := newTestPropagator(Advancing).Propagate(j2Model(t), []Subject{sc}, st); err != nil {
		t.Fatal(err)
	}
	if err := est.Propagate(j2Model(t), integrator.NewDormandPrince(), integrator.DefaultConfig(), 3600); err != nil {
		t.Fatal(err)
	}
	if est.Epoch.Sub(sc.Epoch()) != 0 {
		t.Fatalf("incorrect ending epoch: %s != %s", est.Epoch, sc.Epoch())
	}
	if d := floats.Distance(est.State[:3], sc.State()[:3], 2); d > 1e-4 {
		t.Fatalf("estimate is %e km away from the spacecraft", d)
	}
}

func TestEstimateSTM(t *testing.T) {
	init := NewOrbitFromOE(8000, 0.05, 45, 10, 20, 30, Earth).State()
	δx0 := []float64{0.5, -0.3, 0.2, 1e-4, 2e-4, -1e-4}
	perturbed := make([]float64, 6)
	floats.AddTo(perturbed, init, δx0)
	cfg := integrator.DefaultConfig()
	solver := integrator.NewDormandPrince()

	nominal := NewOrbitEstimate(NewKinematics(init, testEpoch), nil)
	if err := nominal.Propagate(j2Model(t), solver, cfg, 1800); err != nil {
		t.Fatal(err)
	}
	dispersed := NewOrbitEstimate(NewKinematics(perturbed, testEpoch), nil)
	if err := dispersed.Propagate(j2Model(t), solver, cfg, 1800); err != nil {
		t.Fatal(err)
	}
	δx := make([]float64, 6)
	floats.SubTo(δx, dispersed.State, nominal.State)
	mapped := nominal.Deviation(δx0)
	if d := floats.Distance(mapped[:3], δx[:3], 2); d > 1e-2*floats.Norm(δx[:3], 2) {
		t.Fatalf("STM mapped deviation %+v, propagated %+v", mapped[:3], δx[:3])
	}
	// The two body (+J2) flow is symplectic.
	if det := mat.Det(nominal.Φ); !scalar.EqualWithinAbs(det, 1, 1e-6) {
		t.Fatalf("det(Φ)=%f", det)
	}

	// Chaining two transitions gives the STM over the whole span.
	chained := NewOrbitEstimate(NewKinematics(init, testEpoch), nil)
	for i := 0; i < 2; i++ {
		if err := chained.Propagate(j2Model(t), solver, cfg, 900); err != nil {
			t.Fatal(err)
		}
	}
	if !mat.EqualApprox(chained.Φ, nominal.Φ, 1e-6) {
		t.Fatalf("chained STM\n%v\n!=\n%v", mat.Formatted(chained.Φ), mat.Formatted(nominal.Φ))
	}
	if math.Abs(chained.Epoch.Sub(nominal.Epoch)) > 1e-9 {
		t.Fatal("chained epoch differs")
	}
}

func TestEstimateRequiresPartials(t *testing.T) {
	earth, _ := NewPointMassGravity(Earth, nil)
	fm, _ := NewForceModel(earth, Thrust{Thruster: HERMeS{}, Count: 1, Mass: 500, Control: Tangential{}})
	est := NewOrbitEstimate(NewKinematics(circular(7000), testEpoch), nil)
	if err := est.Propagate(fm, integrator.NewDormandPrince(), integrator.DefaultConfig(), 60); !isConfigError(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	if est.Epoch != testEpoch {
		t.Fatal("estimate was updated")
	}
}
