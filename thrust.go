package epicycle

import (
	"fmt"
)

// EPThruster defines an electric propulsion thruster.
type EPThruster interface {
	// Returns the max power and voltage requirements for this EPThruster.
	Max() (voltage, power uint)
	// Returns the thrust in Newtons and isp consumed in seconds.
	Thrust(voltage, power uint) (thrust, isp float64, err error)
}

/* Available EPThrusters */

// PPS1350 is the Snecma EPThruster used on SMART-1.
type PPS1350 struct{}

// Max implements the EPThruster interface.
func (t PPS1350) Max() (voltage, power uint) {
	return 350, 2500
}

// Thrust implements the EPThruster interface.
func (t PPS1350) Thrust(voltage, power uint) (thrust, isp float64, err error) {
	if voltage == 350 && power == 2500 {
		return 89e-3, 1650, nil
	}
	return 0, 0, fmt.Errorf("PPS1350: unsupported operating point %d V, %d W", voltage, power)
}

// HERMeS is based on the NASA & Rocketdyne 12.5kW demo
type HERMeS struct{}

// Max implements the EPThruster interface.
func (t HERMeS) Max() (voltage, power uint) {
	return 800, 12500
}

// Thrust implements the EPThruster interface.
func (t HERMeS) Thrust(voltage, power uint) (thrust, isp float64, err error) {
	if voltage == 800 && power == 12500 {
		return 0.680, 2960, nil
	}
	return 0, 0, fmt.Errorf("HERMeS: unsupported operating point %d V, %d W", voltage, power)
}

// GenericEP is a generic EP EPThruster.
type GenericEP struct {
	thrust float64
	isp    float64
}

// Max implements the EPThruster interface.
func (t GenericEP) Max() (voltage, power uint) {
	return 0, 0
}

// Thrust implements the EPThruster interface.
func (t GenericEP) Thrust(voltage, power uint) (thrust, isp float64, err error) {
	return t.thrust, t.isp, nil
}

// NewGenericEP returns a generic electric prop EPThruster.
func NewGenericEP(thrust, isp float64) GenericEP {
	return GenericEP{thrust, isp}
}

// ThrustControl returns the unit thrust direction in the orbit frame of the state: radial,
// along track and orbit normal components.
type ThrustControl interface {
	Control(state []float64) []float64
	String() string
}

// Coast does not thrust.
type Coast struct{}

// Control implements the ThrustControl interface.
func (Coast) Control(state []float64) []float64 { return []float64{0, 0, 0} }

func (Coast) String() string { return "coast" }

// Tangential thrusts along track.
type Tangential struct{}

// Control implements the ThrustControl interface.
func (Tangential) Control(state []float64) []float64 { return []float64{0, 1, 0} }

func (Tangential) String() string { return "tangential" }

// AntiTangential thrusts against the along track direction.
type AntiTangential struct{}

// Control implements the ThrustControl interface.
func (AntiTangential) Control(state []float64) []float64 { return []float64{0, -1, 0} }

func (AntiTangential) String() string { return "antitangential" }

// Thrust is the constant acceleration of thrusters firing at their maximum operating point on a
// spacecraft of constant mass.
type Thrust struct {
	Thruster EPThruster
	Count    uint    // number of thrusters firing together
	Mass     float64 // kg
	Control  ThrustControl
}

func (th Thrust) validate() error {
	if th.Thruster == nil || th.Control == nil {
		return configErrorf("thrust requires a thruster and a control law")
	}
	if th.Count == 0 || !(th.Mass > 0) {
		return configErrorf("thrust requires at least one thruster and a positive mass, got %d and %g kg", th.Count, th.Mass)
	}
	if _, _, err := th.Thruster.Thrust(th.Thruster.Max()); err != nil {
		return configErrorf("%s", err)
	}
	return nil
}

// Acceleration implements the ForceTerm interface.
func (th Thrust) Acceleration(e Epoch, state, acc []float64) error {
	thrust, _, err := th.Thruster.Thrust(th.Thruster.Max())
	if err != nil {
		return err
	}
	ctrl := th.Control.Control(state)
	if ctrl[0] == 0 && ctrl[1] == 0 && ctrl[2] == 0 {
		return nil
	}
	R, V := state[:3], state[3:6]
	if rNorm := norm(R); rNorm < SingularityTolerance {
		return &SingularityError{Body: "thrust frame", Distance: rNorm, Epoch: e}
	}
	h := cross(R, V)
	if norm(h) == 0 {
		return fmt.Errorf("thrust frame undefined at %s: rectilinear motion", e)
	}
	rHat, wHat := unit(R), unit(h)
	sHat := cross(wHat, rHat)
	// N to km/s^2
	a := float64(th.Count) * thrust / th.Mass / 1e3
	for i := 0; i < 3; i++ {
		acc[i] += a * (ctrl[0]*rHat[i] + ctrl[1]*sHat[i] + ctrl[2]*wHat[i])
	}
	return nil
}

func (th Thrust) String() string {
	return fmt.Sprintf("%d×%T %s thrust on %g kg", th.Count, th.Thruster, th.Control, th.Mass)
}
