package epicycle

import (
	"fmt"
	"math"
	"strings"
)

// Quantity is a scalar calculated from a subject's kinematics.
type Quantity interface {
	Name() string
	Evaluate(k Kinematics) (float64, error)
}

// vectorNorm is the norm of the position (offset 0) or velocity (offset 3).
type vectorNorm struct {
	name   string
	offset int
}

func (q vectorNorm) Name() string { return q.name }

func (q vectorNorm) Evaluate(k Kinematics) (float64, error) {
	s := k.State()
	return norm(s[q.offset : q.offset+3]), nil
}

// component is a single Cartesian component of the state.
type component struct {
	name  string
	index int
}

func (q component) Name() string { return q.name }

func (q component) Evaluate(k Kinematics) (float64, error) {
	return k.State()[q.index], nil
}

type radialVelocity struct{}

func (radialVelocity) Name() string { return "RadialVel" }

func (radialVelocity) Evaluate(k Kinematics) (float64, error) {
	s := k.State()
	r := norm(s[:3])
	if r == 0 {
		return 0, fmt.Errorf("radial velocity undefined at the origin")
	}
	return dot(s[:3], s[3:6]) / r, nil
}

type inclination struct{}

func (inclination) Name() string { return "Inclination" }

// Evaluate returns the inclination in degrees.
func (inclination) Evaluate(k Kinematics) (float64, error) {
	s := k.State()
	h := cross(s[:3], s[3:6])
	hNorm := norm(h)
	if hNorm == 0 {
		return 0, fmt.Errorf("inclination undefined for rectilinear motion")
	}
	return math.Acos(floatsClamp(h[2]/hNorm)) / deg2rad, nil
}

// Built-in quantities which do not depend on a body.
var (
	PosMag         Quantity = vectorNorm{"PosMag", 0}
	VelMag         Quantity = vectorNorm{"VelMag", 3}
	PosX           Quantity = component{"PosX", 0}
	PosY           Quantity = component{"PosY", 1}
	PosZ           Quantity = component{"PosZ", 2}
	VelX           Quantity = component{"VelX", 3}
	VelY           Quantity = component{"VelY", 4}
	VelZ           Quantity = component{"VelZ", 5}
	RadialVelocity Quantity = radialVelocity{}
	Inclination    Quantity = inclination{}
)

// bodyQuantity is a quantity which requires the body the state is expressed about.
type bodyQuantity struct {
	name string
	body CelestialObject
	eval func(o Orbit) float64
}

func (q bodyQuantity) Name() string { return q.name + "(" + q.body.Name + ")" }

func (q bodyQuantity) validate() error {
	if q.body.GM() <= 0 {
		return configErrorf("%s requires a body with a gravitational parameter, got %q", q.name, q.body.Name)
	}
	return nil
}

func (q bodyQuantity) Evaluate(k Kinematics) (float64, error) {
	if err := q.validate(); err != nil {
		return 0, err
	}
	v := q.eval(*NewOrbitFromState(k.State(), q.body))
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%s undefined for state %v", q.Name(), k.State())
	}
	return v, nil
}

// Altitude is the distance above the mean equatorial radius of the body, in km.
func Altitude(body CelestialObject) Quantity {
	return bodyQuantity{"Altitude", body, func(o Orbit) float64 { return o.RNorm() - o.Origin.Radius }}
}

// SMA is the semi major axis about the body, in km.
func SMA(body CelestialObject) Quantity {
	return bodyQuantity{"SMA", body, func(o Orbit) float64 {
		a, _, _, _, _, _ := o.Elements()
		return a
	}}
}

// Ecc is the eccentricity about the body.
func Ecc(body CelestialObject) Quantity {
	return bodyQuantity{"Ecc", body, func(o Orbit) float64 {
		_, e, _, _, _, _ := o.Elements()
		return e
	}}
}

// Energy is the specific mechanical energy about the body, in km²/s².
func Energy(body CelestialObject) Quantity {
	return bodyQuantity{"Energy", body, func(o Orbit) float64 { return o.Energyξ() }}
}

// QuantityFromString returns the quantity from its name. The body is only used by the quantities
// which depend on one.
func QuantityFromString(name string, body CelestialObject) (Quantity, error) {
	for _, q := range []Quantity{PosMag, VelMag, PosX, PosY, PosZ, VelX, VelY, VelZ, RadialVelocity, Inclination} {
		if strings.EqualFold(q.Name(), name) {
			return q, nil
		}
	}
	var q Quantity
	switch strings.ToLower(name) {
	case "altitude":
		q = Altitude(body)
	case "sma":
		q = SMA(body)
	case "ecc":
		q = Ecc(body)
	case "energy":
		q = Energy(body)
	default:
		return nil, configErrorf("unknown calculated quantity %q", name)
	}
	if err := q.(bodyQuantity).validate(); err != nil {
		return nil, err
	}
	return q, nil
}
