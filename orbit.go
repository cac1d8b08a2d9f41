package epicycle

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
)

// Orbit defines an orbit via its Cartesian state about an origin.
type Orbit struct {
	r, v   []float64
	Origin CelestialObject // Orbit origin
}

// NewOrbitFromRV returns the orbit from the R and V vectors (km and km/s).
func NewOrbitFromRV(R, V []float64, c CelestialObject) *Orbit {
	r, v := make([]float64, 3), make([]float64, 3)
	copy(r, R)
	copy(v, V)
	return &Orbit{r, v, c}
}

// NewOrbitFromState returns the orbit from a 6 element state vector.
func NewOrbitFromState(s []float64, c CelestialObject) *Orbit {
	return NewOrbitFromRV(s[:3], s[3:6], c)
}

// NewOrbitFromOE creates an orbit from the orbital elements.
// WARNING: Angles must be in degrees not radian.
func NewOrbitFromOE(a, e, i, Ω, ω, ν float64, c CelestialObject) *Orbit {
	i, Ω, ω, ν = Deg2rad(i), Deg2rad(Ω), Deg2rad(ω), Deg2rad(ν)
	p := a * (1 - e*e)
	sinν, cosν := math.Sincos(ν)
	R := []float64{p * cosν / (1 + e*cosν), p * sinν / (1 + e*cosν), 0}
	sqrtμp := math.Sqrt(c.μ / p)
	V := []float64{-sqrtμp * sinν, sqrtμp * (e + cosν), 0}
	return &Orbit{PQW2ECI(i, ω, Ω, R), PQW2ECI(i, ω, Ω, V), c}
}

// RV returns copies of the radius and velocity vectors.
func (o Orbit) RV() ([]float64, []float64) {
	return o.R(), o.V()
}

// R returns the radius vector.
func (o Orbit) R() []float64 {
	R := make([]float64, 3)
	copy(R, o.r)
	return R
}

// V returns the velocity vector.
func (o Orbit) V() []float64 {
	V := make([]float64, 3)
	copy(V, o.v)
	return V
}

// State returns the 6 element Cartesian state.
func (o Orbit) State() []float64 {
	return append(o.R(), o.v...)
}

// RNorm returns the norm of the radius vector.
func (o Orbit) RNorm() float64 {
	return norm(o.r)
}

// VNorm returns the norm of the velocity vector.
func (o Orbit) VNorm() float64 {
	return norm(o.v)
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	v := o.VNorm()
	return v*v/2 - o.Origin.μ/o.RNorm()
}

// H returns the orbital angular momentum vector.
func (o Orbit) H() []float64 {
	return cross(o.r, o.v)
}

// HNorm returns the norm of orbital angular momentum.
func (o Orbit) HNorm() float64 {
	return norm(o.H())
}

// Period returns the period of this orbit, or zero if it is not closed.
func (o Orbit) Period() time.Duration {
	ξ := o.Energyξ()
	if ξ >= 0 {
		return 0
	}
	a := -o.Origin.μ / (2 * ξ)
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(a, 3)/o.Origin.μ)
	return time.Duration(seconds * float64(time.Second))
}

// Elements returns the classical orbital elements, angles in radians.
func (o Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	// From Vallado's RV2COE, page 113
	R, V := o.r, o.v
	μ := o.Origin.μ
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - μ/r
	a = -μ / (2 * ξ)
	eVec := make([]float64, 3)
	for j := 0; j < 3; j++ {
		eVec[j] = ((v*v-μ/r)*R[j] - dot(R, V)*V[j]) / μ
	}
	e = norm(eVec)
	i = math.Acos(hVec[2] / norm(hVec))
	if nNorm := norm(n); nNorm > 0 {
		Ω = math.Acos(floatsClamp(n[0] / nNorm))
		if n[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
		if e > eccentricityε {
			ω = math.Acos(floatsClamp(dot(n, eVec) / (nNorm * e)))
			if eVec[2] < 0 {
				ω = 2*math.Pi - ω
			}
		}
	}
	if e > eccentricityε {
		ν = math.Acos(floatsClamp(dot(eVec, R) / (e * r)))
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	}
	// Fix rounding errors.
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω, 2*math.Pi)
	ω = math.Mod(ω, 2*math.Pi)
	ν = math.Mod(ν, 2*math.Pi)
	return
}

// floatsClamp brings a cosine which drifted past ±1 by rounding back into range.
func floatsClamp(c float64) float64 {
	if math.Abs(c) > 1 && scalar.EqualWithinAbs(math.Abs(c), 1, 1e-12) {
		return sign(c)
	}
	return c
}

func (o Orbit) String() string {
	a, e, i, Ω, ω, ν := o.Elements()
	return fmt.Sprintf("r=%.1f a=%.3f e=%.6f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.RNorm(), a, e, Rad2deg(i), Rad2deg(Ω), Rad2deg(ω), Rad2deg(ν))
}
