package epicycle

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ZonalHarmonics is the J2 (and optionally J3) perturbation of a body, in its equatorial frame.
type ZonalHarmonics struct {
	Body   CelestialObject
	Degree uint8 // 2 or 3
}

func (z ZonalHarmonics) validate() error {
	if z.Degree < 2 || z.Degree > 3 {
		return configErrorf("zonal harmonics of degree %d not supported (2 or 3)", z.Degree)
	}
	if z.Body.J2 == 0 {
		return configErrorf("%s has no J2 coefficient", z.Body.Name)
	}
	return nil
}

// CentralBody implements the GravityTerm interface.
func (z ZonalHarmonics) CentralBody() CelestialObject {
	return z.Body
}

func (z ZonalHarmonics) radius(e Epoch, R []float64) (float64, error) {
	r2 := R[0]*R[0] + R[1]*R[1] + R[2]*R[2]
	if r := math.Sqrt(r2); r < SingularityTolerance || math.IsNaN(r) {
		return 0, &SingularityError{Body: z.Body.Name, Distance: r, Epoch: e}
	}
	return r2, nil
}

// Acceleration implements the ForceTerm interface.
func (z ZonalHarmonics) Acceleration(e Epoch, state, acc []float64) error {
	R := state[:3]
	r2, err := z.radius(e, R)
	if err != nil {
		return err
	}
	x, y, zz := R[0], R[1], R[2]
	z2 := zz * zz
	z3 := z2 * zz
	r252 := math.Pow(r2, 5/2.)
	r272 := math.Pow(r2, 7/2.)
	accJ2 := (3 / 2.) * z.Body.J(2) * math.Pow(z.Body.Radius, 2) * z.Body.GM()
	acc[0] += accJ2 * (5*x*z2/r272 - x/r252)
	acc[1] += accJ2 * (5*y*z2/r272 - y/r252)
	acc[2] += accJ2 * (5*z3/r272 - 3*zz/r252)
	if z.Degree >= 3 {
		r292 := math.Pow(r2, 9/2.)
		z4 := z2 * z2
		accJ3 := z.Body.J(3) * math.Pow(z.Body.Radius, 3) * z.Body.GM()
		acc[0] += (5 / 2.) * accJ3 * (7*x*z3/r292 - 3*x*zz/r272)
		acc[1] += (5 / 2.) * accJ3 * (7*y*z3/r292 - 3*y*zz/r272)
		acc[2] += 0.5 * accJ3 * (35*z4/r292 - 30*z2/r272 + 3/r252)
	}
	return nil
}

// PositionPartials implements the PartialsTerm interface.
func (z ZonalHarmonics) PositionPartials(e Epoch, state []float64) (*mat.Dense, error) {
	R := state[:3]
	r2, err := z.radius(e, R)
	if err != nil {
		return nil, err
	}
	x, y, zz := R[0], R[1], R[2]
	x2, y2, z2 := x*x, y*y, zz*zz
	z3 := z2 * zz
	z4 := z2 * z2
	// Adding those fractions to avoid forgetting the trailing period which makes them floats.
	f32 := 3 / 2.
	f152 := 15 / 2.
	r252 := math.Pow(r2, 5/2.)
	r272 := math.Pow(r2, 7/2.)
	r292 := math.Pow(r2, 9/2.)
	A := mat.NewDense(3, 3, nil)
	// J2
	j2fact := z.Body.J(2) * math.Pow(z.Body.Radius, 2) * z.Body.GM()
	dAxDx := -f32 * j2fact * (35*x2*z2/r292 - 5*x2/r272 - 5*z2/r272 + 1/r252)
	dAxDy := -f152 * j2fact * (7*x*y*z2/r292 - x*y/r272)
	dAxDz := -f152 * j2fact * (7*x*z3/r292 - 3*x*zz/r272)
	dAyDy := -f32 * j2fact * (35*y2*z2/r292 - 5*y2/r272 - 5*z2/r272 + 1/r252)
	dAyDz := -f152 * j2fact * (7*y*z3/r292 - 3*y*zz/r272)
	dAzDz := -f32 * j2fact * (35*z4/r292 - 30*z2/r272 + 3/r252)
	if z.Degree >= 3 {
		z5 := z4 * zz
		r2112 := math.Pow(r2, 11/2.)
		f52 := 5 / 2.
		f1052 := 105 / 2.
		j3fact := z.Body.J(3) * math.Pow(z.Body.Radius, 3) * z.Body.GM()
		dAxDx += -f52 * j3fact * (63*x2*z3/r2112 - 21*x2*zz/r292 - 7*z3/r292 + 3*zz/r272)
		dAxDy += -f1052 * j3fact * (3*x*y*z3/r2112 - x*y*zz/r292)
		dAxDz += -f152 * j3fact * (21*x*z4/r2112 - 14*x*z2/r292 + x/r272)
		dAyDy += -f52 * j3fact * (63*y2*z3/r2112 - 21*y2*zz/r292 - 7*z3/r292 + 3*zz/r272)
		dAyDz += -f152 * j3fact * (21*y*z4/r2112 - 14*y*z2/r292 + y/r272)
		dAzDz += -f52 * j3fact * (63*z5/r2112 - 70*z3/r292 + 15*zz/r272)
	}
	// The zonal potential is smooth so the partials are symmetric.
	A.Set(0, 0, dAxDx)
	A.Set(0, 1, dAxDy)
	A.Set(0, 2, dAxDz)
	A.Set(1, 0, dAxDy)
	A.Set(1, 1, dAyDy)
	A.Set(1, 2, dAyDz)
	A.Set(2, 0, dAxDz)
	A.Set(2, 1, dAyDz)
	A.Set(2, 2, dAzDz)
	return A, nil
}
