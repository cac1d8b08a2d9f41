package epicycle

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SingularityTolerance is the distance in km below which a gravitational attraction is undefined.
const SingularityTolerance = 1e-6

// ForceTerm contributes an acceleration to a subject. Acceleration adds the contribution of the term
// at epoch e for the 6 element Cartesian state into acc.
type ForceTerm interface {
	Acceleration(e Epoch, state, acc []float64) error
}

// GravityTerm is a force term which is expressed about a central body.
type GravityTerm interface {
	ForceTerm
	CentralBody() CelestialObject
}

// PartialsTerm is a force term with analytic partials of its acceleration with respect to position.
type PartialsTerm interface {
	ForceTerm
	PositionPartials(e Epoch, state []float64) (*mat.Dense, error)
}

// PointMassGravity is the point mass attraction of a central body, and of perturbing bodies
// expressed relative to that central body.
type PointMassGravity struct {
	Central    CelestialObject
	Perturbers []CelestialObject
	Ephemeris  Ephemeris // Required if there are perturbers.
}

// NewPointMassGravity returns a validated point mass gravity term.
func NewPointMassGravity(central CelestialObject, eph Ephemeris, perturbers ...CelestialObject) (*PointMassGravity, error) {
	g := &PointMassGravity{central, perturbers, eph}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *PointMassGravity) validate() error {
	if g.Central.GM() <= 0 {
		return configErrorf("central body %q has no gravitational parameter", g.Central.Name)
	}
	if len(g.Perturbers) > 0 && g.Ephemeris == nil {
		return configErrorf("perturbing bodies about %s require an ephemeris", g.Central.Name)
	}
	for i, p := range g.Perturbers {
		if p.Equals(g.Central) {
			return configErrorf("%s is both the central body and a perturber", p.Name)
		}
		for _, o := range g.Perturbers[:i] {
			if o.Equals(p) {
				return configErrorf("%s is listed twice as a perturber", p.Name)
			}
		}
	}
	return nil
}

// CentralBody implements the GravityTerm interface.
func (g *PointMassGravity) CentralBody() CelestialObject {
	return g.Central
}

// perturbers returns, for each perturbing body, its position relative to the central body
// and its position relative to the subject.
func (g *PointMassGravity) perturbers(e Epoch, r []float64) (rp, rel [][]float64, err error) {
	rp = make([][]float64, len(g.Perturbers))
	rel = make([][]float64, len(g.Perturbers))
	for i, p := range g.Perturbers {
		if rp[i], err = g.Ephemeris.Position(p, g.Central, e); err != nil {
			return nil, nil, err
		}
		if d := norm(rp[i]); d < SingularityTolerance {
			return nil, nil, &SingularityError{Body: p.Name + "/" + g.Central.Name, Distance: d, Epoch: e}
		}
		rel[i] = sub(rp[i], r)
		if d := norm(rel[i]); d < SingularityTolerance {
			return nil, nil, &SingularityError{Body: p.Name, Distance: d, Epoch: e}
		}
	}
	return rp, rel, nil
}

func (g *PointMassGravity) radius(e Epoch, r []float64) (float64, error) {
	rNorm := norm(r)
	if rNorm < SingularityTolerance || math.IsNaN(rNorm) {
		return 0, &SingularityError{Body: g.Central.Name, Distance: rNorm, Epoch: e}
	}
	return rNorm, nil
}

// Acceleration implements the ForceTerm interface.
func (g *PointMassGravity) Acceleration(e Epoch, state, acc []float64) error {
	r := state[:3]
	rNorm, err := g.radius(e, r)
	if err != nil {
		return err
	}
	bodyAcc := -g.Central.GM() / math.Pow(rNorm, 3)
	for i := 0; i < 3; i++ {
		acc[i] += bodyAcc * r[i]
	}
	if len(g.Perturbers) == 0 {
		return nil
	}
	rp, rel, err := g.perturbers(e, r)
	if err != nil {
		return err
	}
	for k, p := range g.Perturbers {
		relNorm3 := math.Pow(norm(rel[k]), 3)
		rpNorm3 := math.Pow(norm(rp[k]), 3)
		for i := 0; i < 3; i++ {
			acc[i] += p.GM() * (rel[k][i]/relNorm3 - rp[k][i]/rpNorm3)
		}
	}
	return nil
}

// pointMassPartials adds μ·(3 r rᵀ/|r|⁵ - I/|r|³), the partials of -μ r/|r|³, into A.
func pointMassPartials(A *mat.Dense, μ float64, r []float64) {
	r2 := r[0]*r[0] + r[1]*r[1] + r[2]*r[2]
	r232 := math.Pow(r2, 3/2.)
	r252 := math.Pow(r2, 5/2.)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := 3 * μ * r[i] * r[j] / r252
			if i == j {
				v -= μ / r232
			}
			A.Set(i, j, A.At(i, j)+v)
		}
	}
}

// PositionPartials implements the PartialsTerm interface: the 3x3 partials of the acceleration
// with respect to the subject position.
func (g *PointMassGravity) PositionPartials(e Epoch, state []float64) (*mat.Dense, error) {
	r := state[:3]
	if _, err := g.radius(e, r); err != nil {
		return nil, err
	}
	A := mat.NewDense(3, 3, nil)
	pointMassPartials(A, g.Central.GM(), r)
	if len(g.Perturbers) == 0 {
		return A, nil
	}
	_, rel, err := g.perturbers(e, r)
	if err != nil {
		return nil, err
	}
	for k, p := range g.Perturbers {
		// The perturber acceleration is μ rel/|rel|³ with rel = rp - r, which has the same
		// partials with respect to r as the central attraction.
		pointMassPartials(A, p.GM(), rel[k])
	}
	return A, nil
}

// GMPartials returns the 3x(1+len(Perturbers)) partials of the acceleration with respect to the
// gravitational parameter of the central body (first column) and of each perturber.
func (g *PointMassGravity) GMPartials(e Epoch, state []float64) (*mat.Dense, error) {
	r := state[:3]
	rNorm, err := g.radius(e, r)
	if err != nil {
		return nil, err
	}
	P := mat.NewDense(3, 1+len(g.Perturbers), nil)
	for i := 0; i < 3; i++ {
		P.Set(i, 0, -r[i]/math.Pow(rNorm, 3))
	}
	if len(g.Perturbers) == 0 {
		return P, nil
	}
	rp, rel, err := g.perturbers(e, r)
	if err != nil {
		return nil, err
	}
	for k := range g.Perturbers {
		relNorm3 := math.Pow(norm(rel[k]), 3)
		rpNorm3 := math.Pow(norm(rp[k]), 3)
		for i := 0; i < 3; i++ {
			P.Set(i, 1+k, rel[k][i]/relNorm3-rp[k][i]/rpNorm3)
		}
	}
	return P, nil
}

// ForceModel is an immutable ordered set of force terms, with at most one central body.
type ForceModel struct {
	terms      []ForceTerm
	central    CelestialObject
	hasCentral bool
}

// NewForceModel returns a force model from the provided terms. It fails if the gravity terms
// do not agree on a single central body.
func NewForceModel(terms ...ForceTerm) (*ForceModel, error) {
	fm := &ForceModel{terms: make([]ForceTerm, len(terms))}
	for i, term := range terms {
		if term == nil {
			return nil, configErrorf("force term #%d is nil", i)
		}
		if v, ok := term.(interface{ validate() error }); ok {
			if err := v.validate(); err != nil {
				return nil, err
			}
		}
		fm.terms[i] = term
		gt, ok := term.(GravityTerm)
		if !ok {
			continue
		}
		body := gt.CentralBody()
		if !fm.hasCentral {
			fm.central, fm.hasCentral = body, true
		} else if !fm.central.Equals(body) {
			return nil, configErrorf("multiple central bodies in force model: %s and %s", fm.central.Name, body.Name)
		}
	}
	return fm, nil
}

// Terms returns a copy of the force terms.
func (fm *ForceModel) Terms() []ForceTerm {
	return append([]ForceTerm(nil), fm.terms...)
}

// CentralBody returns the central body of this model, and false if there is none.
func (fm *ForceModel) CentralBody() (CelestialObject, bool) {
	return fm.central, fm.hasCentral
}

// DynamicalScale returns the time scale of the dynamics of this model: TT about the Earth,
// TDB otherwise (including when there is no central body).
func (fm *ForceModel) DynamicalScale() TimeScale {
	if !fm.hasCentral {
		return TDB
	}
	return fm.central.DynamicalScale()
}

// Acceleration returns the sum of the accelerations of all the terms.
func (fm *ForceModel) Acceleration(e Epoch, state []float64) ([]float64, error) {
	acc := make([]float64, 3)
	for _, term := range fm.terms {
		if err := term.Acceleration(e, state, acc); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Derivative writes [v; a] for the 6 element state into dy.
func (fm *ForceModel) Derivative(e Epoch, state, dy []float64) error {
	dy[0], dy[1], dy[2] = state[3], state[4], state[5]
	dy[3], dy[4], dy[5] = 0, 0, 0
	for _, term := range fm.terms {
		if err := term.Acceleration(e, state, dy[3:6]); err != nil {
			return err
		}
	}
	return nil
}

// Jacobian returns the 6x6 partials of the derivative with respect to the state. Every term must
// implement PartialsTerm.
func (fm *ForceModel) Jacobian(e Epoch, state []float64) (*mat.Dense, error) {
	A := mat.NewDense(6, 6, nil)
	// Top right is Identity 3x3
	A.Set(0, 3, 1)
	A.Set(1, 4, 1)
	A.Set(2, 5, 1)
	// Bottom left is where the magix is.
	bl := A.Slice(3, 6, 0, 3).(*mat.Dense)
	for i, term := range fm.terms {
		pt, ok := term.(PartialsTerm)
		if !ok {
			return nil, configErrorf("force term #%d (%T) has no analytic partials", i, term)
		}
		P, err := pt.PositionPartials(e, state)
		if err != nil {
			return nil, err
		}
		bl.Add(bl, P)
	}
	return A, nil
}
