package epicycle

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
	"gonum.org/v1/gonum/floats"
)

// Ephemeris returns the position in km of a target body relative to a center, in the mean equator of date.
type Ephemeris interface {
	Position(target, center CelestialObject, e Epoch) ([]float64, error)
}

// MeeusEphemeris is the low precision analytic theory of the Sun and the Moon from Meeus'
// Astronomical Algorithms. It only knows the Earth, the Moon and the Sun.
type MeeusEphemeris struct{}

// geocentric returns the equatorial geocentric position of the body.
func (MeeusEphemeris) geocentric(body CelestialObject, jde float64) ([]float64, error) {
	var ecl []float64
	switch {
	case body.Equals(Earth):
		return []float64{0, 0, 0}, nil
	case body.Equals(Sun):
		T := base.J2000Century(jde)
		s, _ := solar.True(T)
		r := solar.Radius(T) * AU
		sS, cS := math.Sincos(s.Rad())
		ecl = []float64{r * cS, r * sS, 0}
	case body.Equals(Moon):
		λ, β, Δ := moonposition.Position(jde)
		sλ, cλ := math.Sincos(λ.Rad())
		sβ, cβ := math.Sincos(β.Rad())
		ecl = []float64{Δ * cβ * cλ, Δ * cβ * sλ, Δ * sβ}
	default:
		return nil, fmt.Errorf("meeus ephemeris: %s not supported", body.Name)
	}
	return Ecliptic2Equatorial(nutation.MeanObliquity(jde).Rad(), ecl), nil
}

// Position implements the Ephemeris interface.
func (m MeeusEphemeris) Position(target, center CelestialObject, e Epoch) ([]float64, error) {
	jde := e.In(TT).JD()
	t, err := m.geocentric(target, jde)
	if err != nil {
		return nil, err
	}
	c, err := m.geocentric(center, jde)
	if err != nil {
		return nil, err
	}
	return sub(t, c), nil
}

// FixedEphemeris places bodies at constant positions (km) relative to a common origin.
type FixedEphemeris map[string][]float64

// Position implements the Ephemeris interface.
func (f FixedEphemeris) Position(target, center CelestialObject, e Epoch) ([]float64, error) {
	if target.Equals(center) {
		return []float64{0, 0, 0}, nil
	}
	t, ok := f[target.Name]
	if !ok {
		return nil, fmt.Errorf("fixed ephemeris: no position for %s", target.Name)
	}
	c, ok := f[center.Name]
	if !ok {
		return nil, fmt.Errorf("fixed ephemeris: no position for %s", center.Name)
	}
	return floats.SubTo(make([]float64, 3), t, c), nil
}
