package epicycle

import (
	"fmt"
	"strings"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8
)

// CelestialObject defines a celestial object.
type CelestialObject struct {
	Name   string
	Radius float64 // equatorial radius in km
	a      float64 // heliocentric semi major axis in km
	μ      float64 // gravitational parameter in km^3/s^2
	J2     float64
	J3     float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// SMA returns the heliocentric semi major axis, or zero for the Sun and moons.
func (c CelestialObject) SMA() float64 {
	return c.a
}

// J returns the perturbing J_n factor for the provided n.
// Currently only J2 and J3 are supported.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	default:
		return 0.0
	}
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.μ == b.μ
}

// IsZero returns whether this object is the zero value, i.e. no body at all.
func (c CelestialObject) IsZero() bool {
	return c.Name == "" && c.μ == 0
}

// DynamicalScale returns the time scale in which dynamics about this body are integrated:
// TT about the Earth, TDB about any other center.
func (c CelestialObject) DynamicalScale() TimeScale {
	if c.Equals(Earth) {
		return TT
	}
	return TDB
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "sun":
		return Sun, nil
	case "mercury":
		return Mercury, nil
	case "venus":
		return Venus, nil
	case "earth":
		return Earth, nil
	case "moon", "luna":
		return Moon, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	case "saturn":
		return Saturn, nil
	case "uranus":
		return Uranus, nil
	case "neptune":
		return Neptune, nil
	case "pluto":
		return Pluto, nil
	default:
		return CelestialObject{}, fmt.Errorf("undefined celestial object '%s'", name)
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700, 0, 1.32712440017987e11, 0, 0}

// Mercury is hot.
var Mercury = CelestialObject{"Mercury", 2439.7, 57909050, 2.2031780e4, 50.3e-6, 0}

// Venus is poisonous.
var Venus = CelestialObject{"Venus", 6051.8, 108208601, 3.24858599e5, 0.000027, 0}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378.1363, 149598023, 3.98600433e5, 1082.6269e-6, -2.5324e-6}

// Moon is Earth's.
var Moon = CelestialObject{"Moon", 1737.4, 0, 4.902800066e3, 2.03e-4, 8.48e-6}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3396.19, 227939282.5616, 4.28283100e4, 1964e-6, 36e-6}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 71492.0, 778298361, 1.266865361e8, 0.01475, 0}

// Saturn floats and that's really cool.
var Saturn = CelestialObject{"Saturn", 60268.0, 1429394133, 3.7931208e7, 0.01645, 0}

// Uranus is no joke.
var Uranus = CelestialObject{"Uranus", 25559.0, 2875038615, 5.7939513e6, 0.012, 0}

// Neptune is windy.
var Neptune = CelestialObject{"Neptune", 24764.0, 4504449769, 6.836529e6, 0.003411, 0}

// Pluto is not a planet and had that down ranking coming. It should have stayed in its lane.
var Pluto = CelestialObject{"Pluto", 1188.3, 5915799000, 8.696e2, 0, 0}
