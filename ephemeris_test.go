package epicycle

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestMeeusEphemeris(t *testing.T) {
	var eph MeeusEphemeris
	// Meeus, example 47.a: 1992 April 12.0 TD, Δ = 368409.7 km.
	e := EpochFromCalendar(1992, 4, 12, TT)
	moon, err := eph.Position(Moon, Earth, e)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(norm(moon), 368409.7, 1) {
		t.Fatalf("Earth-Moon distance %f km", norm(moon))
	}
	// Meeus, example 25.a: 1992 October 13.0 TD, R = 0.99766 AU.
	e = EpochFromCalendar(1992, 10, 13, TT)
	sun, err := eph.Position(Sun, Earth, e)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(norm(sun)/AU, 0.99766, 5e-5) {
		t.Fatalf("Earth-Sun distance %f AU", norm(sun)/AU)
	}
	// In October the Sun is below the equator.
	if sun[2] >= 0 {
		t.Fatalf("sun declination should be negative: %+v", sun)
	}
	earth, err := eph.Position(Earth, Sun, e)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if earth[i] != -sun[i] {
			t.Fatalf("Earth/Sun is not the opposite of Sun/Earth: %+v %+v", earth, sun)
		}
	}
	sunMoon, err := eph.Position(Moon, Sun, e)
	if err != nil {
		t.Fatal(err)
	}
	if d := math.Abs(norm(sunMoon) - norm(sun)); d > 410000 {
		t.Fatalf("Sun-Moon and Sun-Earth distances differ by %f km", d)
	}
	if _, err := eph.Position(Mars, Earth, e); err == nil {
		t.Fatal("Mars is not supported by the Meeus ephemeris")
	}
}

func TestFixedEphemeris(t *testing.T) {
	p, err := moonAt.Position(Earth, Moon, testEpoch)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(p, []float64{-384400, 0, 0}) {
		t.Fatalf("position %+v", p)
	}
	if p, err = moonAt.Position(Mars, Mars, testEpoch); err != nil || norm(p) != 0 {
		t.Fatalf("a body is at the origin of itself: %v %+v", err, p)
	}
	if _, err = moonAt.Position(Mars, Earth, testEpoch); err == nil {
		t.Fatal("Mars is not in the table")
	}
}
