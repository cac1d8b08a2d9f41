package epicycle

import (
	"testing"
)

func TestCelestialObject(t *testing.T) {
	for _, object := range []CelestialObject{Sun, Mercury, Venus, Earth, Moon, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto} {
		var i uint8
		for i = 1; i < 6; i++ {
			if i == 2 && object.J(i) != object.J2 {
				t.Fatalf("J2 not returned for %s", object)
			} else if i == 3 && object.J(i) != object.J3 {
				t.Fatalf("J3 not returned for %s", object)
			} else if (i < 2 || i > 3) && object.J(i) != 0 {
				t.Fatalf("J(%d) = %f != 0 for %s", i, object.J(i), object)
			}
		}
		if object.GM() <= 0 {
			t.Fatalf("%s has no GM", object)
		}
		from, err := CelestialObjectFromString(object.Name)
		if err != nil {
			t.Fatal(err)
		}
		if !from.Equals(object) {
			t.Fatalf("%s != %s", from, object)
		}
		exp := TDB
		if object.Name == "Earth" {
			exp = TT
		}
		if object.DynamicalScale() != exp {
			t.Fatalf("%s dynamics in %s", object, object.DynamicalScale())
		}
	}
	if _, err := CelestialObjectFromString("Vesta"); err == nil {
		t.Fatal("Vesta is not defined")
	}
	if !(CelestialObject{}).IsZero() || Earth.IsZero() {
		t.Fatal("IsZero failed")
	}
}
