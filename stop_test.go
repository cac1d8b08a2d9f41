package epicycle

import (
	"errors"
	"strings"
	"testing"
)

func newTestSpacecraft(t *testing.T, name string, state []float64) *Spacecraft {
	sc, err := NewSpacecraft(name, state, testEpoch)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func isConfigError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

func TestZeroDurationStop(t *testing.T) {
	sc := newTestSpacecraft(t, "zero", []float64{7000, 0, 0, 0, 7.5, 0})
	if _, err := NewSecondsStop(sc, 0); !isConfigError(err) {
		t.Fatalf("zero seconds: %v", err)
	}
	if _, err := NewDaysStop(sc, 0); !isConfigError(err) {
		t.Fatalf("zero days: %v", err)
	}
	if _, err := NewEpochStop(sc, testEpoch); !isConfigError(err) {
		t.Fatalf("current epoch: %v", err)
	}
	// The same instant in another scale is still the current epoch.
	if _, err := NewEpochStop(sc, testEpoch.In(UTC)); !isConfigError(err) {
		t.Fatalf("current epoch in UTC: %v", err)
	}
}

func TestTimeStopCrossing(t *testing.T) {
	sc := newTestSpacecraft(t, "crossing", []float64{7000, 0, 0, 0, 7.5, 0})
	for _, c := range []Crossing{Increasing, Decreasing} {
		if _, err := NewTimeStop(sc, Seconds(60), c); !isConfigError(err) {
			t.Fatalf("%s accepted on a time stop: %v", c, err)
		}
	}
	st, err := NewTimeStop(sc, Days(-1), Either)
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind() != TimeStop || st.Crossing() != Either || st.Quantity() != nil {
		t.Fatalf("invalid time stop %s", st)
	}
	if st.elapsed(TT) != -SecondsPerDay {
		t.Fatalf("elapsed %f", st.elapsed(TT))
	}
	if _, err := st.Residual(); err == nil {
		t.Fatal("time stops have no residual")
	}
	if st.String() != "crossing after -1 days" {
		t.Fatalf("string: %s", st)
	}
}

func TestStateStop(t *testing.T) {
	sc := newTestSpacecraft(t, "state", []float64{7000, 0, 0, 0, 7.5, 0})
	st, err := NewStop(sc, PosMag, 7100)
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind() != StateStop || st.Crossing() != Either || st.Subject() != Subject(sc) || st.Target() != 7100 {
		t.Fatalf("invalid state stop %s", st)
	}
	res, err := st.Residual()
	if err != nil || res != -100 {
		t.Fatalf("residual %f %v", res, err)
	}
	if ok, _ := st.Satisfied(99); ok {
		t.Fatal("100 km away is not within 99 km")
	}
	if ok, _ := st.Satisfied(100); !ok {
		t.Fatal("100 km away is within 100 km")
	}
	if st.String() != "PosMag of state crosses 7100 (either)" {
		t.Fatalf("string: %s", st)
	}
	if _, err := NewStop(sc, nil, 1); !isConfigError(err) {
		t.Fatalf("nil quantity: %v", err)
	}
	if _, err := NewStop(nil, PosMag, 1); !isConfigError(err) {
		t.Fatalf("nil subject: %v", err)
	}
	if _, err := NewCrossingStop(sc, PosMag, 1, Crossing(3)); !isConfigError(err) {
		t.Fatalf("invalid crossing: %v", err)
	}
	if _, err := NewStop(sc, SMA(CelestialObject{Name: "Nowhere"}), 1); !isConfigError(err) {
		t.Fatalf("quantity without a body: %v", err)
	}
}

func TestTwoTimeStops(t *testing.T) {
	sc := newTestSpacecraft(t, "two", []float64{7000, 0, 0, 0, 7.5, 0})
	seconds, _ := NewSecondsStop(sc, 60)
	days, _ := NewDaysStop(sc, 1)
	epoch, _ := NewEpochStop(sc, testEpoch.AddDays(2))
	state, _ := NewStop(sc, PosMag, 8000)
	for _, stops := range [][]*Stop{{seconds, days}, {seconds, epoch}, {epoch, days}, {state, days, epoch}} {
		if _, err := resolveDirection(stops, Infer, TT); !isConfigError(err) {
			t.Fatalf("two time stops accepted: %v", err)
		}
	}
}

func TestResolveDirection(t *testing.T) {
	sc := newTestSpacecraft(t, "dir", []float64{7000, 0, 0, 0, 7.5, 0})
	forward, _ := NewSecondsStop(sc, 3600)
	backward, _ := NewDaysStop(sc, -0.5)
	past, _ := NewEpochStop(sc, testEpoch.In(UTC).AddDays(-3))
	state, _ := NewStop(sc, PosMag, 8000)
	for _, tc := range []struct {
		stops     []*Stop
		requested Direction
		exp       Direction
		elapsed   float64
	}{
		{[]*Stop{forward}, Infer, Advancing, 3600},
		{[]*Stop{forward}, Advancing, Advancing, 3600},
		{[]*Stop{backward}, Infer, Retreating, -0.5 * SecondsPerDay},
		{[]*Stop{backward, state}, Retreating, Retreating, -0.5 * SecondsPerDay},
		{[]*Stop{past}, Infer, Retreating, -3 * SecondsPerDay},
		{[]*Stop{state}, Infer, Advancing, 0},
		{[]*Stop{state}, Retreating, Retreating, 0},
	} {
		res, err := resolveDirection(tc.stops, tc.requested, TT)
		if err != nil {
			t.Fatal(err)
		}
		if res.direction != tc.exp {
			t.Fatalf("%v: resolved %s instead of %s", tc.stops, res.direction, tc.exp)
		}
		if diff := res.elapsed - tc.elapsed; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("%v: elapsed %f instead of %f", tc.stops, res.elapsed, tc.elapsed)
		}
	}
}

func TestDirectionContradiction(t *testing.T) {
	sc := newTestSpacecraft(t, "contra", []float64{7000, 0, 0, 0, 7.5, 0})
	forward, _ := NewSecondsStop(sc, 3600)
	backward, _ := NewEpochStop(sc, testEpoch.AddDays(-1))
	for _, tc := range []struct {
		stop      *Stop
		requested Direction
	}{{forward, Retreating}, {backward, Advancing}} {
		_, err := resolveDirection([]*Stop{tc.stop}, tc.requested, TT)
		if !isConfigError(err) {
			t.Fatalf("contradiction accepted: %v", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "advancing") || !strings.Contains(msg, "retreating") || !strings.Contains(msg, "duration is") {
			t.Fatalf("message does not name both directions: %s", msg)
		}
	}
}

func TestDirectionFromString(t *testing.T) {
	for _, d := range []Direction{Advancing, Retreating, Infer} {
		got, err := DirectionFromString(d.String())
		if err != nil || got != d {
			t.Fatalf("%s: %v %s", d, err, got)
		}
	}
	for _, c := range []Crossing{Either, Increasing, Decreasing} {
		got, err := CrossingFromString(c.String())
		if err != nil || got != c {
			t.Fatalf("%s: %v %s", c, err, got)
		}
	}
	if c, err := CrossingFromString(""); err != nil || c != Either {
		t.Fatalf("empty crossing: %v %s", err, c)
	}
	if _, err := CrossingFromString("increasnig"); !isConfigError(err) {
		t.Fatalf("misspelled crossing accepted: %v", err)
	}
	if _, err := DirectionFromString("sideways"); !isConfigError(err) {
		t.Fatalf("sideways accepted: %v", err)
	}
	if _, err := resolveDirection(nil, Advancing, TT); !isConfigError(err) {
		t.Fatalf("no stops accepted: %v", err)
	}
	if _, err := resolveDirection([]*Stop{nil}, Advancing, TT); !isConfigError(err) {
		t.Fatalf("nil stop accepted: %v", err)
	}
}
