package epicycle

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// SecondsPerDay is the number of SI seconds in a day.
	SecondsPerDay = 86400.0
	// J2000 is the Julian date of the J2000 reference epoch.
	J2000 = 2451545.0
	ttMinusTAI = 32.184
)

var j2000Time = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// TimeScale is a time coordinate.
type TimeScale uint8

const (
	// UTC is the civil time scale, with leap seconds.
	UTC TimeScale = iota + 1
	// TAI is the international atomic time.
	TAI
	// TT is terrestrial time, used for Earth centered dynamics.
	TT
	// TDB is barycentric dynamical time, used for every other center.
	TDB
)

func (s TimeScale) String() string {
	switch s {
	case UTC:
		return "UTC"
	case TAI:
		return "TAI"
	case TT:
		return "TT"
	case TDB:
		return "TDB"
	default:
		return fmt.Sprintf("TimeScale(%d)", uint8(s))
	}
}

// TimeScaleFromString returns the time scale from its name.
func TimeScaleFromString(name string) (TimeScale, error) {
	switch strings.ToUpper(name) {
	case "UTC":
		return UTC, nil
	case "TAI":
		return TAI, nil
	case "TT":
		return TT, nil
	case "TDB":
		return TDB, nil
	default:
		return 0, fmt.Errorf("unknown time scale '%s'", name)
	}
}

// leapSecond is the TAI-UTC offset valid from a UTC instant.
type leapSecond struct {
	from   float64 // UTC seconds past J2000
	offset float64
}

var leapSeconds = func() []leapSecond {
	dates := []struct{ y, m int }{
		{1972, 1}, {1972, 7}, {1973, 1}, {1974, 1}, {1975, 1}, {1976, 1}, {1977, 1}, {1978, 1},
		{1979, 1}, {1980, 1}, {1981, 7}, {1982, 7}, {1983, 7}, {1985, 7}, {1988, 1}, {1990, 1},
		{1991, 1}, {1992, 7}, {1993, 7}, {1994, 7}, {1996, 1}, {1997, 7}, {1999, 1}, {2006, 1},
		{2009, 1}, {2012, 7}, {2015, 7}, {2017, 1},
	}
	table := make([]leapSecond, len(dates))
	for i, d := range dates {
		jd := julian.CalendarGregorianToJD(d.y, d.m, 1)
		table[i] = leapSecond{(jd - J2000) * SecondsPerDay, float64(10 + i)}
	}
	return table
}()

// taiMinusUTC returns the leap second offset in effect at the provided UTC instant.
func taiMinusUTC(utc float64) float64 {
	i := sort.Search(len(leapSeconds), func(i int) bool { return leapSeconds[i].from > utc })
	if i == 0 {
		return leapSeconds[0].offset
	}
	return leapSeconds[i-1].offset
}

// tdbMinusTT is the usual two term periodic approximation, in seconds.
func tdbMinusTT(tt float64) float64 {
	g := (357.53 + 0.98560028*tt/SecondsPerDay) * math.Pi / 180
	return 0.001657*math.Sin(g) + 0.000014*math.Sin(2*g)
}

func toTAI(sec float64, s TimeScale) float64 {
	switch s {
	case UTC:
		return sec + taiMinusUTC(sec)
	case TT:
		return sec - ttMinusTAI
	case TDB:
		return sec - tdbMinusTT(sec) - ttMinusTAI
	default:
		return sec
	}
}

func fromTAI(tai float64, s TimeScale) float64 {
	switch s {
	case UTC:
		return tai - taiMinusUTC(tai-taiMinusUTC(tai))
	case TT:
		return tai + ttMinusTAI
	case TDB:
		tt := tai + ttMinusTAI
		return tt + tdbMinusTT(tt)
	default:
		return tai
	}
}

// Epoch is an instant expressed in a time scale, stored as seconds past J2000.
type Epoch struct {
	sec   float64
	scale TimeScale
}

// NewEpoch returns the epoch whose calendar reading in the provided scale is t.
func NewEpoch(t time.Time, scale TimeScale) Epoch {
	return Epoch{t.UTC().Sub(j2000Time).Seconds(), scale}
}

// EpochFromJD returns the epoch of a Julian date in the provided scale.
func EpochFromJD(jd float64, scale TimeScale) Epoch {
	return Epoch{(jd - J2000) * SecondsPerDay, scale}
}

// EpochFromCalendar returns the epoch of a Gregorian calendar date (fractional day) in the provided scale.
func EpochFromCalendar(year, month int, day float64, scale TimeScale) Epoch {
	return EpochFromJD(julian.CalendarGregorianToJD(year, month, day), scale)
}

// Scale returns the time scale of this epoch.
func (e Epoch) Scale() TimeScale {
	return e.scale
}

// Seconds returns the number of seconds past J2000 in the epoch's own scale.
func (e Epoch) Seconds() float64 {
	return e.sec
}

// In returns the same instant expressed in another scale.
func (e Epoch) In(s TimeScale) Epoch {
	if s == e.scale {
		return e
	}
	return Epoch{fromTAI(toTAI(e.sec, e.scale), s), s}
}

// Add returns the epoch after the provided number of seconds of the epoch's scale.
func (e Epoch) Add(seconds float64) Epoch {
	return Epoch{e.sec + seconds, e.scale}
}

// AddDays returns the epoch after the provided number of days.
func (e Epoch) AddDays(days float64) Epoch {
	return e.Add(days * SecondsPerDay)
}

// Sub returns e-o in seconds of e's scale.
func (e Epoch) Sub(o Epoch) float64 {
	return e.sec - o.In(e.scale).sec
}

// JD returns the Julian date in the epoch's scale.
func (e Epoch) JD() float64 {
	return J2000 + e.sec/SecondsPerDay
}

// Time returns the calendar reading of this epoch in its scale, as a UTC labelled time.Time.
func (e Epoch) Time() time.Time {
	whole := math.Floor(e.sec)
	return j2000Time.Add(time.Duration(whole) * time.Second).Add(time.Duration((e.sec - whole) * 1e9))
}

func (e Epoch) String() string {
	return e.Time().Format("2006-01-02T15:04:05.000") + " " + e.scale.String()
}
