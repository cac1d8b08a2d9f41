package epicycle

import (
	"fmt"

	kitlog "github.com/go-kit/kit/log"
	"gonum.org/v1/gonum/floats"
)

// Spacecraft is a propagated subject.
type Spacecraft struct {
	name    string
	state   []float64
	epoch   Epoch
	History History
	logger  kitlog.Logger
}

// NewSpacecraft returns a spacecraft at the provided state and epoch. It does not log anything
// until SetLogger is called.
func NewSpacecraft(name string, state []float64, e Epoch) (*Spacecraft, error) {
	sc := &Spacecraft{name: name, epoch: e}
	if err := sc.SetState(state); err != nil {
		return nil, err
	}
	sc.SetLogger(kitlog.NewNopLogger())
	return sc, nil
}

// NewSpacecraftFromOrbit returns a spacecraft on the provided orbit.
func NewSpacecraftFromOrbit(name string, o Orbit, e Epoch) (*Spacecraft, error) {
	return NewSpacecraft(name, o.State(), e)
}

// SetLogger sets the logger of this spacecraft.
func (sc *Spacecraft) SetLogger(l kitlog.Logger) {
	sc.logger = kitlog.With(l, "spacecraft", sc.name)
}

// Name implements the Subject interface.
func (sc *Spacecraft) Name() string {
	return sc.name
}

// State implements the Kinematics interface.
func (sc *Spacecraft) State() []float64 {
	return append([]float64(nil), sc.state...)
}

// Epoch implements the Kinematics interface.
func (sc *Spacecraft) Epoch() Epoch {
	return sc.epoch
}

// SetState implements the Subject interface.
func (sc *Spacecraft) SetState(s []float64) error {
	if len(s) != 6 {
		return fmt.Errorf("spacecraft %s: state must have 6 components, got %d", sc.name, len(s))
	}
	if floats.HasNaN(s) {
		return fmt.Errorf("spacecraft %s: state has NaN components", sc.name)
	}
	sc.state = append(sc.state[:0], s...)
	return nil
}

// SetEpoch implements the Subject interface.
func (sc *Spacecraft) SetEpoch(e Epoch) {
	sc.epoch = e
}

// AppendSegment implements the Subject interface.
func (sc *Spacecraft) AppendSegment(seg Segment) {
	sc.History.Append(seg)
	sc.logger.Log("level", "info", "subsys", "history", "segment", seg.ID, "samples", len(seg.Samples), "from", seg.Start(), "to", seg.End())
}

// Orbit returns the orbit of this spacecraft about the provided body.
func (sc *Spacecraft) Orbit(c CelestialObject) Orbit {
	return *NewOrbitFromState(sc.state, c)
}

// LogInfo logs the current state of this spacecraft.
func (sc *Spacecraft) LogInfo() {
	sc.logger.Log("level", "info", "subsys", "astro", "epoch", sc.epoch, "r(km)", norm(sc.state[:3]), "v(km/s)", norm(sc.state[3:]))
}

func (sc *Spacecraft) String() string {
	return fmt.Sprintf("%s @ %s: %v", sc.name, sc.epoch, sc.state)
}
