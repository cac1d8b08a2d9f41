package epicycle

// Kinematics is a read only view of a subject's motion.
type Kinematics interface {
	State() []float64 // position (km) and velocity (km/s)
	Epoch() Epoch
}

// Subject is a body whose motion is propagated. The propagation only reads and writes its
// state, epoch and history through this interface, and only once the solver has succeeded.
type Subject interface {
	Kinematics
	Name() string
	SetState(s []float64) error
	SetEpoch(e Epoch)
	AppendSegment(seg Segment)
}

// snapshot is a detached Kinematics used while integrating.
type snapshot struct {
	state []float64
	epoch Epoch
}

func (s *snapshot) State() []float64 {
	return s.state
}

func (s *snapshot) Epoch() Epoch {
	return s.epoch
}

// NewKinematics returns a read only Kinematics, e.g. to evaluate a quantity on an arbitrary state.
func NewKinematics(state []float64, e Epoch) Kinematics {
	return &snapshot{append([]float64(nil), state...), e}
}
