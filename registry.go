package epicycle

import (
	"github.com/GenAstro/Epicycle-sub001/integrator"
)

// registry assigns each subject the range [6i, 6i+6) of the combined state. It is built
// for a single propagation and never shared.
type registry struct {
	subjects []Subject
	anchors  []Epoch // epoch of each subject at t = 0, in the dynamical scale
	index    map[Subject]int
}

func newRegistry(subjects []Subject, scale TimeScale) (*registry, error) {
	if len(subjects) == 0 {
		return nil, configErrorf("at least one subject is required")
	}
	r := &registry{subjects: make([]Subject, len(subjects)), anchors: make([]Epoch, len(subjects)), index: make(map[Subject]int, len(subjects))}
	for i, s := range subjects {
		if s == nil {
			return nil, configErrorf("subject #%d is nil", i)
		}
		if j, dup := r.index[s]; dup {
			return nil, configErrorf("subject %s is listed twice (#%d and #%d)", s.Name(), j, i)
		}
		if n := len(s.State()); n != 6 {
			return nil, configErrorf("subject %s has a state of %d components instead of 6", s.Name(), n)
		}
		r.subjects[i] = s
		r.anchors[i] = s.Epoch().In(scale)
		r.index[s] = i
	}
	return r, nil
}

// bounds returns the range of the subject in the combined state.
func (r *registry) bounds(i int) (lo, hi int) {
	return 6 * i, 6*i + 6
}

// lookup returns the position of the subject in the registry.
func (r *registry) lookup(s Subject) (int, bool) {
	i, ok := r.index[s]
	return i, ok
}

// size is the length of the combined state.
func (r *registry) size() int {
	return 6 * len(r.subjects)
}

// pack returns the combined state of all subjects.
func (r *registry) pack() []float64 {
	y := make([]float64, 0, r.size())
	for _, s := range r.subjects {
		y = append(y, s.State()...)
	}
	return y
}

// slice returns the state of subject i within the combined state y.
func (r *registry) slice(y []float64, i int) []float64 {
	lo, hi := r.bounds(i)
	return y[lo:hi:hi]
}

// epoch returns the epoch of subject i at elapsed time t, in the dynamical scale.
func (r *registry) epoch(i int, t float64) Epoch {
	return r.anchors[i].Add(t)
}

// kinematics returns a detached view of subject i at elapsed time t of the combined state y.
func (r *registry) kinematics(i int, t float64, y []float64) Kinematics {
	return &snapshot{r.slice(y, i), r.epoch(i, t)}
}

// dynamics returns the right hand side of the combined problem: every subject is subject to the
// force model independently of the others.
func (r *registry) dynamics(fm *ForceModel) integrator.Func {
	return func(t float64, y, dy []float64) error {
		for i := range r.subjects {
			lo, hi := r.bounds(i)
			if err := fm.Derivative(r.epoch(i, t), y[lo:hi], dy[lo:hi]); err != nil {
				return err
			}
		}
		return nil
	}
}
