package epicycle

import (
	"github.com/GenAstro/Epicycle-sub001/integrator"
)

// buildEvents turns each state based stop into a terminating event on the combined state.
// Crossings are defined in physical time, so the hooks are swapped when retreating.
func buildEvents(stops []*Stop, reg *registry, dir Direction) ([]integrator.Event, error) {
	events := make([]integrator.Event, len(stops))
	for k, st := range stops {
		if st.kind != StateStop {
			return nil, configErrorf("%s is not a state based stop", st)
		}
		i, ok := reg.lookup(st.subject)
		if !ok {
			return nil, configErrorf("%s monitors a subject which is not propagated", st)
		}
		st := st
		ev := integrator.Event{
			Name: st.String(),
			G: func(t float64, y []float64) (float64, error) {
				return st.residual(reg.kinematics(i, t, y))
			},
		}
		increasing, decreasing := &ev.Rising, &ev.Falling
		if dir == Retreating {
			increasing, decreasing = decreasing, increasing
		}
		switch st.crossing {
		case Increasing:
			*increasing = integrator.Terminate
		case Decreasing:
			*decreasing = integrator.Terminate
		default:
			*increasing = integrator.Terminate
			*decreasing = integrator.Terminate
		}
		events[k] = ev
	}
	return events, nil
}
