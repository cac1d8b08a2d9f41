package integrator

import (
	"fmt"
	"math"
	"sort"
)

const maxLocateIterations = 200

// stepper integrates exactly over h from (t, y), without error control.
type stepper func(t float64, y []float64, h float64) ([]float64, error)

type hit struct {
	index  int
	t      float64
	y      []float64
	action Action
}

// eventTracker watches the sign of every event function between accepted steps.
type eventTracker struct {
	events []Event
	cfg    Config
	g      []float64 // values at the start of the current step
	atZero []bool    // zero at the initial time, direction still unknown
}

func newEventTracker(events []Event, t0 float64, y0 []float64, cfg Config) (*eventTracker, error) {
	tr := &eventTracker{events: events, cfg: cfg, g: make([]float64, len(events)), atZero: make([]bool, len(events))}
	for i, ev := range events {
		if ev.G == nil {
			return nil, fmt.Errorf("event #%d (%s) has no switching function", i, ev.Name)
		}
		g, err := ev.G(t0, y0)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return nil, fmt.Errorf("event %s at t=%g: %w", ev.Name, t0, ErrNonFinite)
		}
		tr.g[i] = g
		tr.atZero[i] = math.Abs(g) <= cfg.ZeroTolerance
	}
	return tr, nil
}

// check looks for crossings over the accepted step (t, y) -> (tNew, yNew) and
// returns the earliest crossing whose action asks for termination.
func (tr *eventTracker) check(step stepper, t float64, y []float64, tNew float64, yNew []float64) (*hit, error) {
	if len(tr.events) == 0 {
		return nil, nil
	}
	gNew := make([]float64, len(tr.events))
	var hits []hit
	for i, ev := range tr.events {
		gn, err := ev.G(tNew, yNew)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(gn) || math.IsInf(gn, 0) {
			return nil, fmt.Errorf("event %s at t=%g: %w", ev.Name, tNew, ErrNonFinite)
		}
		gNew[i] = gn
		gp := tr.g[i]

		if tr.atZero[i] {
			// The function started on its root: the crossing happens at the start,
			// in the direction the function then moves.
			tr.atZero[i] = false
			var action Action
			switch {
			case gn > 0:
				action = ev.Rising
			case gn < 0:
				action = ev.Falling
			default:
				action = ev.Rising
				if action == nil {
					action = ev.Falling
				}
			}
			if action != nil {
				hits = append(hits, hit{i, t, clone(y), action})
			}
			continue
		}

		var action Action
		switch {
		case gp < 0 && gn >= 0:
			action = ev.Rising
		case gp > 0 && gn <= 0:
			action = ev.Falling
		}
		if action == nil {
			continue
		}
		if gn == 0 {
			hits = append(hits, hit{i, tNew, clone(yNew), action})
			continue
		}
		tr0, yr, err := tr.locate(step, ev, t, y, gp, tNew, yNew, gn)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit{i, tr0, yr, action})
	}
	tr.g = gNew

	sort.SliceStable(hits, func(a, b int) bool {
		return math.Abs(hits[a].t-t) < math.Abs(hits[b].t-t)
	})
	for _, h := range hits {
		if h.action(h.t, h.y) {
			h := h
			return &h, nil
		}
	}
	return nil, nil
}

// locate finds the root of the event function within the step with the
// Illinois variant of the false position method. Every trial point is an
// exact sub-step from the start of the step.
func (tr *eventTracker) locate(step stepper, ev Event, ta float64, ya []float64, ga, tb float64, yb []float64, gb float64) (float64, []float64, error) {
	a, fa := ta, ga
	b, fb := tb, gb
	best, bestG, bestY := tb, gb, yb
	for i := 0; i < maxLocateIterations; i++ {
		if math.Abs(b-a) <= tr.cfg.EventTolerance {
			break
		}
		c := (a*fb - b*fa) / (fb - fa)
		lo, hi := math.Min(a, b), math.Max(a, b)
		if math.IsNaN(c) || c <= lo || c >= hi {
			c = 0.5 * (a + b)
		}
		yc, err := step(ta, ya, c-ta)
		if err != nil {
			return 0, nil, err
		}
		fc, err := ev.G(c, yc)
		if err != nil {
			return 0, nil, err
		}
		if math.Abs(fc) < math.Abs(bestG) {
			best, bestG, bestY = c, fc, yc
		}
		if math.Abs(fc) <= tr.cfg.ZeroTolerance {
			break
		}
		if fc*fb < 0 {
			a, fa = b, fb
		} else {
			fa /= 2
		}
		b, fb = c, fc
	}
	return best, bestY, nil
}
