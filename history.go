package epicycle

import (
	"github.com/google/uuid"
)

// Sample is a state at an epoch.
type Sample struct {
	Epoch Epoch
	State []float64
}

// SegmentMeta describes how a segment was propagated.
type SegmentMeta struct {
	Central    string    // central body name, empty if none
	Scale      TimeScale // dynamical time scale of the integration
	Direction  Direction // resolved direction, never Infer
	Stops      []string
	Terminated bool // whether a state based stop triggered
}

// Segment is the trajectory of one propagation call, samples ordered in integration order.
type Segment struct {
	ID      uuid.UUID
	Samples []Sample
	Meta    SegmentMeta
}

// NewSegment returns a new segment with a fresh identifier.
func NewSegment(samples []Sample, meta SegmentMeta) Segment {
	return Segment{ID: uuid.New(), Samples: samples, Meta: meta}
}

// Start returns the first sample's epoch.
func (s Segment) Start() Epoch {
	return s.Samples[0].Epoch
}

// End returns the last sample's epoch.
func (s Segment) End() Epoch {
	return s.Samples[len(s.Samples)-1].Epoch
}

// Duration returns the signed duration of this segment in seconds.
func (s Segment) Duration() float64 {
	return s.End().Sub(s.Start())
}

// History is an ordered list of segments.
type History struct {
	Segments []Segment
}

// Append adds a segment at the end of the history.
func (h *History) Append(seg Segment) {
	h.Segments = append(h.Segments, seg)
}

// Last returns the last segment, and false if the history is empty.
func (h History) Last() (Segment, bool) {
	if len(h.Segments) == 0 {
		return Segment{}, false
	}
	return h.Segments[len(h.Segments)-1], true
}

// Find returns the segment with the provided identifier.
func (h History) Find(id uuid.UUID) (Segment, bool) {
	for _, seg := range h.Segments {
		if seg.ID == id {
			return seg, true
		}
	}
	return Segment{}, false
}

// Samples returns all samples of all segments.
func (h History) Samples() []Sample {
	var samples []Sample
	for _, seg := range h.Segments {
		samples = append(samples, seg.Samples...)
	}
	return samples
}
