package epicycle

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CgCatalog definition.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
	Require []string   `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems definition.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   float64   `json:"lineWidth,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// NewCgCatalog returns a Cosmographia catalog with one spacecraft item per segment, each segment
// being stored in the interpolated states file "<source>-<index>.xyzv".
func NewCgCatalog(name string, h History, source string) *CgCatalog {
	c := &CgCatalog{Version: "1.0", Name: name}
	color := []float64{0.6, 1, 1}
	for i, seg := range h.Segments {
		if len(seg.Samples) == 0 {
			continue
		}
		start, end := seg.Start(), seg.End()
		if seg.Meta.Direction == Retreating {
			start, end = end, start
		}
		frame := "ICRF"
		if seg.Meta.Central == Sun.Name {
			frame = "EclipticJ2000"
		}
		c.Items = append(c.Items, &CgItems{
			Class:           "spacecraft",
			Name:            fmt.Sprintf("%s-%d", name, i),
			StartTime:       start.In(UTC).String(),
			EndTime:         end.In(UTC).String(),
			Center:          seg.Meta.Central,
			TrajectoryFrame: frame,
			Trajectory:      &CgTrajectory{Type: "InterpolatedStates", Source: fmt.Sprintf("%s-%d.xyzv", source, i)},
			Label:           &CgLabel{Color: color, FadeSize: 1000000, ShowText: true},
			TrajectoryPlot:  &CgTrajectoryPlot{Color: color, LineWidth: 1, Lead: "0 d", SampleCount: 10},
		})
	}
	return c
}

// WriteCatalog writes the catalog as JSON.
func WriteCatalog(w io.Writer, c *CgCatalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// CgInterpolatedState definition.
type CgInterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// FromText initializes from text.
// The `record` parameter must be an array of seven items.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("interpolated state needs 7 fields, got %d", len(record))
	}
	vals := make([]float64, 7)
	for k, field := range record {
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		vals[k] = val
	}
	i.JD, i.Position, i.Velocity = vals[0], vals[1:4], vals[4:7]
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// WriteInterpolatedStates writes a segment in the Cosmographia interpolated states format. Records are
// written in increasing time, whatever the propagation direction.
func WriteInterpolatedStates(w io.Writer, seg Segment) error {
	if _, err := fmt.Fprintf(w, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a TDB Julian date
#   Position in km
#   Velocity in km/sec
`, time.Now().UTC()); err != nil {
		return err
	}
	n := len(seg.Samples)
	for k := 0; k < n; k++ {
		smp := seg.Samples[k]
		if seg.Meta.Direction == Retreating {
			smp = seg.Samples[n-1-k]
		}
		state := CgInterpolatedState{smp.Epoch.In(TDB).JD(), smp.State[:3], smp.State[3:6]}
		if _, err := fmt.Fprintln(w, state.ToText()); err != nil {
			return err
		}
	}
	return nil
}

// ParseInterpolatedStates reads Cosmographia interpolated states.
func ParseInterpolatedStates(r io.Reader) ([]*CgInterpolatedState, error) {
	var states = []*CgInterpolatedState{}
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		state := CgInterpolatedState{}
		if err := state.FromText(record); err != nil {
			return nil, err
		}
		states = append(states, &state)
	}
	return states, nil
}

// WriteElementsCSV writes the orbital elements about the provided body of every sample of a segment.
// All angles are in degrees.
func WriteElementsCSV(w io.Writer, seg Segment, body CelestialObject) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "a", "e", "i", "Omega", "omega", "nu", "timeInHours", "timeInDays"}); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, smp := range seg.Samples {
		a, e, i, Ω, ω, ν := NewOrbitFromState(smp.State, body).Elements()
		Δt := smp.Epoch.Sub(seg.Start())
		if err := cw.Write([]string{smp.Epoch.String(), format(a), format(e), format(Rad2deg(i)), format(Rad2deg(Ω)), format(Rad2deg(ω)), format(Rad2deg(ν)), format(Δt / 3600), format(Δt / SecondsPerDay)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
