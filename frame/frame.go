// Package frame holds the snapshots of a collision box handed from the
// simulation goroutine to the viewers, and their wire encodings.
package frame

import (
	"encoding/json"
	"strings"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Sphere is the obstacle as seen by a viewer.
type Sphere struct {
	Center [3]float64 `json:"center" msgpack:"center"`
	Radius float64    `json:"radius" msgpack:"radius"`
}

// Frame is an immutable copy of the collision box state after one step.
type Frame struct {
	Seq       uint64       `json:"seq" msgpack:"seq"`
	Time      float64      `json:"time" msgpack:"time"`
	Dimension int          `json:"dim" msgpack:"dim"`
	Min       [3]float64   `json:"min" msgpack:"min"`
	Max       [3]float64   `json:"max" msgpack:"max"`
	Radius    float64      `json:"radius" msgpack:"radius"`
	Obstacle  Sphere       `json:"obstacle" msgpack:"obstacle"`
	Particles [][3]float64 `json:"particles" msgpack:"particles"`
	Energy    float64      `json:"energy" msgpack:"energy"`
	Events    int          `json:"events" msgpack:"events"`
	Stale     int          `json:"stale" msgpack:"stale"`
}

// Capture copies the current state of w. t is the total simulated time.
func Capture(w *collision.World, seq uint64, t float64) *Frame {
	b := w.Bounds()
	o := w.Obstacle()
	s := w.Stats()
	f := &Frame{
		Seq:       seq,
		Time:      t,
		Dimension: w.Dimension(),
		Min:       b.Min,
		Max:       b.Max,
		Radius:    w.ParticleRadius(),
		Obstacle:  Sphere{Center: o.Position, Radius: o.Radius},
		Particles: make([][3]float64, w.NumParticles()),
		Energy:    w.KineticEnergy(),
		Events:    s.Applied(),
		Stale:     s.Stale,
	}
	w.Each(func(i int, p collision.Particle) {
		f.Particles[i] = p.GetPosition()
	})
	return f
}

// Format selects the wire encoding of frames.
type Format int

const (
	JSON Format = iota
	MsgPack
)

// ParseFormat parses "json" or "msgpack".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	}
	return JSON, errors.Errorf("unknown frame format %q", s)
}

func (f Format) String() string {
	if f == MsgPack {
		return "msgpack"
	}
	return "json"
}

// Encode marshals the frame in the given format.
func (f *Frame) Encode(format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if format == MsgPack {
		data, err = msgpack.Marshal(f)
	} else {
		data, err = json.Marshal(f)
	}
	return data, errors.Wrapf(err, "encoding frame %d as %v", f.Seq, format)
}

// Decode unmarshals a frame encoded with Encode.
func Decode(data []byte, format Format) (*Frame, error) {
	f := new(Frame)
	var err error
	if format == MsgPack {
		err = msgpack.Unmarshal(data, f)
	} else {
		err = json.Unmarshal(data, f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %v frame", format)
	}
	return f, nil
}

// Target is an obstacle position requested by a viewer.
type Target struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Point converts the target to collision box coordinates.
func (t Target) Point() collision.Point {
	return collision.Point{t.X, t.Y, t.Z}
}

// DecodeTarget parses a client message holding a Target.
func DecodeTarget(data []byte, format Format) (Target, error) {
	var t Target
	var err error
	if format == MsgPack {
		err = msgpack.Unmarshal(data, &t)
	} else {
		err = json.Unmarshal(data, &t)
	}
	return t, errors.Wrap(err, "decoding obstacle target")
}
