package metrics

import (
	"math"

	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/sim"
)

// Sample is one observation of a jointed pair.
type Sample struct {
	Time       float64
	Key        constraint.Key
	Separation float64
	Drift      float64
}

// Separation tracks the distance between the bodies of each joint and how
// far it drifts from the distance seen on the first observation.
type Separation struct {
	records  []constraint.Record
	rest     map[constraint.Key]float64
	samples  []Sample
	maxDrift float64
	last     float64
}

func NewSeparation(records []constraint.Record) *Separation {
	return &Separation{
		records: records,
		rest:    make(map[constraint.Key]float64),
	}
}

func (s *Separation) Name() string {
	return "max_separation_drift"
}

func (s *Separation) Observe(w sim.World, t float64) {
	s.last = 0
	for _, rec := range s.records {
		pa, okA := w.Position(rec.BodyA)
		pb, okB := w.Position(rec.BodyB)
		if !okA || !okB {
			continue
		}
		d := pb.Sub(pa).Len()

		rest, seen := s.rest[rec.Key]
		if !seen {
			rest = d
			s.rest[rec.Key] = d
		}
		drift := d - rest
		s.last = math.Max(s.last, math.Abs(drift))
		s.maxDrift = math.Max(s.maxDrift, s.last)
		s.samples = append(s.samples, Sample{Time: t, Key: rec.Key, Separation: d, Drift: drift})
	}
}

func (s *Separation) Value() float64 {
	return s.maxDrift
}

func (s *Separation) Reset() {
	s.rest = make(map[constraint.Key]float64)
	s.samples = nil
	s.maxDrift = 0
	s.last = 0
}

// LastDrift is the largest absolute drift seen by the latest Observe.
func (s *Separation) LastDrift() float64 {
	return s.last
}

func (s *Separation) Samples() []Sample {
	return s.samples
}

// Series returns the separation history of one joint.
func (s *Separation) Series(key constraint.Key) []float64 {
	var out []float64
	for _, sm := range s.samples {
		if sm.Key == key {
			out = append(out, sm.Separation)
		}
	}
	return out
}
