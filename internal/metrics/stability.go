package metrics

import "github.com/san-kum/jointsync/internal/sim"

// Stability is the fraction of observations in which every joint stayed
// within threshold of its first observed separation.
type Stability struct {
	name       string
	threshold  float64
	drift      *Separation
	violations int
	samples    int
}

func NewStability(threshold float64, drift *Separation) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		drift:     drift,
	}
}

func (s *Stability) Name() string {
	return s.name
}

// Observe must run after the Separation metric it reads from.
func (s *Stability) Observe(w sim.World, t float64) {
	s.samples++
	if s.drift.LastDrift() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
