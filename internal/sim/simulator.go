package sim

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	world     World
	metrics   []Metric
	observers []Observer
}

func New(world World) *Simulator {
	return &Simulator{
		world:     world,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(s.world, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.world, t)
		}

		s.world.Step(cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateBodies {
			if msg := s.checkBodies(cfg.Watch); msg != "" {
				result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: msg})
				break
			}
		}

		result.StepsTaken++
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) checkBodies(ids []string) string {
	for _, id := range ids {
		p, ok := s.world.Position(id)
		if !ok {
			return fmt.Sprintf("body %q left the world", id)
		}
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Sprintf("body %q has invalid position (NaN/Inf)", id)
			}
		}
	}
	return ""
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
