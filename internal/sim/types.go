package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// World is a physics world the simulator can advance and query.
type World interface {
	Step(dt float64)
	Position(id string) (mgl64.Vec3, bool)
}

type Metric interface {
	Name() string
	Observe(w World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w World, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	// ValidateBodies stops the run when a watched body leaves the world or
	// its position stops being finite.
	ValidateBodies bool
	Watch          []string
}

func DefaultConfig() Config {
	return Config{
		Dt:             1.0 / 60.0,
		Duration:       5.0,
		ValidateBodies: true,
	}
}

type Result struct {
	Times      []float64
	StepsTaken int
	Metrics    map[string]float64
	Errors     []error
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
