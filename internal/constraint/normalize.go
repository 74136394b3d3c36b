package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/jointsync/internal/scene"
)

var (
	DefaultAnchor = mgl64.Vec3{0, 0, 0}
	DefaultAxis   = mgl64.Vec3{0, 1, 0}
)

type Limits struct {
	Min, Max float64
}

type Motor struct {
	TargetVelocity float64
	MaxForce       float64
}

// Config is the canonical form of a joint descriptor. Anchors are local to
// their body.
type Config struct {
	Type     string
	AnchorA  mgl64.Vec3
	AnchorB  mgl64.Vec3
	AxisA    mgl64.Vec3
	AxisB    mgl64.Vec3
	Distance *float64
	Limits   *Limits
	Motor    *Motor
}

// Normalize resolves a descriptor into a Config without touching the input.
//
// Each side is resolved on its own: a present pivot wins over the anchor, a
// tuple is used as is, a record has missing y/z read as 0, and anything else
// falls back to the default. axisA wins over the legacy axis field and axisB
// follows axisA unless given.
func Normalize(d scene.JointDescriptor) Config {
	cfg := Config{
		Type:    d.Type,
		AnchorA: resolveVec(preferPresent(d.PivotA, d.AnchorA), DefaultAnchor),
		AnchorB: resolveVec(preferPresent(d.PivotB, d.AnchorB), DefaultAnchor),
		AxisA:   resolveVec(preferPresent(d.AxisA, d.Axis), DefaultAxis),
	}
	cfg.AxisB = resolveVec(d.AxisB, cfg.AxisA)

	if d.Distance != nil {
		dist := *d.Distance
		cfg.Distance = &dist
	}

	if len(d.Limits) == 2 && isFinite(d.Limits[0]) && isFinite(d.Limits[1]) {
		cfg.Limits = &Limits{Min: d.Limits[0], Max: d.Limits[1]}
	}

	if d.MotorEnabled {
		m := &Motor{}
		if d.MotorTargetVelocity != nil {
			m.TargetVelocity = *d.MotorTargetVelocity
		}
		if d.MotorMaxForce != nil {
			m.MaxForce = *d.MotorMaxForce
		}
		cfg.Motor = m
	}

	return cfg
}

func preferPresent(primary, alias scene.VecInput) scene.VecInput {
	if primary.Kind != scene.VecAbsent {
		return primary
	}
	return alias
}

func resolveVec(v scene.VecInput, def mgl64.Vec3) mgl64.Vec3 {
	if vec, ok := v.Vec3(); ok {
		return vec
	}
	return def
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
