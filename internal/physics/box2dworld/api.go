package box2dworld

import (
	"errors"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/jointsync/internal/constraint"
)

var (
	ErrZeroAxis       = errors.New("box2dworld: axis has no component in the XY plane")
	ErrInvertedLimits = errors.New("box2dworld: lower limit exceeds upper limit")
)

// jointDef defers binding the bodies until CreateJoint.
type jointDef struct {
	kind  string
	build func(a, b *box2d.B2Body) box2d.B2JointDefInterface
}

// API builds box2d joint definitions.
type API struct{}

func (API) Rope(p constraint.RopeParams) (constraint.JointData, error) {
	return jointDef{kind: "rope", build: func(a, b *box2d.B2Body) box2d.B2JointDefInterface {
		def := box2d.MakeB2RopeJointDef()
		def.BodyA, def.BodyB = a, b
		def.LocalAnchorA = vec2(p.AnchorA)
		def.LocalAnchorB = vec2(p.AnchorB)
		def.MaxLength = p.MaxLength
		return &def
	}}, nil
}

func (API) Distance(p constraint.DistanceParams) (constraint.JointData, error) {
	return jointDef{kind: "distance", build: func(a, b *box2d.B2Body) box2d.B2JointDefInterface {
		def := box2d.MakeB2DistanceJointDef()
		def.BodyA, def.BodyB = a, b
		def.LocalAnchorA = vec2(p.AnchorA)
		def.LocalAnchorB = vec2(p.AnchorB)
		def.Length = p.Length
		return &def
	}}, nil
}

func (API) Revolute(p constraint.RevoluteParams) (constraint.JointData, error) {
	if p.Limits != nil && p.Limits.Min > p.Limits.Max {
		return nil, ErrInvertedLimits
	}
	return jointDef{kind: "revolute", build: func(a, b *box2d.B2Body) box2d.B2JointDefInterface {
		def := box2d.MakeB2RevoluteJointDef()
		def.BodyA, def.BodyB = a, b
		def.LocalAnchorA = vec2(p.AnchorA)
		def.LocalAnchorB = vec2(p.AnchorB)
		def.ReferenceAngle = b.GetAngle() - a.GetAngle()
		if p.Limits != nil {
			def.EnableLimit = true
			def.LowerAngle = p.Limits.Min
			def.UpperAngle = p.Limits.Max
		}
		if p.Motor != nil {
			def.EnableMotor = true
			def.MotorSpeed = p.Motor.TargetVelocity
			def.MaxMotorTorque = p.Motor.MaxForce
		}
		return &def
	}}, nil
}

func (API) Spherical(p constraint.SphericalParams) (constraint.JointData, error) {
	return jointDef{kind: "spherical", build: func(a, b *box2d.B2Body) box2d.B2JointDefInterface {
		def := box2d.MakeB2RevoluteJointDef()
		def.BodyA, def.BodyB = a, b
		def.LocalAnchorA = vec2(p.AnchorA)
		def.LocalAnchorB = vec2(p.AnchorB)
		return &def
	}}, nil
}

func (API) Prismatic(p constraint.PrismaticParams) (constraint.JointData, error) {
	axis := vec2(p.Axis)
	if axis.Length() < 1e-9 {
		return nil, ErrZeroAxis
	}
	axis.Normalize()
	if p.Limits != nil && p.Limits.Min > p.Limits.Max {
		return nil, ErrInvertedLimits
	}

	return jointDef{kind: "prismatic", build: func(a, b *box2d.B2Body) box2d.B2JointDefInterface {
		def := box2d.MakeB2PrismaticJointDef()
		def.BodyA, def.BodyB = a, b
		def.LocalAnchorA = vec2(p.AnchorA)
		def.LocalAnchorB = vec2(p.AnchorB)
		def.LocalAxisA = axis
		def.ReferenceAngle = b.GetAngle() - a.GetAngle()
		if p.Limits != nil {
			def.EnableLimit = true
			def.LowerTranslation = p.Limits.Min
			def.UpperTranslation = p.Limits.Max
		}
		return &def
	}}, nil
}

func vec2(v mgl64.Vec3) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X(), v.Y())
}
