package constraint

import "github.com/go-gl/mathgl/mgl64"

// Body is a non-owning reference to a live rigid body. Tag returns the scene
// object id stored in the body's user data, if any.
type Body interface {
	Tag() (string, bool)
	Translation() mgl64.Vec3
}

// JointData is a world-specific joint description built by a JointAPI.
type JointData any

// JointHandle is a world-specific reference to a created joint.
type JointHandle any

// World is the live simulation the synchronizer binds to. The synchronizer
// never assumes exclusive access: the body set may change between calls.
type World interface {
	ForEachRigidBody(fn func(Body))
	CreateJoint(data JointData, a, b Body, wakeBoth bool) (JointHandle, error)
	// RemoveJoint may fail for handles the world already invalidated; callers
	// treat that as success.
	RemoveJoint(j JointHandle) error
}

type RopeParams struct {
	MaxLength float64
	AnchorA   mgl64.Vec3
	AnchorB   mgl64.Vec3
}

type DistanceParams struct {
	Length  float64
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3
}

type RevoluteParams struct {
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3
	Axis    mgl64.Vec3
	Limits  *Limits
	Motor   *Motor
}

type SphericalParams struct {
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3
}

type PrismaticParams struct {
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3
	Axis    mgl64.Vec3
	Limits  *Limits
}

// JointAPI builds joint data for a world, one entry point per primitive.
type JointAPI interface {
	Rope(p RopeParams) (JointData, error)
	Revolute(p RevoluteParams) (JointData, error)
	Spherical(p SphericalParams) (JointData, error)
	Prismatic(p PrismaticParams) (JointData, error)
}

// DistanceAPI is implemented by joint APIs that have a true fixed-distance
// primitive. Without it, distance joints are approximated with a spherical
// joint.
type DistanceAPI interface {
	Distance(p DistanceParams) (JointData, error)
}
