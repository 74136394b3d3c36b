// Package box2dworld adapts a box2d world to the constraint package.
//
// box2d is planar: scene vectors are projected onto the XY plane and the Z
// component is dropped. Revolute joints always rotate about Z, so their axis
// is ignored, and spherical joints become unlimited revolute joints, which is
// the 2D ball joint.
package box2dworld

import (
	"errors"
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/scene"
)

var (
	ErrLocked      = errors.New("box2dworld: world is locked in a time step")
	ErrForeignBody = errors.New("box2dworld: body does not belong to this world")
	ErrUnknownData = errors.New("box2dworld: joint data was not built by this package")
)

const (
	defaultRadius  = 0.5
	defaultDensity = 1.0
)

type Config struct {
	Gravity            [2]float64
	VelocityIterations int
	PositionIterations int
}

func DefaultConfig() Config {
	return Config{
		Gravity:            [2]float64{0, -9.81},
		VelocityIterations: 8,
		PositionIterations: 3,
	}
}

// Body wraps a box2d body. The scene id lives in the body's user data.
type Body struct {
	b *box2d.B2Body
}

func (b Body) Tag() (string, bool) {
	id, ok := b.b.GetUserData().(string)
	return id, ok
}

func (b Body) Translation() mgl64.Vec3 {
	p := b.b.GetPosition()
	return mgl64.Vec3{p.X, p.Y, 0}
}

// Raw exposes the underlying box2d body.
func (b Body) Raw() *box2d.B2Body { return b.b }

// World owns a box2d world and the set of joints created through it.
type World struct {
	world *box2d.B2World
	cfg   Config
	live  map[box2d.B2JointInterface]struct{}
}

func New(cfg Config) *World {
	if cfg.VelocityIterations <= 0 {
		cfg.VelocityIterations = DefaultConfig().VelocityIterations
	}
	if cfg.PositionIterations <= 0 {
		cfg.PositionIterations = DefaultConfig().PositionIterations
	}

	bw := box2d.MakeB2World(box2d.MakeB2Vec2(cfg.Gravity[0], cfg.Gravity[1]))
	w := &World{
		world: &bw,
		cfg:   cfg,
		live:  make(map[box2d.B2JointInterface]struct{}),
	}
	w.world.SetDestructionListener(w)
	return w
}

// SayGoodbyeToJoint is called by box2d before it destroys a joint attached
// to a destroyed body.
func (w *World) SayGoodbyeToJoint(j box2d.B2JointInterface) {
	delete(w.live, j)
}

func (w *World) SayGoodbyeToFixture(*box2d.B2Fixture) {}

// AddBody creates a circle body for a scene object.
func (w *World) AddBody(obj scene.ObjectDescriptor) (Body, error) {
	if w.world.IsLocked() {
		return Body{}, ErrLocked
	}

	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	if obj.Static {
		def.Type = box2d.B2BodyType.B2_staticBody
	}
	if pos, ok := obj.Position.Vec3(); ok {
		def.Position = box2d.MakeB2Vec2(pos.X(), pos.Y())
	}
	def.UserData = obj.ID

	body := w.world.CreateBody(&def)

	shape := box2d.MakeB2CircleShape()
	shape.M_radius = obj.Radius
	if shape.M_radius <= 0 {
		shape.M_radius = defaultRadius
	}
	density := obj.Density
	if density <= 0 {
		density = defaultDensity
	}
	body.CreateFixture(&shape, density)

	return Body{b: body}, nil
}

// RemoveBody destroys every body tagged id. Joints attached to it are
// destroyed by box2d and become stale.
func (w *World) RemoveBody(id string) bool {
	var doomed []*box2d.B2Body
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		if tag, ok := b.GetUserData().(string); ok && tag == id {
			doomed = append(doomed, b)
		}
	}
	for _, b := range doomed {
		w.world.DestroyBody(b)
	}
	return len(doomed) > 0
}

func (w *World) ForEachRigidBody(fn func(constraint.Body)) {
	var bodies []*box2d.B2Body
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		bodies = append(bodies, b)
	}
	for _, b := range bodies {
		fn(Body{b: b})
	}
}

func (w *World) CreateJoint(data constraint.JointData, a, b constraint.Body, wakeBoth bool) (constraint.JointHandle, error) {
	def, ok := data.(jointDef)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownData, data)
	}
	ba, err := w.own(a)
	if err != nil {
		return nil, err
	}
	bb, err := w.own(b)
	if err != nil {
		return nil, err
	}
	if ba == bb {
		return nil, constraint.ErrSelfPair
	}
	if w.world.IsLocked() {
		return nil, ErrLocked
	}

	j := w.world.CreateJoint(def.build(ba, bb))
	if j == nil {
		return nil, fmt.Errorf("box2dworld: %s joint was not created", def.kind)
	}
	w.live[j] = struct{}{}

	if wakeBoth {
		ba.SetAwake(true)
		bb.SetAwake(true)
	}
	return j, nil
}

func (w *World) RemoveJoint(h constraint.JointHandle) error {
	j, ok := h.(box2d.B2JointInterface)
	if !ok {
		return fmt.Errorf("box2dworld: unexpected joint handle %T", h)
	}
	if _, live := w.live[j]; !live {
		return constraint.ErrStaleJoint
	}
	if w.world.IsLocked() {
		return ErrLocked
	}
	w.world.DestroyJoint(j)
	delete(w.live, j)
	return nil
}

func (w *World) own(b constraint.Body) (*box2d.B2Body, error) {
	body, ok := b.(Body)
	if !ok || body.b == nil || body.b.GetWorld() != w.world {
		return nil, ErrForeignBody
	}
	return body.b, nil
}

// API returns the joint api for this world, which includes the distance
// primitive.
func (w *World) API() constraint.JointAPI { return API{} }

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) {
	w.world.Step(dt, w.cfg.VelocityIterations, w.cfg.PositionIterations)
}

// Position returns the translation of the first body tagged id.
func (w *World) Position(id string) (mgl64.Vec3, bool) {
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		if tag, ok := b.GetUserData().(string); ok && tag == id {
			return Body{b: b}.Translation(), true
		}
	}
	return mgl64.Vec3{}, false
}

func (w *World) BodyCount() int { return w.world.GetBodyCount() }

// JointCount counts the joints created through CreateJoint that box2d still
// holds.
func (w *World) JointCount() int { return len(w.live) }
