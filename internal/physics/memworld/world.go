// Package memworld is a deterministic in-memory world. It records joints
// without simulating them and is used for dry runs and tests.
package memworld

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/scene"
)

var ErrForeignBody = errors.New("memworld: body does not belong to this world")

type Body struct {
	id       string
	tagged   bool
	position mgl64.Vec3
	world    *World
}

func (b *Body) Tag() (string, bool)         { return b.id, b.tagged }
func (b *Body) Translation() mgl64.Vec3     { return b.position }
func (b *Body) SetTranslation(p mgl64.Vec3) { b.position = p }

func (b *Body) String() string { return fmt.Sprintf("body(%s)", b.id) }

func (b *Body) belongsTo(w *World) bool { return b != nil && b.world == w }

// Joint is the handle returned by CreateJoint.
type Joint struct {
	ID       int
	Kind     string
	Params   any
	BodyA    *Body
	BodyB    *Body
	WakeBoth bool
}

// Spec is the JointData produced by API.
type Spec struct {
	Kind   string
	Params any
}

type Option func(*World)

// WithDistance makes API return a DistanceAPI implementation.
func WithDistance() Option {
	return func(w *World) { w.distance = true }
}

type World struct {
	bodies   []*Body
	joints   map[int]*Joint
	nextID   int
	distance bool
	failures map[string]error
	panics   map[string]any
	removed  int
}

func New(opts ...Option) *World {
	w := &World{
		joints:   make(map[int]*Joint),
		failures: make(map[string]error),
		panics:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FromScene adds one tagged body per scene object at its declared position.
func FromScene(desc *scene.Descriptor, opts ...Option) *World {
	w := New(opts...)
	if desc == nil {
		return w
	}
	for _, obj := range desc.Objects {
		pos, _ := obj.Position.Vec3()
		w.AddBody(obj.ID, pos)
	}
	return w
}

// AddBody adds a body tagged with id. An empty id adds an untagged body.
func (w *World) AddBody(id string, position mgl64.Vec3) *Body {
	b := &Body{id: id, tagged: id != "", position: position, world: w}
	w.bodies = append(w.bodies, b)
	return b
}

// RemoveBody removes every body tagged id together with its joints.
func (w *World) RemoveBody(id string) bool {
	kept := w.bodies[:0]
	var gone []*Body
	for _, b := range w.bodies {
		if b.tagged && b.id == id {
			gone = append(gone, b)
			continue
		}
		kept = append(kept, b)
	}
	w.bodies = kept
	for _, b := range gone {
		for jid, j := range w.joints {
			if j.BodyA == b || j.BodyB == b {
				delete(w.joints, jid)
			}
		}
		b.world = nil
	}
	return len(gone) > 0
}

func (w *World) Body(id string) (*Body, bool) {
	for _, b := range w.bodies {
		if b.tagged && b.id == id {
			return b, true
		}
	}
	return nil, false
}

// SetFailure makes CreateJoint fail for kind until cleared with a nil err.
func (w *World) SetFailure(kind string, err error) {
	if err == nil {
		delete(w.failures, kind)
		return
	}
	w.failures[kind] = err
}

// PanicOn makes CreateJoint panic with v for kind.
func (w *World) PanicOn(kind string, v any) {
	w.panics[kind] = v
}

// Invalidate drops a joint without going through RemoveJoint, as a world
// does when it destroys joints attached to a destroyed body.
func (w *World) Invalidate(h constraint.JointHandle) {
	if j, ok := h.(*Joint); ok {
		delete(w.joints, j.ID)
	}
}

func (w *World) ForEachRigidBody(fn func(constraint.Body)) {
	snapshot := append([]*Body(nil), w.bodies...)
	for _, b := range snapshot {
		fn(b)
	}
}

func (w *World) CreateJoint(data constraint.JointData, a, b constraint.Body, wakeBoth bool) (constraint.JointHandle, error) {
	spec, ok := data.(Spec)
	if !ok {
		return nil, fmt.Errorf("memworld: unexpected joint data %T", data)
	}
	ba, okA := a.(*Body)
	bb, okB := b.(*Body)
	if !okA || !okB || !ba.belongsTo(w) || !bb.belongsTo(w) {
		return nil, ErrForeignBody
	}
	if ba == bb {
		return nil, constraint.ErrSelfPair
	}
	if v, ok := w.panics[spec.Kind]; ok {
		panic(v)
	}
	if err, ok := w.failures[spec.Kind]; ok {
		return nil, err
	}

	w.nextID++
	j := &Joint{ID: w.nextID, Kind: spec.Kind, Params: spec.Params, BodyA: ba, BodyB: bb, WakeBoth: wakeBoth}
	w.joints[j.ID] = j
	return j, nil
}

func (w *World) RemoveJoint(h constraint.JointHandle) error {
	j, ok := h.(*Joint)
	if !ok {
		return fmt.Errorf("memworld: unexpected joint handle %T", h)
	}
	if _, live := w.joints[j.ID]; !live {
		return constraint.ErrStaleJoint
	}
	delete(w.joints, j.ID)
	w.removed++
	return nil
}

// Joints returns the live joints ordered by creation.
func (w *World) Joints() []*Joint {
	out := make([]*Joint, 0, len(w.joints))
	for _, j := range w.joints {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (w *World) JointCount() int { return len(w.joints) }

// Removed counts successful RemoveJoint calls.
func (w *World) Removed() int { return w.removed }

// API returns the joint api for this world.
func (w *World) API() constraint.JointAPI {
	if w.distance {
		return DistanceAPI{}
	}
	return API{}
}

// Step is a no-op; memworld does not integrate motion.
func (w *World) Step(dt float64) {}

// Position returns the translation of the body tagged id.
func (w *World) Position(id string) (mgl64.Vec3, bool) {
	b, ok := w.Body(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return b.position, true
}
