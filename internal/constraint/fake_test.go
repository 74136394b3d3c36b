package constraint

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

type fakeBody struct {
	id  string
	pos mgl64.Vec3
}

func (b *fakeBody) Tag() (string, bool)     { return b.id, b.id != "" }
func (b *fakeBody) Translation() mgl64.Vec3 { return b.pos }

type fakeData struct {
	kind   string
	params any
}

type fakeJoint struct {
	id   int
	data fakeData
}

type fakeWorld struct {
	bodies    []Body
	joints    map[int]*fakeJoint
	next      int
	removeErr error
	panicRm   bool
	removed   []int
}

func newFakeWorld(bodies ...Body) *fakeWorld {
	return &fakeWorld{bodies: bodies, joints: make(map[int]*fakeJoint)}
}

func (w *fakeWorld) ForEachRigidBody(fn func(Body)) {
	for _, b := range w.bodies {
		fn(b)
	}
}

func (w *fakeWorld) CreateJoint(data JointData, a, b Body, wakeBoth bool) (JointHandle, error) {
	d, ok := data.(fakeData)
	if !ok {
		return nil, errors.New("bad data")
	}
	w.next++
	j := &fakeJoint{id: w.next, data: d}
	w.joints[j.id] = j
	return j, nil
}

func (w *fakeWorld) RemoveJoint(h JointHandle) error {
	if w.panicRm {
		panic("remove exploded")
	}
	if w.removeErr != nil {
		return w.removeErr
	}
	j := h.(*fakeJoint)
	if _, ok := w.joints[j.id]; !ok {
		return ErrStaleJoint
	}
	delete(w.joints, j.id)
	w.removed = append(w.removed, j.id)
	return nil
}

type fakeAPI struct {
	fail  error
	panic bool
}

func (a fakeAPI) build(kind string, p any) (JointData, error) {
	if a.panic {
		panic("api exploded")
	}
	if a.fail != nil {
		return nil, a.fail
	}
	return fakeData{kind: kind, params: p}, nil
}

func (a fakeAPI) Rope(p RopeParams) (JointData, error)           { return a.build("rope", p) }
func (a fakeAPI) Revolute(p RevoluteParams) (JointData, error)   { return a.build("revolute", p) }
func (a fakeAPI) Spherical(p SphericalParams) (JointData, error) { return a.build("spherical", p) }
func (a fakeAPI) Prismatic(p PrismaticParams) (JointData, error) { return a.build("prismatic", p) }

type fakeDistanceAPI struct{ fakeAPI }

func (a fakeDistanceAPI) Distance(p DistanceParams) (JointData, error) {
	return a.build("distance", p)
}
