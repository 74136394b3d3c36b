package constraint

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRestLength(t *testing.T) {
	a := &fakeBody{id: "a", pos: mgl64.Vec3{0, 0, 0}}
	b := &fakeBody{id: "b", pos: mgl64.Vec3{3, 0, 0}}

	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{"body centers", Config{}, 3},
		{"with anchors", Config{AnchorA: mgl64.Vec3{0, 0, 0}, AnchorB: mgl64.Vec3{0, 4, 0}}, 5},
		{"configured distance", Config{Distance: ptr(2)}, 2},
	}

	for _, tt := range tests {
		if got := RestLength(a, b, tt.cfg); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, got)
		}
	}
}

func TestFactoryCoversAllKinds(t *testing.T) {
	f := NewFactory()
	for _, k := range Kinds() {
		if _, ok := f.strategies[k]; !ok {
			t.Errorf("no strategy for %s", k)
		}
	}
}

func TestFactoryCreate(t *testing.T) {
	a := &fakeBody{id: "a"}
	b := &fakeBody{id: "b", pos: mgl64.Vec3{2, 0, 0}}

	tests := []struct {
		kind     Kind
		api      JointAPI
		wantData string
		approx   bool
	}{
		{KindRope, fakeAPI{}, "rope", false},
		{KindRevolute, fakeAPI{}, "revolute", false},
		{KindSpherical, fakeAPI{}, "spherical", false},
		{KindPrismatic, fakeAPI{}, "prismatic", false},
		{KindDistance, fakeAPI{}, "spherical", true},
		{KindDistance, fakeDistanceAPI{}, "distance", false},
	}

	for _, tt := range tests {
		w := newFakeWorld(a, b)
		built, err := NewFactory().Create(tt.kind, tt.api, w, a, b, Config{AxisA: DefaultAxis})
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.kind, err)
			continue
		}
		j := built.Joint.(*fakeJoint)
		if j.data.kind != tt.wantData {
			t.Errorf("%s: expected %s joint, got %s", tt.kind, tt.wantData, j.data.kind)
		}
		if built.Approximated != tt.approx {
			t.Errorf("%s: expected approximated=%v, got %v", tt.kind, tt.approx, built.Approximated)
		}
	}
}

func TestFactoryRopeUsesRestLength(t *testing.T) {
	a := &fakeBody{id: "a"}
	b := &fakeBody{id: "b", pos: mgl64.Vec3{0, 2, 0}}
	w := newFakeWorld(a, b)

	built, err := NewFactory().Create(KindRope, fakeAPI{}, w, a, b, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := built.Joint.(*fakeJoint).data.params.(RopeParams)
	if p.MaxLength != 2 {
		t.Errorf("expected max length 2, got %f", p.MaxLength)
	}
}

func TestFactoryRevolutePassesLimitsAndMotor(t *testing.T) {
	a, b := &fakeBody{id: "a"}, &fakeBody{id: "b"}
	cfg := Config{AxisA: mgl64.Vec3{0, 0, 1}, Limits: &Limits{Min: -1, Max: 1}, Motor: &Motor{TargetVelocity: 2, MaxForce: 5}}

	built, err := NewFactory().Create(KindRevolute, fakeAPI{}, newFakeWorld(a, b), a, b, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := built.Joint.(*fakeJoint).data.params.(RevoluteParams)
	if p.Axis != (mgl64.Vec3{0, 0, 1}) || p.Limits.Max != 1 || p.Motor.MaxForce != 5 {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestFactoryErrors(t *testing.T) {
	a, b := &fakeBody{id: "a"}, &fakeBody{id: "b"}
	boom := errors.New("boom")

	_, err := NewFactory().Create(KindRope, fakeAPI{fail: boom}, newFakeWorld(a, b), a, b, Config{})
	if !errors.Is(err, ErrWorldRejected) || !errors.Is(err, boom) {
		t.Errorf("expected ErrWorldRejected wrapping boom, got %v", err)
	}

	_, err = NewFactory().Create(KindRope, fakeAPI{panic: true}, newFakeWorld(a, b), a, b, Config{})
	if !errors.Is(err, ErrWorldRejected) {
		t.Errorf("expected recovered panic as ErrWorldRejected, got %v", err)
	}

	_, err = NewFactory().Create(Kind(42), fakeAPI{}, newFakeWorld(a, b), a, b, Config{})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestFactoryNilHandle(t *testing.T) {
	a, b := &fakeBody{id: "a"}, &fakeBody{id: "b"}
	f := NewFactory()
	f.Register(KindRope, func(JointAPI, World, Body, Body, Config) (Built, error) {
		return Built{}, nil
	})

	if _, err := f.Create(KindRope, fakeAPI{}, newFakeWorld(a, b), a, b, Config{}); !errors.Is(err, ErrWorldRejected) {
		t.Errorf("expected ErrWorldRejected for nil handle, got %v", err)
	}
}

func ptr(f float64) *float64 { return &f }
