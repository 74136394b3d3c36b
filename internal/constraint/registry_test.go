package constraint

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/jointsync/internal/telemetry"
)

func newTestRegistry(w World) (*Registry, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRegistry(logger, nil)
	r.Attach(w)
	return r, &buf
}

func createFake(t *testing.T, w *fakeWorld) JointHandle {
	t.Helper()
	h, err := w.CreateJoint(fakeData{kind: "rope"}, nil, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return h
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	w := newFakeWorld()
	r, _ := newTestRegistry(w)

	if !r.Register("a", "b", createFake(t, w), KindRope) {
		t.Fatal("expected first registration to succeed")
	}
	if r.Register("b", "a", createFake(t, w), KindDistance) {
		t.Error("expected reversed pair of a different kind to be rejected")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 record, got %d", r.Count())
	}

	recs := r.Records()
	if len(recs) != 1 || recs[0].Kind != KindRope || recs[0].BodyA != "a" {
		t.Errorf("expected original rope record, got %+v", recs)
	}
}

func TestRegistryRemove(t *testing.T) {
	w := newFakeWorld()
	r, _ := newTestRegistry(w)
	r.Register("a", "b", createFake(t, w), KindRope)

	if !r.Remove("b", "a") {
		t.Fatal("expected removal to succeed")
	}
	if r.Remove("a", "b") {
		t.Error("expected second removal to report false")
	}
	if len(w.joints) != 0 {
		t.Errorf("expected world joint to be removed, got %d", len(w.joints))
	}
}

func TestRegistryRemoveToleratesWorldFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(w *fakeWorld, h JointHandle)
		wantLog string
	}{
		{
			name:    "stale handle",
			setup:   func(w *fakeWorld, h JointHandle) { delete(w.joints, h.(*fakeJoint).id) },
			wantLog: "joint already removed by world",
		},
		{
			name:    "world error",
			setup:   func(w *fakeWorld, h JointHandle) { w.removeErr = errors.New("locked") },
			wantLog: "world failed to remove joint",
		},
		{
			name:    "world panic",
			setup:   func(w *fakeWorld, h JointHandle) { w.panicRm = true },
			wantLog: "world panicked removing joint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWorld()
			r, logs := newTestRegistry(w)
			h := createFake(t, w)
			r.Register("a", "b", h, KindRope)
			tt.setup(w, h)

			if !r.Remove("a", "b") {
				t.Fatal("expected removal to report true")
			}
			if r.Count() != 0 {
				t.Errorf("expected record to be dropped, got %d", r.Count())
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("expected log %q, got %s", tt.wantLog, logs.String())
			}
		})
	}
}

func TestRegistryClear(t *testing.T) {
	w := newFakeWorld()
	reg := prometheus.NewRegistry()
	r := NewRegistry(nil, telemetry.New(reg))
	r.Attach(w)

	r.Register("a", "b", createFake(t, w), KindRope)
	r.Register("b", "c", createFake(t, w), KindRope)
	r.Register("c", "d", createFake(t, w), KindRope)

	r.Clear()

	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
	if len(w.removed) != 3 {
		t.Errorf("expected 3 world removals, got %d", len(w.removed))
	}

	expected := `
# HELP jointsync_joints_removed_total Joints removed from the registry.
# TYPE jointsync_joints_removed_total counter
jointsync_joints_removed_total 3
# HELP jointsync_registry_joints Joints currently tracked by the registry.
# TYPE jointsync_registry_joints gauge
jointsync_registry_joints 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"jointsync_joints_removed_total", "jointsync_registry_joints"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestRegistryRecordsSorted(t *testing.T) {
	w := newFakeWorld()
	r, _ := newTestRegistry(w)
	r.Register("y", "z", createFake(t, w), KindRope)
	r.Register("b", "a", createFake(t, w), KindRope)

	recs := r.Records()
	if len(recs) != 2 || recs[0].Key != "a|b" || recs[1].Key != "y|z" {
		t.Errorf("expected records sorted by key, got %+v", recs)
	}
}

func TestRegistryWithoutWorld(t *testing.T) {
	r, logs := newTestRegistry(nil)
	r.Register("a", "b", &fakeJoint{id: 1}, KindRope)

	if !r.Remove("a", "b") {
		t.Fatal("expected removal to report true")
	}
	if !strings.Contains(logs.String(), "no world attached") {
		t.Errorf("expected warning, got %s", logs.String())
	}
}
