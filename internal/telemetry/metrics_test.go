package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JointCreated("rope")
	m.JointCreated("rope")
	m.JointCreated("revolute")
	m.JointSkipped("unresolved_body")
	m.JointRemoved()
	m.Resync()
	m.RegistrySize(3)

	if got := testutil.ToFloat64(m.created.WithLabelValues("rope")); got != 2 {
		t.Errorf("expected 2 rope joints, got %f", got)
	}
	if got := testutil.ToFloat64(m.created.WithLabelValues("revolute")); got != 1 {
		t.Errorf("expected 1 revolute joint, got %f", got)
	}
	if got := testutil.ToFloat64(m.skipped.WithLabelValues("unresolved_body")); got != 1 {
		t.Errorf("expected 1 skip, got %f", got)
	}
	if got := testutil.ToFloat64(m.removed); got != 1 {
		t.Errorf("expected 1 removal, got %f", got)
	}
	if got := testutil.ToFloat64(m.resyncs); got != 1 {
		t.Errorf("expected 1 resync, got %f", got)
	}
	if got := testutil.ToFloat64(m.registry); got != 3 {
		t.Errorf("expected registry gauge 3, got %f", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.JointCreated("rope")
	m.JointSkipped("duplicate")
	m.JointRemoved()
	m.Resync()
	m.RegistrySize(1)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.JointCreated("spherical")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `jointsync_joints_created_total{kind="spherical"} 1`) {
		t.Errorf("expected created counter in output, got:\n%s", rec.Body.String())
	}
}
