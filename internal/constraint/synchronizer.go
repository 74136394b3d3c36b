package constraint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/jointsync/internal/logging"
	"github.com/san-kum/jointsync/internal/scene"
	"github.com/san-kum/jointsync/internal/telemetry"
)

// Synchronizer owns the joints created for one scene in one world.
type Synchronizer struct {
	scene    *scene.Descriptor
	factory  *Factory
	registry *Registry
	logger   *slog.Logger
	metrics  *telemetry.Metrics

	world       World
	api         JointAPI
	state       State
	fingerprint string
	last        *Report
}

type Option func(*Synchronizer)

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithFactory replaces the default strategy table.
func WithFactory(f *Factory) Option {
	return func(s *Synchronizer) {
		if f != nil {
			s.factory = f
		}
	}
}

// New creates an Unbound synchronizer for desc. A nil desc is treated as an
// empty scene.
func New(desc *scene.Descriptor, opts ...Option) *Synchronizer {
	if desc == nil {
		desc = &scene.Descriptor{}
	}
	s := &Synchronizer{
		scene:   desc,
		factory: NewFactory(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.logger, s.metrics)
	return s
}

// InitializeConstraints creates the joints declared by the scene. It returns
// ErrNotBound before Bind, and the previous report when already
// initialized. Per-joint failures are reported, not returned.
func (s *Synchronizer) InitializeConstraints() (*Report, error) {
	switch s.state {
	case StateUnbound:
		return nil, ErrNotBound
	case StateInitialized:
		return s.last, nil
	}

	bodies := s.scanBodies()
	report := &Report{}

	for i, jd := range s.scene.AllJoints() {
		s.syncOne(i, jd, bodies, report)
	}

	s.state = StateInitialized
	s.last = report
	s.logger.Info("constraints initialized",
		"created", len(report.Created),
		"skipped", len(report.Skipped),
		"duplicates", report.Duplicates(),
		"fingerprint", shortFingerprint(s.fingerprint))
	return report, nil
}

// scanBodies maps tag to body. When several bodies carry the same tag the
// first one visited wins.
func (s *Synchronizer) scanBodies() map[string]Body {
	bodies := make(map[string]Body)
	s.world.ForEachRigidBody(func(b Body) {
		if b == nil {
			return
		}
		id, ok := b.Tag()
		if !ok || id == "" {
			return
		}
		if _, seen := bodies[id]; seen {
			s.logger.Debug("duplicate body tag ignored", "id", id)
			return
		}
		s.logger.Log(context.Background(), logging.LevelTrace, "body scanned", "id", id, "position", b.Translation())
		bodies[id] = b
	})
	return bodies
}

func (s *Synchronizer) syncOne(index int, jd scene.JointDescriptor, bodies map[string]Body, report *Report) {
	skip := func(reason Reason, err error) {
		jerr := &JointError{Index: index, Type: jd.Type, BodyA: jd.BodyA, BodyB: jd.BodyB, Wrapped: err}
		report.Skipped = append(report.Skipped, Skip{Index: index, Descriptor: jd, Reason: reason, Err: jerr})
		s.metrics.JointSkipped(string(reason))

		attrs := []any{"index", index, "kind", jd.Type, "bodyA", jd.BodyA, "bodyB", jd.BodyB, "reason", string(reason)}
		if reason == ReasonDuplicate {
			s.logger.Info("joint skipped", attrs...)
			return
		}
		s.logger.Warn("joint skipped", append(attrs, "err", err)...)
	}

	if missing := missingFields(jd); len(missing) > 0 {
		skip(ReasonStructural, fmt.Errorf("%w: %v", ErrMissingField, missing))
		return
	}

	kind, err := ParseKind(jd.Type)
	if err != nil {
		skip(ReasonUnknownKind, err)
		return
	}

	if jd.BodyA == jd.BodyB {
		skip(ReasonSelfPair, ErrSelfPair)
		return
	}

	if s.registry.Has(jd.BodyA, jd.BodyB) {
		skip(ReasonDuplicate, ErrDuplicatePair)
		return
	}

	a, okA := bodies[jd.BodyA]
	b, okB := bodies[jd.BodyB]
	if !okA || !okB {
		var absent []string
		if !okA {
			absent = append(absent, jd.BodyA)
		}
		if !okB {
			absent = append(absent, jd.BodyB)
		}
		skip(ReasonUnresolvedBody, fmt.Errorf("%w: %v", ErrUnresolvedBody, absent))
		return
	}

	cfg := Normalize(jd)
	built, err := s.factory.Create(kind, s.api, s.world, a, b, cfg)
	if err != nil {
		reason := ReasonWorldRejected
		if errors.Is(err, ErrUnknownKind) {
			reason = ReasonUnknownKind
		}
		skip(reason, err)
		return
	}

	if !s.registry.Register(jd.BodyA, jd.BodyB, built.Joint, kind) {
		// Only reachable when a custom strategy registers pairs itself.
		s.registry.release(&Record{
			Key:   PairKey(jd.BodyA, jd.BodyB),
			Joint: built.Joint,
			BodyA: jd.BodyA,
			BodyB: jd.BodyB,
			Kind:  kind,
		})
		skip(ReasonDuplicate, ErrDuplicatePair)
		return
	}

	if built.Approximated {
		s.logger.Debug("distance joint approximated with spherical joint",
			"index", index, "bodyA", jd.BodyA, "bodyB", jd.BodyB)
	}
	s.metrics.JointCreated(kind.String())
	report.Created = append(report.Created, Created{
		Index:        index,
		Key:          PairKey(jd.BodyA, jd.BodyB),
		Kind:         kind,
		BodyA:        jd.BodyA,
		BodyB:        jd.BodyB,
		Approximated: built.Approximated,
	})
}

func missingFields(jd scene.JointDescriptor) []string {
	var missing []string
	if jd.Type == "" {
		missing = append(missing, "type")
	}
	if jd.BodyA == "" {
		missing = append(missing, "bodyA")
	}
	if jd.BodyB == "" {
		missing = append(missing, "bodyB")
	}
	return missing
}

// RemoveJoint removes the joint between two bodies, in either order.
func (s *Synchronizer) RemoveJoint(idA, idB string) bool {
	return s.registry.Remove(idA, idB)
}

func (s *Synchronizer) Count() int { return s.registry.Count() }

func (s *Synchronizer) State() State { return s.state }

// Fingerprint is the scene fingerprint recorded by the last Bind.
func (s *Synchronizer) Fingerprint() string { return s.fingerprint }

func (s *Synchronizer) Records() []Record { return s.registry.Records() }

// Warnings returns the non-duplicate skips of the last initialization.
func (s *Synchronizer) Warnings() []string { return s.last.Warnings() }

// PendingBodies lists the body ids referenced by scene joints that the bound
// world does not contain yet. It returns nil while Unbound.
func (s *Synchronizer) PendingBodies() []string {
	if s.world == nil {
		return nil
	}
	present := s.scanBodies()

	seen := make(map[string]bool)
	var pending []string
	for _, jd := range s.scene.AllJoints() {
		for _, id := range []string{jd.BodyA, jd.BodyB} {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := present[id]; !ok {
				pending = append(pending, id)
			}
		}
	}
	sort.Strings(pending)
	return pending
}
