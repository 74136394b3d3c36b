package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/jointsync/internal/config"
	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/physics/box2dworld"
	"github.com/san-kum/jointsync/internal/physics/memworld"
	"github.com/san-kum/jointsync/internal/readiness"
	"github.com/san-kum/jointsync/internal/scene"
	"github.com/san-kum/jointsync/internal/sim"
	"github.com/san-kum/jointsync/internal/telemetry"
)

type hostWorld interface {
	constraint.World
	sim.World
}

// session is one scene loaded into one world with a synchronizer bound to it.
type session struct {
	cfg    *config.Config
	world  config.WorldConfig
	logger *slog.Logger
	path   string
	desc   *scene.Descriptor
	host   hostWorld
	api    constraint.JointAPI
	spawn  func() (bool, error)
	sync   *constraint.Synchronizer
	report *constraint.Report
}

func newSession(cfg *config.Config, wc config.WorldConfig, logger *slog.Logger, m *telemetry.Metrics, path string) (*session, error) {
	desc, err := scene.Load(path)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		world:  wc,
		logger: logger,
		path:   path,
		desc:   desc,
	}
	s.buildWorld()
	s.sync = constraint.New(desc, constraint.WithLogger(logger), constraint.WithMetrics(m))
	return s, nil
}

func (s *session) buildWorld() {
	switch s.cfg.Backend {
	case config.BackendMemory:
		w := memworld.FromScene(s.desc, memworld.WithDistance())
		s.host, s.api = w, w.API()
		s.spawn = func() (bool, error) { return true, nil }
	default:
		w := box2dworld.New(box2dworld.Config{
			Gravity:            s.world.Gravity,
			VelocityIterations: s.world.VelocityIterations,
			PositionIterations: s.world.PositionIterations,
		})
		sp := box2dworld.NewSpawner(w, s.desc, s.cfg.Readiness.SpawnBatch)
		s.host, s.api = w, w.API()
		s.spawn = func() (bool, error) {
			if _, err := sp.Tick(); err != nil {
				return false, err
			}
			return sp.Done(), nil
		}
	}
}

// start binds the synchronizer, waits for the scene's bodies to appear and
// initializes joints. Bodies still missing when the wait gives up are
// reported as skipped joints.
func (s *session) start(ctx context.Context) (*constraint.Report, error) {
	if err := s.sync.Bind(s.host, s.api); err != nil {
		return nil, err
	}

	policy := readiness.Policy{
		Attempts: s.cfg.Readiness.Attempts,
		Initial:  s.cfg.Readiness.InitialDelay,
		Max:      s.cfg.Readiness.MaxDelay,
	}

	var spawnErr error
	err := readiness.Wait(ctx, policy, func() bool {
		done, err := s.spawn()
		if err != nil {
			spawnErr = err
			return true
		}
		return done && len(s.sync.PendingBodies()) == 0
	})
	if spawnErr != nil {
		return nil, spawnErr
	}
	switch {
	case errors.Is(err, readiness.ErrNotReady):
		s.logger.Warn("initializing with pending bodies", "pending", s.sync.PendingBodies())
	case err != nil:
		return nil, err
	}

	report, err := s.sync.InitializeConstraints()
	if err != nil {
		return nil, err
	}
	s.report = report
	return report, nil
}

// reload re-reads the scene file and restarts synchronization. Joints are
// rebuilt only when the scene content changed.
func (s *session) reload(ctx context.Context) error {
	fresh, err := scene.Load(s.path)
	if err != nil {
		return err
	}
	*s.desc = *fresh

	if err := s.spawnMissing(); err != nil {
		return err
	}
	_, err = s.start(ctx)
	return err
}

func (s *session) spawnMissing() error {
	for _, obj := range s.desc.Objects {
		if _, ok := s.host.Position(obj.ID); ok {
			continue
		}
		switch w := s.host.(type) {
		case *memworld.World:
			pos, _ := obj.Position.Vec3()
			w.AddBody(obj.ID, pos)
		case *box2dworld.World:
			if _, err := w.AddBody(obj); err != nil {
				return fmt.Errorf("spawn %q: %w", obj.ID, err)
			}
		}
	}
	return nil
}

// jointedBodies returns the ids of every body that takes part in a joint.
func (s *session) jointedBodies() []string {
	seen := make(map[string]bool)
	for _, rec := range s.sync.Records() {
		seen[rec.BodyA] = true
		seen[rec.BodyB] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
