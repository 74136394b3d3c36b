package constraint

import "fmt"

// State is the synchronizer's lifecycle state.
type State uint8

const (
	StateUnbound State = iota
	StateBound
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateInitialized:
		return "initialized"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Bind attaches the synchronizer to a world and its joint api, recomputing
// the scene fingerprint.
//
// Initialized with a changed fingerprint or a different world: every joint
// is removed from the world that holds it and the synchronizer is left Bound
// to the new world. Same world and fingerprint: joints are kept and only the
// api reference is refreshed.
func (s *Synchronizer) Bind(world World, api JointAPI) error {
	if world == nil || api == nil {
		return ErrNilWorld
	}

	fp, err := s.scene.Fingerprint()
	if err != nil {
		return fmt.Errorf("constraint: fingerprint scene: %w", err)
	}

	if s.state == StateInitialized {
		switch {
		case fp != s.fingerprint:
			s.logger.Info("scene changed, rebuilding joints",
				"previous", shortFingerprint(s.fingerprint),
				"current", shortFingerprint(fp),
				"joints", s.registry.Count())
			s.metrics.Resync()
			s.Destroy()
		case !sameWorld(world, s.world):
			s.logger.Info("world replaced, rebuilding joints", "joints", s.registry.Count())
			s.metrics.Resync()
			s.Destroy()
		}
	}

	s.world = world
	s.api = api
	s.registry.Attach(world)
	if s.state == StateUnbound {
		s.state = StateBound
	}
	s.fingerprint = fp
	return nil
}

// sameWorld compares world identities. Worlds whose dynamic type is not
// comparable are treated as different.
func sameWorld(a, b World) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// Destroy removes every tracked joint from the world and returns to
// Unbound. It is valid in any state.
func (s *Synchronizer) Destroy() {
	if s.registry.Count() > 0 {
		s.logger.Debug("destroying joints", "joints", s.registry.Count())
	}
	s.registry.Clear()
	s.registry.Attach(nil)
	s.world = nil
	s.api = nil
	s.state = StateUnbound
	s.fingerprint = ""
	s.last = nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
