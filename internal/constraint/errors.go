package constraint

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBound is returned when InitializeConstraints runs before Bind.
	ErrNotBound = errors.New("constraint: synchronizer is not bound to a world")

	// ErrNilWorld indicates Bind received a nil world or joint api.
	ErrNilWorld = errors.New("constraint: world and joint api are required")

	ErrUnknownKind    = errors.New("constraint: unknown joint kind")
	ErrMissingField   = errors.New("constraint: joint descriptor is missing a required field")
	ErrUnresolvedBody = errors.New("constraint: body not present in world")
	ErrSelfPair       = errors.New("constraint: joint connects a body to itself")
	ErrDuplicatePair  = errors.New("constraint: pair already has a joint")

	// ErrWorldRejected wraps failures raised by the world while creating a joint.
	ErrWorldRejected = errors.New("constraint: world rejected joint")

	// ErrStaleJoint is returned by worlds asked to remove a joint they no
	// longer track. Removal treats it as success.
	ErrStaleJoint = errors.New("constraint: joint handle is no longer valid")
)

// JointError ties a per-joint failure to the descriptor that caused it.
type JointError struct {
	Index   int
	Type    string
	BodyA   string
	BodyB   string
	Wrapped error
}

func (e *JointError) Error() string {
	return fmt.Sprintf("joint %d (%s %s-%s): %v", e.Index, e.Type, e.BodyA, e.BodyB, e.Wrapped)
}

func (e *JointError) Unwrap() error {
	return e.Wrapped
}
