package constraint

import (
	"fmt"

	"github.com/san-kum/jointsync/internal/scene"
)

// Reason classifies why a descriptor did not produce a joint.
type Reason string

const (
	ReasonStructural     Reason = "structural"
	ReasonUnknownKind    Reason = "unknown_kind"
	ReasonUnresolvedBody Reason = "unresolved_body"
	ReasonSelfPair       Reason = "self_pair"
	ReasonDuplicate      Reason = "duplicate"
	ReasonWorldRejected  Reason = "world_rejected"
)

type Created struct {
	Index        int
	Key          Key
	Kind         Kind
	BodyA        string
	BodyB        string
	Approximated bool
}

type Skip struct {
	Index      int
	Descriptor scene.JointDescriptor
	Reason     Reason
	Err        error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %v", s.Reason, s.Err)
}

// Report summarizes one initialization pass. Index fields refer to the
// position in scene.Descriptor.AllJoints.
type Report struct {
	Created []Created
	Skipped []Skip
}

func (r *Report) SkippedBy(reason Reason) []Skip {
	if r == nil {
		return nil
	}
	var out []Skip
	for _, s := range r.Skipped {
		if s.Reason == reason {
			out = append(out, s)
		}
	}
	return out
}

func (r *Report) Duplicates() int {
	return len(r.SkippedBy(ReasonDuplicate))
}

// Warnings lists every skip except duplicates, which are informational.
func (r *Report) Warnings() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, s := range r.Skipped {
		if s.Reason == ReasonDuplicate {
			continue
		}
		out = append(out, s.String())
	}
	return out
}
