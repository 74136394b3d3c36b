package storage

import (
	"github.com/san-kum/jointsync/internal/constraint"
)

type ExportJoint struct {
	Key          string `json:"key"`
	Kind         string `json:"kind"`
	BodyA        string `json:"bodyA"`
	BodyB        string `json:"bodyB"`
	Approximated bool   `json:"approximated,omitempty"`
}

type ExportSkip struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	BodyA  string `json:"bodyA"`
	BodyB  string `json:"bodyB"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type ExportData struct {
	Scene       string        `json:"scene"`
	Fingerprint string        `json:"fingerprint"`
	Joints      []ExportJoint `json:"joints"`
	Skipped     []ExportSkip  `json:"skipped"`
}

// ExportJSON writes an initialization report as indented JSON.
func ExportJSON(path, scenePath, fingerprint string, report *constraint.Report) error {
	data := ExportData{
		Scene:       scenePath,
		Fingerprint: fingerprint,
		Joints:      make([]ExportJoint, 0),
		Skipped:     make([]ExportSkip, 0),
	}

	if report != nil {
		for _, c := range report.Created {
			data.Joints = append(data.Joints, ExportJoint{
				Key:          string(c.Key),
				Kind:         c.Kind.String(),
				BodyA:        c.BodyA,
				BodyB:        c.BodyB,
				Approximated: c.Approximated,
			})
		}
		for _, s := range report.Skipped {
			data.Skipped = append(data.Skipped, ExportSkip{
				Index:  s.Index,
				Type:   s.Descriptor.Type,
				BodyA:  s.Descriptor.BodyA,
				BodyB:  s.Descriptor.BodyB,
				Reason: string(s.Reason),
				Error:  s.Err.Error(),
			})
		}
	}

	return writeJSON(path, data)
}
