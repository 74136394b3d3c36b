package scene

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// VecKind tags the shape a vector field arrived in.
type VecKind uint8

const (
	VecAbsent VecKind = iota
	VecTuple
	VecRecord
	VecInvalid
)

func (k VecKind) String() string {
	switch k {
	case VecAbsent:
		return "absent"
	case VecTuple:
		return "tuple"
	case VecRecord:
		return "record"
	default:
		return "invalid"
	}
}

// VecInput is an anchor or axis value as written in a scene file.
// Records keep x as required; y and z default to 0.
type VecInput struct {
	Kind    VecKind
	X, Y, Z float64

	// Raw holds the original text of an invalid value so that it still
	// contributes to the scene fingerprint.
	Raw string
}

func Tuple(x, y, z float64) VecInput {
	return VecInput{Kind: VecTuple, X: x, Y: y, Z: z}
}

func Record(x, y, z float64) VecInput {
	return VecInput{Kind: VecRecord, X: x, Y: y, Z: z}
}

// IsSet reports whether the value carries a usable vector.
func (v VecInput) IsSet() bool {
	return v.Kind == VecTuple || v.Kind == VecRecord
}

// IsZero lets yaml omitempty drop absent values.
func (v VecInput) IsZero() bool {
	return v.Kind == VecAbsent
}

// Vec3 returns the vector and whether it was usable.
func (v VecInput) Vec3() (mgl64.Vec3, bool) {
	if !v.IsSet() {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{v.X, v.Y, v.Z}, true
}

type vecRecord struct {
	X *float64 `json:"x" yaml:"x"`
	Y *float64 `json:"y" yaml:"y"`
	Z *float64 `json:"z" yaml:"z"`
}

func (r vecRecord) input() VecInput {
	out := VecInput{Kind: VecRecord, X: *r.X}
	if r.Y != nil {
		out.Y = *r.Y
	}
	if r.Z != nil {
		out.Z = *r.Z
	}
	return out
}

func (v *VecInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = VecInput{}
		return nil
	}

	invalid := VecInput{Kind: VecInvalid, Raw: string(trimmed)}

	switch trimmed[0] {
	case '[':
		var arr []float64
		if err := json.Unmarshal(trimmed, &arr); err != nil || len(arr) != 3 {
			*v = invalid
			return nil
		}
		*v = Tuple(arr[0], arr[1], arr[2])
	case '{':
		var rec vecRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil || rec.X == nil {
			*v = invalid
			return nil
		}
		*v = rec.input()
	default:
		*v = invalid
	}
	return nil
}

func (v VecInput) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case VecAbsent:
		return []byte("null"), nil
	case VecTuple:
		return json.Marshal([3]float64{v.X, v.Y, v.Z})
	case VecRecord:
		return json.Marshal(map[string]float64{"x": v.X, "y": v.Y, "z": v.Z})
	default:
		return json.Marshal(map[string]string{"invalid": v.Raw})
	}
}

func (v *VecInput) UnmarshalYAML(node *yaml.Node) error {
	invalid := VecInput{Kind: VecInvalid, Raw: node.Value}
	if raw, err := yaml.Marshal(node); err == nil {
		invalid.Raw = strings.TrimSpace(string(raw))
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = VecInput{}
			return nil
		}
		*v = invalid
	case yaml.SequenceNode:
		var arr []float64
		if err := node.Decode(&arr); err != nil || len(arr) != 3 {
			*v = invalid
			return nil
		}
		*v = Tuple(arr[0], arr[1], arr[2])
	case yaml.MappingNode:
		var rec vecRecord
		if err := node.Decode(&rec); err != nil || rec.X == nil {
			*v = invalid
			return nil
		}
		*v = rec.input()
	default:
		*v = invalid
	}
	return nil
}

func (v VecInput) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case VecAbsent:
		return nil, nil
	case VecTuple:
		return []float64{v.X, v.Y, v.Z}, nil
	case VecRecord:
		return map[string]float64{"x": v.X, "y": v.Y, "z": v.Z}, nil
	default:
		return v.Raw, nil
	}
}
