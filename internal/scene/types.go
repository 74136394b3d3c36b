package scene

// Descriptor is the constraint-relevant part of a scene.
type Descriptor struct {
	Objects []ObjectDescriptor `json:"objects" yaml:"objects"`
	Joints  []JointDescriptor  `json:"joints" yaml:"joints"`
}

// ObjectDescriptor describes one body. ID is the stable tag that live bodies
// carry in their user data.
type ObjectDescriptor struct {
	ID          string             `json:"id" yaml:"id"`
	Constraints []ObjectConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// Host-side body fields, used by world builders only.
	Position VecInput `json:"position" yaml:"position,omitempty"`
	Static   bool     `json:"static,omitempty" yaml:"static,omitempty"`
	Radius   float64  `json:"radius,omitempty" yaml:"radius,omitempty"`
	Density  float64  `json:"density,omitempty" yaml:"density,omitempty"`
}

// JointParams holds the kind-specific parameters shared by scene joints and
// object-attached constraints.
type JointParams struct {
	AnchorA VecInput `json:"anchorA" yaml:"anchorA,omitempty"`
	AnchorB VecInput `json:"anchorB" yaml:"anchorB,omitempty"`
	// PivotA and PivotB are legacy aliases of the anchors and win over them.
	PivotA VecInput `json:"pivotA" yaml:"pivotA,omitempty"`
	PivotB VecInput `json:"pivotB" yaml:"pivotB,omitempty"`
	// Axis is the legacy alias of AxisA.
	Axis  VecInput `json:"axis" yaml:"axis,omitempty"`
	AxisA VecInput `json:"axisA" yaml:"axisA,omitempty"`
	AxisB VecInput `json:"axisB" yaml:"axisB,omitempty"`

	Distance            *float64  `json:"distance,omitempty" yaml:"distance,omitempty"`
	Limits              []float64 `json:"limits,omitempty" yaml:"limits,omitempty"`
	MotorEnabled        bool      `json:"motorEnabled,omitempty" yaml:"motorEnabled,omitempty"`
	MotorTargetVelocity *float64  `json:"motorTargetVelocity,omitempty" yaml:"motorTargetVelocity,omitempty"`
	MotorMaxForce       *float64  `json:"motorMaxForce,omitempty" yaml:"motorMaxForce,omitempty"`
}

// JointDescriptor is a scene-level joint between two bodies.
type JointDescriptor struct {
	Type        string `json:"type" yaml:"type"`
	BodyA       string `json:"bodyA" yaml:"bodyA"`
	BodyB       string `json:"bodyB" yaml:"bodyB"`
	JointParams `yaml:",inline"`
}

// ObjectConstraint is a joint declared inline on an object. The owning object
// is body A and TargetID names body B.
type ObjectConstraint struct {
	Type        string `json:"type" yaml:"type"`
	TargetID    string `json:"targetId" yaml:"targetId"`
	JointParams `yaml:",inline"`
}

// AllJoints returns scene joints in declaration order followed by each
// object's inline constraints, in object order.
func (d *Descriptor) AllJoints() []JointDescriptor {
	if d == nil {
		return nil
	}
	out := make([]JointDescriptor, 0, len(d.Joints))
	out = append(out, d.Joints...)
	for _, obj := range d.Objects {
		for _, c := range obj.Constraints {
			out = append(out, JointDescriptor{
				Type:        c.Type,
				BodyA:       obj.ID,
				BodyB:       c.TargetID,
				JointParams: c.JointParams,
			})
		}
	}
	return out
}

// ObjectIDs returns the ids of all declared objects in order.
func (d *Descriptor) ObjectIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Objects))
	for _, obj := range d.Objects {
		ids = append(ids, obj.ID)
	}
	return ids
}

func Float(v float64) *float64 { return &v }
