package memworld

import (
	"errors"

	"github.com/san-kum/jointsync/internal/constraint"
)

var ErrZeroAxis = errors.New("memworld: axis must be non-zero")

// API builds Spec values. It has no distance primitive.
type API struct{}

func (API) Rope(p constraint.RopeParams) (constraint.JointData, error) {
	return Spec{Kind: "rope", Params: p}, nil
}

func (API) Revolute(p constraint.RevoluteParams) (constraint.JointData, error) {
	if p.Axis.Len() == 0 {
		return nil, ErrZeroAxis
	}
	return Spec{Kind: "revolute", Params: p}, nil
}

func (API) Spherical(p constraint.SphericalParams) (constraint.JointData, error) {
	return Spec{Kind: "spherical", Params: p}, nil
}

func (API) Prismatic(p constraint.PrismaticParams) (constraint.JointData, error) {
	if p.Axis.Len() == 0 {
		return nil, ErrZeroAxis
	}
	return Spec{Kind: "prismatic", Params: p}, nil
}

// DistanceAPI adds the fixed-distance primitive to API.
type DistanceAPI struct {
	API
}

func (DistanceAPI) Distance(p constraint.DistanceParams) (constraint.JointData, error) {
	return Spec{Kind: "distance", Params: p}, nil
}
