package constraint

import (
	"fmt"
	"strings"
)

// Kind is the closed set of joint kinds the factory can build.
type Kind uint8

const (
	KindDistance Kind = iota + 1
	KindRope
	KindRevolute
	KindSpherical
	KindPrismatic
)

var kindNames = map[Kind]string{
	KindDistance:  "distance",
	KindRope:      "rope",
	KindRevolute:  "revolute",
	KindSpherical: "spherical",
	KindPrismatic: "prismatic",
}

// Accepted spellings, lowercased. hinge and pointToPoint are aliases kept
// for existing scene files.
var kindAliases = map[string]Kind{
	"distance":     KindDistance,
	"rope":         KindRope,
	"revolute":     KindRevolute,
	"hinge":        KindRevolute,
	"spherical":    KindSpherical,
	"pointtopoint": KindSpherical,
	"prismatic":    KindPrismatic,
}

func ParseKind(s string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDistance, KindRope, KindRevolute, KindSpherical, KindPrismatic}
}
