package constraint

import "strings"

// WorldBody stands in for an absent body id, i.e. a joint anchored to the
// fixed world frame.
const WorldBody = "world"

const keySeparator = "|"

// Key identifies an unordered pair of bodies.
type Key string

// PairKey returns the same key for (a, b) and (b, a).
func PairKey(idA, idB string) Key {
	if idA == "" {
		idA = WorldBody
	}
	if idB == "" {
		idB = WorldBody
	}
	if idB < idA {
		idA, idB = idB, idA
	}
	return Key(idA + keySeparator + idB)
}

// Bodies splits the key back into its two ids, in sorted order.
func (k Key) Bodies() (string, string) {
	a, b, _ := strings.Cut(string(k), keySeparator)
	return a, b
}
