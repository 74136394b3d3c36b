// Package scene defines the declarative description of bodies and the joints
// between them, as read from scene files.
//
// The types here are owned by the caller. Consumers such as the constraint
// synchronizer only read a [Descriptor]; they never mutate it.
//
// # Vector fields
//
// Anchor and axis fields accept two shapes for backward compatibility with
// existing scene files: a 3-element array and an {x, y, z} record. Both are
// decoded into a [VecInput], a tagged union that downstream code resolves
// exactly once.
//
//	joints:
//	  - type: revolute
//	    bodyA: door
//	    bodyB: frame
//	    anchorA: [0, 1, 0]
//	    anchorB: {x: 0.5, y: 1}
//
// # Fingerprints
//
// [Descriptor.Fingerprint] summarizes the constraint-relevant part of a scene
// (objects and joints). Two descriptors with equal content always produce the
// same fingerprint.
package scene
