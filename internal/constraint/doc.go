// Package constraint keeps the joints declared in a scene in sync with the
// joints that exist in a live, externally owned rigid-body world.
//
// The package is organised leaf first:
//
//   - [PairKey]: order-independent identity of a two-body relationship
//   - [Normalize]: resolves heterogeneous joint parameters into a [Config]
//   - [Factory]: one creation strategy per [Kind]
//   - [Registry]: at most one joint per pair, plus removal bookkeeping
//   - [Synchronizer]: binds a world, detects scene changes and drives the rest
//
// # Lifecycle
//
// A [Synchronizer] moves through three states:
//
//	Unbound --Bind--> Bound --InitializeConstraints--> Initialized
//	   ^                                                    |
//	   +------------------------- Destroy ------------------+
//
// Bind recomputes the scene fingerprint. When the synchronizer is
// Initialized and the fingerprint changed, every tracked joint is destroyed
// and the synchronizer returns to Bound so the next InitializeConstraints
// rebuilds from the new scene. An unchanged fingerprint leaves joints alone.
//
// # Failure handling
//
// Per-joint problems (missing fields, unknown kinds, bodies that do not
// exist yet, duplicate pairs, worlds rejecting parameters) never abort a
// pass. They are logged and collected in the returned [Report]. The only
// errors returned to the host are contract violations such as calling
// InitializeConstraints before Bind.
//
// Bodies are created by the host asynchronously. InitializeConstraints does
// not wait for them; hosts that want every joint should poll
// [Synchronizer.PendingBodies] before initializing.
//
// # Thread Safety
//
// Synchronizer is NOT safe for concurrent use. It is meant to be driven from
// the host's frame or update loop.
package constraint
