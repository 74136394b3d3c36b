package constraint

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/san-kum/jointsync/internal/telemetry"
)

// Record is the registry's entry for a created joint.
type Record struct {
	Key   Key
	Joint JointHandle
	BodyA string
	BodyB string
	Kind  Kind
}

// Registry holds at most one Record per PairKey. Removing a record asks the
// attached world to remove the joint; world failures are logged and the
// record is dropped anyway.
type Registry struct {
	records map[Key]*Record
	world   World
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewRegistry(logger *slog.Logger, metrics *telemetry.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		records: make(map[Key]*Record),
		logger:  logger,
		metrics: metrics,
	}
}

// Attach sets the world used for joint removal.
func (r *Registry) Attach(w World) { r.world = w }

// Register inserts a record unless the pair already has one.
func (r *Registry) Register(bodyA, bodyB string, joint JointHandle, kind Kind) bool {
	key := PairKey(bodyA, bodyB)
	if _, exists := r.records[key]; exists {
		return false
	}
	r.records[key] = &Record{Key: key, Joint: joint, BodyA: bodyA, BodyB: bodyB, Kind: kind}
	r.metrics.RegistrySize(len(r.records))
	return true
}

func (r *Registry) Has(bodyA, bodyB string) bool {
	_, ok := r.records[PairKey(bodyA, bodyB)]
	return ok
}

// Remove drops the pair's record and removes its joint from the world.
func (r *Registry) Remove(bodyA, bodyB string) bool {
	key := PairKey(bodyA, bodyB)
	rec, ok := r.records[key]
	if !ok {
		return false
	}
	r.release(rec)
	delete(r.records, key)
	r.metrics.JointRemoved()
	r.metrics.RegistrySize(len(r.records))
	return true
}

func (r *Registry) Count() int { return len(r.records) }

// Clear removes every record and its joint. Keys are copied first so the map
// is never mutated while being ranged over.
func (r *Registry) Clear() {
	for _, key := range r.keys() {
		rec := r.records[key]
		r.release(rec)
		delete(r.records, key)
		r.metrics.JointRemoved()
	}
	r.metrics.RegistrySize(0)
}

// Records returns copies of all records sorted by key.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.records))
	for _, key := range r.keys() {
		out = append(out, *r.records[key])
	}
	return out
}

func (r *Registry) keys() []Key {
	keys := make([]Key, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *Registry) release(rec *Record) {
	if r.world == nil {
		r.logger.Warn("no world attached, dropping joint record", "key", rec.Key)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("world panicked removing joint", "key", rec.Key, "kind", rec.Kind.String(), "panic", p)
		}
	}()

	if err := r.world.RemoveJoint(rec.Joint); err != nil {
		if errors.Is(err, ErrStaleJoint) {
			r.logger.Debug("joint already removed by world", "key", rec.Key)
			return
		}
		r.logger.Warn("world failed to remove joint", "key", rec.Key, "kind", rec.Kind.String(), "err", err)
	}
}
