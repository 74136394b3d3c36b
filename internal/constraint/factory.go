package constraint

import (
	"fmt"
)

// Built is the outcome of a successful strategy.
type Built struct {
	Joint JointHandle
	// Approximated is set when the world lacked the requested primitive and a
	// substitute joint was created instead.
	Approximated bool
}

// Strategy creates one kind of joint. Strategies are stateless; registry
// bookkeeping is the caller's job.
type Strategy func(api JointAPI, world World, a, b Body, cfg Config) (Built, error)

// Factory maps every Kind to its creation strategy.
type Factory struct {
	strategies map[Kind]Strategy
}

func NewFactory() *Factory {
	f := &Factory{strategies: make(map[Kind]Strategy)}

	f.strategies[KindRope] = createRope
	f.strategies[KindDistance] = createDistance
	f.strategies[KindRevolute] = createRevolute
	f.strategies[KindSpherical] = createSpherical
	f.strategies[KindPrismatic] = createPrismatic

	return f
}

// Register replaces the strategy for kind.
func (f *Factory) Register(kind Kind, s Strategy) {
	f.strategies[kind] = s
}

// Create runs the strategy for kind. Panics raised inside the world are
// returned as ErrWorldRejected.
func (f *Factory) Create(kind Kind, api JointAPI, world World, a, b Body, cfg Config) (built Built, err error) {
	strategy, ok := f.strategies[kind]
	if !ok {
		return Built{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	defer func() {
		if r := recover(); r != nil {
			built = Built{}
			err = fmt.Errorf("%w: %s joint: %v", ErrWorldRejected, kind, r)
		}
	}()

	built, err = strategy(api, world, a, b, cfg)
	if err != nil {
		return Built{}, fmt.Errorf("%w: %s joint: %w", ErrWorldRejected, kind, err)
	}
	if built.Joint == nil {
		return Built{}, fmt.Errorf("%w: %s joint: world returned no handle", ErrWorldRejected, kind)
	}
	return built, nil
}

// RestLength is the current distance between the two world-space anchor
// points, or the configured distance when one was given.
func RestLength(a, b Body, cfg Config) float64 {
	if cfg.Distance != nil {
		return *cfg.Distance
	}
	pa := a.Translation().Add(cfg.AnchorA)
	pb := b.Translation().Add(cfg.AnchorB)
	return pb.Sub(pa).Len()
}

func attach(world World, data JointData, err error, a, b Body) (JointHandle, error) {
	if err != nil {
		return nil, err
	}
	return world.CreateJoint(data, a, b, true)
}

func createRope(api JointAPI, world World, a, b Body, cfg Config) (Built, error) {
	data, err := api.Rope(RopeParams{
		MaxLength: RestLength(a, b, cfg),
		AnchorA:   cfg.AnchorA,
		AnchorB:   cfg.AnchorB,
	})
	joint, err := attach(world, data, err, a, b)
	return Built{Joint: joint}, err
}

// createDistance uses the world's fixed-distance primitive when it has one.
// Otherwise it falls back to a spherical joint, which shares the anchors but
// does not hold the rest length.
func createDistance(api JointAPI, world World, a, b Body, cfg Config) (Built, error) {
	if dapi, ok := api.(DistanceAPI); ok {
		data, err := dapi.Distance(DistanceParams{
			Length:  RestLength(a, b, cfg),
			AnchorA: cfg.AnchorA,
			AnchorB: cfg.AnchorB,
		})
		joint, err := attach(world, data, err, a, b)
		return Built{Joint: joint}, err
	}

	built, err := createSpherical(api, world, a, b, cfg)
	built.Approximated = true
	return built, err
}

func createRevolute(api JointAPI, world World, a, b Body, cfg Config) (Built, error) {
	data, err := api.Revolute(RevoluteParams{
		AnchorA: cfg.AnchorA,
		AnchorB: cfg.AnchorB,
		Axis:    cfg.AxisA,
		Limits:  cfg.Limits,
		Motor:   cfg.Motor,
	})
	joint, err := attach(world, data, err, a, b)
	return Built{Joint: joint}, err
}

func createSpherical(api JointAPI, world World, a, b Body, cfg Config) (Built, error) {
	data, err := api.Spherical(SphericalParams{
		AnchorA: cfg.AnchorA,
		AnchorB: cfg.AnchorB,
	})
	joint, err := attach(world, data, err, a, b)
	return Built{Joint: joint}, err
}

func createPrismatic(api JointAPI, world World, a, b Body, cfg Config) (Built, error) {
	data, err := api.Prismatic(PrismaticParams{
		AnchorA: cfg.AnchorA,
		AnchorB: cfg.AnchorB,
		Axis:    cfg.AxisA,
		Limits:  cfg.Limits,
	})
	joint, err := attach(world, data, err, a, b)
	return Built{Joint: joint}, err
}
