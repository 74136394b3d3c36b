package constraint_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/logging"
	"github.com/san-kum/jointsync/internal/physics/memworld"
	"github.com/san-kum/jointsync/internal/scene"
	"github.com/san-kum/jointsync/internal/telemetry"
)

func objects(ids ...string) []scene.ObjectDescriptor {
	out := make([]scene.ObjectDescriptor, len(ids))
	for i, id := range ids {
		out[i] = scene.ObjectDescriptor{ID: id, Position: scene.Tuple(float64(i), 0, 0)}
	}
	return out
}

func joint(kind, a, b string) scene.JointDescriptor {
	return scene.JointDescriptor{Type: kind, BodyA: a, BodyB: b}
}

var _ = Describe("Synchronizer", func() {
	var (
		desc  *scene.Descriptor
		world *memworld.World
		sync  *constraint.Synchronizer
		logs  *bytes.Buffer
		reg   *prometheus.Registry
	)

	newSync := func() {
		logs = &bytes.Buffer{}
		reg = prometheus.NewRegistry()
		logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		sync = constraint.New(desc,
			constraint.WithLogger(logger),
			constraint.WithMetrics(telemetry.New(reg)))
	}

	bindAndInit := func() *constraint.Report {
		Expect(sync.Bind(world, world.API())).To(Succeed())
		report, err := sync.InitializeConstraints()
		Expect(err).NotTo(HaveOccurred())
		return report
	}

	BeforeEach(func() {
		desc = &scene.Descriptor{
			Objects: objects("a", "b", "c"),
			Joints: []scene.JointDescriptor{
				joint("rope", "a", "b"),
				joint("hinge", "b", "c"),
			},
		}
		world = memworld.FromScene(desc)
		newSync()
	})

	Describe("contract", func() {
		It("rejects initialization before bind", func() {
			_, err := sync.InitializeConstraints()
			Expect(err).To(MatchError(constraint.ErrNotBound))
			Expect(sync.State()).To(Equal(constraint.StateUnbound))
		})

		It("rejects a nil world or api", func() {
			Expect(sync.Bind(nil, world.API())).To(MatchError(constraint.ErrNilWorld))
			Expect(sync.Bind(world, nil)).To(MatchError(constraint.ErrNilWorld))
			Expect(sync.State()).To(Equal(constraint.StateUnbound))
		})

		It("moves through the lifecycle states", func() {
			Expect(sync.Bind(world, world.API())).To(Succeed())
			Expect(sync.State()).To(Equal(constraint.StateBound))
			fp, err := desc.Fingerprint()
			Expect(err).NotTo(HaveOccurred())
			Expect(sync.Fingerprint()).To(Equal(fp))

			_, err = sync.InitializeConstraints()
			Expect(err).NotTo(HaveOccurred())
			Expect(sync.State()).To(Equal(constraint.StateInitialized))

			sync.Destroy()
			Expect(sync.State()).To(Equal(constraint.StateUnbound))
			Expect(sync.Fingerprint()).To(BeEmpty())
		})
	})

	Describe("initialization", func() {
		It("creates one joint per declared pair", func() {
			report := bindAndInit()
			Expect(report.Created).To(HaveLen(2))
			Expect(report.Skipped).To(BeEmpty())
			Expect(sync.Count()).To(Equal(2))
			Expect(world.JointCount()).To(Equal(2))

			kinds := []string{}
			for _, j := range world.Joints() {
				kinds = append(kinds, j.Kind)
				Expect(j.WakeBoth).To(BeTrue())
			}
			Expect(kinds).To(Equal([]string{"rope", "revolute"}))
		})

		It("is idempotent", func() {
			first := bindAndInit()
			again, err := sync.InitializeConstraints()
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(BeIdenticalTo(first))
			Expect(world.JointCount()).To(Equal(2))

			Expect(sync.Bind(world, world.API())).To(Succeed())
			_, err = sync.InitializeConstraints()
			Expect(err).NotTo(HaveOccurred())
			Expect(world.JointCount()).To(Equal(2))
			Expect(sync.State()).To(Equal(constraint.StateInitialized))
		})

		It("never creates two joints for one pair", func() {
			desc.Joints = append(desc.Joints,
				joint("spherical", "b", "a"),
				joint("prismatic", "a", "b"))
			world = memworld.FromScene(desc)
			newSync()

			report := bindAndInit()
			Expect(sync.Count()).To(Equal(2))
			Expect(report.Duplicates()).To(Equal(2))
			Expect(report.Warnings()).To(BeEmpty())
			Expect(logs.String()).To(ContainSubstring("level=INFO msg=\"joint skipped\""))
		})

		It("skips broken descriptors and keeps going", func() {
			desc.Joints = []scene.JointDescriptor{
				{BodyA: "a", BodyB: "b"},
				joint("weld", "a", "b"),
				joint("rope", "a", "a"),
				joint("rope", "a", "ghost"),
				joint("rope", "b", "c"),
			}
			newSync()

			report := bindAndInit()
			Expect(report.Created).To(HaveLen(1))
			Expect(report.SkippedBy(constraint.ReasonStructural)).To(HaveLen(1))
			Expect(report.SkippedBy(constraint.ReasonUnknownKind)).To(HaveLen(1))
			Expect(report.SkippedBy(constraint.ReasonSelfPair)).To(HaveLen(1))
			Expect(report.SkippedBy(constraint.ReasonUnresolvedBody)).To(HaveLen(1))
			Expect(sync.Warnings()).To(HaveLen(4))

			skip := report.SkippedBy(constraint.ReasonUnresolvedBody)[0]
			Expect(skip.Index).To(Equal(3))
			Expect(errors.Is(skip.Err, constraint.ErrUnresolvedBody)).To(BeTrue())
			var jerr *constraint.JointError
			Expect(errors.As(skip.Err, &jerr)).To(BeTrue())
			Expect(jerr.BodyB).To(Equal("ghost"))
		})

		It("contains world failures", func() {
			world.SetFailure("rope", errors.New("solver full"))
			world.PanicOn("revolute", "bad axis")

			report := bindAndInit()
			Expect(report.Created).To(BeEmpty())
			Expect(report.SkippedBy(constraint.ReasonWorldRejected)).To(HaveLen(2))
			Expect(sync.State()).To(Equal(constraint.StateInitialized))
		})

		It("rejects a joint whose body vanished after the scan", func() {
			desc.Joints = []scene.JointDescriptor{
				joint("rope", "a", "b"),
				joint("hinge", "c", "a"),
			}
			defaults := constraint.NewFactory()
			factory := constraint.NewFactory()
			factory.Register(constraint.KindRope, func(api constraint.JointAPI, w constraint.World, a, b constraint.Body, cfg constraint.Config) (constraint.Built, error) {
				world.RemoveBody("b")
				return defaults.Create(constraint.KindRope, api, w, a, b, cfg)
			})
			newSync()
			logger := slog.New(slog.NewTextHandler(logs, nil))
			sync = constraint.New(desc, constraint.WithLogger(logger), constraint.WithFactory(factory))

			report := bindAndInit()
			skips := report.SkippedBy(constraint.ReasonWorldRejected)
			Expect(skips).To(HaveLen(1))
			Expect(skips[0].Index).To(Equal(0))
			Expect(errors.Is(skips[0].Err, memworld.ErrForeignBody)).To(BeTrue())

			Expect(report.Created).To(HaveLen(1))
			Expect(report.Created[0].Kind).To(Equal(constraint.KindRevolute))
			Expect(world.JointCount()).To(Equal(1))
			Expect(sync.Count()).To(Equal(1))
			Expect(logs.String()).To(ContainSubstring("level=WARN"))
			Expect(logs.String()).To(ContainSubstring("reason=world_rejected"))
		})

		It("tolerates non-finite values in the scene", func() {
			d, err := scene.Decode([]byte(`
objects:
  - id: a
  - id: b
joints:
  - type: hinge
    bodyA: a
    bodyB: b
    limits: [.nan, 1]
`), scene.FormatYAML)
			Expect(err).NotTo(HaveOccurred())
			desc = d
			world = memworld.FromScene(desc)
			newSync()

			report := bindAndInit()
			Expect(report.Created).To(HaveLen(1))
			Expect(sync.State()).To(Equal(constraint.StateInitialized))
			Expect(world.Joints()[0].Params.(constraint.RevoluteParams).Limits).To(BeNil())
		})

		It("traces each scanned body", func() {
			var buf bytes.Buffer
			sync = constraint.New(desc, constraint.WithLogger(logging.NewLogger("trace", "text", &buf)))
			bindAndInit()
			Expect(buf.String()).To(ContainSubstring(`level=TRACE msg="body scanned" id=a`))

			newSync()
			bindAndInit()
			Expect(logs.String()).NotTo(ContainSubstring("body scanned"))
		})

		It("ignores untagged bodies and repeated tags", func() {
			world.AddBody("", mgl64.Vec3{})
			world.AddBody("a", mgl64.Vec3{9, 9, 9})

			bindAndInit()
			rope := world.Joints()[0]
			Expect(rope.BodyA.Translation()).To(Equal(mgl64.Vec3{0, 0, 0}))
		})

		It("feeds the metrics", func() {
			desc.Joints = append(desc.Joints, joint("rope", "b", "a"))
			newSync()
			bindAndInit()

			expected := `
# HELP jointsync_joints_created_total Joints created in the bound world, by kind.
# TYPE jointsync_joints_created_total counter
jointsync_joints_created_total{kind="revolute"} 1
jointsync_joints_created_total{kind="rope"} 1
# HELP jointsync_joints_skipped_total Joint descriptors skipped during initialization, by reason.
# TYPE jointsync_joints_skipped_total counter
jointsync_joints_skipped_total{reason="duplicate"} 1
`
			Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected),
				"jointsync_joints_created_total", "jointsync_joints_skipped_total")).To(Succeed())
		})
	})

	Describe("distance joints", func() {
		BeforeEach(func() {
			desc.Joints = []scene.JointDescriptor{joint("distance", "a", "b")}
		})

		It("falls back to a spherical joint without a distance primitive", func() {
			world = memworld.FromScene(desc)
			newSync()
			report := bindAndInit()
			Expect(report.Created).To(HaveLen(1))
			Expect(report.Created[0].Approximated).To(BeTrue())
			Expect(world.Joints()[0].Kind).To(Equal("spherical"))
		})

		It("uses the distance primitive when available", func() {
			world = memworld.FromScene(desc, memworld.WithDistance())
			newSync()
			report := bindAndInit()
			Expect(report.Created[0].Approximated).To(BeFalse())
			Expect(world.Joints()[0].Kind).To(Equal("distance"))

			params := world.Joints()[0].Params.(constraint.DistanceParams)
			Expect(params.Length).To(BeNumerically("~", 1.0, 1e-9))
		})
	})

	Describe("removal and teardown", func() {
		It("removes a joint in either order", func() {
			bindAndInit()
			Expect(sync.RemoveJoint("b", "a")).To(BeTrue())
			Expect(sync.RemoveJoint("a", "b")).To(BeFalse())
			Expect(sync.Count()).To(Equal(1))
			Expect(world.JointCount()).To(Equal(1))
		})

		It("tolerates joints the world already destroyed", func() {
			bindAndInit()
			world.RemoveBody("a")
			Expect(world.JointCount()).To(Equal(1))

			sync.Destroy()
			Expect(sync.Count()).To(BeZero())
			Expect(world.JointCount()).To(BeZero())
		})

		It("tears down fully and rebuilds", func() {
			bindAndInit()
			sync.Destroy()
			Expect(world.JointCount()).To(BeZero())
			Expect(sync.Count()).To(BeZero())

			report := bindAndInit()
			Expect(report.Created).To(HaveLen(2))
			Expect(world.JointCount()).To(Equal(2))
		})
	})

	Describe("change detection", func() {
		It("rebuilds with new joint instances when the scene changes", func() {
			bindAndInit()
			before := world.Joints()

			desc.Joints[0].Distance = scene.Float(3)
			Expect(sync.Bind(world, world.API())).To(Succeed())
			Expect(sync.State()).To(Equal(constraint.StateBound))
			Expect(sync.Count()).To(BeZero())

			_, err := sync.InitializeConstraints()
			Expect(err).NotTo(HaveOccurred())
			after := world.Joints()
			Expect(after).To(HaveLen(2))
			for _, old := range before {
				Expect(after).NotTo(ContainElement(BeIdenticalTo(old)))
			}
			Expect(after[0].Params.(constraint.RopeParams).MaxLength).To(Equal(3.0))
			Expect(testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP jointsync_resyncs_total Teardowns triggered by a scene or world change.
# TYPE jointsync_resyncs_total counter
jointsync_resyncs_total 1
`), "jointsync_resyncs_total")).To(Succeed())
		})

		It("moves joints to a replacement world", func() {
			bindAndInit()
			old := world
			Expect(old.JointCount()).To(Equal(2))

			restarted := memworld.FromScene(desc)
			Expect(sync.Bind(restarted, restarted.API())).To(Succeed())
			Expect(sync.State()).To(Equal(constraint.StateBound))
			Expect(sync.Count()).To(BeZero())
			Expect(old.JointCount()).To(BeZero())
			Expect(old.Removed()).To(Equal(2))

			report, err := sync.InitializeConstraints()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Created).To(HaveLen(2))
			Expect(restarted.JointCount()).To(Equal(2))

			Expect(sync.RemoveJoint("b", "a")).To(BeTrue())
			Expect(restarted.JointCount()).To(Equal(1))
			Expect(old.JointCount()).To(BeZero())
		})

		It("keeps joints when the scene is unchanged", func() {
			bindAndInit()
			before := world.Joints()

			Expect(sync.Bind(world, world.API())).To(Succeed())
			Expect(sync.State()).To(Equal(constraint.StateInitialized))
			Expect(world.Joints()).To(Equal(before))
		})

		It("updates the fingerprint while still bound", func() {
			Expect(sync.Bind(world, world.API())).To(Succeed())
			old := sync.Fingerprint()
			desc.Joints = desc.Joints[:1]
			Expect(sync.Bind(world, world.API())).To(Succeed())
			Expect(sync.State()).To(Equal(constraint.StateBound))
			Expect(sync.Fingerprint()).NotTo(Equal(old))

			report, err := sync.InitializeConstraints()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Created).To(HaveLen(1))
		})
	})

	Describe("pending bodies", func() {
		It("lists referenced bodies that the world lacks", func() {
			world = memworld.New()
			world.AddBody("b", mgl64.Vec3{})
			Expect(sync.PendingBodies()).To(BeNil())

			Expect(sync.Bind(world, world.API())).To(Succeed())
			Expect(sync.PendingBodies()).To(Equal([]string{"a", "c"}))

			world.AddBody("a", mgl64.Vec3{})
			world.AddBody("c", mgl64.Vec3{})
			Expect(sync.PendingBodies()).To(BeEmpty())
		})
	})

	Describe("scenarios", func() {
		It("creates a single rope between two bodies", func() {
			desc = &scene.Descriptor{
				Objects: objects("a", "b"),
				Joints: []scene.JointDescriptor{{
					Type: "rope", BodyA: "a", BodyB: "b",
					JointParams: scene.JointParams{Distance: scene.Float(2)},
				}},
			}
			world = memworld.FromScene(desc)
			newSync()

			bindAndInit()
			Expect(world.Joints()).To(HaveLen(1))
			j := world.Joints()[0]
			Expect(j.Kind).To(Equal("rope"))
			Expect(j.Params.(constraint.RopeParams).MaxLength).To(Equal(2.0))
			ids := []string{}
			for _, b := range []*memworld.Body{j.BodyA, j.BodyB} {
				id, _ := b.Tag()
				ids = append(ids, id)
			}
			Expect(ids).To(ConsistOf("a", "b"))
		})

		It("deduplicates a pair declared on the scene and on an object", func() {
			desc = &scene.Descriptor{
				Objects: []scene.ObjectDescriptor{
					{ID: "x", Constraints: []scene.ObjectConstraint{{Type: "distance", TargetID: "y"}}},
					{ID: "y"},
				},
				Joints: []scene.JointDescriptor{joint("distance", "x", "y")},
			}
			world = memworld.FromScene(desc)
			newSync()

			report := bindAndInit()
			Expect(sync.Count()).To(Equal(1))
			Expect(report.Duplicates()).To(Equal(1))
		})

		It("builds a hinge with limits and motor", func() {
			desc = &scene.Descriptor{
				Objects: objects("door", "frame"),
				Joints: []scene.JointDescriptor{{
					Type: "hinge", BodyA: "door", BodyB: "frame",
					JointParams: scene.JointParams{
						AnchorA:             scene.Record(0.5, 0, 0),
						Axis:                scene.Tuple(0, 0, 1),
						Limits:              []float64{-1.5, 1.5},
						MotorEnabled:        true,
						MotorTargetVelocity: scene.Float(2),
						MotorMaxForce:       scene.Float(10),
					},
				}},
			}
			world = memworld.FromScene(desc)
			newSync()

			bindAndInit()
			p := world.Joints()[0].Params.(constraint.RevoluteParams)
			Expect(p.AnchorA).To(Equal(mgl64.Vec3{0.5, 0, 0}))
			Expect(p.Axis).To(Equal(mgl64.Vec3{0, 0, 1}))
			Expect(*p.Limits).To(Equal(constraint.Limits{Min: -1.5, Max: 1.5}))
			Expect(*p.Motor).To(Equal(constraint.Motor{TargetVelocity: 2, MaxForce: 10}))
		})
	})
})
