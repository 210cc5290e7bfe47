package sim_test

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/quadsim/internal/control"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/environment"
	"github.com/san-kum/quadsim/internal/sim"
)

// toggleAt presses the kill switch once at each listed time while the
// autopilot keeps flying.
func toggleAt(ap *control.Autopilot, times ...float64) dynamo.Pilot {
	return dynamo.PilotFunc(func(obs dynamo.Observation, tel dynamo.Telemetry, t float64) dynamo.Command {
		cmd := ap.Command(obs, tel, t)
		for _, press := range times {
			if math.Abs(t-press) < tick/2 {
				cmd.KillToggle = true
			}
		}
		return cmd
	})
}

var _ = Describe("Autopilot hover", func() {
	It("climbs off the floor and holds the target altitude", func() {
		res, err := newRig(1).build().Run(context.Background(), config(20))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(BeEmpty())

		final := res.Final()
		Expect(final.Observation.Altitude()).To(BeNumerically("~", 5, 0.5))
		Expect(final.Observation.Velocity.Y()).To(BeNumerically("~", 0, 0.2))
		Expect(final.Observation.TiltDeg()).To(BeNumerically("<", 2))
		Expect(final.Telemetry.Mode).To(Equal(dynamo.ModeArmed))
		Expect(final.Telemetry.Throttle).To(BeNumerically("~", 1/2.2, 0.05))
	})

	It("never overshoots far past the target", func() {
		res, err := newRig(1).build().Run(context.Background(), config(15))
		Expect(err).NotTo(HaveOccurred())
		for _, s := range res.Samples {
			Expect(s.Observation.Altitude()).To(BeNumerically("<", 6))
		}
	})
})

var _ = Describe("Upright rescue", func() {
	It("rights a body released at 150 degrees of tilt", func() {
		r := newRig(1)
		r.body.FloorEnabled = false
		r.pos = mgl64.Vec3{0, 100, 0}
		r.rot = mgl64.QuatRotate(mgl64.DegToRad(150), mgl64.Vec3{0, 0, 1})
		r.pilot = dynamo.Idle

		res, err := r.build().Run(context.Background(), config(3))
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Samples[0].Observation.TiltDeg()).To(BeNumerically("~", 150, 1e-6))
		Expect(res.Final().Observation.TiltDeg()).To(BeNumerically("<", 5))
		for _, s := range res.Samples {
			Expect(s.Observation.AngularVelocity.Len()).To(BeNumerically("<=", r.flight.MaxAngularSpeed+1e-9))
		}
	})
})

var _ = Describe("Battery depletion", func() {
	It("drops the vehicle and stays depleted until the battery is reset", func() {
		r := newRig(1)
		r.flight.BatteryCapacityJ = 1500
		s := r.build()

		res, err := s.Run(context.Background(), config(25))
		Expect(err).NotTo(HaveOccurred())

		Expect(at(res, 8).Observation.Altitude()).To(BeNumerically(">", 3))
		final := res.Final()
		Expect(final.Telemetry.Mode).To(Equal(dynamo.ModeDepleted))
		Expect(final.Telemetry.TotalThrustN).To(BeZero())
		Expect(final.Telemetry.PowerW).To(BeZero())
		Expect(final.Telemetry.Battery01).To(BeZero())
		Expect(final.Observation.Altitude()).To(BeNumerically("~", 0, 1e-9))

		s.Vehicle().ResetBattery()
		Expect(s.Vehicle().Mode()).To(Equal(dynamo.ModeArmed))
		Expect(s.Vehicle().Telemetry().Battery01).To(Equal(1.0))
	})

	It("never lets stored energy go negative", func() {
		r := newRig(1)
		r.flight.BatteryCapacityJ = 300
		res, err := r.build().Run(context.Background(), config(10))
		Expect(err).NotTo(HaveOccurred())
		for _, s := range res.Samples {
			Expect(s.Telemetry.BatteryEnergyJ).To(BeNumerically(">=", 0))
			Expect(s.Telemetry.Battery01).To(And(
				BeNumerically(">=", 0), BeNumerically("<=", 1)))
		}
	})
})

var _ = Describe("Kill switch", func() {
	It("cuts thrust at once and flies again after re-arming", func() {
		r := newRig(1)
		r.pilot = toggleAt(control.NewAutopilot(control.DefaultAutopilotParams()), 8, 10)

		res, err := r.build().Run(context.Background(), config(25))
		Expect(err).NotTo(HaveOccurred())

		before := at(res, 7.9)
		Expect(before.Telemetry.Mode).To(Equal(dynamo.ModeArmed))
		Expect(before.Observation.Altitude()).To(BeNumerically(">", 4))

		killed := at(res, 8+tick)
		Expect(killed.Telemetry.Mode).To(Equal(dynamo.ModeKilled))
		Expect(killed.Telemetry.KillMotors).To(BeTrue())
		Expect(killed.Telemetry.TotalThrustN).To(BeZero())

		Expect(at(res, 9.9).Observation.Altitude()).To(BeNumerically("<", 0.5))

		final := res.Final()
		Expect(final.Telemetry.Mode).To(Equal(dynamo.ModeArmed))
		Expect(final.Observation.Altitude()).To(BeNumerically("~", 5, 1.2))
	})
})

var _ = Describe("Multiple vehicles", func() {
	gusty := func(seed int64) *sim.Simulator {
		r := newRig(seed)
		r.env = environment.DefaultParams()
		return r.build()
	}

	It("steps fleet members independently of each other", func() {
		alone, err := gusty(7).Run(context.Background(), config(6))
		Expect(err).NotTo(HaveOccurred())

		fleet := sim.NewFleet(gusty(7), gusty(8), gusty(9))
		results, err := fleet.Run(context.Background(), config(6))
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		Expect(results[0].Final().Observation.Position).To(Equal(alone.Final().Observation.Position))
		Expect(results[0].Final().Telemetry).To(Equal(alone.Final().Telemetry))
		Expect(results[1].Final().Observation.Position).NotTo(Equal(results[0].Final().Observation.Position))
	})

	It("runs an ensemble over consecutive seeds reproducibly", func() {
		factory := func(seed int64) (*sim.Simulator, error) { return gusty(seed), nil }

		first, err := sim.NewEnsemble(factory, 4, 100).Run(context.Background(), config(4))
		Expect(err).NotTo(HaveOccurred())
		second, err := sim.NewEnsemble(factory, 4, 100).Run(context.Background(), config(4))
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(HaveLen(4))
		for i := range first {
			Expect(first[i].Final().Observation.Position).To(Equal(second[i].Final().Observation.Position))
		}
		Expect(first[0].Final().Observation.Position.X()).NotTo(Equal(first[1].Final().Observation.Position.X()))
	})
})
