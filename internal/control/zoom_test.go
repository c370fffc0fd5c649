package control

import (
	"bytes"
	"errors"
	"log"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/optics"
)

// lens is a camera the tests drive by feeding each step back in.
type lens struct {
	focalLength float64
	fov         float64
}

func (l *lens) apply(s Step) {
	l.focalLength = s.FocalLength
	l.fov = s.Fov
}

var _ = Describe("Zoom", func() {
	var (
		buf     *bytes.Buffer
		z       *Zoom
		cam     *lens
		newZoom func(Settings) *Zoom
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		newZoom = func(s Settings) *Zoom {
			zz, err := NewZoom(s, logging.New(log.New(buf, "", 0), true))
			Expect(err).NotTo(HaveOccurred())
			zz.Bind()
			return zz
		}
		z = newZoom(DefaultSettings())
		cam = &lens{focalLength: 0.01, fov: 2.0}
	})

	Describe("lifecycle", func() {
		It("starts uninitialized and refuses to advance", func() {
			zz, err := NewZoom(DefaultSettings(), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(zz.Phase()).To(Equal(Uninitialized))

			_, err = zz.Advance(0.1, cam.focalLength, cam.fov)
			Expect(errors.Is(err, ErrNotBound)).To(BeTrue())
		})

		It("moves from bound to tracking on the first command", func() {
			Expect(z.Phase()).To(Equal(Bound))

			_, err := z.Advance(0.1, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(z.Phase()).To(Equal(Bound))

			z.Submit(2)
			_, err = z.Advance(0.1, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(z.Phase()).To(Equal(Tracking))
		})

		It("resets idempotently and drops the pending command", func() {
			z.Submit(3)
			z.Reset()
			z.Reset()
			Expect(z.Phase()).To(Equal(Uninitialized))
			Expect(z.PendingCommand()).To(BeFalse())
			Expect(z.GoalFov()).To(Equal(2.0))

			z.Bind()
			step, err := z.Advance(0.1, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Consumed).To(BeFalse())
		})
	})

	Describe("unbounded slew rate", func() {
		It("reaches a 4x goal in a single tick without warning", func() {
			z.Submit(4.0)
			step, err := z.Advance(0.01, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())

			Expect(z.GoalFov()).To(BeNumerically("~", 0.5, 1e-12))
			Expect(step.Fov).To(BeNumerically("~", 0.5, 1e-9))
			Expect(step.Clamped).To(BeFalse())
			Expect(buf.String()).NotTo(ContainSubstring("[WRN]"))
			Expect(z.CurrentZoom()).To(BeNumerically("~", 4.0, 1e-8))
		})

		It("clamps an excessive command and warns", func() {
			z.Submit(20.0)
			step, err := z.Advance(0.01, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())

			Expect(step.Clamped).To(BeTrue())
			Expect(step.Requested).To(Equal(20.0))
			Expect(step.Zoom).To(Equal(10.0))
			Expect(z.GoalFov()).To(BeNumerically("~", 0.2, 1e-12))
			Expect(buf.String()).To(ContainSubstring("clamped to 10"))
		})

		It("clamps below the minimum zoom", func() {
			z.Submit(0.25)
			step, err := z.Advance(0.01, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Clamped).To(BeTrue())
			Expect(step.Zoom).To(Equal(MinZoom))
			Expect(z.GoalFov()).To(Equal(2.0))
		})

		It("ignores a NaN command and keeps the goal", func() {
			z.Submit(4.0)
			_, err := z.Advance(0.01, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())

			z.Submit(math.NaN())
			step, err := z.Advance(0.01, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Consumed).To(BeTrue())
			Expect(step.Clamped).To(BeFalse())
			Expect(z.GoalFov()).To(BeNumerically("~", 0.5, 1e-12))
			Expect(buf.String()).To(ContainSubstring("invalid zoom command"))
		})
	})

	Describe("clamping property", func() {
		It("uses max(1, min(z, maxZoom)) and warns only when the value changed", func() {
			for _, requested := range []float64{-3, 0, 0.5, 1, 1.5, 7, 10, 10.5, 1e9, math.Inf(1), math.Inf(-1)} {
				clamped, changed := z.Clamp(requested)
				Expect(clamped).To(Equal(math.Max(1, math.Min(requested, 10))), "requested %v", requested)
				Expect(changed).To(Equal(clamped != requested), "requested %v", requested)
			}
		})
	})

	Describe("monotonicity", func() {
		It("narrows the goal fov as zoom increases", func() {
			prev := math.Inf(1)
			for zoom := 1.0; zoom <= 10.0; zoom += 0.25 {
				z.Submit(zoom)
				_, err := z.Advance(0, cam.focalLength, cam.fov)
				Expect(err).NotTo(HaveOccurred())
				Expect(z.GoalFov()).To(BeNumerically("<", prev))
				prev = z.GoalFov()
			}
		})
	})

	Describe("single consumption", func() {
		It("only consumes the latest of two commands between ticks", func() {
			z.Submit(2.0)
			z.Submit(5.0)

			step, err := z.Advance(0.01, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Consumed).To(BeTrue())
			Expect(step.Requested).To(Equal(5.0))
			Expect(z.GoalFov()).To(BeNumerically("~", 0.4, 1e-12))

			step, err = z.Advance(0.01, step.FocalLength, step.Fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Consumed).To(BeFalse())
		})
	})

	Describe("finite slew rate", func() {
		const (
			slew = 0.01
			dt   = 0.1
		)

		BeforeEach(func() {
			s := DefaultSettings()
			s.SlewRate = slew
			z = newZoom(s)
		})

		It("moves the focal length by min(slew*dt, remaining) each tick", func() {
			z.Submit(4.0)
			sensorWidth := optics.SensorWidthFromFocalLengthAndFov(cam.focalLength, cam.fov)
			goalFocal := optics.FocalLengthFromFov(sensorWidth, 0.5)

			for i := 0; i < 1000; i++ {
				remaining := math.Abs(goalFocal - cam.focalLength)
				before := cam.focalLength

				step, err := z.Advance(dt, cam.focalLength, cam.fov)
				Expect(err).NotTo(HaveOccurred())
				if !step.Changed {
					break
				}
				cam.apply(step)

				moved := math.Abs(cam.focalLength - before)
				Expect(moved).To(BeNumerically("~", math.Min(slew*dt, remaining), 1e-12))
				Expect(moved).To(BeNumerically("<=", slew*dt+1e-15))
				Expect(cam.focalLength).To(BeNumerically("<=", goalFocal+1e-12))
			}
			Expect(cam.fov).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("converges within the predicted number of ticks", func() {
			z.Submit(4.0)
			sensorWidth := optics.SensorWidthFromFocalLengthAndFov(cam.focalLength, cam.fov)
			goalFocal := optics.FocalLengthFromFov(sensorWidth, 0.5)
			bound := int(math.Ceil(math.Abs(cam.focalLength-goalFocal) / (slew * dt)))

			ticks := 0
			for ; ticks < bound; ticks++ {
				step, err := z.Advance(dt, cam.focalLength, cam.fov)
				Expect(err).NotTo(HaveOccurred())
				cam.apply(step)
			}
			Expect(cam.fov).To(BeNumerically("~", z.GoalFov(), 1e-9))
		})

		It("zooms back out without overshooting", func() {
			z.Submit(10.0)
			for i := 0; i < 2000; i++ {
				step, err := z.Advance(dt, cam.focalLength, cam.fov)
				Expect(err).NotTo(HaveOccurred())
				cam.apply(step)
			}
			Expect(cam.fov).To(BeNumerically("~", 0.2, 1e-9))

			z.Submit(1.0)
			for i := 0; i < 2000; i++ {
				step, err := z.Advance(dt, cam.focalLength, cam.fov)
				Expect(err).NotTo(HaveOccurred())
				cam.apply(step)
				Expect(cam.fov).To(BeNumerically("<=", 2.0+1e-9))
			}
			Expect(cam.fov).To(BeNumerically("~", 2.0, 1e-9))
		})

		It("does not move when dt is zero", func() {
			z.Submit(4.0)
			step, err := z.Advance(0, cam.focalLength, cam.fov)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Changed).To(BeFalse())
			Expect(step.FocalLength).To(Equal(cam.focalLength))
		})
	})

	Describe("no-op at goal", func() {
		It("leaves focal length unchanged", func() {
			step, err := z.Advance(0.1, cam.focalLength, 2.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(step.Changed).To(BeFalse())
			Expect(step.FocalLength).To(Equal(cam.focalLength))
			Expect(step.Fov).To(Equal(2.0))
		})
	})

	Describe("faults", func() {
		It("rejects degenerate camera fov", func() {
			for _, fov := range []float64{0, math.Pi, -1, math.NaN()} {
				_, err := z.Advance(0.1, cam.focalLength, fov)
				Expect(errors.Is(err, optics.ErrDegenerateFov)).To(BeTrue(), "fov %v", fov)
			}
		})

		It("rejects invalid focal length", func() {
			_, err := z.Advance(0.1, 0, 1.0)
			Expect(errors.Is(err, ErrInvalidFocalLength)).To(BeTrue())
		})

		It("rejects negative dt", func() {
			_, err := z.Advance(-0.1, cam.focalLength, cam.fov)
			Expect(errors.Is(err, ErrNegativeDt)).To(BeTrue())
		})

		It("still consumes the command on a faulted tick", func() {
			z.Submit(4.0)
			step, err := z.Advance(0.1, cam.focalLength, math.Pi)
			Expect(err).To(HaveOccurred())
			Expect(step.Consumed).To(BeTrue())
			Expect(z.GoalFov()).To(BeNumerically("~", 0.5, 1e-12))
		})
	})
})
