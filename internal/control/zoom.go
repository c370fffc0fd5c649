package control

import (
	"fmt"
	"math"

	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/optics"
)

// MinZoom is the zoom factor of the reference field of view.
const MinZoom = 1.0

const epsilon = 2.220446049250313e-16

// Phase is the lifecycle state of a Zoom controller.
type Phase int

const (
	Uninitialized Phase = iota
	Bound
	Tracking
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "UNINITIALIZED"
	case Bound:
		return "BOUND"
	case Tracking:
		return "TRACKING"
	default:
		return "UNKNOWN"
	}
}

// Settings are fixed when the controller is created.
type Settings struct {
	ReferenceFov float64 // horizontal fov at zoom 1.0 [rad]
	MaxZoom      float64
	SlewRate     float64 // focal length change per second [m/s], +Inf for instant
}

func DefaultSettings() Settings {
	return Settings{
		ReferenceFov: 2.0,
		MaxZoom:      10.0,
		SlewRate:     math.Inf(1),
	}
}

// Validate checks the ranges required by Advance.
func (s Settings) Validate() error {
	if !optics.ValidFov(s.ReferenceFov) {
		return fmt.Errorf("%w: reference fov %g outside (0, pi)", ErrInvalidSettings, s.ReferenceFov)
	}
	if math.IsNaN(s.MaxZoom) || math.IsInf(s.MaxZoom, 0) || s.MaxZoom < MinZoom {
		return fmt.Errorf("%w: max zoom %g must be finite and >= %g", ErrInvalidSettings, s.MaxZoom, MinZoom)
	}
	if math.IsNaN(s.SlewRate) || s.SlewRate <= 0 {
		return fmt.Errorf("%w: slew rate %g must be positive", ErrInvalidSettings, s.SlewRate)
	}
	return nil
}

// Unbounded reports whether focal length changes are applied instantly.
func (s Settings) Unbounded() bool {
	return math.IsInf(s.SlewRate, 1)
}

// Step is the outcome of one Advance call.
type Step struct {
	Fov         float64 // fov to apply to the camera [rad]
	FocalLength float64 // focal length matching Fov [m]
	Changed     bool    // false when the goal was already reached
	Consumed    bool    // a command was taken from the mailbox this tick
	Clamped     bool    // the consumed command was outside [MinZoom, MaxZoom]
	Requested   float64 // raw value of the consumed command
	Zoom        float64 // clamped zoom factor of the current goal
}

// Zoom drives a lens focal length toward the goal implied by the latest
// zoom command, at most SlewRate meters per simulated second.
type Zoom struct {
	settings    Settings
	mailbox     Mailbox
	phase       Phase
	goalFov     float64
	zoom        float64
	currentZoom float64
	log         *logging.Logger
}

// NewZoom validates s and returns an Uninitialized controller whose goal is
// the reference fov. log may be nil.
func NewZoom(s Settings, log *logging.Logger) (*Zoom, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Zoom{
		settings:    s,
		goalFov:     s.ReferenceFov,
		zoom:        MinZoom,
		currentZoom: MinZoom,
		log:         log,
	}, nil
}

// Submit queues a zoom command. Safe for concurrent use.
func (z *Zoom) Submit(v float64) {
	z.mailbox.Submit(v)
}

// Bind marks the target camera as resolved.
func (z *Zoom) Bind() {
	if z.phase == Uninitialized {
		z.phase = Bound
	}
}

// Reset returns to Uninitialized, drops any pending command and restores the
// reference goal. Calling it repeatedly is harmless.
func (z *Zoom) Reset() {
	z.phase = Uninitialized
	z.mailbox.Clear()
	z.goalFov = z.settings.ReferenceFov
	z.zoom = MinZoom
	z.currentZoom = MinZoom
}

func (z *Zoom) Phase() Phase         { return z.phase }
func (z *Zoom) Settings() Settings   { return z.settings }
func (z *Zoom) GoalFov() float64     { return z.goalFov }
func (z *Zoom) GoalZoom() float64    { return z.zoom }
func (z *Zoom) CurrentZoom() float64 { return z.currentZoom }
func (z *Zoom) PendingCommand() bool { return z.mailbox.Pending() }

// Clamp limits a requested zoom to [MinZoom, MaxZoom] and reports whether the
// value changed by more than machine epsilon.
func (z *Zoom) Clamp(requested float64) (float64, bool) {
	clamped := math.Max(MinZoom, math.Min(requested, z.settings.MaxZoom))
	return clamped, math.Abs(requested-clamped) > epsilon
}

// Advance runs one tick. It consumes at most one pending command, recomputes
// the goal fov when it does, and moves the focal length toward the goal by at
// most SlewRate*dt without overshooting. The camera's current focal length
// and fov are the source of truth; the sensor width is derived from them.
func (z *Zoom) Advance(dt, currentFocalLength, currentFov float64) (Step, error) {
	if z.phase == Uninitialized {
		return Step{}, ErrNotBound
	}
	if math.IsNaN(dt) || dt < 0 {
		return Step{}, fmt.Errorf("%w: %g", ErrNegativeDt, dt)
	}

	step := Step{Fov: currentFov, FocalLength: currentFocalLength}

	if requested, ok := z.mailbox.Take(); ok {
		step.Consumed = true
		step.Requested = requested
		if err := z.applyCommand(requested, &step); err != nil {
			z.log.Warnf("%v, keeping goal fov %.6f", err, z.goalFov)
		}
	}
	step.Zoom = z.zoom

	if !optics.ValidFov(currentFov) {
		return step, fmt.Errorf("%w: camera reports %g", optics.ErrDegenerateFov, currentFov)
	}
	if math.IsNaN(currentFocalLength) || math.IsInf(currentFocalLength, 0) || currentFocalLength <= 0 {
		return step, fmt.Errorf("%w: %g", ErrInvalidFocalLength, currentFocalLength)
	}

	// Goal already achieved.
	if math.Abs(z.goalFov-currentFov) < epsilon {
		z.currentZoom = z.settings.ReferenceFov / currentFov
		return step, nil
	}

	// Constant across the tick: it is a physical property of the lens.
	sensorWidth := optics.SensorWidthFromFocalLengthAndFov(currentFocalLength, currentFov)
	goalFocalLength := optics.FocalLengthFromFov(sensorWidth, z.goalFov)

	newFocalLength := goalFocalLength
	if !z.settings.Unbounded() {
		maxStep := z.settings.SlewRate * dt
		delta := math.Min(maxStep, math.Abs(currentFocalLength-goalFocalLength))
		if goalFocalLength > currentFocalLength {
			newFocalLength = currentFocalLength + delta
		} else {
			newFocalLength = currentFocalLength - delta
		}
	}

	if newFocalLength == currentFocalLength {
		z.currentZoom = z.settings.ReferenceFov / currentFov
		return step, nil
	}

	step.FocalLength = newFocalLength
	step.Fov = optics.FovFromFocalLength(sensorWidth, newFocalLength)
	step.Changed = true
	z.currentZoom = z.settings.ReferenceFov / step.Fov
	return step, nil
}

func (z *Zoom) applyCommand(requested float64, step *Step) error {
	if math.IsNaN(requested) {
		return fmt.Errorf("%w: NaN", ErrInvalidCommand)
	}

	clamped, changed := z.Clamp(requested)
	if changed {
		step.Clamped = true
		z.log.Warnf("Requested zoom command of %g has been clamped to %g.", requested, clamped)
	}

	z.zoom = clamped
	z.goalFov = z.settings.ReferenceFov / clamped
	if z.phase == Bound {
		z.phase = Tracking
	}
	return nil
}
