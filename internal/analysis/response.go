package analysis

import (
	"math"

	"github.com/san-kum/zoomsim/internal/sim"
)

// NotReached marks a time the run never got to.
const NotReached = -1.0

// slack absorbs rounding when comparing step fractions.
const slack = 1e-9

// Segment describes the response to one goal fov.
type Segment struct {
	Start    float64
	End      float64 // time of the last sample before the next goal
	StartFov float64
	GoalFov  float64
	FinalFov float64

	RiseTime   float64 // 10% to 90% of the step, or NotReached
	SettleTime float64 // from Start until within tolerance for good, or NotReached
	Overshoot  float64 // largest excursion past the goal [rad]
	Monotonic  bool    // fov never moved away from the goal
}

// Reached reports whether the segment ended within tol of its goal.
func (s Segment) Reached(tol float64) bool {
	return math.Abs(s.FinalFov-s.GoalFov) <= tol
}

// Segments ignores samples taken while the camera was unbound. Consecutive
// goals closer than tol are merged.
func Segments(samples []sim.Sample, tol float64) []Segment {
	var segments []Segment
	var current []sim.Sample

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, analyze(current, tol))
		}
	}

	for _, s := range samples {
		if !s.Bound {
			continue
		}
		if len(current) > 0 && math.Abs(s.GoalFov-current[0].GoalFov) > tol {
			flush()
			prev := current[len(current)-1]
			current = []sim.Sample{prev}
			current[0].GoalFov = s.GoalFov
			current[0].Time = s.Time
		}
		current = append(current, s)
	}
	flush()
	return segments
}

// analyze expects run[0] to hold the fov at the moment the goal was set.
func analyze(run []sim.Sample, tol float64) Segment {
	first, last := run[0], run[len(run)-1]
	seg := Segment{
		Start:      first.Time,
		End:        last.Time,
		StartFov:   first.Hfov,
		GoalFov:    first.GoalFov,
		FinalFov:   last.Hfov,
		RiseTime:   NotReached,
		SettleTime: NotReached,
		Monotonic:  true,
	}

	step := seg.GoalFov - seg.StartFov
	if math.Abs(step) <= tol {
		seg.RiseTime = 0
		seg.SettleTime = 0
		return seg
	}
	dir := math.Copysign(1, step)

	t10, t90 := NotReached, NotReached
	prevErr := math.Abs(step)
	for _, s := range run {
		progress := (s.Hfov - seg.StartFov) / step
		if t10 == NotReached && progress >= 0.1-slack {
			t10 = s.Time
		}
		if t90 == NotReached && progress >= 0.9-slack {
			t90 = s.Time
		}

		if past := (s.Hfov - seg.GoalFov) * dir; past > seg.Overshoot {
			seg.Overshoot = past
		}

		err := math.Abs(s.Hfov - seg.GoalFov)
		if err > prevErr+tol {
			seg.Monotonic = false
		}
		prevErr = err

		if err <= tol {
			if seg.SettleTime == NotReached {
				seg.SettleTime = s.Time - seg.Start
			}
		} else {
			seg.SettleTime = NotReached
		}
	}

	if t10 != NotReached && t90 != NotReached {
		seg.RiseTime = t90 - t10
	}
	return seg
}
