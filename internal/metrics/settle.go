package metrics

import (
	"math"

	"github.com/san-kum/zoomsim/internal/sim"
)

// NotSettled is reported by SettleTime when the last sample is still off goal.
const NotSettled = -1.0

// SettleTime is the time from which the fov stays within tolerance of the
// goal for the rest of the run. Samples taken before binding are ignored.
type SettleTime struct {
	name      string
	tolerance float64
	settledAt float64
	settled   bool
	samples   int
}

func NewSettleTime(tolerance float64) *SettleTime {
	return &SettleTime{
		name:      "settle_time",
		tolerance: tolerance,
	}
}

func (s *SettleTime) Name() string {
	return s.name
}

func (s *SettleTime) Observe(sample sim.Sample) {
	if !sample.Bound {
		return
	}
	s.samples++
	if math.Abs(sample.Hfov-sample.GoalFov) > s.tolerance {
		s.settled = false
		return
	}
	if !s.settled {
		s.settled = true
		s.settledAt = sample.Time
	}
}

func (s *SettleTime) Value() float64 {
	if !s.settled {
		return NotSettled
	}
	return s.settledAt
}

func (s *SettleTime) Reset() {
	s.settled = false
	s.settledAt = 0
	s.samples = 0
}

// FinalFovError is |hfov - goal| at the last bound sample [rad].
type FinalFovError struct {
	name  string
	value float64
}

func NewFinalFovError() *FinalFovError {
	return &FinalFovError{name: "final_fov_error"}
}

func (f *FinalFovError) Name() string { return f.name }

func (f *FinalFovError) Observe(s sim.Sample) {
	if s.Bound {
		f.value = math.Abs(s.Hfov - s.GoalFov)
	}
}

func (f *FinalFovError) Value() float64 { return f.value }
func (f *FinalFovError) Reset()         { f.value = 0 }
