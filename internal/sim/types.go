package sim

import "fmt"

// UpdateInfo describes the tick being evaluated.
type UpdateInfo struct {
	Iteration uint64
	SimTime   float64 // [s]
	Dt        float64 // [s], zero while paused
	Paused    bool
}

// System is evaluated once per tick, before and after rendering.
type System interface {
	PreUpdate(info UpdateInfo) error
	PostUpdate(info UpdateInfo)
}

// Sample is the camera state recorded after a tick.
type Sample struct {
	Time        float64
	Hfov        float64 // [rad]
	FocalLength float64 // [m]
	GoalFov     float64 // [rad]
	Zoom        float64
	Bound       bool
}

// Probe reads the recorded state of the camera under test.
type Probe interface {
	Sample(info UpdateInfo) Sample
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(info UpdateInfo, s Sample)
}

type Config struct {
	Dt       float64
	Duration float64
}

type Result struct {
	Samples    []Sample
	Times      []float64
	Metrics    map[string]float64
	Errors     []error
	StepsTaken int
}

// Final returns the last recorded sample.
func (r *Result) Final() (Sample, bool) {
	if len(r.Samples) == 0 {
		return Sample{}, false
	}
	return r.Samples[len(r.Samples)-1], true
}

// SimError is a system failure reported during a tick. The host keeps
// running after one.
type SimError struct {
	Time float64
	Step uint64
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim error at t=%.4f (step %d): %v", e.Time, e.Step, e.Err)
}

func (e SimError) Unwrap() error { return e.Err }
