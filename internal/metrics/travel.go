package metrics

import (
	"math"

	"github.com/san-kum/zoomsim/internal/sim"
)

// FocalTravel sums the absolute focal length change over a run [m]. It is
// the distance the zoom motor moved the lens.
type FocalTravel struct {
	name    string
	sum     float64
	last    float64
	samples int
}

func NewFocalTravel() *FocalTravel {
	return &FocalTravel{
		name: "focal_travel",
	}
}

func (f *FocalTravel) Name() string {
	return f.name
}

func (f *FocalTravel) Observe(s sim.Sample) {
	if f.samples > 0 {
		f.sum += math.Abs(s.FocalLength - f.last)
	}
	f.last = s.FocalLength
	f.samples++
}

func (f *FocalTravel) Value() float64 {
	return f.sum
}

func (f *FocalTravel) Reset() {
	f.sum = 0
	f.last = 0
	f.samples = 0
}

// MaxFocalStep is the largest focal length change between two samples [m].
// With a finite slew rate it never exceeds slew*dt.
type MaxFocalStep struct {
	name    string
	max     float64
	last    float64
	samples int
}

func NewMaxFocalStep() *MaxFocalStep {
	return &MaxFocalStep{
		name: "max_focal_step",
	}
}

func (m *MaxFocalStep) Name() string {
	return m.name
}

func (m *MaxFocalStep) Observe(s sim.Sample) {
	if m.samples > 0 {
		m.max = math.Max(m.max, math.Abs(s.FocalLength-m.last))
	}
	m.last = s.FocalLength
	m.samples++
}

func (m *MaxFocalStep) Value() float64 {
	return m.max
}

func (m *MaxFocalStep) Reset() {
	m.max = 0
	m.last = 0
	m.samples = 0
}
