package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/zoomsim/internal/sim"
)

// Spectrum is the power spectrum of the lens motor's focal length rate.
type Spectrum struct {
	Power      []float64 // bins 0..N/2, bin i is i/(N*dt) Hz
	Resolution float64   // Hz per bin
}

// MotorSpectrum transforms the per-tick focal length change of samples
// taken dt apart. The series is zero padded to a power of two.
func MotorSpectrum(samples []sim.Sample, dt float64) Spectrum {
	if len(samples) < 2 || dt <= 0 {
		return Spectrum{}
	}

	rate := make([]float64, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		rate[i-1] = (samples[i].FocalLength - samples[i-1].FocalLength) / dt
	}

	n := 1
	for n < len(rate) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, rate)

	coeffs := fft.FFTReal(padded)
	power := make([]float64, n/2+1)
	for i := range power {
		power[i] = cmplx.Abs(coeffs[i])
	}
	return Spectrum{Power: power, Resolution: 1 / (float64(n) * dt)}
}

// Dominant returns the strongest non-DC frequency and its power. Zero means
// the motor never oscillated.
func (s Spectrum) Dominant() (freq, power float64) {
	idx := 0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			power = s.Power[i]
			idx = i
		}
	}
	return float64(idx) * s.Resolution, power
}
