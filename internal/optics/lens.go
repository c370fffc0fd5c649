// Package optics converts between focal length, field of view and sensor
// width for a rectilinear lens.
//
// All angles are in radians and all lengths in meters. The conversions are
// valid for field of view strictly inside (0, π) and positive lengths.
package optics

import (
	"errors"
	"math"
)

const (
	// MinFov and MaxFov bound the field of view accepted by ClampFov.
	MinFov = 1e-6
	MaxFov = math.Pi - 1e-6
)

// ErrDegenerateFov indicates a field of view at or outside (0, π), for which
// the focal length is infinite or undefined.
var ErrDegenerateFov = errors.New("optics: field of view outside (0, pi)")

// FovFromFocalLength returns the field of view of a lens with the given
// sensor width and focal length.
func FovFromFocalLength(sensorWidth, focalLength float64) float64 {
	return 2 * math.Atan2(sensorWidth, 2*focalLength)
}

// FocalLengthFromFov is the inverse of FovFromFocalLength.
func FocalLengthFromFov(sensorWidth, fov float64) float64 {
	return sensorWidth / (2 * math.Tan(fov/2))
}

// SensorWidthFromFocalLengthAndFov backs the sensor width out of a live
// focal length and field of view pair.
func SensorWidthFromFocalLengthAndFov(focalLength, fov float64) float64 {
	return 2 * math.Tan(fov/2) * focalLength
}

// ValidFov reports whether fov is finite and strictly inside (0, π).
func ValidFov(fov float64) bool {
	return !math.IsNaN(fov) && fov > 0 && fov < math.Pi
}

// ClampFov clamps fov into [MinFov, MaxFov]. NaN maps to MinFov.
func ClampFov(fov float64) float64 {
	if math.IsNaN(fov) || fov < MinFov {
		return MinFov
	}
	if fov > MaxFov {
		return MaxFov
	}
	return fov
}

// Degrees converts radians to degrees for display.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
