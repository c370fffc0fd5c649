package control

import "errors"

var (
	// ErrNotBound indicates Advance was called before Bind or after Reset.
	ErrNotBound = errors.New("control: zoom controller not bound to a camera")

	// ErrNegativeDt indicates a negative or NaN tick duration.
	ErrNegativeDt = errors.New("control: negative tick duration")

	// ErrInvalidSettings indicates settings outside their valid range.
	ErrInvalidSettings = errors.New("control: invalid zoom settings")

	// ErrInvalidFocalLength indicates a non-positive or non-finite focal length
	// reported by the camera.
	ErrInvalidFocalLength = errors.New("control: invalid focal length")

	// ErrInvalidCommand indicates a NaN zoom command, which cannot be clamped.
	ErrInvalidCommand = errors.New("control: invalid zoom command")
)
