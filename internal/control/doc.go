// Package control implements the motorized zoom lens controller.
//
// The controller is split in two parts:
//
//   - [Mailbox]: single-slot, last-value-wins intake for zoom commands that
//     may arrive from any goroutine
//   - [Zoom]: the zoom state machine, advanced once per simulation tick
//
// # Usage
//
//	z, _ := control.NewZoom(control.DefaultSettings(), logger)
//	z.Bind()
//	z.Submit(4.0) // from the transport goroutine
//	step, err := z.Advance(dt, focalLength, hfov)
//	// apply step.Fov to the camera
//
// Focal length, not field of view, is rate limited: a real zoom lens moves
// its optical elements linearly in focal length.
//
// # Thread Safety
//
// Only [Zoom.Submit] and the [Mailbox] methods may be called concurrently.
// Everything else belongs to the simulation goroutine.
package control
