// Package viz draws a running zoom experiment in the terminal.
//
// The live view is a Bubble Tea program. A braille [Canvas] shows the camera
// frustum from above: the current field of view solid, the goal dashed and
// the reference fov as a short arc at the lens.
//
// # Key Bindings
//
//	1-9   - Publish a zoom command
//	+/-   - Step the commanded zoom by 0.5
//	0     - Publish the maximum zoom
//	Space - Pause/Resume
//	R     - Rebuild the experiment from its config
//	T     - Cycle color themes
//	?     - Show help overlay
//
// When started with a config file the view watches it and rebuilds the
// experiment after every save.
package viz
