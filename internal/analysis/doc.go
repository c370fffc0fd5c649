// Package analysis splits a recorded zoom run into goal segments and
// characterizes how the lens answered each one.
//
// A new segment starts whenever the goal fov changes while the camera is
// bound:
//
//	for _, seg := range analysis.Segments(samples, 1e-6) {
//	    fmt.Println(seg.GoalFov, seg.RiseTime, seg.Overshoot)
//	}
package analysis
