package viz

import (
	"math"

	"github.com/san-kum/zoomsim/internal/optics"
)

// Frustum is a top-down view of the camera's horizontal field of view.
type Frustum struct {
	Hfov    float64 // current [rad]
	GoalFov float64 // target; zero hides the goal wedge
	RefFov  float64 // zoom 1.0; zero hides the reference arc
}

// Draw places the camera at the left edge, looking right. The current fov is
// drawn solid with an arc at its far end, the goal dashed, and the reference
// fov as a short arc near the apex.
func (f Frustum) Draw(c *Canvas) {
	w, h := c.SubSize()
	x0, y0 := 1, h/2
	length := float64(w - 2)

	if optics.ValidFov(f.RefFov) {
		r := length / 6
		c.DrawArc(x0, y0, r, -f.RefFov/2, f.RefFov/2)
	}

	if optics.ValidFov(f.GoalFov) && math.Abs(f.GoalFov-f.Hfov) > 1e-9 {
		for _, a := range []float64{f.GoalFov / 2, -f.GoalFov / 2} {
			x1, y1 := polar(x0, y0, a, length)
			c.DrawDashed(x0, y0, x1, y1, 2)
		}
	}

	if !optics.ValidFov(f.Hfov) {
		return
	}
	c.DrawRay(x0, y0, f.Hfov/2, length)
	c.DrawRay(x0, y0, -f.Hfov/2, length)
	c.DrawArc(x0, y0, length, -f.Hfov/2, f.Hfov/2)

	// lens body
	c.DrawLine(x0, y0-2, x0, y0+2)
}
