// Package export renders recorded zoom runs as SVG.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/zoomsim/internal/optics"
	"github.com/san-kum/zoomsim/internal/sim"
	"github.com/san-kum/zoomsim/internal/viz"
)

type Point struct{ X, Y float64 }

// Series is one polyline of a chart.
type Series struct {
	Name   string
	Color  string
	Dashed bool
	Points []Point
}

// CanvasToSVG draws every set dot of a braille canvas as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.SubSize()
	width := float64(w) * scale
	height := float64(h) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	radius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, radius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots series on shared axes with 10% padding and a legend.
// Series with fewer than two points are skipped.
func SeriesToSVG(series []Series, width, height int) string {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	drawn := 0
	for _, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		drawn++
		for _, p := range s.Points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if drawn == 0 {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	legendY := 16
	for _, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		dash := ""
		if s.Dashed {
			dash = ` stroke-dasharray="6,4"`
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, s.Color, dash)
		for i, p := range s.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		if s.Name != "" {
			fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
				legendY, s.Color, escape(s.Name))
			legendY += 16
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// FovTrajectorySVG plots the horizontal fov and its goal, in degrees, over
// time. Samples taken before the camera was bound are left out.
func FovTrajectorySVG(samples []sim.Sample, width, height int) string {
	hfov := Series{Name: "hfov [deg]", Color: "#00ff88"}
	goal := Series{Name: "goal [deg]", Color: "#ff8800", Dashed: true}
	for _, s := range samples {
		if !s.Bound {
			continue
		}
		hfov.Points = append(hfov.Points, Point{X: s.Time, Y: optics.Degrees(s.Hfov)})
		goal.Points = append(goal.Points, Point{X: s.Time, Y: optics.Degrees(s.GoalFov)})
	}
	return SeriesToSVG([]Series{hfov, goal}, width, height)
}

// FocalLengthSVG plots the lens focal length in millimeters over time.
func FocalLengthSVG(samples []sim.Sample, width, height int) string {
	focal := Series{Name: "focal length [mm]", Color: "#66ccff"}
	for _, s := range samples {
		focal.Points = append(focal.Points, Point{X: s.Time, Y: s.FocalLength * 1000})
	}
	return SeriesToSVG([]Series{focal}, width, height)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
