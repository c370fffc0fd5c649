package export

import (
	"strings"
	"testing"

	"github.com/san-kum/zoomsim/internal/sim"
	"github.com/san-kum/zoomsim/internal/viz"
)

func TestSeriesToSVG(t *testing.T) {
	svg := SeriesToSVG([]Series{
		{Name: "a<b", Color: "#fff", Points: []Point{{0, 0}, {1, 1}}},
		{Name: "dashed", Color: "#f00", Dashed: true, Points: []Point{{0, 1}, {1, 0}}},
		{Name: "short", Color: "#0f0", Points: []Point{{0, 0}}},
	}, 200, 100)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("unexpected document %q", svg)
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected 2 paths, got %d", got)
	}
	if !strings.Contains(svg, "stroke-dasharray") {
		t.Error("expected dashed series")
	}
	if !strings.Contains(svg, "a&lt;b") {
		t.Error("expected escaped legend")
	}
	if strings.Contains(svg, "short") {
		t.Error("expected short series skipped")
	}
}

func TestSeriesToSVGEmpty(t *testing.T) {
	if svg := SeriesToSVG(nil, 100, 100); svg != "" {
		t.Errorf("expected empty output, got %q", svg)
	}
}

func TestFovTrajectorySVG(t *testing.T) {
	samples := []sim.Sample{
		{Time: 0.1, Hfov: 2, GoalFov: 2},
		{Time: 0.2, Hfov: 2, GoalFov: 0.5, Bound: true},
		{Time: 0.3, Hfov: 1, GoalFov: 0.5, Bound: true},
		{Time: 0.4, Hfov: 0.5, GoalFov: 0.5, Bound: true},
	}

	svg := FovTrajectorySVG(samples, 400, 200)
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected hfov and goal paths, got %d", got)
	}
	if !strings.Contains(svg, "hfov [deg]") {
		t.Error("expected legend")
	}

	if svg := FovTrajectorySVG(samples[:1], 400, 200); svg != "" {
		t.Error("expected no chart without bound samples")
	}
}

func TestFocalLengthSVG(t *testing.T) {
	svg := FocalLengthSVG([]sim.Sample{{Time: 0, FocalLength: 0.01}, {Time: 1, FocalLength: 0.02}}, 100, 50)
	if !strings.Contains(svg, "focal length [mm]") {
		t.Errorf("unexpected svg %q", svg)
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	svg := CanvasToSVG(c, 2)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("expected empty output for nil canvas")
	}
}
