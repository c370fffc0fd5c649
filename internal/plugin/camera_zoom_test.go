package plugin

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/zoomsim/internal/control"
	"github.com/san-kum/zoomsim/internal/events"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/optics"
	"github.com/san-kum/zoomsim/internal/render"
	"github.com/san-kum/zoomsim/internal/sim"
	"github.com/san-kum/zoomsim/internal/transport"
	"github.com/san-kum/zoomsim/internal/world"
)

const (
	testDt    = 0.1
	testTopic = "/model/gimbal/sensor/zoom_cam/zoom/cmd_zoom"
)

type fixture struct {
	world  *world.World
	rig    world.Rig
	engine *render.Engine
	node   *transport.Node
	events *events.Manager
	plugin *CameraZoom
	sim    *sim.Simulator
	logs   *bytes.Buffer
}

func newFixture(t *testing.T, renderDelay int) *fixture {
	t.Helper()
	f := &fixture{
		world:  world.New(),
		node:   transport.NewNode(),
		events: events.NewManager(),
		logs:   &bytes.Buffer{},
	}
	f.rig = f.world.BuildCameraRig(world.RigSpec{
		World:  "default",
		Model:  "gimbal",
		Link:   "base_link",
		Sensor: "zoom_cam",
		Camera: world.Camera{HorizontalFov: 2.0, LensFocalLength: 0.01},
	})
	f.engine = render.NewEngine(renderDelay, f.events)
	f.plugin = New(Host{
		Entities:  f.world,
		Renderer:  f.engine,
		Transport: f.node,
		Events:    f.events,
		Log:       logging.New(log.New(f.logs, "", 0), true),
	})
	f.sim = sim.New(f.world, f.engine, nil, nil)
	f.sim.AddSystem(f.plugin)
	return f
}

func (f *fixture) configure(t *testing.T, p Params) {
	t.Helper()
	if err := f.plugin.Configure(f.rig.Sensor, p); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
}

func (f *fixture) tick(t *testing.T, n int) []error {
	t.Helper()
	var errs []error
	for i := 0; i < n; i++ {
		if _, err := f.sim.Step(testDt); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// bind configures and ticks until the rendering camera is resolved.
func (f *fixture) bind(t *testing.T, p Params) {
	t.Helper()
	f.configure(t, p)
	for i := 0; i < 10 && !f.plugin.Bound(); i++ {
		f.tick(t, 1)
	}
	if !f.plugin.Bound() {
		t.Fatal("expected plugin bound to rendering camera")
	}
}

func (f *fixture) publish(t *testing.T, v float64) {
	t.Helper()
	if _, err := f.node.Publish(f.plugin.Topic(), v); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func (f *fixture) camera(t *testing.T) (*world.Camera, *render.Camera) {
	t.Helper()
	comp, ok := f.world.CameraSensor(f.rig.Sensor)
	if !ok {
		t.Fatal("expected camera component")
	}
	scene, ok := f.engine.Scene()
	if !ok {
		t.Fatal("expected scene")
	}
	sensor, _ := scene.SensorByName(f.plugin.CameraName())
	return comp, sensor.(*render.Camera)
}

func TestConfigure(t *testing.T) {
	f := newFixture(t, 0)
	f.configure(t, DefaultParams())

	if !f.plugin.Valid() {
		t.Error("expected valid plugin")
	}
	if f.plugin.Topic() != testTopic {
		t.Errorf("expected topic %q, got %q", testTopic, f.plugin.Topic())
	}
	if got := f.node.Topics(); len(got) != 1 || got[0] != testTopic {
		t.Errorf("expected subscription on %q, got %v", testTopic, got)
	}
	if f.events.Count(events.RenderTeardown) != 1 {
		t.Error("expected teardown connection")
	}
	if ref := f.plugin.Params().ReferenceFov; ref != 2.0 {
		t.Errorf("expected reference fov from camera 2.0, got %g", ref)
	}
	if f.plugin.Zoom().Phase() != control.Uninitialized {
		t.Errorf("expected UNINITIALIZED before binding, got %v", f.plugin.Zoom().Phase())
	}

	err := f.plugin.Configure(f.rig.Sensor, DefaultParams())
	if !errors.Is(err, ErrAlreadyConfigured) {
		t.Errorf("expected ErrAlreadyConfigured, got %v", err)
	}
}

func TestConfigureTopic(t *testing.T) {
	tests := []struct {
		name     string
		override string
		want     string
	}{
		{"default", "", testTopic},
		{"override", "/custom/zoom", "/custom/zoom"},
		{"override sanitized", "/my camera/zoom", "/my_camera/zoom"},
		{"invalid override", "//", testTopic},
		{"remap override", "/a:=b", testTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			p := DefaultParams()
			p.Topic = tt.override
			f.configure(t, p)
			if f.plugin.Topic() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, f.plugin.Topic())
			}
		})
	}
}

func TestConfigureFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture) world.Entity
		params func() Params
		stage  string
		want   error
	}{
		{
			name:  "not a sensor",
			setup: func(f *fixture) world.Entity { return f.rig.Link },
			stage: "sensor",
			want:  ErrNotSensor,
		},
		{
			name: "unnamed sensor",
			setup: func(f *fixture) world.Entity {
				e := f.world.CreateEntity()
				f.world.SetParent(e, f.rig.Link)
				f.world.SetSensor(e, &world.Sensor{Type: "camera", Camera: &world.Camera{HorizontalFov: 1, LensFocalLength: 0.01}})
				return e
			},
			stage: "sensor",
			want:  ErrNoSensorName,
		},
		{
			name: "sensor on model",
			setup: func(f *fixture) world.Entity {
				e := f.world.CreateEntity()
				f.world.SetName(e, "stray")
				f.world.SetParent(e, f.rig.Model)
				f.world.SetSensor(e, &world.Sensor{Type: "camera", Camera: &world.Camera{HorizontalFov: 1, LensFocalLength: 0.01}})
				return e
			},
			stage: "model",
			want:  ErrNoParentModel,
		},
		{
			name: "no world",
			setup: func(f *fixture) world.Entity {
				f.world.MarkWorld(world.Null)
				return f.rig.Sensor
			},
			stage: "world",
			want:  ErrNoWorld,
		},
		{
			name:  "max zoom below one",
			setup: func(f *fixture) world.Entity { return f.rig.Sensor },
			params: func() Params {
				p := DefaultParams()
				p.MaxZoom = 0.5
				return p
			},
			stage: "params",
			want:  control.ErrInvalidSettings,
		},
		{
			name:  "negative slew rate",
			setup: func(f *fixture) world.Entity { return f.rig.Sensor },
			params: func() Params {
				p := DefaultParams()
				p.SlewRate = -1
				return p
			},
			stage: "params",
			want:  control.ErrInvalidSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			entity := tt.setup(f)
			p := DefaultParams()
			if tt.params != nil {
				p = tt.params()
			}

			err := f.plugin.Configure(entity, p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Stage != tt.stage {
				t.Errorf("expected stage %q, got %v", tt.stage, err)
			}
			if f.plugin.Valid() {
				t.Error("expected invalid plugin")
			}
			if len(f.node.Topics()) != 0 {
				t.Error("expected no subscription after failure")
			}
			if !strings.Contains(f.logs.String(), "Failed to initialize.") {
				t.Errorf("expected failure to be logged, got %q", f.logs.String())
			}

			// Invalid instances do nothing on any tick.
			f.tick(t, 5)
			if f.plugin.Bound() {
				t.Error("expected invalid plugin to stay unbound")
			}
		})
	}
}

func TestBindingWaitsForRenderer(t *testing.T) {
	f := newFixture(t, 2)
	f.configure(t, DefaultParams())

	f.tick(t, 1)
	if f.plugin.CameraName() != "gimbal::base_link::zoom_cam" {
		t.Errorf("unexpected camera name %q", f.plugin.CameraName())
	}

	f.tick(t, 2)
	if f.plugin.Bound() {
		t.Fatal("expected plugin unbound until renderer loads")
	}

	f.tick(t, 1)
	if !f.plugin.Bound() {
		t.Fatal("expected plugin bound after renderer loaded")
	}
	if f.plugin.Zoom().Phase() != control.Bound {
		t.Errorf("expected BOUND, got %v", f.plugin.Zoom().Phase())
	}
}

func TestInstantZoom(t *testing.T) {
	f := newFixture(t, 0)
	f.bind(t, DefaultParams())

	f.publish(t, 4.0)
	f.tick(t, 1)

	comp, rc := f.camera(t)
	if math.Abs(comp.HorizontalFov-0.5) > 1e-12 {
		t.Errorf("expected component hfov 0.5, got %.15f", comp.HorizontalFov)
	}
	if math.Abs(rc.HFOV()-0.5) > 1e-12 {
		t.Errorf("expected rendering hfov 0.5, got %.15f", rc.HFOV())
	}

	width := optics.SensorWidthFromFocalLengthAndFov(0.01, 2.0)
	want := optics.FocalLengthFromFov(width, 0.5)
	if math.Abs(comp.LensFocalLength-want) > 1e-12 {
		t.Errorf("expected focal length %.9f, got %.9f", want, comp.LensFocalLength)
	}
	if f.plugin.Zoom().Phase() != control.Tracking {
		t.Errorf("expected TRACKING, got %v", f.plugin.Zoom().Phase())
	}
	if strings.Contains(f.logs.String(), "clamped") {
		t.Error("expected no clamp warning for in-range command")
	}
}

func TestClampedZoom(t *testing.T) {
	f := newFixture(t, 0)
	f.bind(t, DefaultParams())

	f.publish(t, 20.0)
	f.tick(t, 1)

	comp, _ := f.camera(t)
	if math.Abs(comp.HorizontalFov-0.2) > 1e-12 {
		t.Errorf("expected hfov 0.2, got %.15f", comp.HorizontalFov)
	}
	if !strings.Contains(f.logs.String(), "Requested zoom command of 20 has been clamped to 10.") {
		t.Errorf("expected clamp warning, got %q", f.logs.String())
	}
}

func TestSlewLimitedZoom(t *testing.T) {
	f := newFixture(t, 0)
	p := DefaultParams()
	p.SlewRate = 0.01
	f.bind(t, p)

	f.publish(t, 2.0)
	comp, _ := f.camera(t)
	width := optics.SensorWidthFromFocalLengthAndFov(comp.LensFocalLength, comp.HorizontalFov)
	goal := optics.FocalLengthFromFov(width, 1.0)

	prev := comp.LensFocalLength
	for i := 0; i < 200 && math.Abs(comp.HorizontalFov-1.0) > 1e-12; i++ {
		f.tick(t, 1)
		step := comp.LensFocalLength - prev
		if step < 0 || step > 0.001+1e-15 {
			t.Fatalf("tick %d: focal step %g outside [0, 0.001]", i, step)
		}
		if comp.LensFocalLength > goal+1e-15 {
			t.Fatalf("tick %d: overshoot %g > %g", i, comp.LensFocalLength, goal)
		}
		prev = comp.LensFocalLength
	}

	if math.Abs(comp.HorizontalFov-1.0) > 1e-12 {
		t.Errorf("expected convergence to 1.0, got %g", comp.HorizontalFov)
	}
}

func TestLatestCommandWins(t *testing.T) {
	f := newFixture(t, 0)
	f.bind(t, DefaultParams())

	f.publish(t, 8.0)
	f.publish(t, 2.0)
	f.tick(t, 1)

	comp, _ := f.camera(t)
	if math.Abs(comp.HorizontalFov-1.0) > 1e-12 {
		t.Errorf("expected hfov 1.0 from latest command, got %g", comp.HorizontalFov)
	}
}

func TestRenderTeardown(t *testing.T) {
	f := newFixture(t, 0)
	f.bind(t, DefaultParams())
	f.publish(t, 4.0)
	f.tick(t, 1)

	f.engine.Teardown()
	if f.plugin.Valid() || f.plugin.Bound() {
		t.Error("expected plugin invalid and unbound after teardown")
	}
	if f.plugin.Zoom().Phase() != control.Uninitialized {
		t.Errorf("expected UNINITIALIZED, got %v", f.plugin.Zoom().Phase())
	}

	comp, _ := f.world.CameraSensor(f.rig.Sensor)
	before := comp.HorizontalFov
	f.publish(t, 10.0)
	f.tick(t, 5)
	if comp.HorizontalFov != before {
		t.Errorf("expected no work after teardown, hfov moved to %g", comp.HorizontalFov)
	}

	f.plugin.OnRenderTeardown()
	f.plugin.Close()
	if f.events.Count(events.RenderTeardown) != 0 {
		t.Error("expected teardown connection released on Close")
	}
}

func TestMissingCameraComponentSkipsTick(t *testing.T) {
	f := newFixture(t, 0)
	f.bind(t, DefaultParams())

	f.world.RemoveSensor(f.rig.Sensor)
	f.publish(t, 4.0)
	if errs := f.tick(t, 3); len(errs) != 0 {
		t.Errorf("expected silent skip, got %v", errs)
	}
	if !f.plugin.Zoom().PendingCommand() {
		t.Error("expected command to stay pending while the component is missing")
	}
}

func TestDegenerateFovIsReported(t *testing.T) {
	f := newFixture(t, 0)
	f.bind(t, DefaultParams())

	comp, rc := f.camera(t)
	comp.HorizontalFov = math.Pi
	f.publish(t, 2.0)

	errs := f.tick(t, 1)
	if len(errs) != 1 || !errors.Is(errs[0], optics.ErrDegenerateFov) {
		t.Fatalf("expected ErrDegenerateFov, got %v", errs)
	}
	if comp.HorizontalFov != math.Pi {
		t.Errorf("expected component untouched, got %g", comp.HorizontalFov)
	}
	if rc.HFOV() != 2.0 {
		t.Errorf("expected rendering camera untouched, got %g", rc.HFOV())
	}
}

type staticRenderer struct{ scene *render.Scene }

func (s staticRenderer) Loaded() bool                 { return true }
func (s staticRenderer) Scene() (*render.Scene, bool) { return s.scene, s.scene != nil }

func TestSensorIsNotACamera(t *testing.T) {
	w := world.New()
	rig := w.BuildCameraRig(world.RigSpec{World: "default", Model: "gimbal", Link: "base_link", Sensor: "zoom_cam",
		Camera: world.Camera{HorizontalFov: 2.0, LensFocalLength: 0.01}})

	scene := render.NewScene()
	scene.AddSensor(render.NewGenericSensor("gimbal::base_link::zoom_cam"))
	scene.Initialize()

	var logs bytes.Buffer
	p := New(Host{
		Entities:  w,
		Renderer:  staticRenderer{scene: scene},
		Transport: transport.NewNode(),
		Log:       logging.New(log.New(&logs, "", 0), false),
	})
	if err := p.Configure(rig.Sensor, DefaultParams()); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	info := sim.UpdateInfo{Iteration: 1, Dt: testDt}
	p.PostUpdate(info)
	if err := p.PreUpdate(info); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Bound() {
		t.Error("expected plugin unbound")
	}
	if !strings.Contains(logs.String(), "[gimbal::base_link::zoom_cam] is not a camera.") {
		t.Errorf("expected not-a-camera error, got %q", logs.String())
	}
}

func TestEmptySceneIsRetried(t *testing.T) {
	w := world.New()
	rig := w.BuildCameraRig(world.RigSpec{World: "default", Model: "gimbal", Link: "base_link", Sensor: "zoom_cam",
		Camera: world.Camera{HorizontalFov: 2.0, LensFocalLength: 0.01}})

	scene := render.NewScene()
	scene.Initialize()
	var logs bytes.Buffer
	p := New(Host{
		Entities:  w,
		Renderer:  staticRenderer{scene: scene},
		Transport: transport.NewNode(),
		Log:       logging.New(log.New(&logs, "", 0), false),
	})
	if err := p.Configure(rig.Sensor, DefaultParams()); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	info := sim.UpdateInfo{Iteration: 1, Dt: testDt}
	p.PostUpdate(info)
	_ = p.PreUpdate(info)
	if !strings.Contains(logs.String(), "No scene or camera sensors available.") {
		t.Errorf("expected empty scene warning, got %q", logs.String())
	}

	scene.AddSensor(render.NewGenericSensor("other"))
	_ = p.PreUpdate(info)
	if !strings.Contains(logs.String(), "Unable to find sensor: [gimbal::base_link::zoom_cam].") {
		t.Errorf("expected missing sensor error, got %q", logs.String())
	}
}

func TestExplicitReferenceFov(t *testing.T) {
	f := newFixture(t, 0)
	p := DefaultParams()
	p.ReferenceFov = 1.0
	f.bind(t, p)

	// Bound with no command drives the camera to the reference fov.
	f.tick(t, 1)
	comp, _ := f.camera(t)
	if math.Abs(comp.HorizontalFov-1.0) > 1e-12 {
		t.Errorf("expected hfov 1.0, got %g", comp.HorizontalFov)
	}

	f.publish(t, 2.0)
	f.tick(t, 1)
	if math.Abs(comp.HorizontalFov-0.5) > 1e-12 {
		t.Errorf("expected hfov 0.5, got %g", comp.HorizontalFov)
	}
}
