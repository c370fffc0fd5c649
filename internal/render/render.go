// Package render is a minimal in-memory rendering engine. It mirrors the
// camera sensors of a world into a scene after a configurable start-up delay,
// which lets callers exercise code paths that wait for the renderer.
package render

import (
	"sort"

	"github.com/san-kum/zoomsim/internal/events"
	"github.com/san-kum/zoomsim/internal/world"
)

// NameSeparator separates scopes in sensor names.
const NameSeparator = "::"

// Sensor is anything the scene can look up by name.
type Sensor interface {
	Name() string
}

// Camera is a rendering camera sensor.
type Camera struct {
	name string
	hfov float64
}

func NewCamera(name string, hfov float64) *Camera {
	return &Camera{name: name, hfov: hfov}
}

func (c *Camera) Name() string         { return c.name }
func (c *Camera) HFOV() float64        { return c.hfov }
func (c *Camera) SetHFOV(hfov float64) { c.hfov = hfov }

// GenericSensor is a non-camera sensor, such as a depth or lidar stub.
type GenericSensor struct {
	name string
}

func NewGenericSensor(name string) *GenericSensor {
	return &GenericSensor{name: name}
}

func (g *GenericSensor) Name() string { return g.name }

type Scene struct {
	initialized bool
	sensors     map[string]Sensor
}

func NewScene() *Scene {
	return &Scene{sensors: make(map[string]Sensor)}
}

func (s *Scene) Initialized() bool { return s.initialized }
func (s *Scene) SensorCount() int  { return len(s.sensors) }

// Initialize marks the scene ready for lookups.
func (s *Scene) Initialize() { s.initialized = true }

func (s *Scene) SensorByName(name string) (Sensor, bool) {
	sensor, ok := s.sensors[name]
	return sensor, ok
}

// AddSensor registers sensor, replacing any sensor with the same name.
func (s *Scene) AddSensor(sensor Sensor) {
	s.sensors[sensor.Name()] = sensor
}

// SensorNames lists registered sensors in sorted order.
func (s *Scene) SensorNames() []string {
	names := make([]string, 0, len(s.sensors))
	for n := range s.sensors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Engine owns one scene. It reports loaded once Update has been called more
// than loadDelay times.
type Engine struct {
	loadDelay int
	ticks     int
	loaded    bool
	scene     *Scene
	events    *events.Manager
}

// NewEngine returns an unloaded engine. ev may be nil when nobody listens
// for teardown.
func NewEngine(loadDelay int, ev *events.Manager) *Engine {
	if loadDelay < 0 {
		loadDelay = 0
	}
	return &Engine{loadDelay: loadDelay, events: ev}
}

func (e *Engine) Loaded() bool { return e.loaded }

// Scene returns the engine's scene once loaded.
func (e *Engine) Scene() (*Scene, bool) {
	if !e.loaded || e.scene == nil {
		return nil, false
	}
	return e.scene, true
}

// Update loads the engine when its delay has elapsed, mirrors new camera
// sensors of w into the scene and copies changed camera fovs. One-time
// change markers of w are cleared afterwards.
func (e *Engine) Update(w *world.World) {
	defer w.ClearOneTimeChanges()

	if !e.loaded {
		e.ticks++
		if e.ticks <= e.loadDelay {
			return
		}
		e.loaded = true
		e.scene = NewScene()
	}

	for _, ent := range w.CameraEntities() {
		cam, _ := w.CameraSensor(ent)
		name := SensorName(w, ent)
		sensor, ok := e.scene.SensorByName(name)
		if !ok {
			e.scene.AddSensor(NewCamera(name, cam.HorizontalFov))
			continue
		}
		rc, isCamera := sensor.(*Camera)
		if !isCamera {
			continue
		}
		if w.Changed(ent, world.ComponentCamera) != world.NoChange {
			rc.SetHFOV(cam.HorizontalFov)
		}
	}
	e.scene.Initialize()
}

// Teardown unloads the engine and emits RenderTeardown. The next Update
// starts the load delay over.
func (e *Engine) Teardown() {
	e.loaded = false
	e.ticks = 0
	e.scene = nil
	if e.events != nil {
		e.events.EmitRenderTeardown()
	}
}

// SensorName is the scene name of a sensor entity: its scoped name without
// the world scope.
func SensorName(w *world.World, e world.Entity) string {
	return world.RemoveParentScope(w.ScopedName(e, NameSeparator), NameSeparator)
}
