// Package plugin binds the zoom controller to a camera sensor of the host
// world and its rendering camera.
//
// A CameraZoom is driven by the host in three hooks: Configure once, then
// PreUpdate and PostUpdate every tick. Zoom commands arrive on a transport
// topic and rendering teardown is delivered through the event manager.
package plugin

import (
	"fmt"
	"math"

	"github.com/san-kum/zoomsim/internal/control"
	"github.com/san-kum/zoomsim/internal/events"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/optics"
	"github.com/san-kum/zoomsim/internal/render"
	"github.com/san-kum/zoomsim/internal/sim"
	"github.com/san-kum/zoomsim/internal/transport"
	"github.com/san-kum/zoomsim/internal/world"
)

// FallbackReferenceFov is used when neither Params nor the camera provide a
// valid reference fov.
const FallbackReferenceFov = 2.0

type Params struct {
	MaxZoom      float64
	SlewRate     float64 // [m/s], +Inf for instant changes
	Topic        string  // optional override of the derived topic
	ReferenceFov float64 // [rad], 0 reads the camera's fov at configure time
}

func DefaultParams() Params {
	return Params{
		MaxZoom:  10.0,
		SlewRate: math.Inf(1),
	}
}

// CameraZoom is the zoom lens system attached to one camera sensor.
type CameraZoom struct {
	host Host
	log  *logging.Logger

	sensorEntity world.Entity
	parentModel  world.Entity
	worldEntity  world.Entity

	cameraName string
	topic      string
	params     Params
	zoom       *control.Zoom

	scene  *render.Scene
	camera *render.Camera

	teardown   *events.Connection
	configured bool
	valid      bool
}

// New is the factory the host calls to create an instance.
func New(host Host) *CameraZoom {
	return &CameraZoom{
		host: host,
		log:  host.Log.Named("CameraZoom"),
	}
}

// Configure binds the instance to a camera sensor entity. On failure the
// error is logged once and the instance performs no work on any tick.
func (c *CameraZoom) Configure(entity world.Entity, p Params) error {
	if c.configured {
		return &ConfigError{Stage: "configure", Err: ErrAlreadyConfigured}
	}
	c.configured = true

	if err := c.configure(entity, p); err != nil {
		c.log.Errorf("%v. Failed to initialize.", err)
		return err
	}
	c.valid = true
	return nil
}

func (c *CameraZoom) configure(entity world.Entity, p Params) error {
	store := c.host.Entities

	c.sensorEntity = entity
	if !store.IsSensor(entity) {
		return &ConfigError{Stage: "sensor", Err: ErrNotSensor}
	}

	sensorName, ok := store.Name(entity)
	if !ok || sensorName == "" {
		return &ConfigError{Stage: "sensor", Err: ErrNoSensorName}
	}
	c.log.Debugf("attached to sensor [%s].", sensorName)

	c.parentModel = world.Null
	if link, ok := store.Parent(entity); ok && store.IsLink(link) {
		if model, ok := store.ParentModel(link); ok {
			c.parentModel = model
		}
	}
	if !store.Valid(c.parentModel) {
		return &ConfigError{Stage: "model", Err: ErrNoParentModel}
	}

	worldEntity, ok := store.WorldEntity()
	if !ok || !store.Valid(worldEntity) {
		return &ConfigError{Stage: "world", Err: ErrNoWorld}
	}
	c.worldEntity = worldEntity

	settings := control.Settings{
		ReferenceFov: c.referenceFov(p),
		MaxZoom:      p.MaxZoom,
		SlewRate:     p.SlewRate,
	}
	zoom, err := control.NewZoom(settings, c.log)
	if err != nil {
		return &ConfigError{Stage: "params", Err: err}
	}
	c.params = p
	c.params.ReferenceFov = settings.ReferenceFov
	c.zoom = zoom

	modelName, _ := store.Name(c.parentModel)
	var candidates []string
	if p.Topic != "" {
		candidates = append(candidates, p.Topic)
	}
	candidates = append(candidates, DefaultTopic(modelName, sensorName))
	c.topic = transport.ValidTopic(candidates)
	if c.topic == "" {
		return &ConfigError{Stage: "topic", Err: ErrNoTopic}
	}

	if err := c.host.Transport.Subscribe(c.topic, c.zoom.Submit); err != nil {
		return &ConfigError{Stage: "subscribe", Err: err}
	}
	c.log.Debugf("subscribing to messages on [%s]", c.topic)

	if c.host.Events != nil {
		c.teardown = c.host.Events.ConnectRenderTeardown(c.OnRenderTeardown)
	}
	return nil
}

func (c *CameraZoom) referenceFov(p Params) float64 {
	if p.ReferenceFov != 0 {
		return p.ReferenceFov
	}
	if cam, ok := c.host.Entities.CameraSensor(c.sensorEntity); ok && optics.ValidFov(cam.HorizontalFov) {
		return cam.HorizontalFov
	}
	return FallbackReferenceFov
}

// DefaultTopic is the zoom command topic derived from model and sensor names.
func DefaultTopic(model, sensor string) string {
	return "/model/" + model + "/sensor/" + sensor + "/zoom/cmd_zoom"
}

// PreUpdate resolves the rendering camera until it is found, then advances
// the zoom controller and writes the new fov to the camera component and
// the rendering camera.
func (c *CameraZoom) PreUpdate(info sim.UpdateInfo) error {
	if !c.valid {
		return nil
	}

	if c.camera == nil {
		c.initialiseCamera()
		return nil
	}

	comp, ok := c.host.Entities.CameraSensor(c.sensorEntity)
	if !ok {
		return nil
	}

	step, err := c.zoom.Advance(info.Dt, comp.LensFocalLength, comp.HorizontalFov)
	if err != nil {
		return fmt.Errorf("plugin: advance zoom on [%s]: %w", c.cameraName, err)
	}
	if !step.Changed {
		return nil
	}

	comp.HorizontalFov = step.Fov
	comp.LensFocalLength = step.FocalLength
	c.host.Entities.SetChanged(c.sensorEntity, world.ComponentCamera, world.OneTimeChange)

	c.camera.SetHFOV(step.Fov)
	return nil
}

// PostUpdate resolves the camera name once, from the scoped entity name
// without the world scope.
func (c *CameraZoom) PostUpdate(info sim.UpdateInfo) {
	if c.cameraName != "" || c.sensorEntity == world.Null {
		return
	}
	scoped := c.host.Entities.ScopedName(c.sensorEntity, render.NameSeparator)
	c.cameraName = world.RemoveParentScope(scoped, render.NameSeparator)
	c.log.Debugf("Camera name: [%s].", c.cameraName)
}

func (c *CameraZoom) initialiseCamera() {
	if c.cameraName == "" || c.host.Renderer == nil || !c.host.Renderer.Loaded() {
		return
	}

	if c.scene == nil {
		if scene, ok := c.host.Renderer.Scene(); ok {
			c.scene = scene
		}
	}

	if c.scene == nil || !c.scene.Initialized() || c.scene.SensorCount() == 0 {
		c.log.Warnf("No scene or camera sensors available.")
		return
	}

	sensor, ok := c.scene.SensorByName(c.cameraName)
	if !ok {
		c.log.Errorf("Unable to find sensor: [%s].", c.cameraName)
		return
	}
	cam, ok := sensor.(*render.Camera)
	if !ok {
		c.log.Errorf("[%s] is not a camera.", c.cameraName)
		return
	}

	c.camera = cam
	c.zoom.Bind()
	c.log.Debugf("bound to rendering camera [%s].", c.cameraName)
}

// OnRenderTeardown releases the rendering camera and scene and invalidates
// the instance. Safe to call more than once.
func (c *CameraZoom) OnRenderTeardown() {
	if c.valid {
		c.log.Debugf("CameraZoom disabled.")
	}
	c.camera = nil
	c.scene = nil
	c.valid = false
	if c.zoom != nil {
		c.zoom.Reset()
	}
}

// Close disconnects from teardown events and invalidates the instance.
func (c *CameraZoom) Close() {
	c.teardown.Disconnect()
	c.teardown = nil
	c.OnRenderTeardown()
}

func (c *CameraZoom) Valid() bool          { return c.valid }
func (c *CameraZoom) Topic() string        { return c.topic }
func (c *CameraZoom) CameraName() string   { return c.cameraName }
func (c *CameraZoom) Zoom() *control.Zoom  { return c.zoom }
func (c *CameraZoom) Params() Params       { return c.params }
func (c *CameraZoom) Entity() world.Entity { return c.sensorEntity }
func (c *CameraZoom) Bound() bool          { return c.camera != nil }
