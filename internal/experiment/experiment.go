// Package experiment assembles a host world, renderer, transport and camera
// zoom plugin from a scenario config and runs it.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/events"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/plugin"
	"github.com/san-kum/zoomsim/internal/render"
	"github.com/san-kum/zoomsim/internal/sim"
	"github.com/san-kum/zoomsim/internal/transport"
	"github.com/san-kum/zoomsim/internal/world"
)

type Experiment struct {
	cfg *config.Config
	log *logging.Logger

	world     *world.World
	rig       world.Rig
	engine    *render.Engine
	node      *transport.Node
	events    *events.Manager
	plugin    *plugin.CameraZoom
	simulator *sim.Simulator
}

// New copies cfg; later edits by the caller do not affect the experiment.
func New(cfg *config.Config, log *logging.Logger) *Experiment {
	return &Experiment{
		cfg: cfg.Clone(),
		log: log,
	}
}

// Setup builds the host and configures the plugin on the camera sensor.
// Scheduled commands and the optional teardown are registered as hooks.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	cam := e.cfg.Camera
	e.world = world.New()
	e.rig = e.world.BuildCameraRig(world.RigSpec{
		World:  cam.World,
		Model:  cam.Model,
		Link:   cam.Link,
		Sensor: cam.Sensor,
		Camera: world.Camera{
			HorizontalFov:   cam.Hfov,
			LensFocalLength: cam.InitialFocalLength(),
			ImageWidth:      cam.ImageWidth,
			ImageHeight:     cam.ImageHeight,
		},
	})

	e.events = events.NewManager()
	e.engine = render.NewEngine(e.cfg.RenderDelay, e.events)
	e.node = transport.NewNode()

	e.plugin = plugin.New(plugin.Host{
		Entities:  e.world,
		Renderer:  e.engine,
		Transport: e.node,
		Events:    e.events,
		Log:       e.log,
	})
	params := plugin.Params{
		MaxZoom:      e.cfg.Plugin.MaxZoom,
		SlewRate:     e.cfg.Plugin.SlewRate,
		Topic:        e.cfg.Plugin.Topic,
		ReferenceFov: e.cfg.Plugin.ReferenceFov,
	}
	if err := e.plugin.Configure(e.rig.Sensor, params); err != nil {
		return fmt.Errorf("experiment %s: %w", e.cfg.Name, err)
	}

	e.simulator = sim.New(e.world, e.engine, &probe{world: e.world, entity: e.rig.Sensor, plugin: e.plugin}, e.log)
	e.simulator.AddSystem(e.plugin)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}

	for _, cmd := range e.cfg.Commands {
		zoom := cmd.Zoom
		e.simulator.Schedule(cmd.Time, func() {
			if err := e.Publish(zoom); err != nil {
				e.log.Warnf("publish zoom %g: %v", zoom, err)
			}
		})
	}
	if e.cfg.TeardownAt > 0 {
		e.simulator.Schedule(e.cfg.TeardownAt, e.engine.Teardown)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	return e.simulator.Run(ctx, sim.Config{
		Dt:       e.cfg.Dt,
		Duration: e.cfg.Duration,
	})
}

// Publish sends a zoom command on the plugin topic, as an external client
// would.
func (e *Experiment) Publish(zoom float64) error {
	if e.plugin == nil {
		return fmt.Errorf("experiment not setup")
	}
	_, err := e.node.Publish(e.plugin.Topic(), zoom)
	return err
}

// Close disconnects the plugin from host events.
func (e *Experiment) Close() {
	if e.plugin != nil {
		e.plugin.Close()
	}
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) Simulator() *sim.Simulator  { return e.simulator }
func (e *Experiment) Plugin() *plugin.CameraZoom { return e.plugin }
func (e *Experiment) Engine() *render.Engine     { return e.engine }
func (e *Experiment) Topic() string              { return e.plugin.Topic() }

// Sample reads the current camera state outside of a tick.
func (e *Experiment) Sample() sim.Sample {
	p := probe{world: e.world, entity: e.rig.Sensor, plugin: e.plugin}
	return p.Sample(sim.UpdateInfo{SimTime: float64(e.simulator.Iteration()) * e.cfg.Dt})
}

type probe struct {
	world  *world.World
	entity world.Entity
	plugin *plugin.CameraZoom
}

func (p *probe) Sample(info sim.UpdateInfo) sim.Sample {
	s := sim.Sample{Time: info.SimTime, Bound: p.plugin.Bound()}
	if cam, ok := p.world.CameraSensor(p.entity); ok {
		s.Hfov = cam.HorizontalFov
		s.FocalLength = cam.LensFocalLength
	}
	if z := p.plugin.Zoom(); z != nil {
		s.GoalFov = z.GoalFov()
		s.Zoom = z.GoalZoom()
	}
	return s
}
