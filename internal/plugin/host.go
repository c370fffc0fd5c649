package plugin

import (
	"github.com/san-kum/zoomsim/internal/events"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/render"
	"github.com/san-kum/zoomsim/internal/transport"
	"github.com/san-kum/zoomsim/internal/world"
)

// EntityStore resolves entities and their components.
type EntityStore interface {
	Valid(e world.Entity) bool
	Name(e world.Entity) (string, bool)
	Parent(e world.Entity) (world.Entity, bool)
	IsSensor(e world.Entity) bool
	IsLink(e world.Entity) bool
	ParentModel(link world.Entity) (world.Entity, bool)
	WorldEntity() (world.Entity, bool)
	CameraSensor(e world.Entity) (*world.Camera, bool)
	SetChanged(e world.Entity, c world.ComponentType, state world.ChangeState)
	ScopedName(e world.Entity, sep string) string
}

// Renderer exposes the rendering engine and its scene.
type Renderer interface {
	Loaded() bool
	Scene() (*render.Scene, bool)
}

type Subscriber interface {
	Subscribe(topic string, h transport.Handler) error
}

type EventConnector interface {
	ConnectRenderTeardown(fn func()) *events.Connection
}

// Host bundles the collaborators a CameraZoom needs. Log may be nil.
type Host struct {
	Entities  EntityStore
	Renderer  Renderer
	Transport Subscriber
	Events    EventConnector
	Log       *logging.Logger
}
