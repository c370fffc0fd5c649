// Package world is the host simulation's entity/component store.
//
// Entities are opaque ids backed by a donburi ECS world, with names, parents,
// sensors and the link/model/world markers as component types. The zoom
// plugin only sees it through a narrow interface: validity, names, parents,
// the camera component and change marking.
//
// World is NOT thread-safe; it belongs to the simulation goroutine.
package world

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

type Entity uint64

// Null is never a valid entity.
const Null Entity = 0

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// ComponentType identifies a component slot for change tracking.
type ComponentType int

const (
	ComponentName ComponentType = iota
	ComponentParent
	ComponentSensor
	ComponentCamera
	ComponentLink
	ComponentModel
	ComponentWorld
)

// ChangeState records how a component changed since it was last consumed.
type ChangeState int

const (
	NoChange ChangeState = iota
	OneTimeChange
	PeriodicChange
)

// Camera is the camera configuration stored on a camera sensor.
type Camera struct {
	HorizontalFov   float64 // [rad]
	LensFocalLength float64 // [m]
	ImageWidth      int
	ImageHeight     int
}

// Sensor is the sensor component. Camera is nil for non-camera sensors.
type Sensor struct {
	Type   string
	Camera *Camera
}

var (
	idComponent     = donburi.NewComponentType[Entity]()
	nameComponent   = donburi.NewComponentType[string]()
	parentComponent = donburi.NewComponentType[Entity]()
	sensorComponent = donburi.NewComponentType[Sensor]()

	linkTag  = donburi.NewTag()
	modelTag = donburi.NewTag()
	worldTag = donburi.NewTag()
)

type World struct {
	ecs      donburi.World
	next     Entity
	entities map[Entity]donburi.Entity
	sensors  *donburi.Query
	worlds   *donburi.Query

	// Change marking lives outside the ECS.
	changes map[Entity]map[ComponentType]ChangeState
}

func New() *World {
	return &World{
		ecs:      donburi.NewWorld(),
		entities: make(map[Entity]donburi.Entity),
		sensors:  donburi.NewQuery(filter.Contains(idComponent, sensorComponent)),
		worlds:   donburi.NewQuery(filter.Contains(idComponent, worldTag)),
		changes:  make(map[Entity]map[ComponentType]ChangeState),
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	w.next++
	id := w.next
	e := w.ecs.Create(idComponent)
	idComponent.SetValue(w.ecs.Entry(e), id)
	w.entities[id] = e
	return id
}

// DestroyEntity removes an entity and all of its components.
func (w *World) DestroyEntity(e Entity) {
	if de, ok := w.entities[e]; ok {
		w.ecs.Remove(de)
	}
	delete(w.entities, e)
	delete(w.changes, e)
}

// Valid reports whether e is alive.
func (w *World) Valid(e Entity) bool {
	de, ok := w.entities[e]
	return e != Null && ok && w.ecs.Valid(de)
}

func (w *World) entry(e Entity) (*donburi.Entry, bool) {
	if !w.Valid(e) {
		return nil, false
	}
	return w.ecs.Entry(w.entities[e]), true
}

func hasComponent[T any](w *World, e Entity, c *donburi.ComponentType[T]) bool {
	entry, ok := w.entry(e)
	return ok && entry.HasComponent(c)
}

func setComponent[T any](entry *donburi.Entry, c *donburi.ComponentType[T], v T) {
	if entry.HasComponent(c) {
		c.SetValue(entry, v)
		return
	}
	donburi.Add(entry, c, &v)
}

func getComponent[T any](w *World, e Entity, c *donburi.ComponentType[T]) (T, bool) {
	var zero T
	entry, ok := w.entry(e)
	if !ok || !entry.HasComponent(c) {
		return zero, false
	}
	return *c.Get(entry), true
}

func (w *World) tag(e Entity, c *donburi.ComponentType[donburi.Tag]) {
	if entry, ok := w.entry(e); ok && !entry.HasComponent(c) {
		entry.AddComponent(c)
	}
}

func (w *World) SetName(e Entity, name string) {
	if entry, ok := w.entry(e); ok {
		setComponent(entry, nameComponent, name)
	}
}

// Name returns the name component of e.
func (w *World) Name(e Entity) (string, bool) {
	return getComponent(w, e, nameComponent)
}

func (w *World) SetParent(e, parent Entity) {
	if entry, ok := w.entry(e); ok {
		setComponent(entry, parentComponent, parent)
	}
}

// Parent returns the parent entity component of e.
func (w *World) Parent(e Entity) (Entity, bool) {
	return getComponent(w, e, parentComponent)
}

func (w *World) MarkLink(e Entity)  { w.tag(e, linkTag) }
func (w *World) MarkModel(e Entity) { w.tag(e, modelTag) }

// MarkWorld makes e the only entity carrying the world component. Null
// clears it.
func (w *World) MarkWorld(e Entity) {
	var tagged []donburi.Entity
	w.worlds.Each(w.ecs, func(entry *donburi.Entry) {
		tagged = append(tagged, entry.Entity())
	})
	for _, de := range tagged {
		w.ecs.Entry(de).RemoveComponent(worldTag)
	}
	w.tag(e, worldTag)
}

func (w *World) IsLink(e Entity) bool  { return hasComponent(w, e, linkTag) }
func (w *World) IsModel(e Entity) bool { return hasComponent(w, e, modelTag) }

// WorldEntity returns the entity carrying the world component.
func (w *World) WorldEntity() (Entity, bool) {
	found := Null
	w.worlds.Each(w.ecs, func(entry *donburi.Entry) {
		if found == Null {
			found = *idComponent.Get(entry)
		}
	})
	return found, found != Null
}

// ParentModel returns the model owning a link.
func (w *World) ParentModel(link Entity) (Entity, bool) {
	if !w.IsLink(link) {
		return Null, false
	}
	p, ok := w.Parent(link)
	if !ok || !w.IsModel(p) {
		return Null, false
	}
	return p, true
}

func (w *World) SetSensor(e Entity, s *Sensor) {
	entry, ok := w.entry(e)
	if !ok {
		return
	}
	setComponent(entry, sensorComponent, *s)
	w.SetChanged(e, ComponentSensor, OneTimeChange)
}

// RemoveSensor drops the sensor component of e.
func (w *World) RemoveSensor(e Entity) {
	if entry, ok := w.entry(e); ok && entry.HasComponent(sensorComponent) {
		entry.RemoveComponent(sensorComponent)
	}
}

// IsSensor reports whether e carries a sensor component.
func (w *World) IsSensor(e Entity) bool {
	return hasComponent(w, e, sensorComponent)
}

// CameraSensor returns the camera configuration of a camera sensor. The
// pointer aliases world storage; writes must be followed by SetChanged.
func (w *World) CameraSensor(e Entity) (*Camera, bool) {
	s, ok := getComponent(w, e, sensorComponent)
	if !ok || s.Camera == nil {
		return nil, false
	}
	return s.Camera, true
}

// CameraEntities lists camera sensors in ascending entity order.
func (w *World) CameraEntities() []Entity {
	var out []Entity
	w.sensors.Each(w.ecs, func(entry *donburi.Entry) {
		if sensorComponent.Get(entry).Camera != nil {
			out = append(out, *idComponent.Get(entry))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetChanged marks component c of e.
func (w *World) SetChanged(e Entity, c ComponentType, state ChangeState) {
	m, ok := w.changes[e]
	if !ok {
		m = make(map[ComponentType]ChangeState)
		w.changes[e] = m
	}
	m[c] = state
}

// Changed returns the change state of component c of e.
func (w *World) Changed(e Entity, c ComponentType) ChangeState {
	return w.changes[e][c]
}

// ClearOneTimeChanges resets every OneTimeChange to NoChange. Periodic
// changes persist.
func (w *World) ClearOneTimeChanges() {
	for _, m := range w.changes {
		for c, s := range m {
			if s == OneTimeChange {
				m[c] = NoChange
			}
		}
	}
}

// ScopedName joins the names from the outermost ancestor down to e with sep.
// Unnamed ancestors are skipped.
func (w *World) ScopedName(e Entity, sep string) string {
	var parts []string
	seen := make(map[Entity]bool)
	for cur := e; w.Valid(cur) && !seen[cur]; {
		seen[cur] = true
		if name, ok := w.Name(cur); ok && name != "" {
			parts = append(parts, name)
		}
		p, ok := w.Parent(cur)
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, sep)
}

// RemoveParentScope drops the outermost scope of a scoped name.
func RemoveParentScope(name, sep string) string {
	idx := strings.Index(name, sep)
	if idx < 0 {
		return name
	}
	return name[idx+len(sep):]
}
