package world

// Rig is the entity chain world → model → link → camera sensor.
type Rig struct {
	World  Entity
	Model  Entity
	Link   Entity
	Sensor Entity
}

// RigSpec names the entities of a camera rig.
type RigSpec struct {
	World  string
	Model  string
	Link   string
	Sensor string
	Camera Camera
}

// BuildCameraRig creates a world entity, a model, a link and a camera sensor
// parented in that order.
func (w *World) BuildCameraRig(rs RigSpec) Rig {
	var r Rig

	r.World = w.CreateEntity()
	w.SetName(r.World, rs.World)
	w.MarkWorld(r.World)

	r.Model = w.CreateEntity()
	w.SetName(r.Model, rs.Model)
	w.SetParent(r.Model, r.World)
	w.MarkModel(r.Model)

	r.Link = w.CreateEntity()
	w.SetName(r.Link, rs.Link)
	w.SetParent(r.Link, r.Model)
	w.MarkLink(r.Link)

	cam := rs.Camera
	r.Sensor = w.CreateEntity()
	w.SetName(r.Sensor, rs.Sensor)
	w.SetParent(r.Sensor, r.Link)
	w.SetSensor(r.Sensor, &Sensor{Type: "camera", Camera: &cam})

	return r
}
