// Package events delivers host lifecycle signals to plugins.
//
// Handlers are invoked synchronously, in connection order, on the goroutine
// that emits the event.
package events

import (
	"sort"
	"sync"
)

// Type identifies a host event.
type Type int

const (
	// RenderTeardown is emitted when the rendering subsystem releases its
	// scene. It carries no payload.
	RenderTeardown Type = iota + 1
)

func (t Type) String() string {
	switch t {
	case RenderTeardown:
		return "RenderTeardown"
	default:
		return "Unknown"
	}
}

// Connection keeps a handler registered until Disconnect.
type Connection struct {
	m  *Manager
	t  Type
	id int
}

// Disconnect removes the handler. Safe to call more than once.
func (c *Connection) Disconnect() {
	if c == nil || c.m == nil {
		return
	}
	c.m.remove(c.t, c.id)
	c.m = nil
}

type Manager struct {
	mu       sync.Mutex
	next     int
	handlers map[Type]map[int]func()
}

func NewManager() *Manager {
	return &Manager{handlers: make(map[Type]map[int]func())}
}

// Connect registers fn for events of type t.
func (m *Manager) Connect(t Type, fn func()) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	hs, ok := m.handlers[t]
	if !ok {
		hs = make(map[int]func())
		m.handlers[t] = hs
	}
	hs[m.next] = fn
	return &Connection{m: m, t: t, id: m.next}
}

// ConnectRenderTeardown registers fn for RenderTeardown.
func (m *Manager) ConnectRenderTeardown(fn func()) *Connection {
	return m.Connect(RenderTeardown, fn)
}

// Emit runs every handler of type t and returns how many ran. Handlers may
// connect or disconnect while being emitted.
func (m *Manager) Emit(t Type) int {
	m.mu.Lock()
	ids := make([]int, 0, len(m.handlers[t]))
	for id := range m.handlers[t] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.handlers[t][id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// EmitRenderTeardown emits RenderTeardown.
func (m *Manager) EmitRenderTeardown() int {
	return m.Emit(RenderTeardown)
}

// Count returns the number of handlers connected for t.
func (m *Manager) Count(t Type) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[t])
}

func (m *Manager) remove(t Type, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers[t], id)
}
