package control

import "sync"

// Mailbox holds the most recent zoom command and a dirty flag. Submitting
// overwrites any value not yet taken. The zero value is ready to use.
type Mailbox struct {
	mu    sync.Mutex
	value float64
	dirty bool
}

// Submit records v as the pending command. It never blocks on the consumer.
func (m *Mailbox) Submit(v float64) {
	m.mu.Lock()
	m.value = v
	m.dirty = true
	m.mu.Unlock()
}

// Take returns the pending command and clears the dirty flag. The second
// result is false when nothing arrived since the last Take.
func (m *Mailbox) Take() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return 0, false
	}
	m.dirty = false
	return m.value, true
}

// Pending reports whether a command is waiting, without consuming it.
func (m *Mailbox) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Clear drops any pending command.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
}
