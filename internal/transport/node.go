// Package transport is an in-process publish/subscribe node carrying scalar
// messages, such as zoom commands, between goroutines.
//
// Delivery is best effort and synchronous: Publish invokes every handler of
// the topic on the publisher's goroutine. Handlers must not block.
package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidTopic = errors.New("transport: invalid topic")

// Handler receives a single scalar payload.
type Handler func(float64)

type Node struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

func NewNode() *Node {
	return &Node{subs: make(map[string][]Handler)}
}

// Subscribe registers h on topic. The topic must already be valid.
func (n *Node) Subscribe(topic string, h Handler) error {
	if h == nil {
		return fmt.Errorf("transport: nil handler for %q", topic)
	}
	if AsValidTopic(topic) != topic {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	n.mu.Lock()
	n.subs[topic] = append(n.subs[topic], h)
	n.mu.Unlock()
	return nil
}

// Unsubscribe removes every handler of topic.
func (n *Node) Unsubscribe(topic string) {
	n.mu.Lock()
	delete(n.subs, topic)
	n.mu.Unlock()
}

// Publish delivers v to every handler of topic and returns how many received
// it. Publishing to a topic without subscribers is not an error.
func (n *Node) Publish(topic string, v float64) (int, error) {
	if AsValidTopic(topic) != topic {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	n.mu.RLock()
	hs := append([]Handler(nil), n.subs[topic]...)
	n.mu.RUnlock()

	for _, h := range hs {
		h(v)
	}
	return len(hs), nil
}

// Topics lists topics with at least one subscriber.
func (n *Node) Topics() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.subs))
	for t, hs := range n.subs {
		if len(hs) > 0 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// AsValidTopic turns topic into a valid topic name, or returns "" when that
// is impossible. Spaces become underscores and characters outside
// [A-Za-z0-9_-./~:] are dropped. Remappings containing ":=", empty names, "/"
// and names containing "//" or "~" past the first character are invalid.
func AsValidTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if strings.Contains(topic, ":=") {
		return ""
	}

	var b strings.Builder
	for _, r := range topic {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune("_-./~:", r):
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || out == "/" || strings.Contains(out, "//") {
		return ""
	}
	if i := strings.LastIndex(out, "~"); i > 0 {
		return ""
	}
	return out
}

// ValidTopic returns the first candidate that can be made valid, converted,
// or "" when none can.
func ValidTopic(candidates []string) string {
	for _, c := range candidates {
		if v := AsValidTopic(c); v != "" {
			return v
		}
	}
	return ""
}
