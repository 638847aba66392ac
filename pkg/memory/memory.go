// ABOUTME: Conversation memory: append-only ordered store of Msg values
// ABOUTME: InMemory is the default; the interface is the seam for persistence/retrieval

package memory

import (
	"sync"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

// Memory stores the ordered conversation history for one agent instance.
// Append order as observed through All must be FIFO; implementations may
// buffer durability however they like.
type Memory interface {
	// Add appends messages in order. Messages whose ID is already present
	// are skipped, so replaying a turn cannot duplicate history.
	Add(msgs ...msg.Msg)

	// All returns a copy of the stored messages in append order.
	All() []msg.Msg

	// Len returns the number of stored messages.
	Len() int
}

// InMemory keeps the history in a mutex-guarded slice. Suited to a single
// conversation's lifetime; nothing is persisted.
type InMemory struct {
	mu      sync.Mutex
	content []msg.Msg
	seen    map[string]struct{}
}

// NewInMemory creates an empty in-memory history.
func NewInMemory() *InMemory {
	return &InMemory{seen: make(map[string]struct{})}
}

func (m *InMemory) Add(msgs ...msg.Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mm := range msgs {
		if mm.ID != "" {
			if _, dup := m.seen[mm.ID]; dup {
				continue
			}
			m.seen[mm.ID] = struct{}{}
		}
		m.content = append(m.content, mm)
	}
}

func (m *InMemory) All() []msg.Msg {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]msg.Msg, len(m.content))
	copy(out, m.content)
	return out
}

func (m *InMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.content)
}

// Clear drops all stored messages.
func (m *InMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = nil
	m.seen = make(map[string]struct{})
}
