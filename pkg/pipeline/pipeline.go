// ABOUTME: Multi-agent orchestration: sequential chaining and hub broadcast

package pipeline

import (
	"context"
	"fmt"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

// Agent is the minimal conversational surface the pipeline needs.
// *agent.ReActAgent satisfies it.
type Agent interface {
	Name() string
	Reply(ctx context.Context, in *msg.Msg) (*msg.Msg, error)
	Observe(m msg.Msg)
}

// Sequential passes initial through each agent in order, feeding every
// reply to the next agent. It returns the last reply; a nil initial starts
// the first agent from its existing memory.
func Sequential(ctx context.Context, agents []Agent, initial *msg.Msg) (*msg.Msg, error) {
	current := initial
	for _, a := range agents {
		out, err := a.Reply(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("pipeline: agent %s: %w", a.Name(), err)
		}
		current = out
	}
	return current, nil
}

// Hub is a shared conversation space: every message broadcast through it
// lands in each participant's memory, so any of them can speak next with
// full context.
type Hub struct {
	participants []Agent
}

// NewHub creates a hub. A non-nil announcement is broadcast immediately so
// all participants share the same opening context.
func NewHub(participants []Agent, announcement *msg.Msg) *Hub {
	h := &Hub{participants: participants}
	if announcement != nil {
		h.Broadcast(*announcement)
	}
	return h
}

// Broadcast delivers m to every participant's memory.
func (h *Hub) Broadcast(m msg.Msg) {
	for _, p := range h.participants {
		p.Observe(m)
	}
}

// Speak has speaker produce a reply from its accumulated context, then
// broadcasts that reply to every other participant. Speaker must already be
// in the hub; its own memory picks the reply up from Reply itself.
func (h *Hub) Speak(ctx context.Context, speaker Agent) (*msg.Msg, error) {
	out, err := speaker.Reply(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("hub: agent %s: %w", speaker.Name(), err)
	}
	for _, p := range h.participants {
		if p != speaker {
			p.Observe(*out)
		}
	}
	return out, nil
}

// Add introduces a participant mid-conversation. It sees only messages
// broadcast after it joins.
func (h *Hub) Add(a Agent) {
	for _, p := range h.participants {
		if p == a {
			return
		}
	}
	h.participants = append(h.participants, a)
}

// Remove drops a participant; it keeps whatever context it accumulated.
func (h *Hub) Remove(a Agent) {
	for i, p := range h.participants {
		if p == a {
			h.participants = append(h.participants[:i], h.participants[i+1:]...)
			return
		}
	}
}
