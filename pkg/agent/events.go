// ABOUTME: Observable loop events for display layers

package agent

import "github.com/mauromedda/nano-agent-go/pkg/msg"

// EventType identifies the kind of event emitted while a reply runs.
type EventType int

const (
	EventReplyStart EventType = iota // Reply loop started
	EventReplyEnd                    // Reply loop finished
	EventAssistantText               // Assistant text for one reasoning step
	EventToolStart                   // One tool call began
	EventToolEnd                     // One tool call finished
	EventError                       // Loop-terminating error
)

// Event is a single observation from the loop. Delivery is best-effort: a
// slow or absent consumer never stalls the loop.
type Event struct {
	Type   EventType
	Text   string
	Tool   string
	ToolID string
	Result *msg.Content
	Err    error
}
