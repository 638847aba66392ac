// ABOUTME: Formatter/ChatModel boundary types: Request, ChatResponse, Usage, StopReason
// ABOUTME: The ReAct loop is polymorphic over this pair; providers live in subpackages

package model

import (
	"context"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
	StopCancelled StopReason = "cancelled"
)

// Usage tracks token consumption for one model invocation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatResponse is the normalized result of one model invocation. It is
// produced once and never mutated; the loop consumes it to decide the next
// transition.
type ChatResponse struct {
	Content    []msg.Content `json:"content"`
	Usage      Usage         `json:"usage"`
	StopReason StopReason    `json:"stop_reason"`
}

// ToolUses returns the tool_use blocks in response order.
func (r *ChatResponse) ToolUses() []msg.Content {
	var calls []msg.Content
	for _, c := range r.Content {
		if c.Type == msg.ContentToolUse {
			calls = append(calls, c)
		}
	}
	return calls
}

// Request is the provider-specific payload produced by a Formatter. Each
// provider package documents its concrete type; the loop treats it as opaque
// and only passes it to the matching ChatModel.
type Request any

// Formatter converts an ordered message history into a provider request.
// Format must be pure: deterministic, no I/O, no mutation of its input.
type Formatter interface {
	Format(msgs []msg.Msg) (Request, error)
}

// ChatModel performs the model invocation. Call is the only I/O-bearing
// operation in the core; it may block for the duration of the request and
// must honor ctx cancellation at the transport level. Retry policy belongs
// to the implementation, never to the caller's loop.
type ChatModel interface {
	Call(ctx context.Context, req Request, tools []tool.Schema) (*ChatResponse, error)
}

// Streamer is implemented by providers that can deliver output
// incrementally. Consumers that only have a ChatModel may type-assert for
// it; Call remains the canonical invocation path.
type Streamer interface {
	Stream(ctx context.Context, req Request, tools []tool.Schema) *Stream
}
