// ABOUTME: Core message protocol: Msg and the ContentBlock tagged union
// ABOUTME: Wire-format agnostic; shared by memory, toolkit, loop, and providers

package msg

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// ContentType identifies the kind of content block.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentToolUse    ContentType = "tool_use"
	ContentToolResult ContentType = "tool_result"
	ContentImage      ContentType = "image"
	ContentAudio      ContentType = "audio"
)

// Content is a single block within a message. Which fields are meaningful
// depends on Type:
//
//	text        Text
//	tool_use    ID, Name, Input
//	tool_result ID, Name, Output, IsError
//	image       URL or (MediaType, Data)
//	audio       URL or (MediaType, Data)
type Content struct {
	Type      ContentType     `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    string          `json:"output,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	MediaType string          `json:"media_type,omitempty"`
	Data      string          `json:"data,omitempty"`
	URL       string          `json:"url,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) Content {
	return Content{Type: ContentText, Text: text}
}

// ToolUseBlock builds a tool_use content block. An empty id is replaced with
// a generated one so a matching tool_result can always reference it.
func ToolUseBlock(id, name string, input json.RawMessage) Content {
	if id == "" {
		id = "call_" + uuid.NewString()[:8]
	}
	return Content{Type: ContentToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds a tool_result content block answering the tool_use
// block with the same id.
func ToolResultBlock(id, name, output string, isError bool) Content {
	return Content{Type: ContentToolResult, ID: id, Name: name, Output: output, IsError: isError}
}

// ImageBlock builds an image content block referencing a URL.
func ImageBlock(url string) Content {
	return Content{Type: ContentImage, URL: url}
}

// Msg is a single conversation turn. It is a value type: construct it once,
// hand it to memory, never mutate it afterwards.
type Msg struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Content   []Content `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// New constructs a message from content blocks. It validates the role and
// rejects empty content: a turn with nothing in it has no meaning to either
// the loop or a provider.
func New(name string, role Role, blocks ...Content) (Msg, error) {
	if !role.Valid() {
		return Msg{}, fmt.Errorf("msg: invalid role %q", role)
	}
	if len(blocks) == 0 {
		return Msg{}, fmt.Errorf("msg: empty content for %q", name)
	}
	return Msg{
		ID:        uuid.NewString()[:8],
		Name:      name,
		Role:      role,
		Content:   blocks,
		Timestamp: time.Now(),
	}, nil
}

// NewText constructs a message with a single text block.
func NewText(name string, role Role, text string) (Msg, error) {
	return New(name, role, TextBlock(text))
}

// MustText is NewText for static strings; it panics on an invalid role.
// Intended for tests and wiring code where the inputs are literals.
func MustText(name string, role Role, text string) Msg {
	m, err := NewText(name, role, text)
	if err != nil {
		panic(err)
	}
	return m
}

// Text concatenates all text blocks in order, separated by newlines.
// Returns "" when the message carries no text.
func (m Msg) Text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == ContentText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolUses returns all tool_use blocks in order.
func (m Msg) ToolUses() []Content {
	var calls []Content
	for _, c := range m.Content {
		if c.Type == ContentToolUse {
			calls = append(calls, c)
		}
	}
	return calls
}

// HasToolUse reports whether the message requests any tool execution.
func (m Msg) HasToolUse() bool {
	for _, c := range m.Content {
		if c.Type == ContentToolUse {
			return true
		}
	}
	return false
}

// Blocks returns the content blocks of the given type, in order.
func (m Msg) Blocks(t ContentType) []Content {
	var out []Content
	for _, c := range m.Content {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}
