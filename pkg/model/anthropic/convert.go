// ABOUTME: Formatter for the Anthropic Messages API
// ABOUTME: Maps roles and content blocks onto the wire shape the API expects

package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

// request is the provider payload this package's Formatter produces and its
// Model consumes.
type request struct {
	System   string
	Messages []map[string]any
}

// Formatter converts message history into Anthropic Messages API shape.
// System messages merge into the top-level system prompt; tool-role messages
// become user turns carrying tool_result blocks, which is the only place the
// API accepts them.
type Formatter struct{}

func (Formatter) Format(msgs []msg.Msg) (model.Request, error) {
	var system []string
	out := make([]map[string]any, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case msg.RoleSystem:
			system = append(system, m.Text())
		case msg.RoleAssistant:
			out = append(out, wireMessage("assistant", m.Content))
		case msg.RoleUser, msg.RoleTool:
			out = append(out, wireMessage("user", m.Content))
		default:
			return nil, fmt.Errorf("anthropic: unsupported role %q", m.Role)
		}
	}

	return &request{
		System:   strings.Join(system, "\n\n"),
		Messages: out,
	}, nil
}

func wireMessage(role string, blocks []msg.Content) map[string]any {
	content := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		content = append(content, wireBlock(b))
	}
	return map[string]any{"role": role, "content": content}
}

func wireBlock(b msg.Content) map[string]any {
	switch b.Type {
	case msg.ContentText:
		return map[string]any{"type": "text", "text": b.Text}
	case msg.ContentToolUse:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return map[string]any{"type": "tool_use", "id": b.ID, "name": b.Name, "input": input}
	case msg.ContentToolResult:
		res := map[string]any{
			"type":        "tool_result",
			"tool_use_id": b.ID,
			"content":     b.Output,
		}
		if b.IsError {
			res["is_error"] = true
		}
		return res
	case msg.ContentImage:
		return map[string]any{
			"type": "image",
			"source": map[string]any{
				"type":       "base64",
				"media_type": b.MediaType,
				"data":       b.Data,
			},
		}
	default:
		return map[string]any{"type": "text", "text": b.Text}
	}
}

// wireTools renders tool schemas in the input_schema form the API wants.
func wireTools(schemas []tool.Schema) []map[string]any {
	out := make([]map[string]any, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, map[string]any{
			"name":         s.Name,
			"description":  s.Description,
			"input_schema": s.Parameters,
		})
	}
	return out
}
