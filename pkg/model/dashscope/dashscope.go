// ABOUTME: DashScope text-generation backend (Qwen models)
// ABOUTME: Uses the native Generation API with result_format=message

package dashscope

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/model/internal/httputil"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

const (
	defaultBaseURL = "https://dashscope.aliyuncs.com"
	generationPath = "/api/v1/services/aigc/text-generation/generation"
	defaultModel   = "qwen-max"
)

// request is the wire payload produced by this package's Formatter.
type request struct {
	Messages []wireMessage
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Formatter renders message history in the DashScope message format. The
// API takes plain-string content with tool calls and results carried on
// dedicated message fields, so blocks flatten per role rather than per
// block.
type Formatter struct{}

func (Formatter) Format(msgs []msg.Msg) (model.Request, error) {
	var out []wireMessage
	for _, m := range msgs {
		switch m.Role {
		case msg.RoleSystem:
			out = append(out, wireMessage{Role: "system", Content: m.Text()})
		case msg.RoleUser:
			out = append(out, wireMessage{Role: "user", Content: m.Text()})
		case msg.RoleAssistant:
			wm := wireMessage{Role: "assistant", Content: m.Text()}
			for _, call := range m.ToolUses() {
				wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
					ID:   call.ID,
					Type: "function",
					Function: wireFunction{
						Name:      call.Name,
						Arguments: string(call.Input),
					},
				})
			}
			out = append(out, wm)
		case msg.RoleTool:
			// One tool message per result block so each stays linked to
			// the call that produced it.
			for _, b := range m.Blocks(msg.ContentToolResult) {
				out = append(out, wireMessage{
					Role:       "tool",
					Name:       b.Name,
					ToolCallID: b.ID,
					Content:    b.Output,
				})
			}
		default:
			return nil, fmt.Errorf("dashscope: unsupported role %q", m.Role)
		}
	}
	return &request{Messages: out}, nil
}

// Model implements model.ChatModel against DashScope.
type Model struct {
	client  *httputil.Client
	modelID string
}

// New builds a Model. Empty apiKey falls back to DASHSCOPE_API_KEY.
func New(apiKey, baseURL, modelID string) *Model {
	if apiKey == "" {
		apiKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if modelID == "" {
		modelID = defaultModel
	}
	return &Model{
		client: httputil.New(baseURL, map[string]string{
			"Authorization": "Bearer " + apiKey,
		}),
		modelID: modelID,
	}
}

func (m *Model) Call(ctx context.Context, req model.Request, tools []tool.Schema) (*model.ChatResponse, error) {
	r, ok := req.(*request)
	if !ok {
		return nil, fmt.Errorf("dashscope: request built by a different formatter (%T)", req)
	}

	params := map[string]any{"result_format": "message"}
	if len(tools) > 0 {
		wired := make([]map[string]any, 0, len(tools))
		for _, s := range tools {
			wired = append(wired, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        s.Name,
					"description": s.Description,
					"parameters":  s.Parameters,
				},
			})
		}
		params["tools"] = wired
	}

	payload, err := json.Marshal(map[string]any{
		"model":      m.modelID,
		"input":      map[string]any{"messages": r.Messages},
		"parameters": params,
	})
	if err != nil {
		return nil, fmt.Errorf("dashscope: encoding request: %w", err)
	}

	resp, err := m.client.PostJSON(ctx, generationPath, payload)
	if err != nil {
		return nil, fmt.Errorf("dashscope: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("dashscope: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body)
	}

	return decodeResponse(body)
}

func apiError(status int, body []byte) error {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return fmt.Errorf("dashscope: API error %d (%s): %s", status, e.Code, e.Message)
	}
	return fmt.Errorf("dashscope: API error %d: %s", status, body)
}

func decodeResponse(body []byte) (*model.ChatResponse, error) {
	var p struct {
		Output struct {
			Choices []struct {
				FinishReason string `json:"finish_reason"`
				Message      struct {
					Content   string         `json:"content"`
					ToolCalls []wireToolCall `json:"tool_calls"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"output"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("dashscope: decoding response: %w", err)
	}
	if len(p.Output.Choices) == 0 {
		return nil, fmt.Errorf("dashscope: response carried no choices")
	}

	choice := p.Output.Choices[0]
	var content []msg.Content
	if choice.Message.Content != "" {
		content = append(content, msg.TextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		content = append(content, msg.ToolUseBlock(call.ID, call.Function.Name, json.RawMessage(call.Function.Arguments)))
	}

	return &model.ChatResponse{
		Content: content,
		Usage: model.Usage{
			InputTokens:  p.Usage.InputTokens,
			OutputTokens: p.Usage.OutputTokens,
		},
		StopReason: stopReason(choice.FinishReason, len(choice.Message.ToolCalls) > 0),
	}, nil
}

func stopReason(finish string, hasCalls bool) model.StopReason {
	switch finish {
	case "tool_calls":
		return model.StopToolUse
	case "length":
		return model.StopMaxTokens
	case "stop", "":
		if hasCalls {
			return model.StopToolUse
		}
		return model.StopEndTurn
	default:
		return model.StopEndTurn
	}
}
