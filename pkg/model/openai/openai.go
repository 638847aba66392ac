// ABOUTME: OpenAI Chat Completions backend built on the official SDK
// ABOUTME: Also serves OpenAI-compatible endpoints via a custom base URL

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

const defaultModel = "gpt-4o"

// request is the wire payload produced by this package's Formatter.
type request struct {
	Messages []openai.ChatCompletionMessageParamUnion
}

// Formatter renders message history as Chat Completions messages. Tool-role
// messages expand to one tool message per result block; assistant tool_use
// blocks ride on the assistant message's tool_calls field.
type Formatter struct{}

func (Formatter) Format(msgs []msg.Msg) (model.Request, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case msg.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case msg.RoleUser:
			out = append(out, openai.UserMessage(m.Text()))
		case msg.RoleAssistant:
			out = append(out, assistantMessage(m))
		case msg.RoleTool:
			for _, b := range m.Blocks(msg.ContentToolResult) {
				out = append(out, openai.ToolMessage(b.Output, b.ID))
			}
		default:
			return nil, fmt.Errorf("openai: unsupported role %q", m.Role)
		}
	}
	return &request{Messages: out}, nil
}

func assistantMessage(m msg.Msg) openai.ChatCompletionMessageParamUnion {
	asst := openai.ChatCompletionAssistantMessageParam{}
	if text := m.Text(); text != "" {
		asst.Content.OfString = openai.String(text)
	}
	for _, call := range m.ToolUses() {
		asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: string(call.Input),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
}

// Model implements model.ChatModel on the OpenAI SDK.
type Model struct {
	api     *openai.Client
	modelID string
}

// New builds a Model. Empty apiKey falls back to OPENAI_API_KEY; a non-empty
// baseURL points the SDK at a compatible endpoint.
func New(apiKey, baseURL, modelID string) (*Model, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("openai: missing API key")
	}
	if modelID == "" {
		modelID = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	client := openai.NewClient(opts...)

	return &Model{api: &client, modelID: modelID}, nil
}

func (m *Model) Call(ctx context.Context, req model.Request, tools []tool.Schema) (*model.ChatResponse, error) {
	r, ok := req.(*request)
	if !ok {
		return nil, fmt.Errorf("openai: request built by a different formatter (%T)", req)
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.modelID),
		Messages: r.Messages,
	}
	if len(tools) > 0 {
		wired, err := wireTools(tools)
		if err != nil {
			return nil, err
		}
		params.Tools = wired
	}

	resp, err := m.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response carried no choices")
	}

	choice := resp.Choices[0]
	var content []msg.Content
	if choice.Message.Content != "" {
		content = append(content, msg.TextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		content = append(content, msg.ToolUseBlock(
			call.ID,
			call.Function.Name,
			json.RawMessage(call.Function.Arguments),
		))
	}

	return &model.ChatResponse{
		Content: content,
		Usage: model.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		StopReason: stopReason(choice.FinishReason),
	}, nil
}

func wireTools(schemas []tool.Schema) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		params, err := toFunctionParameters(s.Parameters)
		if err != nil {
			return nil, fmt.Errorf("openai: tool %s: %w", s.Name, err)
		}
		fn := shared.FunctionDefinitionParam{
			Name:       s.Name,
			Parameters: params,
		}
		if s.Description != "" {
			fn.Description = openai.String(s.Description)
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{Function: fn},
		})
	}
	return out, nil
}

// toFunctionParameters bridges the typed schema to the SDK's loose map form.
func toFunctionParameters(p tool.ParametersSchema) (shared.FunctionParameters, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stopReason(finish string) model.StopReason {
	switch finish {
	case "tool_calls", "function_call":
		return model.StopToolUse
	case "length":
		return model.StopMaxTokens
	default:
		return model.StopEndTurn
	}
}

func wrapAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return fmt.Errorf("openai: API error %d: %s", apiErr.StatusCode, strings.TrimSpace(apiErr.RawJSON()))
	}
	return fmt.Errorf("openai: %w", err)
}
