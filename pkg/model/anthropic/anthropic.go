// ABOUTME: Anthropic Messages API backend with SSE streaming
// ABOUTME: Call buffers a full stream into a ChatResponse; Stream exposes deltas

package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/model/internal/httputil"
	"github.com/mauromedda/nano-agent-go/pkg/model/internal/sse"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

const (
	defaultBaseURL  = "https://api.anthropic.com"
	apiVersion      = "2023-06-01"
	messagesPath    = "/v1/messages"
	defaultModel    = "claude-sonnet-4-20250514"
	defaultMaxToken = 8192
	streamBufSize   = 64
)

// Model implements model.ChatModel against the Anthropic Messages API.
type Model struct {
	client    *httputil.Client
	modelID   string
	maxTokens int
}

// Option adjusts a Model at construction.
type Option func(*Model)

// WithMaxTokens overrides the per-request output token cap.
func WithMaxTokens(n int) Option {
	return func(m *Model) { m.maxTokens = n }
}

// New builds a Model. Empty apiKey falls back to ANTHROPIC_API_KEY; empty
// baseURL and modelID fall back to the hosted API and a current default.
func New(apiKey, baseURL, modelID string, opts ...Option) *Model {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if modelID == "" {
		modelID = defaultModel
	}

	m := &Model{
		client: httputil.New(baseURL, map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": apiVersion,
		}),
		modelID:   modelID,
		maxTokens: defaultMaxToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Call runs one invocation to completion and returns the buffered response.
func (m *Model) Call(ctx context.Context, req model.Request, tools []tool.Schema) (*model.ChatResponse, error) {
	s := m.Stream(ctx, req, tools)
	for range s.Events() {
		// drain; Call has no delta consumer
	}
	return s.Result()
}

// Stream starts a streaming invocation. The returned Stream yields deltas
// and, once done, the accumulated response via Result.
func (m *Model) Stream(ctx context.Context, req model.Request, tools []tool.Schema) *model.Stream {
	s := model.NewStream(streamBufSize)
	go m.run(ctx, s, req, tools)
	return s
}

func (m *Model) run(ctx context.Context, s *model.Stream, req model.Request, tools []tool.Schema) {
	r, ok := req.(*request)
	if !ok {
		s.Fail(fmt.Errorf("anthropic: request built by a different formatter (%T)", req))
		return
	}

	body := map[string]any{
		"model":      m.modelID,
		"max_tokens": m.maxTokens,
		"stream":     true,
		"messages":   r.Messages,
	}
	if r.System != "" {
		body["system"] = r.System
	}
	if len(tools) > 0 {
		body["tools"] = wireTools(tools)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		s.Fail(fmt.Errorf("anthropic: encoding request: %w", err))
		return
	}

	dec, resp, err := m.client.PostSSE(ctx, messagesPath, payload)
	if err != nil {
		s.Fail(fmt.Errorf("anthropic: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Fail(apiError(resp))
		return
	}

	acc := &accumulator{}
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.Fail(fmt.Errorf("anthropic: reading stream: %w", err))
			return
		}
		if !m.dispatch(s, acc, ev) {
			return
		}
	}
	s.Finish(acc.response())
}

// dispatch routes one SSE event. It returns false when the stream already
// terminated with an error.
func (m *Model) dispatch(s *model.Stream, acc *accumulator, ev *sse.Event) bool {
	switch ev.Type {
	case "message_start":
		var p struct {
			Message struct {
				Usage model.Usage `json:"usage"`
			} `json:"message"`
		}
		if json.Unmarshal([]byte(ev.Data), &p) == nil {
			acc.usage = p.Message.Usage
		}

	case "content_block_start":
		var p struct {
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
		}
		if json.Unmarshal([]byte(ev.Data), &p) != nil {
			return true
		}
		acc.start(p.ContentBlock.Type, p.ContentBlock.ID, p.ContentBlock.Name)
		if p.ContentBlock.Type == "tool_use" {
			s.Send(model.StreamEvent{
				Type:     model.EventToolUseStart,
				ToolID:   p.ContentBlock.ID,
				ToolName: p.ContentBlock.Name,
			})
		}

	case "content_block_delta":
		var p struct {
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				PartialJSON string `json:"partial_json"`
			} `json:"delta"`
		}
		if json.Unmarshal([]byte(ev.Data), &p) != nil {
			return true
		}
		switch p.Delta.Type {
		case "text_delta":
			acc.text(p.Delta.Text)
			s.Send(model.StreamEvent{Type: model.EventTextDelta, Text: p.Delta.Text})
		case "input_json_delta":
			acc.input(p.Delta.PartialJSON)
			s.Send(model.StreamEvent{Type: model.EventToolUseDelta, ToolInput: p.Delta.PartialJSON})
		}

	case "content_block_stop":
		if b := acc.close(); b != nil && b.Type == msg.ContentToolUse {
			s.Send(model.StreamEvent{
				Type:      model.EventToolUseDone,
				ToolID:    b.ID,
				ToolName:  b.Name,
				ToolInput: string(b.Input),
			})
		}

	case "message_delta":
		var p struct {
			Delta struct {
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			Usage struct {
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		}
		if json.Unmarshal([]byte(ev.Data), &p) != nil {
			return true
		}
		acc.stopReason = model.StopReason(p.Delta.StopReason)
		if p.Usage.OutputTokens > 0 {
			acc.usage.OutputTokens = p.Usage.OutputTokens
		}

	case "error":
		var p struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		reason := ev.Data
		if json.Unmarshal([]byte(ev.Data), &p) == nil && p.Error.Message != "" {
			reason = p.Error.Message
		}
		s.Fail(fmt.Errorf("anthropic: stream error: %s", reason))
		return false
	}
	return true
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("anthropic: API error %d: %s", resp.StatusCode, body)
}
