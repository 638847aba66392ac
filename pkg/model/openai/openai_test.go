// ABOUTME: Tests for the OpenAI backend against a compatible httptest server

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

func TestFormatter_ToolRoundTripShape(t *testing.T) {
	t.Parallel()

	history := []msg.Msg{
		msg.MustText("u", msg.RoleUser, "weather?"),
		{Role: msg.RoleAssistant, Content: []msg.Content{
			msg.ToolUseBlock("call_1", "get_weather", json.RawMessage(`{"city":"Beijing"}`)),
		}},
		{Role: msg.RoleTool, Content: []msg.Content{
			msg.ToolResultBlock("call_1", "get_weather", "sunny", false),
		}},
	}

	req, err := Formatter{}.Format(history)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	r := req.(*request)

	if len(r.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(r.Messages))
	}
	asst := r.Messages[1].OfAssistant
	if asst == nil || len(asst.ToolCalls) != 1 {
		t.Fatalf("assistant message = %+v", r.Messages[1])
	}
	if got := asst.ToolCalls[0].OfFunction.Function.Name; got != "get_weather" {
		t.Errorf("tool call name = %q", got)
	}
	if r.Messages[2].OfTool == nil {
		t.Errorf("tool result not a tool message: %+v", r.Messages[2])
	}
}

func TestCall_ToolCallResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tools []any `json:"tools"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Tools) != 1 {
			t.Errorf("tools in request = %d", len(body.Tools))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{
				"role":"assistant","content":"",
				"tool_calls":[{"id":"call_7","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Beijing\"}"}}]
			}}],
			"usage":{"prompt_tokens":11,"completion_tokens":6,"total_tokens":17}
		}`)
	}))
	defer srv.Close()

	m, err := New("sk-test", srv.URL, "gpt-4o")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, _ := Formatter{}.Format([]msg.Msg{msg.MustText("u", msg.RoleUser, "weather?")})
	schemas := []tool.Schema{{Name: "get_weather", Description: "d", Parameters: tool.ParametersSchema{Type: "object"}}}

	resp, err := m.Call(context.Background(), req, schemas)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.StopReason != model.StopToolUse {
		t.Errorf("stop = %v", resp.StopReason)
	}
	calls := resp.ToolUses()
	if len(calls) != 1 || calls[0].ID != "call_7" {
		t.Fatalf("tool uses = %+v", calls)
	}
	if resp.Usage.InputTokens != 11 || resp.Usage.OutputTokens != 6 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestCall_TextResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"chatcmpl-2","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Sunny, 25C."}}],
			"usage":{"prompt_tokens":5,"completion_tokens":4,"total_tokens":9}
		}`)
	}))
	defer srv.Close()

	m, err := New("sk-test", srv.URL, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, _ := Formatter{}.Format([]msg.Msg{msg.MustText("u", msg.RoleUser, "weather?")})
	resp, err := m.Call(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.StopReason != model.StopEndTurn {
		t.Errorf("stop = %v", resp.StopReason)
	}
	if resp.Content[0].Text != "Sunny, 25C." {
		t.Errorf("text = %q", resp.Content[0].Text)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New("", "", ""); err == nil {
		t.Fatal("expected error for missing key")
	}
}
