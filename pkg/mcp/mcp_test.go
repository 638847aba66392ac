// ABOUTME: Tests for the MCP client and toolkit bridge over HTTP

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

// fakeServer implements just enough JSON-RPC to exercise the client.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64           `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}

		reply := func(result string) {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
		}

		switch req.Method {
		case "initialize":
			reply(`{"protocolVersion":"2024-11-05","capabilities":{}}`)
		case "notifications/initialized":
			w.WriteHeader(http.StatusAccepted)
		case "tools/list":
			reply(`{"tools":[
				{"name":"search","description":"Search the index",
				 "inputSchema":{"type":"object","properties":{"query":{"type":"string","description":"Query"}},"required":["query"]}},
				{"name":"broken","description":"Always errors","inputSchema":{"type":"object"}}
			]}`)
		case "tools/call":
			var p struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			}
			json.Unmarshal(req.Params, &p)
			switch p.Name {
			case "search":
				reply(`{"content":[{"type":"text","text":"3 results"}],"isError":false}`)
			case "broken":
				reply(`{"content":[{"type":"text","text":"index offline"}],"isError":true}`)
			default:
				fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32602,"message":"unknown tool"}}`, req.ID)
			}
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		}
	}))
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv := fakeServer(t)
	t.Cleanup(srv.Close)

	c := NewClient("test", NewHTTPTransport(srv.URL, nil, srv.Client()))
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func TestListTools(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	tools, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "search" {
		t.Errorf("tools = %+v", tools)
	}
}

func TestCallTool(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	text, isErr, err := c.CallTool(context.Background(), "search", json.RawMessage(`{"query":"go"}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if isErr || text != "3 results" {
		t.Errorf("result = %q (isError=%v)", text, isErr)
	}

	_, isErr, err = c.CallTool(context.Background(), "broken", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !isErr {
		t.Error("server error flag lost")
	}

	_, _, err = c.CallTool(context.Background(), "missing", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("err = %v", err)
	}
}

func TestBridge_RegistersAndForwards(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	tk := tool.New()

	names, err := Bridge(context.Background(), tk, c, "idx")
	if err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	if len(names) != 2 || names[0] != "idx__search" {
		t.Fatalf("names = %v", names)
	}

	schemas := tk.Schemas()
	if schemas[0].Parameters.Required[0] != "query" {
		t.Errorf("remote schema lost required list: %+v", schemas[0].Parameters)
	}

	res := tk.Execute(context.Background(),
		msg.ToolUseBlock("call_1", "idx__search", json.RawMessage(`{"query":"go"}`)))
	if res.IsError || res.Output != "3 results" {
		t.Errorf("result = %+v", res)
	}

	// Remote isError folds into a local error result.
	res = tk.Execute(context.Background(),
		msg.ToolUseBlock("call_2", "idx__broken", json.RawMessage(`{}`)))
	if !res.IsError || !strings.Contains(res.Output, "index offline") {
		t.Errorf("result = %+v", res)
	}

	Unbridge(tk, names)
	if tk.Len() != 0 {
		t.Errorf("tools left after Unbridge: %d", tk.Len())
	}
}
