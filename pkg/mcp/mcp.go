// ABOUTME: Minimal MCP client: initialize, list tools, call tools
// ABOUTME: JSON-RPC 2.0 over a pluggable request/response transport

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
)

const protocolVersion = "2024-11-05"

// Transport carries one JSON-RPC request and returns the matching response
// body. Implementations handle framing and correlation.
type Transport interface {
	Send(ctx context.Context, payload []byte) ([]byte, error)
	Close() error
}

// Client speaks MCP to one server over a Transport.
type Client struct {
	transport Transport
	nextID    atomic.Int64
	name      string
}

// NewClient wraps transport. name identifies this client in the MCP
// handshake.
func NewClient(name string, transport Transport) *Client {
	if name == "" {
		name = "nano-go"
	}
	return &Client{transport: transport, name: name}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("mcp: server error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("mcp: encoding %s: %w", method, err)
	}

	raw, err := c.transport.Send(ctx, payload)
	if err != nil {
		return fmt.Errorf("mcp: %s: %w", method, err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("mcp: decoding %s response: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("mcp: decoding %s result: %w", method, err)
		}
	}
	return nil
}

// Initialize performs the MCP handshake.
func (c *Client) Initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    c.name,
			"version": "1.0",
		},
	}
	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	// The initialized notification carries no id and expects no reply;
	// transports treat an empty response as success.
	note, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
	if _, err := c.transport.Send(ctx, note); err != nil {
		return fmt.Errorf("mcp: initialized notification: %w", err)
	}
	return nil
}

// ToolDescriptor is one remote tool as the server advertises it.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListTools fetches the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	var result struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := c.call(ctx, "tools/list", map[string]any{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a remote tool and flattens its text content. isError
// mirrors the server's flag.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (text string, isError bool, err error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return "", false, err
	}

	var parts []string
	for _, part := range result.Content {
		if part.Type == "text" {
			parts = append(parts, part.Text)
		} else {
			parts = append(parts, fmt.Sprintf("[%s]", part.Type))
		}
	}
	return strings.Join(parts, "\n"), result.IsError, nil
}
