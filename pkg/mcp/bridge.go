// ABOUTME: Bridges remote MCP tools into a local Toolkit
// ABOUTME: Remote schemas register as-is; calls forward over the client

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mauromedda/nano-agent-go/internal/log"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

// Bridge lists the server's tools and registers each in tk. prefix, when
// non-empty, namespaces the registered names ("github" makes
// "github__search_issues") so multiple servers can share one toolkit.
// Returns the registered names for later removal.
func Bridge(ctx context.Context, tk *tool.Toolkit, client *Client, prefix string) ([]string, error) {
	descriptors, err := client.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: listing tools: %w", err)
	}

	var registered []string
	for _, d := range descriptors {
		schema, err := localSchema(d, prefix)
		if err != nil {
			log.Warn("mcp: skipping tool %s: %v", d.Name, err)
			continue
		}

		remote := d.Name
		handler := func(hctx context.Context, input json.RawMessage) (tool.Response, error) {
			text, isErr, err := client.CallTool(hctx, remote, input)
			if err != nil {
				return tool.Response{}, err
			}
			if isErr {
				return tool.Response{}, errors.New(text)
			}
			return tool.Text(text), nil
		}

		if err := tk.RegisterDynamic(schema, handler); err != nil {
			log.Warn("mcp: skipping tool %s: %v", d.Name, err)
			continue
		}
		registered = append(registered, schema.Name)
	}

	log.Info("mcp: bridged %d tool(s)", len(registered))
	return registered, nil
}

// Unbridge removes previously bridged tools from tk.
func Unbridge(tk *tool.Toolkit, names []string) {
	for _, name := range names {
		tk.Remove(name)
	}
}

func localSchema(d ToolDescriptor, prefix string) (tool.Schema, error) {
	name := d.Name
	if prefix != "" {
		name = prefix + "__" + d.Name
	}

	schema := tool.Schema{
		Name:        name,
		Description: d.Description,
		Parameters:  tool.ParametersSchema{Type: "object"},
	}
	if len(d.InputSchema) > 0 {
		if err := json.Unmarshal(d.InputSchema, &schema.Parameters); err != nil {
			return tool.Schema{}, fmt.Errorf("invalid input schema: %w", err)
		}
	}
	if schema.Parameters.Type == "" {
		schema.Parameters.Type = "object"
	}
	return schema, nil
}
