// ABOUTME: Toolkit: tool registry and the single execution choke point
// ABOUTME: Execution failures become tool_result data, never propagated errors

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mauromedda/nano-agent-go/internal/log"
	"github.com/mauromedda/nano-agent-go/internal/textutil"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

// Response is what a tool handler returns on success. Helpers below cover
// the common cases; handlers with richer output build Content directly.
type Response struct {
	Content []msg.Content
}

// Text wraps a plain string into a Response.
func Text(s string) Response {
	return Response{Content: []msg.Content{msg.TextBlock(s)}}
}

// Textf wraps a formatted string into a Response.
func Textf(format string, args ...any) Response {
	return Text(fmt.Sprintf(format, args...))
}

// Handler is the type-erased execution form stored in the registry.
type Handler func(ctx context.Context, input json.RawMessage) (Response, error)

// Approver decides confirmation-gated executions. Approve blocks until the
// external actor answers; returning false (or an error) denies the call.
type Approver interface {
	Approve(ctx context.Context, name string, input json.RawMessage) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, name string, input json.RawMessage) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, name string, input json.RawMessage) (bool, error) {
	return f(ctx, name, input)
}

// entry is one registered tool.
type entry struct {
	schema       Schema
	handler      Handler
	confirmation bool
}

// Option adjusts a single registration.
type Option func(*entry)

// WithConfirmation gates the tool behind the toolkit's Approver.
func WithConfirmation() Option {
	return func(e *entry) { e.confirmation = true }
}

// Toolkit maps tool names to executable contracts. Registration and
// execution are safe to interleave from concurrent goroutines; multiple
// agent loops may share one Toolkit.
type Toolkit struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	order       []string
	approver    Approver
	resultLimit int // display cells; 0 = unlimited
}

// New creates an empty Toolkit.
func New() *Toolkit {
	return &Toolkit{entries: map[string]*entry{}}
}

// SetApprover installs the confirmation-gate decision maker. With no
// approver installed, gated tools execute without confirmation (the gate is
// only active once someone is listening, mirroring an absent permission
// checker).
func (tk *Toolkit) SetApprover(a Approver) {
	tk.mu.Lock()
	tk.approver = a
	tk.mu.Unlock()
}

// SetResultLimit caps tool output at n display cells; 0 removes the cap.
func (tk *Toolkit) SetResultLimit(n int) {
	tk.mu.Lock()
	tk.resultLimit = n
	tk.mu.Unlock()
}

// Register derives a schema from fn's argument struct and stores the tool.
// Re-registering a name replaces the prior entry atomically, keeping its
// original position in Schemas order.
func Register[T any](tk *Toolkit, name, description string, fn func(ctx context.Context, args T) (Response, error), opts ...Option) error {
	if strings.TrimSpace(name) == "" {
		return &SchemaDerivationError{Tool: name, Reason: "empty tool name"}
	}

	argType := reflect.TypeOf((*T)(nil)).Elem()
	params, err := deriveSchema(name, argType)
	if err != nil {
		return err
	}

	handler := func(ctx context.Context, input json.RawMessage) (Response, error) {
		var args T
		if len(input) > 0 && string(input) != "null" {
			if err := json.Unmarshal(input, &args); err != nil {
				return Response{}, fmt.Errorf("decoding arguments: %w", err)
			}
		}
		return fn(ctx, args)
	}

	tk.register(&entry{
		schema: Schema{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		handler: handler,
	}, opts...)
	return nil
}

// RegisterDynamic stores a tool whose schema is only known at runtime, such
// as one bridged from a remote MCP server. Required-parameter validation
// still applies; argument decoding is the handler's business.
func (tk *Toolkit) RegisterDynamic(schema Schema, handler Handler, opts ...Option) error {
	if strings.TrimSpace(schema.Name) == "" {
		return &SchemaDerivationError{Tool: schema.Name, Reason: "empty tool name"}
	}
	if handler == nil {
		return &SchemaDerivationError{Tool: schema.Name, Reason: "nil handler"}
	}
	tk.register(&entry{schema: schema, handler: handler}, opts...)
	return nil
}

func (tk *Toolkit) register(e *entry, opts ...Option) {
	for _, opt := range opts {
		opt(e)
	}
	tk.mu.Lock()
	defer tk.mu.Unlock()

	if _, exists := tk.entries[e.schema.Name]; !exists {
		tk.order = append(tk.order, e.schema.Name)
	}
	tk.entries[e.schema.Name] = e
	log.Debug("tool registered: %s (confirmation=%v)", e.schema.Name, e.confirmation)
}

// Remove deletes a tool; removing an absent name is a no-op.
func (tk *Toolkit) Remove(name string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	if _, ok := tk.entries[name]; !ok {
		return
	}
	delete(tk.entries, name)
	for i, n := range tk.order {
		if n == name {
			tk.order = append(tk.order[:i], tk.order[i+1:]...)
			break
		}
	}
}

// Schemas returns a snapshot of all schemas in registration order, ready for
// inclusion in a model request.
func (tk *Toolkit) Schemas() []Schema {
	tk.mu.RLock()
	defer tk.mu.RUnlock()

	out := make([]Schema, 0, len(tk.order))
	for _, name := range tk.order {
		out = append(out, tk.entries[name].schema)
	}
	return out
}

// Len returns the number of registered tools.
func (tk *Toolkit) Len() int {
	tk.mu.RLock()
	defer tk.mu.RUnlock()
	return len(tk.entries)
}

// Execute runs the tool named by call (a tool_use block) and always returns
// a tool_result block. Unknown tools, invalid input, handler errors, and
// handler panics all fold into IsError results: a misbehaving tool feeds the
// model a diagnostic to self-correct on, it never ends the conversation.
func (tk *Toolkit) Execute(ctx context.Context, call msg.Content) msg.Content {
	tk.mu.RLock()
	e, ok := tk.entries[call.Name]
	approver := tk.approver
	limit := tk.resultLimit
	tk.mu.RUnlock()

	if !ok {
		reason := fmt.Sprintf("unknown tool %q", call.Name)
		if hint := tk.suggest(call.Name); hint != "" {
			reason += fmt.Sprintf(" (did you mean %q?)", hint)
		}
		return errResult(call, reason)
	}

	if err := validateRequired(e.schema, call.Input); err != nil {
		return errResult(call, err.Error())
	}

	if e.confirmation && approver != nil {
		allowed, err := approver.Approve(ctx, call.Name, call.Input)
		if err != nil {
			return errResult(call, fmt.Sprintf("denied: confirmation failed: %v", err))
		}
		if !allowed {
			return errResult(call, fmt.Sprintf("denied: user rejected execution of %s", call.Name))
		}
	}

	resp, err := tk.invoke(ctx, e, call.Input)
	if err != nil {
		log.Debug("tool %s failed: %v", call.Name, err)
		return errResult(call, err.Error())
	}

	output := flattenResponse(resp)
	if limit > 0 {
		output = textutil.Truncate(output, limit)
	}
	return msg.ToolResultBlock(call.ID, call.Name, output, false)
}

// invoke calls the handler with panic recovery. A panicking tool is just
// another failed tool.
func (tk *Toolkit) invoke(ctx context.Context, e *entry, input json.RawMessage) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return e.handler(ctx, input)
}

// validateRequired checks that every required parameter is present in input.
func validateRequired(schema Schema, input json.RawMessage) error {
	if len(schema.Parameters.Required) == 0 {
		return nil
	}

	args := map[string]json.RawMessage{}
	if len(input) > 0 && string(input) != "null" {
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Errorf("arguments are not a JSON object: %v", err)
		}
	}
	for _, req := range schema.Parameters.Required {
		if _, ok := args[req]; !ok {
			return fmt.Errorf("missing required parameter %q for tool %s", req, schema.Name)
		}
	}
	return nil
}

// flattenResponse joins the text of the response blocks; non-text blocks are
// summarized by type so the model at least learns they exist.
func flattenResponse(resp Response) string {
	var parts []string
	for _, c := range resp.Content {
		switch c.Type {
		case msg.ContentText:
			parts = append(parts, c.Text)
		default:
			parts = append(parts, fmt.Sprintf("[%s]", c.Type))
		}
	}
	return strings.Join(parts, "\n")
}

func errResult(call msg.Content, reason string) msg.Content {
	return msg.ToolResultBlock(call.ID, call.Name, "Error: "+reason, true)
}
