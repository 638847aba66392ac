// ABOUTME: ReAct loop: reason, dispatch tools, fold results, repeat
// ABOUTME: Steering and cancellation land between steps, never mid-call

package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/nano-agent-go/internal/log"
	"github.com/mauromedda/nano-agent-go/pkg/memory"
	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

const (
	defaultMaxIters = 10
	steerBuffer     = 8
	eventBuffer     = 64
)

// summaryHint is appended as a user turn when the iteration budget runs out,
// forcing the model to answer with what it already has.
const summaryHint = "You have reached the maximum number of reasoning steps. " +
	"Summarize your progress and answer the original question directly, without calling any more tools."

// Options configures a ReActAgent. Formatter and Model are required; the
// rest default to an empty toolkit, fresh in-process memory, and the
// standard iteration budget.
type Options struct {
	Name         string
	SystemPrompt string
	Formatter    model.Formatter
	Model        model.ChatModel
	Toolkit      *tool.Toolkit
	Memory       memory.Memory
	MaxIters     int
}

// ReActAgent drives one conversation: each Reply alternates model reasoning
// and tool execution until the model stops asking for tools. A single
// goroutine owns the loop; Handle is the concurrent control surface.
type ReActAgent struct {
	name      string
	sysPrompt string
	formatter model.Formatter
	chat      model.ChatModel
	toolkit   *tool.Toolkit
	memory    memory.Memory
	maxIters  int

	steer     chan msg.Msg
	interrupt atomic.Bool
	events    chan Event
}

// New validates opts and builds an agent.
func New(opts Options) (*ReActAgent, error) {
	if opts.Formatter == nil {
		return nil, errors.New("agent: Formatter is required")
	}
	if opts.Model == nil {
		return nil, errors.New("agent: Model is required")
	}
	name := opts.Name
	if name == "" {
		name = "agent"
	}
	tk := opts.Toolkit
	if tk == nil {
		tk = tool.New()
	}
	mem := opts.Memory
	if mem == nil {
		mem = memory.NewInMemory()
	}
	maxIters := opts.MaxIters
	if maxIters <= 0 {
		maxIters = defaultMaxIters
	}

	return &ReActAgent{
		name:      name,
		sysPrompt: opts.SystemPrompt,
		formatter: opts.Formatter,
		chat:      opts.Model,
		toolkit:   tk,
		memory:    mem,
		maxIters:  maxIters,
		steer:     make(chan msg.Msg, steerBuffer),
		events:    make(chan Event, eventBuffer),
	}, nil
}

// Name returns the agent's display name.
func (a *ReActAgent) Name() string { return a.name }

// Memory exposes the conversation history store.
func (a *ReActAgent) Memory() memory.Memory { return a.memory }

// Toolkit exposes the tool registry.
func (a *ReActAgent) Toolkit() *tool.Toolkit { return a.toolkit }

// Events returns the observation channel. Events are dropped, not queued
// indefinitely, when nobody reads them.
func (a *ReActAgent) Events() <-chan Event { return a.events }

// Observe appends a message to memory without generating a reply. Other
// agents' turns reach this agent through Observe in multi-agent setups.
func (a *ReActAgent) Observe(m msg.Msg) {
	a.memory.Add(m)
}

// Handle returns the concurrent control surface for steering and
// cancellation. Safe to use from any goroutine while Reply runs.
func (a *ReActAgent) Handle() *Handle { return &Handle{a: a} }

// Handle steers a running reply.
type Handle struct {
	a *ReActAgent
}

// Inject queues m to be spliced into history before the next reasoning
// step. The queue is bounded; when it is full the message is dropped rather
// than blocking the caller.
func (h *Handle) Inject(m msg.Msg) {
	select {
	case h.a.steer <- m:
	default:
		log.Warn("%s: steering queue full, dropping message %s", h.a.name, m.ID)
	}
}

// Cancel requests cooperative cancellation. The loop observes it at the
// next suspension point; the in-flight model or tool call completes first.
func (h *Handle) Cancel() {
	h.a.interrupt.Store(true)
}

// Reply runs the ReAct loop for one incoming message and returns the final
// assistant message. Tool failures never surface here; they feed back into
// the conversation as error-flagged tool results.
func (a *ReActAgent) Reply(ctx context.Context, in *msg.Msg) (*msg.Msg, error) {
	a.interrupt.Store(false)
	a.emit(Event{Type: EventReplyStart})

	out, err := a.reply(ctx, in)
	if err != nil {
		a.emit(Event{Type: EventError, Err: err})
	}
	a.emit(Event{Type: EventReplyEnd})
	return out, err
}

func (a *ReActAgent) reply(ctx context.Context, in *msg.Msg) (*msg.Msg, error) {
	if in != nil {
		a.memory.Add(*in)
	}

	var last *msg.Msg
	for iter := 0; iter < a.maxIters; iter++ {
		a.drainSteering()
		if err := a.checkCancelled(ctx); err != nil {
			return nil, err
		}

		resp, err := a.invoke(ctx, a.toolkit.Schemas())
		if err != nil {
			return nil, &ModelError{Err: err, History: a.memory.All()}
		}

		am := a.assistantMsg(resp.Content)
		a.memory.Add(am)
		last = &am
		if text := am.Text(); text != "" {
			a.emit(Event{Type: EventAssistantText, Text: text})
		}

		calls := resp.ToolUses()
		if len(calls) == 0 {
			return &am, nil
		}
		log.Debug("%s: iteration %d: %d tool call(s)", a.name, iter+1, len(calls))

		results := a.dispatch(ctx, calls)
		toolMsg, err := msg.New(a.name, msg.RoleTool, results...)
		if err != nil {
			return nil, fmt.Errorf("agent: building tool message: %w", err)
		}
		a.memory.Add(toolMsg)

		if err := a.checkCancelled(ctx); err != nil {
			return nil, err
		}
	}

	log.Warn("%s: iteration budget (%d) exhausted, forcing summary", a.name, a.maxIters)
	return a.summarize(ctx, last)
}

// invoke formats the full history and performs one model call.
func (a *ReActAgent) invoke(ctx context.Context, schemas []tool.Schema) (*model.ChatResponse, error) {
	var history []msg.Msg
	if a.sysPrompt != "" {
		history = append(history, msg.MustText(a.name, msg.RoleSystem, a.sysPrompt))
	}
	history = append(history, a.memory.All()...)

	req, err := a.formatter.Format(history)
	if err != nil {
		return nil, fmt.Errorf("formatting history: %w", err)
	}
	return a.chat.Call(ctx, req, schemas)
}

// dispatch runs every tool call concurrently and reassembles results in
// call order. Execute never fails, so neither does the group.
func (a *ReActAgent) dispatch(ctx context.Context, calls []msg.Content) []msg.Content {
	results := make([]msg.Content, len(calls))
	g, gctx := errgroup.WithContext(ctx)

	for i, call := range calls {
		g.Go(func() error {
			a.emit(Event{Type: EventToolStart, Tool: call.Name, ToolID: call.ID})
			results[i] = a.toolkit.Execute(gctx, call)
			a.emit(Event{Type: EventToolEnd, Tool: call.Name, ToolID: call.ID, Result: &results[i]})
			return nil
		})
	}
	g.Wait()
	return results
}

// summarize makes one final call without tool schemas so the model must
// answer with what it has.
func (a *ReActAgent) summarize(ctx context.Context, last *msg.Msg) (*msg.Msg, error) {
	a.memory.Add(msg.MustText("user", msg.RoleUser, summaryHint))

	resp, err := a.invoke(ctx, nil)
	if err != nil {
		return nil, &MaxIterationsError{Iterations: a.maxIters, Last: last, Err: err}
	}

	am := a.assistantMsg(resp.Content)
	a.memory.Add(am)
	return &am, nil
}

// drainSteering splices queued steering messages into memory.
func (a *ReActAgent) drainSteering() {
	for {
		select {
		case m := <-a.steer:
			log.Debug("%s: steering message %s spliced into history", a.name, m.ID)
			a.memory.Add(m)
		default:
			return
		}
	}
}

func (a *ReActAgent) checkCancelled(ctx context.Context) error {
	if a.interrupt.Load() || ctx.Err() != nil {
		return &CancelledError{Msgs: a.memory.All()}
	}
	return nil
}

func (a *ReActAgent) assistantMsg(blocks []msg.Content) msg.Msg {
	if len(blocks) == 0 {
		blocks = []msg.Content{msg.TextBlock("")}
	}
	am, err := msg.New(a.name, msg.RoleAssistant, blocks...)
	if err != nil {
		// New only rejects bad roles and empty content, both handled above.
		am = msg.MustText(a.name, msg.RoleAssistant, "")
	}
	return am
}

// emit delivers an event without ever blocking the loop.
func (a *ReActAgent) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
	}
}
