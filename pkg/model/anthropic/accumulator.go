// ABOUTME: Accumulates streamed content blocks into a final ChatResponse

package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/mauromedda/nano-agent-go/pkg/model"
	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

type accumulator struct {
	content    []msg.Content
	usage      model.Usage
	stopReason model.StopReason
	current    *openBlock
}

type openBlock struct {
	kind  msg.ContentType
	id    string
	name  string
	text  strings.Builder
	input strings.Builder
}

func (a *accumulator) start(kind, id, name string) {
	a.current = &openBlock{kind: msg.ContentType(kind), id: id, name: name}
}

func (a *accumulator) text(delta string) {
	if a.current != nil {
		a.current.text.WriteString(delta)
	}
}

func (a *accumulator) input(partial string) {
	if a.current != nil {
		a.current.input.WriteString(partial)
	}
}

// close seals the open block and returns it, or nil when none was open.
func (a *accumulator) close() *msg.Content {
	b := a.current
	if b == nil {
		return nil
	}
	a.current = nil

	block := msg.Content{Type: b.kind}
	switch b.kind {
	case msg.ContentText:
		block.Text = b.text.String()
	case msg.ContentToolUse:
		block.ID = b.id
		block.Name = b.name
		raw := b.input.String()
		if raw == "" {
			raw = "{}"
		}
		block.Input = json.RawMessage(raw)
	}
	a.content = append(a.content, block)
	return &a.content[len(a.content)-1]
}

func (a *accumulator) response() *model.ChatResponse {
	stop := a.stopReason
	if stop == "" {
		stop = model.StopEndTurn
	}
	return &model.ChatResponse{
		Content:    a.content,
		Usage:      a.usage,
		StopReason: stop,
	}
}
