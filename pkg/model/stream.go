// ABOUTME: Channel-based event streaming for model responses
// ABOUTME: Providers produce deltas; consumers range over Events and read Result

package model

import (
	"sync"
	"sync/atomic"
)

// StreamEventType identifies the kind of stream event.
type StreamEventType int

const (
	EventTextDelta StreamEventType = iota
	EventToolUseStart
	EventToolUseDelta
	EventToolUseDone
	EventDone
	EventError
)

// StreamEvent is a single incremental event from a provider stream.
type StreamEvent struct {
	Type      StreamEventType
	Text      string // text delta
	ToolID    string
	ToolName  string
	ToolInput string // partial JSON
	Err       error
}

// Stream provides channel-based access to a streaming model invocation.
// Consumers range over Events and call Result when the channel closes.
//
// Send writes to an internal channel that is never closed; Finish closes only
// the done channel, and a drainer goroutine forwards buffered events to the
// consumer channel before closing it. This keeps a late Send from panicking
// on a closed channel.
type Stream struct {
	events chan StreamEvent
	out    chan StreamEvent
	done   chan struct{}
	result atomic.Pointer[ChatResponse]
	err    atomic.Pointer[error]
	once   sync.Once
}

// NewStream creates a Stream with the given buffer size.
func NewStream(bufSize int) *Stream {
	s := &Stream{
		events: make(chan StreamEvent, bufSize),
		out:    make(chan StreamEvent, bufSize),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *Stream) drain() {
	defer close(s.out)
	for {
		select {
		case ev := <-s.events:
			s.out <- ev
		case <-s.done:
			for {
				select {
				case ev := <-s.events:
					s.out <- ev
				default:
					return
				}
			}
		}
	}
}

// Events returns the consumer-facing event channel. It is closed after the
// stream finishes and all buffered events have been delivered.
func (s *Stream) Events() <-chan StreamEvent {
	return s.out
}

// Send queues an event. Returns false once the stream has finished.
func (s *Stream) Send(ev StreamEvent) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Finish completes the stream with its final accumulated response.
func (s *Stream) Finish(resp *ChatResponse) {
	s.once.Do(func() {
		if resp != nil {
			s.result.Store(resp)
		}
		close(s.done)
	})
}

// Fail completes the stream with an error. The error is also surfaced as an
// EventError for consumers that only watch the event channel.
func (s *Stream) Fail(err error) {
	s.Send(StreamEvent{Type: EventError, Err: err})
	s.once.Do(func() {
		s.err.Store(&err)
		close(s.done)
	})
}

// Result blocks until the stream completes and returns the final response or
// the failure error.
func (s *Stream) Result() (*ChatResponse, error) {
	<-s.done
	if e := s.err.Load(); e != nil {
		return nil, *e
	}
	return s.result.Load(), nil
}

// Done is closed when the stream has completed.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}
