// ABOUTME: Tests for Stream: delivery order, finish/fail semantics, late sends

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

func TestStream_DeliversEventsInOrder(t *testing.T) {
	t.Parallel()

	s := NewStream(4)
	go func() {
		s.Send(StreamEvent{Type: EventTextDelta, Text: "a"})
		s.Send(StreamEvent{Type: EventTextDelta, Text: "b"})
		s.Finish(&ChatResponse{Content: []msg.Content{msg.TextBlock("ab")}})
	}()

	var got string
	for ev := range s.Events() {
		if ev.Type == EventTextDelta {
			got += ev.Text
		}
	}
	if got != "ab" {
		t.Errorf("deltas = %q, want ab", got)
	}

	resp, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if resp.Content[0].Text != "ab" {
		t.Errorf("result text = %q", resp.Content[0].Text)
	}
}

func TestStream_FailSurfacesError(t *testing.T) {
	t.Parallel()

	s := NewStream(4)
	boom := errors.New("boom")
	go s.Fail(boom)

	var sawError bool
	for ev := range s.Events() {
		if ev.Type == EventError && errors.Is(ev.Err, boom) {
			sawError = true
		}
	}
	if !sawError {
		t.Error("error event not delivered")
	}
	if _, err := s.Result(); !errors.Is(err, boom) {
		t.Errorf("Result error = %v, want boom", err)
	}
}

func TestStream_SendAfterFinishReturnsFalse(t *testing.T) {
	t.Parallel()

	s := NewStream(1)
	s.Finish(&ChatResponse{})

	// Give the drainer a moment to observe done.
	time.Sleep(10 * time.Millisecond)
	if s.Send(StreamEvent{Type: EventTextDelta, Text: "late"}) {
		t.Error("Send after Finish returned true")
	}
	for range s.Events() {
	}
}

func TestStream_DoubleFinishIsSafe(t *testing.T) {
	t.Parallel()

	s := NewStream(1)
	s.Finish(&ChatResponse{StopReason: StopEndTurn})
	s.Finish(&ChatResponse{StopReason: StopMaxTokens})

	resp, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if resp.StopReason != StopEndTurn {
		t.Errorf("second Finish overwrote result: %v", resp.StopReason)
	}
}
