// ABOUTME: Loop error types carrying partial state for callers to inspect

package agent

import (
	"fmt"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

// ModelError wraps a provider failure. History holds every message
// accumulated up to the failed call so callers can resume or report.
type ModelError struct {
	Err     error
	History []msg.Msg
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// MaxIterationsError reports that the reasoning budget ran out and the
// forced summary call failed too. Last is the most recent assistant message,
// nil when the very first call never completed.
type MaxIterationsError struct {
	Iterations int
	Last       *msg.Msg
	Err        error
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded %d iterations without a final answer: %v", e.Iterations, e.Err)
}

func (e *MaxIterationsError) Unwrap() error { return e.Err }

// CancelledError reports cooperative cancellation. Msgs holds everything
// appended to memory before the loop stopped.
type CancelledError struct {
	Msgs []msg.Msg
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("reply cancelled after %d messages", len(e.Msgs))
}
