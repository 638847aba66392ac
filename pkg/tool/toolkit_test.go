// ABOUTME: Tests for Toolkit: execution never raises, gating, replacement, ordering

package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

type weatherArgs struct {
	City string `json:"city" desc:"City name"`
}

func registerWeather(t *testing.T, tk *Toolkit) {
	t.Helper()
	err := Register(tk, "get_weather", "Get current weather for a city",
		func(ctx context.Context, args weatherArgs) (Response, error) {
			return Textf("%s: sunny 25°C", args.City), nil
		})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func call(name string, input string) msg.Content {
	return msg.ToolUseBlock("call_1", name, json.RawMessage(input))
}

func TestExecute_Success(t *testing.T) {
	t.Parallel()

	tk := New()
	registerWeather(t, tk)

	res := tk.Execute(context.Background(), call("get_weather", `{"city":"Beijing"}`))
	if res.Type != msg.ContentToolResult {
		t.Fatalf("result type = %v", res.Type)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Output)
	}
	if res.Output != "Beijing: sunny 25°C" {
		t.Errorf("output = %q", res.Output)
	}
	if res.ID != "call_1" {
		t.Errorf("result id = %q, want call_1", res.ID)
	}
}

func TestExecute_MissingRequiredParameter(t *testing.T) {
	t.Parallel()

	tk := New()
	registerWeather(t, tk)

	res := tk.Execute(context.Background(), call("get_weather", `{}`))
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.Output, "city") {
		t.Errorf("error does not identify the missing parameter: %q", res.Output)
	}
}

func TestExecute_HandlerErrorBecomesData(t *testing.T) {
	t.Parallel()

	tk := New()
	err := Register(tk, "broken", "Always fails",
		func(ctx context.Context, _ struct{}) (Response, error) {
			return Response{}, errors.New("disk on fire")
		})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := tk.Execute(context.Background(), call("broken", `{}`))
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.Output, "disk on fire") {
		t.Errorf("diagnostic lost: %q", res.Output)
	}
}

func TestExecute_PanickingHandlerBecomesData(t *testing.T) {
	t.Parallel()

	tk := New()
	err := Register(tk, "bomb", "Panics",
		func(ctx context.Context, _ struct{}) (Response, error) {
			panic("kaboom")
		})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := tk.Execute(context.Background(), call("bomb", `{}`))
	if !res.IsError || !strings.Contains(res.Output, "kaboom") {
		t.Errorf("panic not folded into result: %+v", res)
	}
}

func TestExecute_UnknownToolSuggestsClosest(t *testing.T) {
	t.Parallel()

	tk := New()
	registerWeather(t, tk)

	res := tk.Execute(context.Background(), call("get_wether", `{"city":"Beijing"}`))
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.Output, "get_weather") {
		t.Errorf("no suggestion in %q", res.Output)
	}
}

func TestExecute_UndecodableInput(t *testing.T) {
	t.Parallel()

	tk := New()
	registerWeather(t, tk)

	res := tk.Execute(context.Background(), call("get_weather", `[1,2]`))
	if !res.IsError {
		t.Fatalf("expected error result, got %q", res.Output)
	}
}

func TestRegister_ReplaceKeepsOrderAndUniqueness(t *testing.T) {
	t.Parallel()

	tk := New()
	registerWeather(t, tk)
	if err := Register(tk, "get_time", "Current time",
		func(ctx context.Context, _ struct{}) (Response, error) { return Text("12:00"), nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Replace the first tool; it must keep position 0 and stay unique.
	err := Register(tk, "get_weather", "Get weather v2",
		func(ctx context.Context, args weatherArgs) (Response, error) {
			return Text("v2"), nil
		})
	if err != nil {
		t.Fatalf("Register replace: %v", err)
	}

	schemas := tk.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("len(Schemas) = %d, want 2", len(schemas))
	}
	if schemas[0].Name != "get_weather" || schemas[0].Description != "Get weather v2" {
		t.Errorf("replacement not in place: %+v", schemas[0])
	}

	res := tk.Execute(context.Background(), call("get_weather", `{"city":"X"}`))
	if res.Output != "v2" {
		t.Errorf("old handler still live: %q", res.Output)
	}
}

func TestRemove_AbsentIsNoOp(t *testing.T) {
	t.Parallel()

	tk := New()
	registerWeather(t, tk)
	tk.Remove("never_registered")
	tk.Remove("get_weather")
	tk.Remove("get_weather")

	if tk.Len() != 0 {
		t.Errorf("Len = %d, want 0", tk.Len())
	}
}

func TestExecute_ConfirmationGate(t *testing.T) {
	t.Parallel()

	tk := New()
	executed := false
	err := Register(tk, "rm_rf", "Dangerous",
		func(ctx context.Context, _ struct{}) (Response, error) {
			executed = true
			return Text("done"), nil
		}, WithConfirmation())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tk.SetApprover(ApproverFunc(func(ctx context.Context, name string, input json.RawMessage) (bool, error) {
		return false, nil
	}))

	res := tk.Execute(context.Background(), call("rm_rf", `{}`))
	if !res.IsError || !strings.Contains(res.Output, "denied") {
		t.Errorf("denial not reflected: %+v", res)
	}
	if executed {
		t.Error("handler ran despite denial")
	}

	tk.SetApprover(ApproverFunc(func(ctx context.Context, name string, input json.RawMessage) (bool, error) {
		return true, nil
	}))
	res = tk.Execute(context.Background(), call("rm_rf", `{}`))
	if res.IsError {
		t.Errorf("approved call failed: %s", res.Output)
	}
	if !executed {
		t.Error("handler did not run after approval")
	}
}

func TestSetResultLimit_TruncatesOutput(t *testing.T) {
	t.Parallel()

	tk := New()
	err := Register(tk, "wall_of_text", "Talks too much",
		func(ctx context.Context, _ struct{}) (Response, error) {
			return Text(strings.Repeat("x", 100)), nil
		})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	tk.SetResultLimit(10)

	res := tk.Execute(context.Background(), call("wall_of_text", `{}`))
	if len(res.Output) > 10 {
		t.Errorf("output not truncated: %d bytes", len(res.Output))
	}
	if !strings.HasSuffix(res.Output, "...") {
		t.Errorf("no ellipsis: %q", res.Output)
	}
}
