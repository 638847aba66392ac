// ABOUTME: Tests for the builtin tools: calculator, current_time, web_fetch

package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

func execute(t *testing.T, tk *tool.Toolkit, name, input string) msg.Content {
	t.Helper()
	return tk.Execute(context.Background(), msg.ToolUseBlock("call_1", name, json.RawMessage(input)))
}

func TestCalculator(t *testing.T) {
	t.Parallel()

	tk := tool.New()
	if err := RegisterCalculator(tk); err != nil {
		t.Fatalf("RegisterCalculator: %v", err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{"2 + 3", "5"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 / 4", "2.5"},
		{"10 % 3", "1"},
		{"2 ^ 10", "1024"},
		{"2 ^ 3 ^ 2", "512"},
		{"-5 + 3", "-2"},
		{"1.5e2", "150"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			res := execute(t, tk, "calculator", fmt.Sprintf(`{"expression":%q}`, tt.expr))
			if res.IsError {
				t.Fatalf("error result: %s", res.Output)
			}
			if res.Output != tt.want {
				t.Errorf("eval(%q) = %q, want %q", tt.expr, res.Output, tt.want)
			}
		})
	}
}

func TestCalculator_Errors(t *testing.T) {
	t.Parallel()

	tk := tool.New()
	if err := RegisterCalculator(tk); err != nil {
		t.Fatalf("RegisterCalculator: %v", err)
	}

	for _, expr := range []string{"1 / 0", "2 +", "(1 + 2", "abc", "1 2"} {
		res := execute(t, tk, "calculator", fmt.Sprintf(`{"expression":%q}`, expr))
		if !res.IsError {
			t.Errorf("eval(%q) succeeded with %q, want error", expr, res.Output)
		}
	}
}

func TestCurrentTime(t *testing.T) {
	tk := tool.New()
	if err := RegisterCurrentTime(tk); err != nil {
		t.Fatalf("RegisterCurrentTime: %v", err)
	}

	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	old := nowFunc
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = old }()

	res := execute(t, tk, "current_time", `{"timezone":"UTC"}`)
	if res.IsError {
		t.Fatalf("error result: %s", res.Output)
	}
	if !strings.Contains(res.Output, "2025-03-14 09:26:53") {
		t.Errorf("output = %q", res.Output)
	}

	res = execute(t, tk, "current_time", `{"timezone":"Not/AZone"}`)
	if !res.IsError {
		t.Errorf("bogus timezone accepted: %q", res.Output)
	}
}

func TestWebFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!doctype html><html><head><title>T</title>
<script>var hidden = 1;</script></head>
<body><h1>Welcome</h1><p>Hello <b>world</b>.</p></body></html>`)
	}))
	defer srv.Close()

	tk := tool.New()
	if err := RegisterWebFetch(tk, srv.Client()); err != nil {
		t.Fatalf("RegisterWebFetch: %v", err)
	}

	res := execute(t, tk, "web_fetch", fmt.Sprintf(`{"url":%q}`, srv.URL))
	if res.IsError {
		t.Fatalf("error result: %s", res.Output)
	}
	if !strings.Contains(res.Output, "Welcome") || !strings.Contains(res.Output, "Hello world.") {
		t.Errorf("text extraction wrong: %q", res.Output)
	}
	if strings.Contains(res.Output, "hidden") {
		t.Errorf("script content leaked: %q", res.Output)
	}
}

func TestWebFetch_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	tk := tool.New()
	if err := RegisterWebFetch(tk, srv.Client()); err != nil {
		t.Fatalf("RegisterWebFetch: %v", err)
	}

	res := execute(t, tk, "web_fetch", fmt.Sprintf(`{"url":%q}`, srv.URL))
	if !res.IsError || !strings.Contains(res.Output, "404") {
		t.Errorf("status not surfaced: %+v", res)
	}
}

func TestWebFetch_RejectsNonHTTP(t *testing.T) {
	t.Parallel()

	tk := tool.New()
	if err := RegisterWebFetch(tk, nil); err != nil {
		t.Fatalf("RegisterWebFetch: %v", err)
	}

	res := execute(t, tk, "web_fetch", `{"url":"file:///etc/passwd"}`)
	if !res.IsError {
		t.Errorf("file URL accepted: %q", res.Output)
	}
}
