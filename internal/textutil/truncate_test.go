// ABOUTME: Tests for width-aware truncation and grapheme safety

package textutil

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"unlimited", "hello world", 0, "hello world"},
		{"fits", "short", 10, "short"},
		{"ascii cut", "hello world", 8, "hello..."},
		{"exact", "12345678", 8, "12345678"},
		{"tiny limit", "hello", 2, ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.in, tt.limit); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncate_WideCharacters(t *testing.T) {
	t.Parallel()

	// Each CJK character is two cells wide.
	got := Truncate("北京晴天二十五度", 9)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if w := VisibleWidth(got); w > 9 {
		t.Errorf("truncated width %d exceeds limit 9 (%q)", w, got)
	}
}

func TestTruncate_NeverSplitsGrapheme(t *testing.T) {
	t.Parallel()

	// A flag emoji is a two-codepoint cluster; it must survive or vanish whole.
	in := strings.Repeat("a", 4) + "\U0001F1E8\U0001F1F3" + "tail"
	got := Truncate(in, 7)
	if strings.ContainsRune(got, '\U0001F1E8') && !strings.ContainsRune(got, '\U0001F1F3') {
		t.Errorf("grapheme cluster split: %q", got)
	}
}

func TestVisibleWidth(t *testing.T) {
	t.Parallel()

	if w := VisibleWidth("abc"); w != 3 {
		t.Errorf("ascii width = %d, want 3", w)
	}
	if w := VisibleWidth("北京"); w != 4 {
		t.Errorf("CJK width = %d, want 4", w)
	}
	if w := VisibleWidth(""); w != 0 {
		t.Errorf("empty width = %d, want 0", w)
	}
}
