// ABOUTME: Tests for agent card parsing and loading

package agent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefinition_Frontmatter(t *testing.T) {
	t.Parallel()

	content := `---
name: scout
description: Finds things
model: qwen-max
tools: [web_fetch, current_time]
max-iters: 7
---
You are a scout. Find facts fast.`

	def, err := ParseDefinition(content, "scout.md")
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.Name != "scout" || def.Model != "qwen-max" || def.MaxIters != 7 {
		t.Errorf("def = %+v", def)
	}
	if len(def.Tools) != 2 || def.Tools[0] != "web_fetch" {
		t.Errorf("tools = %v", def.Tools)
	}
	if def.SystemPrompt != "You are a scout. Find facts fast." {
		t.Errorf("prompt = %q", def.SystemPrompt)
	}
}

func TestParseDefinition_BareFileIsPrompt(t *testing.T) {
	t.Parallel()

	def, err := ParseDefinition("Just a prompt.\n", "helper.md")
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.Name != "helper" || def.SystemPrompt != "Just a prompt." {
		t.Errorf("def = %+v", def)
	}
}

func TestParseDefinition_UnterminatedFrontmatter(t *testing.T) {
	t.Parallel()

	if _, err := ParseDefinition("---\nname: broken\n", "broken.md"); err == nil {
		t.Error("unterminated frontmatter accepted")
	}
}

func TestLoadDefinitions_UserOverridesBuiltin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	agents := filepath.Join(dir, ".nano-go", "agents")
	if err := os.MkdirAll(agents, 0o755); err != nil {
		t.Fatal(err)
	}
	card := `---
name: assistant
description: Custom override
---
Overridden prompt.`
	if err := os.WriteFile(filepath.Join(agents, "assistant.md"), []byte(card), 0o644); err != nil {
		t.Fatal(err)
	}

	defs := LoadDefinitions(dir, t.TempDir())
	got, ok := defs["assistant"]
	if !ok {
		t.Fatal("assistant definition missing")
	}
	if got.Description != "Custom override" || got.SystemPrompt != "Overridden prompt." {
		t.Errorf("override not applied: %+v", got)
	}
	if _, ok := defs["researcher"]; !ok {
		t.Error("builtin researcher lost during merge")
	}
}
