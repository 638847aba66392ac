// ABOUTME: Reusable agent cards: builtins plus Markdown files with YAML frontmatter
// ABOUTME: Loaded from .nano-go/agents/ in the project and home directories

package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition describes a reusable agent configuration. The body of the
// Markdown file is the system prompt; everything else lives in frontmatter.
type Definition struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Model        string   `yaml:"model"`
	Tools        []string `yaml:"tools"`
	MaxIters     int      `yaml:"max-iters"`
	SystemPrompt string   `yaml:"-"`
}

// BuiltinDefinitions returns the agent cards that ship with the binary.
func BuiltinDefinitions() map[string]Definition {
	return map[string]Definition{
		"assistant": {
			Name:        "assistant",
			Description: "General-purpose assistant with the full builtin toolkit.",
			MaxIters:    10,
			SystemPrompt: "You are a helpful assistant. Use the available tools when they " +
				"help answer the question; otherwise answer directly. Be concise.",
		},
		"researcher": {
			Name:        "researcher",
			Description: "Web research agent restricted to fetching and reading pages.",
			Tools:       []string{"web_fetch", "current_time"},
			MaxIters:    15,
			SystemPrompt: "You are a research agent. Fetch relevant pages, extract facts, " +
				"and cite the URLs you used. Never invent sources.",
		},
		"quant": {
			Name:        "quant",
			Description: "Calculation specialist for numeric questions.",
			Tools:       []string{"calculator"},
			MaxIters:    5,
			SystemPrompt: "You are a calculation agent. Break numeric questions into " +
				"arithmetic steps and verify each with the calculator tool.",
		},
	}
}

// LoadDefinitions merges builtins with user cards; a user card with a
// builtin's name overrides it. Missing directories are skipped silently.
func LoadDefinitions(projectDir, homeDir string) map[string]Definition {
	defs := BuiltinDefinitions()

	dirs := []string{
		filepath.Join(homeDir, ".nano-go", "agents"),
		filepath.Join(projectDir, ".nano-go", "agents"),
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			def, err := ParseDefinition(string(data), entry.Name())
			if err != nil {
				continue
			}
			defs[def.Name] = def
		}
	}
	return defs
}

// ParseDefinition parses a Markdown agent card. Frontmatter is optional;
// a bare file is all system prompt, named after the file.
func ParseDefinition(content, filename string) (Definition, error) {
	def := Definition{
		Name: strings.TrimSuffix(filename, filepath.Ext(filename)),
	}

	if !strings.HasPrefix(content, "---\n") {
		def.SystemPrompt = strings.TrimSpace(content)
		return def, nil
	}

	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return def, fmt.Errorf("agent card %s: unterminated frontmatter", filename)
	}

	fallback := def.Name
	if err := yaml.Unmarshal([]byte(rest[:end]), &def); err != nil {
		return def, fmt.Errorf("agent card %s: %w", filename, err)
	}
	if def.Name == "" {
		def.Name = fallback
	}
	def.SystemPrompt = strings.TrimSpace(rest[end+4:])
	return def, nil
}
