// ABOUTME: Fuzzy "did you mean" suggestions for unknown tool names

package tool

import (
	"github.com/sahilm/fuzzy"
)

// suggest returns the closest registered tool name, or "" when nothing is
// remotely similar. Models occasionally hallucinate near-miss names; a hint
// in the error result lets the next reasoning step recover.
func (tk *Toolkit) suggest(name string) string {
	tk.mu.RLock()
	names := make([]string, len(tk.order))
	copy(names, tk.order)
	tk.mu.RUnlock()

	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
