// ABOUTME: Width-aware truncation of tool output with grapheme-cluster segmentation
// ABOUTME: Never splits a cluster; normalizes to NFC first so widths are stable

package textutil

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const ellipsis = "..."

// VisibleWidth returns the display width of s in terminal cells. Grapheme
// clusters are measured as units, so emoji and East Asian characters count
// their full cell width.
func VisibleWidth(s string) int {
	if s == "" {
		return 0
	}
	if isASCII(s) {
		return len(s)
	}

	total := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		total += runewidth.StringWidth(g.Str())
	}
	return total
}

// Truncate cuts s to at most limit display cells, appending an ellipsis when
// anything was removed. limit <= 0 means unlimited. The cut happens on a
// grapheme boundary; a flag emoji or combining sequence is kept or dropped
// whole, never sliced.
func Truncate(s string, limit int) string {
	if limit <= 0 || s == "" {
		return s
	}
	s = norm.NFC.String(s)
	if VisibleWidth(s) <= limit {
		return s
	}

	budget := limit - len(ellipsis)
	if budget <= 0 {
		return ellipsis[:limit]
	}

	var out []byte
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := runewidth.StringWidth(g.Str())
		if used+w > budget {
			break
		}
		out = append(out, g.Bytes()...)
		used += w
	}
	return string(out) + ellipsis
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
