package hooks

import (
	"fmt"
	"strings"

	"github.com/lazypower/recollect/internal/store"
)

// Session start context selection.
const (
	startMinSignificance = 7
	startMaxMemories     = 20
	startSnippetChars    = 200
)

func (h *Handler) handleStart(input *HookInput) {
	context := ""
	memories, err := h.Engine.Memories()
	if err != nil {
		h.Log.Warn("hook start: list memories", "error", err)
	} else {
		context = BuildStartContext(memories)
	}
	if err := WriteSessionStartOutput(h.Out, context); err != nil {
		h.Log.Warn("hook start: write output", "error", err)
	}
}

// BuildStartContext lists clear memories of significance 7 and up, in export
// order, as plain text for the SessionStart hook. It returns "" when none qualify.
func BuildStartContext(memories []store.Memory) string {
	var picked []store.Memory
	for _, m := range memories {
		if m.State == store.StateClear && m.Significance >= startMinSignificance {
			picked = append(picked, m)
		}
	}
	if len(picked) == 0 {
		return ""
	}
	store.SortCanonical(picked)

	total := len(picked)
	if len(picked) > startMaxMemories {
		picked = picked[:startMaxMemories]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recollect: %d clear memories with significance >= %d", total, startMinSignificance)
	if total > len(picked) {
		fmt.Fprintf(&b, " (showing %d)", len(picked))
	}
	b.WriteString("\n")
	for _, m := range picked {
		fmt.Fprintf(&b, "- [%s/%d] %s: %s\n", m.Category, m.Significance, m.Title, snippet(m.Content))
	}
	b.WriteString("Use `recollect search <query>` for more.\n")
	return b.String()
}

// snippet returns the first line of s, cut to startSnippetChars runes.
func snippet(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(strings.TrimSpace(s))
	if len(r) > startSnippetChars {
		return string(r[:startSnippetChars]) + "..."
	}
	return string(r)
}
