package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/lazypower/recollect/internal/store"
)

var (
	clearColor  = color.New(color.FgGreen).SprintFunc()
	fuzzyColor  = color.New(color.FgYellow).SprintFunc()
	fadingColor = color.New(color.FgRed).SprintFunc()
	dimColor    = color.New(color.Faint).SprintFunc()
	boldColor   = color.New(color.Bold).SprintFunc()
)

// stateLabel colors a state name; color is dropped when stdout is not a terminal.
func stateLabel(s store.State) string {
	switch s {
	case store.StateClear:
		return clearColor(string(s))
	case store.StateFuzzy:
		return fuzzyColor(string(s))
	case store.StateFading:
		return fadingColor(string(s))
	default:
		return string(s)
	}
}

func printMemory(w io.Writer, m *store.Memory) {
	fmt.Fprintf(w, "%s %s\n", boldColor(m.Title), dimColor("["+m.ID+"]"))
	fmt.Fprintf(w, "  %s, significance %d, strength %.2f (%s)\n",
		m.Category, m.Significance, m.RecallStrength, stateLabel(m.State))
	fmt.Fprintf(w, "  created %s, last accessed %s, source %s\n",
		m.CreatedAt.Format(time.RFC3339), m.LastAccessed.Format(time.RFC3339), m.Source)
	if len(m.Tags) > 0 {
		fmt.Fprintf(w, "  tags: %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintln(w)
	for _, line := range strings.Split(m.Content, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// oneLine collapses whitespace and cuts s to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
