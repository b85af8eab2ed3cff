package transcript

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxTurnChars caps a single assistant turn in the extracted chat.
const maxTurnChars = 2000

// ChatStats describes what ExtractChat kept and skipped.
type ChatStats struct {
	Sessions          int   `json:"sessions"`
	UserMessages      int   `json:"user_messages"`
	AssistantMessages int   `json:"assistant_messages"`
	SkippedToolBlocks int   `json:"skipped_tool_blocks"`
	SkippedSystem     int   `json:"skipped_system"`
	TruncatedTurns    int   `json:"truncated_turns"`
	RawBytes          int64 `json:"raw_bytes"`
	Chars             int   `json:"chars"`
	EstTokens         int   `json:"est_tokens"`
}

// ExtractChat renders the human-readable conversation from every file
// modified at or after since, oldest first. Tool calls, tool results and
// system reminders are left out. Files that fail to parse are skipped.
func ExtractChat(files []File, since time.Time) (string, ChatStats) {
	var (
		stats ChatStats
		b     strings.Builder
	)

	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if f.ModTime.Before(since) {
			continue
		}
		t, err := Read(f.Path)
		if err != nil {
			continue
		}
		stats.RawBytes += t.FileSize
		stats.SkippedToolBlocks += t.ToolUses
		stats.SkippedSystem += t.SkippedSystem
		if t.UserMessageCount < 1 {
			continue
		}

		stats.Sessions++
		stats.UserMessages += t.UserMessageCount
		stats.AssistantMessages += t.AssistantMessageCount
		writeSession(&b, t, &stats)
	}

	text := b.String()
	stats.Chars = len(text)
	stats.EstTokens = len(text) / 4
	return text, stats
}

func writeSession(b *strings.Builder, t *Transcript, stats *ChatStats) {
	rule := strings.Repeat("=", 60)
	start := "?"
	if !t.StartedAt.IsZero() {
		start = t.StartedAt.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(b, "\n%s\nSESSION: %s%s: %d user msgs\n%s\n", rule, start, formatDuration(t.Duration()), t.UserMessageCount, rule)

	for _, turn := range t.Turns {
		speaker := "USER"
		text := turn.Text
		if turn.Role == "assistant" {
			speaker = "CLAUDE"
			if len(text) > maxTurnChars {
				text = cut(text, maxTurnChars) + "..."
				stats.TruncatedTurns++
			}
		}
		fmt.Fprintf(b, "[%s] %s: %s\n", shortTime(turn.Timestamp), speaker, text)
	}
}

// cut shortens s to at most n bytes on a rune boundary.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func shortTime(t time.Time) string {
	if t.IsZero() {
		return "??:??:??"
	}
	return t.Format("15:04:05")
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d >= time.Hour:
		return fmt.Sprintf(" (%.1fh)", d.Hours())
	default:
		return fmt.Sprintf(" (%.0f min)", d.Minutes())
	}
}
