package transcript

import (
	"strings"
	"testing"
	"time"
)

func TestExtractChat(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

	writeTranscript(t, dir, "p/recent.jsonl", sampleSession, now.Add(-time.Hour))
	writeTranscript(t, dir, "p/stale.jsonl", session(now.Add(-30*24*time.Hour), time.Minute, "ancient history"), now.Add(-30*24*time.Hour))
	writeTranscript(t, dir, "p/empty.jsonl", `{"type":"summary"}`+"\n", now.Add(-2*time.Hour))

	files, err := List(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	text, stats := ExtractChat(files, now.Add(-7*24*time.Hour))

	if stats.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", stats.Sessions)
	}
	if stats.UserMessages != 2 || stats.AssistantMessages != 2 {
		t.Errorf("messages = %d/%d, want 2/2", stats.UserMessages, stats.AssistantMessages)
	}
	if stats.SkippedToolBlocks != 5 {
		t.Errorf("SkippedToolBlocks = %d, want 5", stats.SkippedToolBlocks)
	}
	if strings.Contains(text, "ancient history") {
		t.Error("chat includes a transcript older than since")
	}
	if strings.Contains(text, "huge output") || strings.Contains(text, "remember things") {
		t.Error("chat includes tool results or system reminders")
	}
	if !strings.Contains(text, "[04:10:41] USER: bring yourself up pls") {
		t.Errorf("missing user line:\n%s", text)
	}
	if !strings.Contains(text, "[04:25:41] CLAUDE: Done.") {
		t.Errorf("missing assistant line:\n%s", text)
	}
	if !strings.Contains(text, "SESSION: 2026-02-20 04:10 (15 min): 2 user msgs") {
		t.Errorf("missing session header:\n%s", text)
	}
	if stats.Chars != len(text) || stats.EstTokens != len(text)/4 {
		t.Errorf("size stats = %d/%d for %d chars", stats.Chars, stats.EstTokens, len(text))
	}
}

func TestExtractChatTruncatesLongTurns(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	long := strings.Repeat("x", maxTurnChars+100)
	content := `{"type":"user","message":{"role":"user","content":"go"}}` + "\n" +
		`{"type":"assistant","message":{"role":"assistant","content":"` + long + `"}}` + "\n"
	writeTranscript(t, dir, "p/s.jsonl", content, now)

	files, _ := List(dir, 0)
	text, stats := ExtractChat(files, now.Add(-time.Hour))
	if stats.TruncatedTurns != 1 {
		t.Errorf("TruncatedTurns = %d, want 1", stats.TruncatedTurns)
	}
	if strings.Contains(text, long) {
		t.Error("long turn not truncated")
	}
}
