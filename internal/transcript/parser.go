package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
)

// Entry represents a single line in a Claude Code JSONL transcript.
type Entry struct {
	Type      string          `json:"type"` // "user", "assistant", "system", "summary"
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
}

// Message is the parsed message content.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"` // string or []ContentItem
}

// ContentItem represents a single content block (text, tool_use, tool_result).
type ContentItem struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Turn is one user or assistant message with its plain text.
type Turn struct {
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Transcript is the structured view of one session log.
type Transcript struct {
	SessionID             string    `json:"session_id"`
	Path                  string    `json:"path"`
	FileSize              int64     `json:"file_size"`
	StartedAt             time.Time `json:"started_at"`
	EndedAt               time.Time `json:"ended_at"`
	Turns                 []Turn    `json:"turns"`
	UserMessageCount      int       `json:"user_message_count"`
	AssistantMessageCount int       `json:"assistant_message_count"`
	FilesChanged          []string  `json:"files_changed"`
	ToolUses              int       `json:"tool_uses"`
	SkippedSystem         int       `json:"skipped_system"`
}

// UserMessages returns the user turns in order.
func (t *Transcript) UserMessages() []Turn {
	var out []Turn
	for _, turn := range t.Turns {
		if turn.Role == "user" {
			out = append(out, turn)
		}
	}
	return out
}

// Duration is the time between the first and last timestamped entry.
func (t *Transcript) Duration() time.Duration {
	if t.StartedAt.IsZero() || t.EndedAt.IsZero() {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// DurationMinutes is Duration in minutes.
func (t *Transcript) DurationMinutes() float64 {
	return t.Duration().Minutes()
}

// editTools are the tool_use names whose input names a file the session changed.
var editTools = map[string]bool{
	"Edit":         true,
	"Write":        true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

var systemReminderRe = regexp.MustCompile(`<system-reminder>[\s\S]*?</system-reminder>`)

// maxLineBytes bounds a single JSONL line; tool results can be large.
const maxLineBytes = 16 * 1024 * 1024

// Read parses the transcript file at path.
func Read(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errutil.NotFound("transcript not found", goerr.V("path", path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "open transcript", goerr.V("path", path))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, goerr.Wrap(err, "stat transcript", goerr.V("path", path))
	}

	t, err := Parse(f)
	if err != nil {
		return nil, goerr.Wrap(err, "parse transcript", goerr.V("path", path))
	}
	t.Path = path
	t.FileSize = info.Size()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if id, err := uuid.Parse(stem); err == nil {
		t.SessionID = id.String()
	} else if t.SessionID == "" {
		t.SessionID = stem
	}
	return t, nil
}

// Parse reads JSONL transcript entries from r. Malformed lines are skipped.
func Parse(r io.Reader) (*Transcript, error) {
	t := &Transcript{FilesChanged: []string{}}
	seenFiles := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		ts, _ := time.Parse(time.RFC3339Nano, entry.Timestamp)
		if !ts.IsZero() {
			ts = ts.UTC()
			if t.StartedAt.IsZero() {
				t.StartedAt = ts
			}
			t.EndedAt = ts
		}
		if t.SessionID == "" && entry.SessionID != "" {
			t.SessionID = entry.SessionID
		}

		if entry.Message == nil || (entry.Type != "user" && entry.Type != "assistant") {
			continue
		}
		msg, ok := decodeMessage(entry.Message)
		if !ok {
			continue
		}

		switch entry.Type {
		case "user":
			text := userText(msg.Content)
			if text == "" {
				t.SkippedSystem++
				continue
			}
			t.UserMessageCount++
			t.Turns = append(t.Turns, Turn{Role: "user", Timestamp: ts, Text: text})

		case "assistant":
			text, tools := assistantContent(msg.Content)
			for _, tool := range tools {
				t.ToolUses++
				if f := editedFile(tool); f != "" && !seenFiles[f] {
					seenFiles[f] = true
					t.FilesChanged = append(t.FilesChanged, f)
				}
			}
			if text == "" {
				continue
			}
			t.AssistantMessageCount++
			t.Turns = append(t.Turns, Turn{Role: "assistant", Timestamp: ts, Text: text})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "scan transcript")
	}
	return t, nil
}

// decodeMessage accepts both the object form and a bare string message.
func decodeMessage(raw json.RawMessage) (Message, bool) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		content, _ := json.Marshal(s)
		return Message{Content: content}, true
	}
	return Message{}, false
}

// isSystemText reports text the harness injected rather than the user typed.
func isSystemText(s string) bool {
	return strings.HasPrefix(s, "<system-reminder>") ||
		strings.HasPrefix(s, "<local-command") ||
		strings.HasPrefix(s, "<command-name>")
}

// contentItems handles the polymorphic content field.
// It may be a plain string or an array of ContentItem.
func contentItems(raw json.RawMessage) []ContentItem {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []ContentItem{{Type: "text", Text: s}}
	}
	var items []ContentItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}
	return nil
}

// userText joins the typed text blocks of a user entry. tool_result blocks are dropped.
func userText(raw json.RawMessage) string {
	var texts []string
	for _, item := range contentItems(raw) {
		if item.Type != "text" {
			continue
		}
		text := strings.TrimSpace(item.Text)
		if text == "" || isSystemText(text) {
			continue
		}
		text = strings.TrimSpace(systemReminderRe.ReplaceAllString(text, ""))
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, " ")
}

// assistantContent returns the text of an assistant entry and its tool_use blocks.
func assistantContent(raw json.RawMessage) (string, []ContentItem) {
	var (
		texts []string
		tools []ContentItem
	)
	for _, item := range contentItems(raw) {
		switch item.Type {
		case "text":
			if text := strings.TrimSpace(item.Text); text != "" {
				texts = append(texts, text)
			}
		case "tool_use":
			tools = append(tools, item)
		}
	}
	return strings.Join(texts, "\n"), tools
}

// editedFile returns the path a file-editing tool_use wrote to, or "".
func editedFile(item ContentItem) string {
	if !editTools[item.Name] || item.Input == nil {
		return ""
	}
	var input struct {
		FilePath     string `json:"file_path"`
		NotebookPath string `json:"notebook_path"`
	}
	if err := json.Unmarshal(item.Input, &input); err != nil {
		return ""
	}
	if input.FilePath != "" {
		return input.FilePath
	}
	return input.NotebookPath
}
