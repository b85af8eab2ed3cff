package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/recollect/internal/errutil"
)

const sampleSession = `{"type":"summary","summary":"ignored"}
{"type":"user","timestamp":"2026-02-20T04:10:41.123Z","sessionId":"abc","message":{"role":"user","content":"bring yourself up pls"}}
{"type":"assistant","timestamp":"2026-02-20T04:11:02.000Z","message":{"role":"assistant","content":[{"type":"text","text":"Starting up."},{"type":"tool_use","id":"tu_1","name":"Read","input":{"file_path":"/repo/README.md"}}]}}
{"type":"user","timestamp":"2026-02-20T04:11:03.000Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"huge output"}]}}
{"type":"assistant","timestamp":"2026-02-20T04:12:00.000Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_2","name":"Edit","input":{"file_path":"/repo/main.go","old_string":"a","new_string":"b"}}]}}
not json at all
{"type":"user","timestamp":"2026-02-20T04:13:00.000Z","message":{"role":"user","content":"<system-reminder>remember things</system-reminder>"}}
{"type":"user","timestamp":"2026-02-20T04:14:00.000Z","message":{"role":"user","content":[{"type":"text","text":"<command-name>/clear</command-name>"},{"type":"text","text":"now fix the tests"}]}}
{"type":"assistant","timestamp":"2026-02-20T04:20:00.000Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_3","name":"Write","input":{"file_path":"/repo/main_test.go"}},{"type":"tool_use","id":"tu_4","name":"Edit","input":{"file_path":"/repo/main.go"}},{"type":"tool_use","id":"tu_5","name":"NotebookEdit","input":{"notebook_path":"/repo/nb.ipynb"}}]}}
{"type":"assistant","timestamp":"2026-02-20T04:25:41.123Z","message":{"role":"assistant","content":"Done."}}
`

func TestParse(t *testing.T) {
	tr, err := Parse(strings.NewReader(sampleSession))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if tr.SessionID != "abc" {
		t.Errorf("SessionID = %q, want abc", tr.SessionID)
	}
	if tr.UserMessageCount != 2 {
		t.Errorf("UserMessageCount = %d, want 2", tr.UserMessageCount)
	}
	if tr.AssistantMessageCount != 2 {
		t.Errorf("AssistantMessageCount = %d, want 2", tr.AssistantMessageCount)
	}
	if tr.SkippedSystem != 2 {
		t.Errorf("SkippedSystem = %d, want 2", tr.SkippedSystem)
	}
	if tr.ToolUses != 5 {
		t.Errorf("ToolUses = %d, want 5", tr.ToolUses)
	}

	wantFiles := []string{"/repo/main.go", "/repo/main_test.go", "/repo/nb.ipynb"}
	if strings.Join(tr.FilesChanged, ",") != strings.Join(wantFiles, ",") {
		t.Errorf("FilesChanged = %v, want %v", tr.FilesChanged, wantFiles)
	}

	users := tr.UserMessages()
	if len(users) != 2 || users[0].Text != "bring yourself up pls" || users[1].Text != "now fix the tests" {
		t.Errorf("UserMessages = %+v", users)
	}

	wantStart := time.Date(2026, 2, 20, 4, 10, 41, 123000000, time.UTC)
	if !tr.StartedAt.Equal(wantStart) {
		t.Errorf("StartedAt = %v, want %v", tr.StartedAt, wantStart)
	}
	if tr.Duration() != 15*time.Minute {
		t.Errorf("Duration = %v, want 15m", tr.Duration())
	}
}

func TestParseEmpty(t *testing.T) {
	tr, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tr.UserMessageCount != 0 || tr.Duration() != 0 || len(tr.FilesChanged) != 0 {
		t.Errorf("empty transcript = %+v", tr)
	}
}

func TestParseBareStringMessage(t *testing.T) {
	tr, err := Parse(strings.NewReader(`{"type":"user","message":"plain string message"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tr.UserMessageCount != 1 || tr.Turns[0].Text != "plain string message" {
		t.Errorf("turns = %+v", tr.Turns)
	}
}

func TestReadUsesFileStemAsSessionID(t *testing.T) {
	dir := t.TempDir()
	id := "0f8fad5b-d9cb-469f-a165-70867728950e"
	path := filepath.Join(dir, id+".jsonl")
	if err := os.WriteFile(path, []byte(sampleSession), 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tr.SessionID != id {
		t.Errorf("SessionID = %q, want %q", tr.SessionID, id)
	}
	if tr.FileSize != int64(len(sampleSession)) {
		t.Errorf("FileSize = %d, want %d", tr.FileSize, len(sampleSession))
	}
	if tr.Path != path {
		t.Errorf("Path = %q", tr.Path)
	}
}

func TestReadFallsBackToSessionField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	if err := os.WriteFile(path, []byte(sampleSession), 0644); err != nil {
		t.Fatal(err)
	}
	tr, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tr.SessionID != "abc" {
		t.Errorf("SessionID = %q, want abc", tr.SessionID)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.jsonl"))
	if !errors.Is(err, errutil.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
