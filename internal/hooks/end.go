package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lazypower/recollect/internal/store"
	"github.com/lazypower/recollect/internal/transcript"
)

// Auto-save summary shape.
const (
	minUserMessages    = 2
	summaryMessages    = 15
	summaryMessageRune = 300
	summarySeparator   = " | "
)

func (h *Handler) handleEnd(input *HookInput) {
	path := input.TranscriptPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			h.Log.Debug("hook end: transcript from input missing", "path", path)
			path = ""
		}
	}
	if path == "" {
		latest, err := transcript.Latest(h.TranscriptDir)
		if err != nil {
			h.Log.Warn("hook end: list transcripts", "error", err)
			return
		}
		if latest == nil {
			return
		}
		path = latest.Path
	}

	t, err := transcript.Read(path)
	if err != nil {
		h.Log.Warn("hook end: read transcript", "path", path, "error", err)
		return
	}

	params, ok := SessionFromTranscript(t, projectName(input.CWD))
	if !ok {
		h.Log.Debug("hook end: nothing to save", "path", path, "user_messages", t.UserMessageCount)
		return
	}

	res, err := h.Engine.SaveSession(params)
	if err != nil {
		h.Log.Warn("hook end: save session", "error", err)
		return
	}
	h.Log.Info("hook end: session saved", "id", res.Session.ID, "evicted", res.Evicted)
}

// SessionFromTranscript builds the auto-save session for t. It reports false
// for sessions too small to keep and for recollect's own LLM sessions.
func SessionFromTranscript(t *transcript.Transcript, project string) (store.SaveSessionParams, bool) {
	users := t.UserMessages()
	if len(users) < minUserMessages || isInternalPrompt(users[0].Text) {
		return store.SaveSessionParams{}, false
	}

	if len(users) > summaryMessages {
		users = users[:summaryMessages]
	}
	parts := make([]string, 0, len(users))
	for _, u := range users {
		r := []rune(u.Text)
		if len(r) > summaryMessageRune {
			r = r[:summaryMessageRune]
		}
		parts = append(parts, string(r))
	}

	return store.SaveSessionParams{
		Summary:      strings.Join(parts, summarySeparator),
		Project:      project,
		FilesChanged: t.FilesChanged,
	}, true
}

func projectName(cwd string) string {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		cwd = wd
	}
	return filepath.Base(filepath.Clean(cwd))
}
