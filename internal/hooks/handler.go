package hooks

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/lazypower/recollect/internal/engine"
	"github.com/lazypower/recollect/internal/logging"
)

// Handler dispatches Claude Code hook events against a local store.
// Hooks must never crash Claude Code: failures are logged and swallowed.
type Handler struct {
	Engine        *engine.Engine
	TranscriptDir string
	Out           io.Writer
	Log           *slog.Logger
}

// Handle reads HookInput from stdin and dispatches on event ("start" or "end").
func (h *Handler) Handle(event string, stdin io.Reader) {
	if h.Log == nil {
		h.Log = logging.Default()
	}

	var input HookInput
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			h.Log.Warn("hook: read stdin", "event", event, "error", err)
		} else if strings.TrimSpace(string(data)) != "" {
			// Stdin may be empty or partial; continue with whatever decoded.
			if err := json.Unmarshal(data, &input); err != nil {
				h.Log.Warn("hook: decode stdin", "event", event, "error", err)
			}
		}
	}

	switch event {
	case "start":
		h.handleStart(&input)
	case "end":
		h.handleEnd(&input)
	default:
		h.Log.Warn("hook: unknown event", "event", event)
	}
}
