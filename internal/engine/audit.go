package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
	"github.com/lazypower/recollect/internal/llm"
	"github.com/lazypower/recollect/internal/transcript"
)

// maxAuditTranscripts bounds how many transcript files an audit considers.
const maxAuditTranscripts = 500

// AuditOptions controls an audit run.
type AuditOptions struct {
	Days   int
	DryRun bool
	// OutDir receives the audit_<timestamp>.md report.
	OutDir string
}

// AuditReport describes what an audit read, sent and wrote.
type AuditReport struct {
	Days            int                  `json:"days"`
	Chat            transcript.ChatStats `json:"chat"`
	Memories        int                  `json:"memories"`
	MemoryChars     int                  `json:"memory_chars"`
	MemoryEstTokens int                  `json:"memory_est_tokens"`
	TotalEstTokens  int                  `json:"total_est_tokens"`
	PromptEstTokens int                  `json:"prompt_est_tokens,omitempty"`
	DryRun          bool                 `json:"dry_run"`
	Response        *llm.Response        `json:"response,omitempty"`
	OutputPath      string               `json:"output_path,omitempty"`
}

// Audit compares the last opts.Days of conversation against the saved
// memories using the configured LLM. It never writes to the store: the only
// output is a markdown report in opts.OutDir. A report with Chat.Sessions == 0
// means there was nothing to audit.
func (e *Engine) Audit(ctx context.Context, opts AuditOptions) (*AuditReport, error) {
	if opts.Days <= 0 {
		return nil, errutil.Validation("days must be positive", goerr.V("days", opts.Days))
	}
	rep := &AuditReport{Days: opts.Days, DryRun: opts.DryRun}
	now := e.now()

	files, err := transcript.List(e.TranscriptDir, maxAuditTranscripts)
	if err != nil {
		return nil, err
	}
	chat, chatStats := transcript.ExtractChat(files, now.Add(-time.Duration(opts.Days)*24*time.Hour))
	rep.Chat = chatStats
	if chat == "" {
		return rep, nil
	}

	memories, err := e.ExportText()
	if err != nil {
		return nil, err
	}
	stats, err := e.Stats()
	if err != nil {
		return nil, err
	}
	rep.Memories = stats.Total
	rep.MemoryChars = len(memories)
	rep.MemoryEstTokens = len(memories) / 4
	rep.TotalEstTokens = chatStats.EstTokens + rep.MemoryEstTokens

	if opts.DryRun {
		return rep, nil
	}
	if e.LLM == nil {
		return nil, errutil.External(nil, "no LLM provider configured for audit")
	}

	prompt := llm.AuditPrompt(chat, memories, opts.Days)
	rep.PromptEstTokens = len(prompt) / 4

	e.Log.Info("sending audit", "sessions", chatStats.Sessions, "prompt_est_tokens", rep.PromptEstTokens)
	resp, err := e.LLM.Complete(ctx, prompt)
	if err != nil {
		return nil, errutil.External(err, "audit LLM call failed")
	}
	if resp == nil {
		return nil, errutil.External(nil, "audit LLM returned no response")
	}
	rep.Response = resp

	path, err := writeAuditReport(opts.OutDir, now, rep)
	if err != nil {
		return nil, err
	}
	rep.OutputPath = path
	return rep, nil
}

func writeAuditReport(dir string, now time.Time, rep *AuditReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errutil.Storage(err, "create audit dir", goerr.V("dir", dir))
	}
	stamp := now.Local().Format("2006-01-02_1504")
	path := filepath.Join(dir, "audit_"+stamp+".md")

	body := fmt.Sprintf("# Memory Audit %s\n*%d days, %d sessions, %d user msgs*\n*%s: %d input, %d output tokens*\n\n%s\n",
		stamp, rep.Days, rep.Chat.Sessions, rep.Chat.UserMessages,
		rep.Response.Provider, rep.Response.InputTokens, rep.Response.OutputTokens,
		rep.Response.Content)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", errutil.Storage(err, "write audit report", goerr.V("path", path))
	}
	return path, nil
}
