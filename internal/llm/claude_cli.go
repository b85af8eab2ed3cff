package llm

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
)

// ClaudeCLI calls the Claude CLI (`claude -p`) as a subprocess.
type ClaudeCLI struct {
	model   string
	timeout time.Duration
	binary  string
}

// NewClaudeCLI creates a new Claude CLI client.
func NewClaudeCLI(model string, timeout time.Duration) *ClaudeCLI {
	return &ClaudeCLI{
		model:   model,
		timeout: timeout,
		binary:  "claude",
	}
}

// Complete sends a prompt to the Claude CLI and returns the response.
// The CLI does not report token usage; counts are estimated at four bytes per token.
func (c *ClaudeCLI) Complete(ctx context.Context, prompt string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, "-p", "--model", c.model, "--max-turns", "1")
	cmd.Stdin = strings.NewReader(prompt)

	// Strip CLAUDE_* env vars to prevent recursive hook triggering
	cmd.Env = filterEnv(os.Environ())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errutil.External(err, "claude cli failed",
			goerr.V("model", c.model), goerr.V("stderr", strings.TrimSpace(stderr.String())))
	}

	content := strings.TrimSpace(stdout.String())
	return &Response{
		Content:      content,
		Provider:     "claude-cli",
		Model:        c.model,
		InputTokens:  len(prompt) / 4,
		OutputTokens: len(content) / 4,
	}, nil
}

// filterEnv removes CLAUDE_* environment variables to prevent recursive hooks.
func filterEnv(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, "CLAUDE_") {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
