package llm

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/config"
	"github.com/lazypower/recollect/internal/errutil"
)

// Client is the interface for LLM providers.
// Implementations make exactly one attempt per call; there is no retry.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of an LLM completion.
type Response struct {
	Content      string `json:"content"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

const (
	temperature     = 0.3
	maxOutputTokens = 8192
)

// NewClient creates an LLM client based on the config provider setting.
// A missing credential is an external service error.
func NewClient(cfg config.LLMConfig) (Client, error) {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 600 * time.Second
	}

	switch cfg.Provider {
	case "google":
		if cfg.GoogleKey == "" {
			return nil, errutil.External(nil, "google provider requires GOOGLE_API_KEY or llm.google_key")
		}
		model := cfg.Model
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return NewGoogle(cfg.GoogleKey, model, timeout), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, errutil.External(nil, "anthropic provider requires ANTHROPIC_API_KEY or llm.anthropic_key")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model, timeout), nil
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.OllamaModel
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model, timeout), nil
	case "claude-cli":
		model := cfg.Model
		if model == "" {
			model = "haiku"
		}
		return NewClaudeCLI(model, timeout), nil
	default:
		return nil, errutil.Validation("unknown LLM provider", goerr.V("provider", cfg.Provider))
	}
}
