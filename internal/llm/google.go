package llm

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"github.com/lazypower/recollect/internal/errutil"
)

// Google calls Gemini through the official SDK. The client is created per
// call so that a short-lived CLI process does not hold a connection open.
type Google struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGoogle creates a new Gemini client.
func NewGoogle(apiKey, model string, timeout time.Duration) *Google {
	return &Google{apiKey: apiKey, model: model, timeout: timeout}
}

// Complete sends a prompt to Gemini.
func (g *Google) Complete(ctx context.Context, prompt string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, errutil.External(err, "create gemini client")
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)

	out, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, errutil.External(err, "gemini request failed", goerr.V("model", g.model))
	}

	resp := &Response{Provider: "google", Model: g.model}
	var b strings.Builder
	if len(out.Candidates) > 0 && out.Candidates[0].Content != nil {
		for _, part := range out.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	resp.Content = b.String()
	if out.UsageMetadata != nil {
		resp.InputTokens = int(out.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(out.UsageMetadata.CandidatesTokenCount)
	}
	if resp.Content == "" {
		return nil, errutil.External(nil, "gemini returned no text", goerr.V("model", g.model))
	}
	return resp, nil
}
