package llm

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
)

// Anthropic calls the Anthropic Messages API through the official SDK.
type Anthropic struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewAnthropic creates a new Anthropic API client. Extra request options
// (a base URL in tests) are appended after the defaults.
func NewAnthropic(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *Anthropic {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Anthropic{
		client:  anthropic.NewClient(append(base, opts...)...),
		model:   model,
		timeout: timeout,
	}
}

// Complete sends a prompt to the Anthropic API.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   maxOutputTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, errutil.External(err, "anthropic request failed", goerr.V("model", a.model))
	}

	resp := &Response{
		Provider:     "anthropic",
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			resp.Content += block.Text
		}
	}
	return resp, nil
}
