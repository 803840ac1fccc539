// Package claude sends completion requests straight to the Anthropic API,
// for installs that hold an Anthropic key rather than an OpenRouter one.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/demoplan/demoplan/internal/logging"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "claude-3-opus-20240229"

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("claude: api key not set")

// Client wraps the Anthropic SDK.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Client. The API key is required; model falls back to
// DefaultModel when empty.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	m := anthropic.Model(DefaultModel)
	if model != "" {
		m = anthropic.Model(model)
	}
	return &Client{
		inner: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: m,
	}, nil
}

// Model returns the model requests are sent to.
func (c *Client) Model() string {
	return string(c.model)
}

// Generate sends one completion request and returns the concatenated text
// blocks of the response.
func (c *Client) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	logging.Debug("sending completion request", "model", string(c.model), "max_tokens", maxTokens)
	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
