// Package openrouter implements a chat-completion client for the OpenRouter
// API. The client rate-limits itself, trims oversized prompts, retries with
// exponential backoff, and falls back to a second model when the primary
// model keeps failing.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/demoplan/demoplan/internal/logging"
)

const (
	// DefaultModel is the primary completion model.
	DefaultModel = "anthropic/claude-3-opus-20240229"

	// DefaultFallbackModel is tried when the primary model keeps failing.
	DefaultFallbackModel = "openai/gpt-4-turbo"

	// DefaultMaxInputTokens caps the estimated size of a single request.
	DefaultMaxInputTokens = 16000

	// DefaultRateLimit and DefaultRatePeriod bound the request rate to
	// DefaultRateLimit requests per DefaultRatePeriod.
	DefaultRateLimit  = 10
	DefaultRatePeriod = 60 * time.Second

	defaultBaseURL = "https://openrouter.ai/api/v1"
	requestTimeout = 60 * time.Second
	maxAttempts    = 3

	truncationMarker = "\n\n[Content truncated due to token limits]"
)

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("openrouter: api key not set")

// Options configure a Client. Zero values fall back to the package defaults.
type Options struct {
	APIKey         string
	Model          string
	FallbackModel  string
	MaxInputTokens int
	RateLimit      int
	RatePeriod     time.Duration
	BaseURL        string
	HTTPClient     *http.Client
}

// Client talks to the OpenRouter chat completions endpoint.
type Client struct {
	apiKey         string
	model          string
	fallbackModel  string
	maxInputTokens int
	rateLimit      int
	ratePeriod     time.Duration
	baseURL        string
	httpClient     *http.Client
	retryDelay     time.Duration

	mu         sync.Mutex
	timestamps []time.Time
}

// NewClient creates a Client from opts. The API key is required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:         opts.APIKey,
		model:          opts.Model,
		fallbackModel:  opts.FallbackModel,
		maxInputTokens: opts.MaxInputTokens,
		rateLimit:      opts.RateLimit,
		ratePeriod:     opts.RatePeriod,
		baseURL:        opts.BaseURL,
		httpClient:     opts.HTTPClient,
		retryDelay:     time.Second,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.fallbackModel == "" {
		c.fallbackModel = DefaultFallbackModel
	}
	if c.maxInputTokens == 0 {
		c.maxInputTokens = DefaultMaxInputTokens
	}
	if c.rateLimit == 0 {
		c.rateLimit = DefaultRateLimit
	}
	if c.ratePeriod == 0 {
		c.ratePeriod = DefaultRatePeriod
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: requestTimeout}
	}
	return c, nil
}

// Model returns the primary model the client sends requests to.
func (c *Client) Model() string {
	return c.model
}

// Generate sends a completion request and returns the response text. The
// prompt is truncated when the estimated token count of prompt plus system
// would exceed the configured input limit. If all attempts against the
// primary model fail, the request is retried against the fallback model.
func (c *Client) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if budget := c.maxInputTokens; budget > 0 {
		total := estimateTokens(prompt) + estimateTokens(system)
		if total > budget {
			prompt = truncatePrompt(prompt, budget-estimateTokens(system)-100)
			logging.Warn("prompt truncated to fit token limit",
				"estimated_tokens", total, "limit", budget)
		}
	}

	text, err := c.complete(ctx, c.model, system, prompt, maxTokens)
	if err == nil {
		return text, nil
	}
	if c.fallbackModel == "" || c.fallbackModel == c.model {
		return "", err
	}

	logging.Warn("primary model failed, trying fallback",
		"model", c.model, "fallback", c.fallbackModel, "error", err)
	return c.complete(ctx, c.fallbackModel, system, prompt, maxTokens)
}

// complete runs the retry loop for a single model.
func (c *Client) complete(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// 2^(attempt-1) units between attempts.
			delay := c.retryDelay << (attempt - 1)
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
		}
		if err := c.waitForSlot(ctx); err != nil {
			return "", err
		}

		logging.Debug("sending completion request",
			"model", model, "attempt", attempt+1, "max_tokens", maxTokens)
		text, err := c.post(ctx, model, system, prompt, maxTokens)
		if err != nil {
			lastErr = err
			logging.Error("completion request failed",
				"model", model, "attempt", attempt+1, "error", err)
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("openrouter: model %s failed after %d attempts: %w", model, maxAttempts, lastErr)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// post sends one request and parses the first choice out of the response.
func (c *Client) post(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting completion request: %w", err)
	}
	defer resp.Body.Close()
	c.recordRequest()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter api status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// waitForSlot blocks until the sliding-window rate limit admits a request.
func (c *Client) waitForSlot(ctx context.Context) error {
	for {
		c.mu.Lock()
		now := time.Now()
		fresh := c.timestamps[:0]
		for _, ts := range c.timestamps {
			if now.Sub(ts) < c.ratePeriod {
				fresh = append(fresh, ts)
			}
		}
		c.timestamps = fresh

		if c.rateLimit <= 0 || len(c.timestamps) < c.rateLimit {
			c.mu.Unlock()
			return nil
		}
		// Timestamps are appended in order, so the first is the oldest.
		wait := c.ratePeriod - now.Sub(c.timestamps[0])
		c.mu.Unlock()

		if wait <= 0 {
			continue
		}
		logging.Debug("rate limit reached, waiting", "wait", wait.String())
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *Client) recordRequest() {
	c.mu.Lock()
	c.timestamps = append(c.timestamps, time.Now())
	c.mu.Unlock()
}

// estimateTokens approximates the token count as one token per four bytes.
func estimateTokens(text string) int {
	return len(text) / 4
}

// truncatePrompt cuts prompt down to roughly maxTokens tokens and appends a
// marker so the model knows content is missing.
func truncatePrompt(prompt string, maxTokens int) string {
	if maxTokens < 0 {
		maxTokens = 0
	}
	maxChars := maxTokens * 4
	if len(prompt) <= maxChars {
		return prompt
	}
	return prompt[:maxChars] + truncationMarker
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
