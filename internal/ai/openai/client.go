// Package openai talks to any OpenAI-compatible chat completions endpoint,
// which covers OpenAI itself as well as proxies like OpenRouter.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/skillprobe/skillprobe/internal/ai"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Client wraps a resty HTTP client pointed at a chat completions API.
type Client struct {
	http      *resty.Client
	modelName string

	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	usageMu sync.Mutex
	usage   ai.Usage
}

// NewClient creates a Client for the given endpoint. An empty baseURL means
// the OpenAI API; an empty model falls back to a small default.
func NewClient(baseURL, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(ai.DefaultRequestTimeout)

	return &Client{
		http:       httpClient,
		modelName:  model,
		maxRetries: ai.DefaultMaxRetries,
		baseDelay:  ai.DefaultBaseDelay,
		maxDelay:   ai.DefaultMaxDelay,
	}, nil
}

// GenerateText sends the prompt as a single-turn chat completion and returns
// the model's reply.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.http == nil {
		return "", errors.New("openai client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(ai.Backoff(attempt-1, c.baseDelay, c.maxDelay)):
			case <-ctx.Done():
				return "", fmt.Errorf("context done during retry: %w", ctx.Err())
			}
		}

		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": c.modelName,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	body := resp.String()
	if resp.IsError() {
		message := gjson.Get(body, "error.message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return "", &apiError{status: resp.StatusCode(), message: message}
	}

	c.recordUsage(body)

	text := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if text == "" {
		return "", errors.New("chat completion returned empty response")
	}

	return text, nil
}

func (c *Client) recordUsage(body string) {
	call := ai.Usage{
		Calls:            1,
		PromptTokens:     int(gjson.Get(body, "usage.prompt_tokens").Int()),
		CompletionTokens: int(gjson.Get(body, "usage.completion_tokens").Int()),
	}

	c.usageMu.Lock()
	c.usage = c.usage.Add(call)
	c.usageMu.Unlock()
}

// Usage returns the cumulative token consumption of this client.
func (c *Client) Usage() ai.Usage {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return c.usage
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("chat completion failed with status %d: %s", e.status, e.message)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return ai.RetryableStatus(apiErr.status)
	}

	return ai.IsTransient(err)
}
