package gemini

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/skillprobe/skillprobe/internal/ai"
)

const (
	defaultModel = "gemini-2.5-pro"

	contextCacheTTL = time.Hour
)

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	client    *genai.Client
	modelName string

	maxRetries     int
	baseDelay      time.Duration
	maxDelay       time.Duration
	requestTimeout time.Duration

	usageMu sync.Mutex
	usage   ai.Usage

	cacheMu      sync.RWMutex
	contextCache map[string]cachedContext
}

type cachedContext struct {
	name string
	hash string
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		client:         client,
		modelName:      model,
		maxRetries:     ai.DefaultMaxRetries,
		baseDelay:      ai.DefaultBaseDelay,
		maxDelay:       ai.DefaultMaxDelay,
		requestTimeout: ai.DefaultRequestTimeout,
	}, nil
}

// GenerateText sends the prompt to Gemini and returns the first textual response.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generateText(ctx, prompt, nil)
}

// GenerateTextWithCache sends the prompt to Gemini and reuses the provided cached content.
func (g *Generator) GenerateTextWithCache(ctx context.Context, prompt, cacheName string) (string, error) {
	cacheName = strings.TrimSpace(cacheName)
	if cacheName == "" {
		return g.generateText(ctx, prompt, nil)
	}

	cfg := &genai.GenerateContentConfig{CachedContent: cacheName}
	return g.generateText(ctx, prompt, cfg)
}

// EnsureContextCache stores a static prompt prefix, such as the assessment
// and company context reused across scoring calls, in a Gemini cached
// content resource. Re-uploading is skipped while the payload hash matches.
func (g *Generator) EnsureContextCache(ctx context.Context, key, displayName, payload string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("cache key is required")
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", errors.New("cache payload must not be empty")
	}

	hashBytes := sha256.Sum256([]byte(payload))
	hash := fmt.Sprintf("%x", hashBytes[:])

	g.cacheMu.RLock()
	if existing, ok := g.contextCache[key]; ok && existing.hash == hash {
		g.cacheMu.RUnlock()
		if strings.TrimSpace(existing.name) != "" {
			return existing.name, nil
		}
	} else {
		g.cacheMu.RUnlock()
	}

	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()

	if g.contextCache == nil {
		g.contextCache = make(map[string]cachedContext)
	}

	if existing, ok := g.contextCache[key]; ok && existing.hash == hash && strings.TrimSpace(existing.name) != "" {
		return existing.name, nil
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = fmt.Sprintf("context-%s", key)
	}

	cfg := &genai.CreateCachedContentConfig{
		DisplayName: displayName,
		TTL:         contextCacheTTL,
		Contents: []*genai.Content{{
			Role: genai.RoleUser,
			Parts: []*genai.Part{{
				Text: payload,
			}},
		}},
	}

	cached, err := g.client.Caches.Create(ctx, g.modelName, cfg)
	if err != nil {
		return "", fmt.Errorf("create context cache: %w", err)
	}

	name := strings.TrimSpace(cached.Name)
	if name == "" {
		return "", errors.New("gemini api returned empty cache name")
	}

	g.contextCache[key] = cachedContext{name: name, hash: hash}

	return name, nil
}

func (g *Generator) generateText(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, g.requestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(ai.Backoff(attempt-1, g.baseDelay, g.maxDelay)):
			case <-timeoutCtx.Done():
				return "", fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		text, err := g.generateOnce(timeoutCtx, prompt, config)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("generate content failed after %d attempts: %w", g.maxRetries+1, lastErr)
}

func (g *Generator) generateOnce(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	g.recordUsage(resp)

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) recordUsage(resp *genai.GenerateContentResponse) {
	call := ai.Usage{Calls: 1}
	if resp != nil && resp.UsageMetadata != nil {
		call.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		call.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	g.usageMu.Lock()
	g.usage = g.usage.Add(call)
	g.usageMu.Unlock()
}

// Usage returns the cumulative token consumption of this generator.
func (g *Generator) Usage() ai.Usage {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	return g.usage
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.RetryableStatus(apiErr.Code)
	}

	return ai.IsTransient(err)
}
