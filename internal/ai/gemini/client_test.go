package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"
)

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", "gemini-2.5-pro"); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestGenerateTextRejectsUninitializedClient(t *testing.T) {
	g := &Generator{}
	if _, err := g.GenerateText(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for uninitialized generator")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, true},
		{"server error", genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, true},
		{"wrapped server error", fmt.Errorf("generate content: %w", genai.APIError{Code: http.StatusServiceUnavailable}), true},
		{"bad request", genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}, false},
		{"unauthorized", genai.APIError{Code: http.StatusUnauthorized}, false},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"plain failure", errors.New("model exploded"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isRetryable(c.err); got != c.want {
				t.Errorf("isRetryable(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}

func TestRecordUsageAccumulates(t *testing.T) {
	g := &Generator{}

	g.recordUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 30,
		},
	})
	g.recordUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     80,
			CandidatesTokenCount: 20,
		},
	})
	// A response without metadata still counts as a call.
	g.recordUsage(&genai.GenerateContentResponse{})

	usage := g.Usage()
	if usage.Calls != 3 {
		t.Errorf("calls = %d, want 3", usage.Calls)
	}
	if usage.PromptTokens != 200 || usage.CompletionTokens != 50 {
		t.Errorf("unexpected token tally: %+v", usage)
	}
}

func TestModelReporting(t *testing.T) {
	g := &Generator{modelName: "gemini-2.5-flash"}
	if g.Model() != "gemini-2.5-flash" {
		t.Errorf("unexpected model: %q", g.Model())
	}

	var nilGen *Generator
	if nilGen.Model() != "" {
		t.Error("nil generator should report empty model")
	}
}
