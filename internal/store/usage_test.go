package store

import (
	"math"
	"testing"
)

func TestCostUSD(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		model      string
		prompt     int
		completion int
		expected   float64
	}{
		{"gemini pro", "gemini-2.5-pro", 1_000_000, 1_000_000, 11.25},
		{"gpt-4o-mini", "gpt-4o-mini", 2_000_000, 500_000, 0.60},
		{"case and whitespace", " Gemini-2.5-Flash ", 1_000_000, 0, 0.30},
		{"unknown model", "some-local-model", 1_000_000, 1_000_000, 0},
		{"zero tokens", "gpt-4o", 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := CostUSD(tc.model, tc.prompt, tc.completion)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("expected %.4f, got %.4f", tc.expected, got)
			}
		})
	}
}
