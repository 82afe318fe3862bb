package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		delay := Backoff(attempt, DefaultBaseDelay, DefaultMaxDelay)
		if delay < DefaultBaseDelay {
			t.Errorf("attempt %d: delay %v below base %v", attempt, delay, DefaultBaseDelay)
		}
		// Jitter adds at most 25% on top of the capped delay.
		limit := DefaultMaxDelay + DefaultMaxDelay/4
		if delay > limit {
			t.Errorf("attempt %d: delay %v above limit %v", attempt, delay, limit)
		}
	}

	early := Backoff(0, DefaultBaseDelay, DefaultMaxDelay)
	if early > DefaultBaseDelay+DefaultBaseDelay/4 {
		t.Errorf("first retry delay %v unexpectedly large", early)
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !RetryableStatus(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if RetryableStatus(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"timeout message", errors.New("dial tcp: i/o timeout"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"bad request", errors.New("invalid request payload"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsTransient(c.err); got != c.want {
				t.Errorf("IsTransient(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}

func TestUsageAddDelta(t *testing.T) {
	var total Usage
	total = total.Add(Usage{Calls: 1, PromptTokens: 100, CompletionTokens: 40})
	total = total.Add(Usage{Calls: 1, PromptTokens: 80, CompletionTokens: 60})

	if total.Calls != 2 || total.PromptTokens != 180 || total.CompletionTokens != 100 {
		t.Fatalf("unexpected total: %+v", total)
	}
	if total.TotalTokens() != 280 {
		t.Errorf("TotalTokens = %d, want 280", total.TotalTokens())
	}

	snapshot := Usage{Calls: 1, PromptTokens: 100, CompletionTokens: 40}
	delta := total.Delta(snapshot)
	if delta.Calls != 1 || delta.PromptTokens != 80 || delta.CompletionTokens != 60 {
		t.Errorf("unexpected delta: %+v", delta)
	}
}

// Jitter is random; repeated calls must never produce a negative sleep.
func TestBackoffPositive(t *testing.T) {
	for i := 0; i < 100; i++ {
		if d := Backoff(1, DefaultBaseDelay, DefaultMaxDelay); d <= 0 {
			t.Fatalf("non-positive backoff: %v", d)
		}
	}
}
