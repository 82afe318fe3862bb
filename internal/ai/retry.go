package ai

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// Default retry policy for the provider clients. One initial attempt plus
// MaxRetries retries, exponential backoff with jitter between them.
const (
	DefaultMaxRetries     = 2
	DefaultBaseDelay      = 2 * time.Second
	DefaultMaxDelay       = 30 * time.Second
	DefaultRequestTimeout = 90 * time.Second
)

// Backoff returns the delay before the given retry attempt, doubling from
// base up to limit. Jitter keeps concurrent scoring workers from retrying in
// lockstep.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	delay := base * time.Duration(1<<attempt)
	if delay > limit {
		delay = limit
	}
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.25)
	return delay + jitter
}

// RetryableStatus reports whether an HTTP status code signals a transient
// failure worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsTransient reports whether an error looks like a transport hiccup rather
// than a permanent failure. Context cancellation is never transient: the
// caller gave up on purpose.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "temporarily unavailable") ||
		strings.Contains(msg, "eof")
}
