// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry wraps a generator with exponential backoff on backend
// failures. The generation client itself never retries; this is the
// caller-side policy, off unless MaxRetries is set.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/cot-engine/internal/generate"
)

// DefaultBaseDelay is the first backoff when none is configured.
const DefaultBaseDelay = time.Second

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Retrying retries failed calls of the wrapped generator.
type Retrying struct {
	next       Generator
	maxRetries int
	baseDelay  time.Duration
	log        *zap.SugaredLogger
}

// Wrap returns next wrapped with up to maxRetries retries. The delay starts
// at baseDelay and doubles each attempt. With maxRetries of zero next is
// returned unchanged.
func Wrap(next Generator, maxRetries int, baseDelay time.Duration, log *zap.SugaredLogger) Generator {
	if maxRetries <= 0 {
		return next
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Retrying{next: next, maxRetries: maxRetries, baseDelay: baseDelay, log: log}
}

// Generate calls the wrapped generator, retrying only backend failures.
// Other errors and context cancellation return at once. If the context ends
// during a backoff wait Generate returns ctx.Err().
func (r *Retrying) Generate(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * r.baseDelay
			r.log.Warnw("backend failure, retrying",
				"attempt", attempt,
				"max_retries", r.maxRetries,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := r.next.Generate(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		if !generate.IsBackendFailure(err) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}
