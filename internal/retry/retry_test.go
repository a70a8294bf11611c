// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cot-engine/internal/generate"
)

type failNTimes struct {
	failures int
	err      error
	calls    int
}

func (f *failNTimes) Generate(context.Context, string, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "ok", nil
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		err        error
		wantErr    bool
		wantCalls  int
	}{
		{"succeeds first try", 0, 3, generate.ErrBackendUnavailable, false, 1},
		{"succeeds after 2 failures", 2, 3, generate.ErrBackendUnavailable, false, 3},
		{"succeeds on last retry", 3, 3, generate.ErrMalformedChunk, false, 4},
		{"fails after exhausting retries", 4, 3, generate.ErrBackendUnavailable, true, 4},
		{"other errors are not retried", 1, 3, errors.New("bad request"), true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &failNTimes{failures: tt.failures, err: tt.err}
			gen := Wrap(backend, tt.maxRetries, time.Millisecond, nil)

			text, err := gen.Generate(context.Background(), "m", "p")
			assert.Equal(t, tt.wantCalls, backend.calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", text)
		})
	}
}

func TestGenerate_ExhaustedMessage(t *testing.T) {
	gen := Wrap(&failNTimes{failures: 10, err: generate.ErrBackendUnavailable}, 2, time.Millisecond, nil)

	_, err := gen.Generate(context.Background(), "m", "p")
	assert.EqualError(t, err, "after 2 retries: generation backend unavailable")
	assert.True(t, generate.IsBackendFailure(err))
}

func TestWrap_ZeroRetriesIsIdentity(t *testing.T) {
	backend := &failNTimes{}
	assert.Same(t, backend, Wrap(backend, 0, time.Second, nil))
}

func TestGenerate_CancelledDuringBackoff(t *testing.T) {
	backend := &failNTimes{failures: 10, err: generate.ErrBackendUnavailable}
	gen := Wrap(backend, 5, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gen.Generate(ctx, "m", "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, backend.calls)
}
