// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate implements the streaming client for the text-generation
// backend. A call posts {model, prompt} to /api/generate and assembles the
// newline-delimited response records until the completion record arrives.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/cot-engine/pkg/types"
)

const (
	// DefaultBaseURL is where a locally hosted backend listens.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama2:13b-chat"

	generatePath = "/api/generate"
)

// Client calls the generation backend. It holds the base URL and model for
// its whole lifetime and is safe for concurrent use.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (tests use the httptest client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client from cfg. Empty fields fall back to
// DefaultBaseURL and DefaultModel.
func NewClient(cfg types.BackendConfig, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	c := &Client{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Transport: newTransport(cfg.ConnectTimeout)},
		log:     zap.NewNop().Sugar(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newTransport bounds dialing only. A generation stream may legitimately run
// for minutes, so there is no overall client timeout.
func newTransport(connectTimeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if connectTimeout > 0 {
		t.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	}
	return t
}

// Model returns the model used when Generate is called without one.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate sends prompt to the backend and returns the assembled response,
// trimmed of surrounding whitespace. An empty model selects the client's
// model. Fragments are concatenated in arrival order; reading stops at the
// first record whose done flag is true, and that record's fragment and
// everything after it are discarded.
//
// Errors wrap ErrBackendUnavailable (connection failure, non-200 status,
// error record, stream ended before completion) or ErrMalformedChunk. A
// cancelled or expired ctx is returned as the context error. Generate never
// retries.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.model
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	body, err := sonic.ConfigStd.Marshal(types.GenerationRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + generatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: calling %s: %w", ErrBackendUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: %s returned %d: %s", ErrBackendUnavailable, url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	text, chunks, err := accumulate(NewChunkReader(resp.Body))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrMalformedChunk) {
			return "", ctxErr
		}
		return "", err
	}

	c.log.Debugw("generation finished",
		"model", model,
		"chunks", chunks,
		"chars", len(text),
		"elapsed", time.Since(start),
	)
	return text, nil
}

// accumulate drains r up to the completion record and returns the trimmed
// text and the number of records consumed.
func accumulate(r *ChunkReader) (string, int, error) {
	var b strings.Builder
	n := 0
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			return "", n, fmt.Errorf("%w: stream closed before completion after %d records", ErrBackendUnavailable, n)
		}
		if err != nil {
			return "", n, err
		}
		n++
		if chunk.Error != "" {
			return "", n, fmt.Errorf("%w: backend error: %s", ErrBackendUnavailable, chunk.Error)
		}
		if chunk.Done {
			return strings.TrimSpace(b.String()), n, nil
		}
		b.WriteString(chunk.Response)
	}
}
