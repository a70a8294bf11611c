// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

const tagsPath = "/api/tags"

// ListModels returns the names of the models installed on the backend,
// sorted.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	url := c.baseURL + tagsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: calling %s: %w", ErrBackendUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrBackendUnavailable, url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", tagsPath, err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names, nil
}

// Ping checks that the backend answers and that the configured model is
// installed. Model names match with or without the ":latest" tag.
func (c *Client) Ping(ctx context.Context) error {
	names, err := c.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if SameModel(n, c.model) {
			return nil
		}
	}
	return fmt.Errorf("model %q not installed on %s", c.model, c.baseURL)
}

// SameModel reports whether two model names are equal, ignoring a ":latest" tag.
func SameModel(a, b string) bool {
	return strings.TrimSuffix(a, ":latest") == strings.TrimSuffix(b, ":latest")
}
