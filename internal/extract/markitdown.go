// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdiddy/cot-engine/internal/container"
)

// DefaultImage is the markitdown image used when none is configured.
const DefaultImage = "markitdown:latest"

// Markitdown extracts text by piping documents through the markitdown
// container image. The document never touches the local filesystem.
type Markitdown struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdown creates an extractor that runs image on rt. It verifies that
// the image exists locally before returning.
func NewMarkitdown(ctx context.Context, rt container.Runtime, image string) (*Markitdown, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &Markitdown{runtime: rt, image: image}, nil
}

// Extract implements Extractor. A container failure or empty output is
// ErrInput; cancellation returns the context error.
func (m *Markitdown) Extract(ctx context.Context, doc Document) (string, error) {
	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, doc.Body, &out); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: converting %s with markitdown: %v", ErrInput, doc.Name, err)
	}
	return nonEmpty(doc.Name, out.String())
}
