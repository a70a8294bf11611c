// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns uploaded documents into the plain text a run works
// on. PDFs go through the markitdown container; text files pass through.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cot-engine/internal/container"
	"github.com/pdiddy/cot-engine/pkg/types"
)

// ErrInput reports a document that could not be turned into text. Callers
// surface it unchanged and do not retry.
var ErrInput = errors.New("invalid input document")

// Document is an uploaded file. Body is read once.
type Document struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Extractor returns the plain text of a document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

const (
	contentTypePDF = "application/pdf"
	extPDF         = ".pdf"
)

// IsPDF reports whether doc is a PDF by content type, falling back to the
// file extension when the content type is missing or generic.
func IsPDF(doc Document) bool {
	switch mediaType(doc.ContentType) {
	case contentTypePDF:
		return true
	case "", "application/octet-stream":
		return strings.EqualFold(filepath.Ext(doc.Name), extPDF)
	}
	return false
}

// IsText reports whether doc is plain text or markdown.
func IsText(doc Document) bool {
	mt := mediaType(doc.ContentType)
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	if mt == "" || mt == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(doc.Name)) {
		case ".txt", ".md", ".markdown":
			return true
		}
	}
	return false
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Dispatcher routes a document to the extractor for its type.
type Dispatcher struct {
	pdf  Extractor
	text Extractor
}

// NewDispatcher routes PDFs to pdf and text files to text. A nil pdf
// extractor rejects PDFs.
func NewDispatcher(pdf, text Extractor) *Dispatcher {
	return &Dispatcher{pdf: pdf, text: text}
}

// New builds the dispatcher for cfg. The markitdown backend detects a
// container runtime and checks the image before returning.
func New(ctx context.Context, cfg types.ExtractionConfig) (*Dispatcher, error) {
	if cfg.Backend == types.ExtractPlainText {
		return NewDispatcher(nil, PlainText{}), nil
	}
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return nil, err
	}
	md, err := NewMarkitdown(ctx, rt, cfg.Image)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(md, PlainText{}), nil
}

// Extract implements Extractor.
func (d *Dispatcher) Extract(ctx context.Context, doc Document) (string, error) {
	switch {
	case IsPDF(doc):
		if d.pdf == nil {
			return "", fmt.Errorf("%w: PDF extraction is not configured", ErrInput)
		}
		return d.pdf.Extract(ctx, doc)
	case IsText(doc):
		return d.text.Extract(ctx, doc)
	}
	return "", fmt.Errorf("%w: unsupported document type %q", ErrInput, doc.ContentType)
}

// PlainText returns a text document's content as is.
type PlainText struct{}

// Extract implements Extractor.
func (PlainText) Extract(_ context.Context, doc Document) (string, error) {
	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrInput, doc.Name, err)
	}
	return nonEmpty(doc.Name, string(data))
}

func nonEmpty(name, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text found in %s", ErrInput, name)
	}
	return text, nil
}
