// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package question generates the question set for a context and parses the
// backend's free-form answer into indexed questions.
package question

import (
	"context"
	"regexp"
	"strings"

	"github.com/pdiddy/cot-engine/internal/prompt"
	"github.com/pdiddy/cot-engine/pkg/types"
)

// Backend produces text for a prompt.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Generator turns a context into questions.
type Generator struct {
	backend Backend
	model   string
}

// New creates a Generator. An empty model defers to the backend's default.
func New(backend Backend, model string) *Generator {
	return &Generator{backend: backend, model: model}
}

// Generate asks the backend for maxQuestions questions about text and
// parses the answer. The count is not enforced: whatever non-empty lines the
// backend returns become questions. An empty answer yields no questions and
// no error.
func (g *Generator) Generate(ctx context.Context, text string, maxQuestions int) ([]types.Question, error) {
	answer, err := g.backend.Generate(ctx, g.model, prompt.Questions(text, maxQuestions))
	if err != nil {
		return nil, err
	}
	return Parse(answer), nil
}

// markerPattern matches leading list markers: dashes, asterisks, bullets
// and numbering such as "1." "2)" or "(3)", in any combination.
var markerPattern = regexp.MustCompile(`^(?:[-*•]+\s*|\(?\d+[.)](?:\s+|$))+`)

// Parse splits text into lines, strips list markers and surrounding
// whitespace, drops empty lines and numbers the rest from 0.
func Parse(text string) []types.Question {
	var questions []types.Question
	for _, line := range strings.Split(text, "\n") {
		q := strings.TrimSpace(markerPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if q == "" {
			continue
		}
		questions = append(questions, types.Question{Index: len(questions), Text: q})
	}
	return questions
}
