// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt builds the four prompts of a run. Every builder is a pure
// function of its arguments.
package prompt

import (
	"strings"
	"text/template"
)

var questionsTmpl = template.Must(template.New("questions").Parse(`You are an AI assistant that generates insightful questions from a text.

Text:
"""
{{.Context}}
"""

Generate {{.Count}} questions that cover the key points of the text.

Questions:`))

var chainOfThoughtTmpl = template.Must(template.New("cot").Parse(`You are a knowledgeable assistant.

Please follow these steps:

1. Read the question carefully.
2. Recall relevant information from the context.
3. Explain your reasoning step-by-step.
4. Provide a clear and concise answer at the end.

Context:
{{.Context}}

Question:
{{.Question}}

Chain-of-thought reasoning:`))

var reflectionTmpl = template.Must(template.New("reflection").Parse(`You are a meticulous reviewer.

Please follow these steps:

1. Review the initial chain-of-thought reasoning for accuracy and completeness.
2. Identify any errors, omissions, or areas for improvement.
3. Provide a corrected and improved chain-of-thought reasoning.
4. Ensure the final answer is clear and accurate.

Context:
{{.Context}}

Question:
{{.Question}}

Initial chain-of-thought reasoning:
{{.ChainOfThought}}

Reflection:`))

// The final-answer prompt sees the reflection only.
var finalAnswerTmpl = template.Must(template.New("final").Parse(`Based on the reflection below, provide the final, refined answer.

Reflection:
{{.Reflection}}

Answer:`))

type fields struct {
	Context        string
	Count          int
	Question       string
	ChainOfThought string
	Reflection     string
}

// Questions asks for count questions covering the key points of context.
func Questions(context string, count int) string {
	return render(questionsTmpl, fields{Context: context, Count: count})
}

// ChainOfThought asks for step-by-step reasoning about question that ends
// in a concise answer.
func ChainOfThought(context, question string) string {
	return render(chainOfThoughtTmpl, fields{Context: context, Question: question})
}

// Reflection asks for a review of cot that corrects errors and omissions.
func Reflection(context, question, cot string) string {
	return render(reflectionTmpl, fields{Context: context, Question: question, ChainOfThought: cot})
}

// FinalAnswer asks for the single refined answer contained in reflection.
func FinalAnswer(reflection string) string {
	return render(finalAnswerTmpl, fields{Reflection: reflection})
}

// render executes a package template. The templates only reference fields
// of the fields struct and text/template does no escaping, so execution
// cannot fail at run time; a failure is a programming error.
func render(t *template.Template, f fields) string {
	var b strings.Builder
	if err := t.Execute(&b, f); err != nil {
		panic("prompt: executing " + t.Name() + ": " + err.Error())
	}
	return b.String()
}
