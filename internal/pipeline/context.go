// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "unicode/utf8"

// DefaultMaxContextLength is the truncation length used when none is set.
const DefaultMaxContextLength = 2000

// Context is the source text of a run. Text is what every prompt sees; it is
// fixed once the Context is built and shared read-only by all questions.
type Context struct {
	Raw       string
	Text      string
	Truncated bool
}

// NewContext cuts raw to at most maxChars characters.
func NewContext(raw string, maxChars int) Context {
	text := Truncate(raw, maxChars)
	return Context{Raw: raw, Text: text, Truncated: len(text) < len(raw)}
}

// Truncate returns the first maxChars characters (runes) of s. It is a plain
// prefix cut with no word or sentence awareness; it never splits a UTF-8
// sequence. A non-positive maxChars leaves s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
