// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a ResultSet as JSON, YAML or readable text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cot-engine/pkg/types"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts json, yaml (or yml) and text, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, yaml or text)", s)
}

// Write renders rs to w in format f. An empty ResultSet renders as an empty
// JSON array, an empty YAML sequence, or a short notice in text.
func Write(w io.Writer, rs types.ResultSet, f Format) error {
	if rs == nil {
		rs = types.ResultSet{}
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, rs)
	case FormatYAML:
		return writeYAML(w, rs)
	case FormatText:
		return writeText(w, rs)
	}
	return fmt.Errorf("unknown output format %q", f)
}

func writeJSON(w io.Writer, rs types.ResultSet) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, rs types.ResultSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
)

func writeText(w io.Writer, rs types.ResultSet) error {
	if len(rs) == 0 {
		_, err := fmt.Fprintln(w, "No questions were generated.")
		return err
	}

	var b strings.Builder
	for i, r := range rs {
		if i > 0 {
			b.WriteString("\n")
		}
		heading.Fprintf(&b, "Question %d: %s\n", i+1, r.Question)
		if r.Failed() {
			failure.Fprintf(&b, "  Error: %s\n", r.Error)
		}
		section(&b, "Chain of Thought", r.ChainOfThought)
		section(&b, "Reflection", r.Reflection)
		section(&b, "Final Answer", r.FinalAnswer)
	}
	fmt.Fprintf(&b, "\n%d questions", len(rs))
	if n := rs.Failures(); n > 0 {
		fmt.Fprintf(&b, ", %d failed", n)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, name, text string) {
	if text == "" {
		return
	}
	label.Fprintf(b, "  %s:\n", name)
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
