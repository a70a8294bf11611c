// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cot-engine/internal/extract"
	"github.com/pdiddy/cot-engine/internal/pipeline"
	"github.com/pdiddy/cot-engine/internal/report"
	"github.com/pdiddy/cot-engine/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Generate questions and chain-of-thought answers for a document",
	Long: `Process extracts the text of a document (PDF through the markitdown
container, text and markdown files as they are), generates questions about
it and answers each one through the chain-of-thought, reflection and final
answer stages.

Use "-" to read plain text from stdin. Results go to stdout, or to the file
named by --output, in JSON, YAML or text.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.Int("max-questions", 0, "number of questions to generate (default 5)")
	f.Int("concurrency", 0, "questions processed in parallel (default 2)")
	f.Int("max-context", 0, "truncate the document to this many characters (default 2000)")
	f.Duration("stage-timeout", 0, "timeout for each generation stage (default none)")
	f.String("failure-policy", "", "abort or continue when a question fails (default abort)")
	f.String("format", "json", "output format: json, yaml or text")
	f.StringP("output", "o", "", "write results to this file instead of stdout")
	f.Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	text, err := readDocument(ctx, args[0])
	if err != nil {
		return err
	}

	_, gen := newGenerator()
	observers := pipeline.Observers{pipeline.NewLogObserver(log)}
	if !noProgress {
		observers = append(observers, newProgressObserver(os.Stderr))
	}
	p, err := pipeline.New(gen, cfg.Pipeline,
		pipeline.WithModel(cfg.Backend.Model),
		pipeline.WithLogger(log),
		pipeline.WithObserver(observers),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	rs, err := p.Run(ctx, text, cfg.Pipeline.MaxQuestions)
	if err != nil {
		return err
	}
	return writeResults(rs, format, output)
}

// readDocument returns the text of path. Text files and stdin are read
// directly; anything else goes through the configured extractor.
func readDocument(ctx context.Context, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return extract.PlainText{}.Extract(ctx, extract.Document{Name: "stdin", Body: bytes.NewReader(data)})
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc := extract.Document{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Body:        f,
	}
	if extract.IsText(doc) {
		return extract.PlainText{}.Extract(ctx, doc)
	}

	ext, err := extract.New(ctx, cfg.Extraction)
	if err != nil {
		return "", err
	}
	return ext.Extract(ctx, doc)
}

func writeResults(rs types.ResultSet, format report.Format, output string) error {
	if output == "" {
		return report.Write(os.Stdout, rs, format)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := report.Write(f, rs, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(rs), output)
	return nil
}
