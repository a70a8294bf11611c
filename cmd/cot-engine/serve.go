// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/cot-engine/internal/extract"
	"github.com/pdiddy/cot-engine/internal/pipeline"
	"github.com/pdiddy/cot-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Long: `Serve exposes the pipeline over HTTP:

  POST /process-pdf   multipart upload (field pdf_file), ?max_questions=N (1-20)
  POST /v1/process    JSON body {"context": "...", "max_questions": N}
  GET  /healthz       checks that the backend has the model installed

All questions of all requests share one worker pool of --concurrency.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gin.SetMode(gin.ReleaseMode)

		ext, err := extract.New(ctx, cfg.Extraction)
		if err != nil {
			return err
		}

		client, gen := newGenerator()
		p, err := pipeline.New(gen, cfg.Pipeline,
			pipeline.WithModel(cfg.Backend.Model),
			pipeline.WithLogger(log),
		)
		if err != nil {
			return err
		}
		defer p.Close()

		srv := server.New(cfg.Server, p, ext, client,
			server.WithLogger(log),
			server.WithDefaultQuestions(cfg.Pipeline.MaxQuestions),
		)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().Int("concurrency", 0, "questions processed in parallel across requests (default 2)")
	serveCmd.Flags().String("extractor", "", "document extractor: markitdown or plaintext")

	rootCmd.AddCommand(serveCmd)
}
