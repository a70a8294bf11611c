// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP.
//
//	POST /process-pdf   multipart upload (field pdf_file), ?max_questions=N
//	POST /v1/process    JSON {"context": "...", "max_questions": N}
//	GET  /healthz       backend reachability
//
// Successful runs answer with the JSON array of records in question order.
// Errors answer with {"detail": "..."}.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/cot-engine/internal/extract"
	"github.com/pdiddy/cot-engine/internal/generate"
	"github.com/pdiddy/cot-engine/pkg/types"
)

const (
	// MaxQuestionsLimit is the largest question count a request may ask for.
	MaxQuestionsLimit = 20

	formFieldPDF       = "pdf_file"
	msgInvalidFileType = "Invalid file type. Please upload a PDF file."
)

// Runner runs the pipeline over a context.
type Runner interface {
	Run(ctx context.Context, rawContext string, maxQuestions int) (types.ResultSet, error)
}

// Pinger checks that the generation backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP surface of the pipeline.
type Server struct {
	cfg          types.ServerConfig
	runner       Runner
	extractor    extract.Extractor
	pinger       Pinger
	maxQuestions int
	engine       *gin.Engine
	log          *zap.SugaredLogger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithDefaultQuestions sets the question count used when a request names
// none.
func WithDefaultQuestions(n int) Option {
	return func(s *Server) { s.maxQuestions = n }
}

// New builds the server and its routes. A nil pinger makes /healthz always
// report ok.
func New(cfg types.ServerConfig, runner Runner, extractor extract.Extractor, pinger Pinger, opts ...Option) *Server {
	s := &Server{
		cfg:          cfg,
		runner:       runner,
		extractor:    extractor,
		pinger:       pinger,
		maxQuestions: 5,
		log:          zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	if cfg.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	engine.POST("/process-pdf", s.handleProcessPDF)
	engine.POST("/v1/process", s.handleProcess)
	engine.GET("/healthz", s.handleHealth)
	s.engine = engine
	return s
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleProcessPDF(c *gin.Context) {
	n, err := s.questionCount(c.Query("max_questions"))
	if err != nil {
		s.fail(c, err)
		return
	}

	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}
	fh, err := c.FormFile(formFieldPDF)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, detail(fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes)))
			return
		}
		s.fail(c, fmt.Errorf("%w: missing form file %q", extract.ErrInput, formFieldPDF))
		return
	}
	doc := extract.Document{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
	if !extract.IsPDF(doc) {
		c.JSON(http.StatusBadRequest, detail(msgInvalidFileType))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("%w: opening upload: %v", extract.ErrInput, err))
		return
	}
	defer f.Close()
	doc.Body = f

	ctx, cancel := s.requestContext(c)
	defer cancel()

	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.run(ctx, c, text, n)
}

type processRequest struct {
	Context      string `json:"context" binding:"required"`
	MaxQuestions int    `json:"max_questions" binding:"omitempty,min=1,max=20"`
}

func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", extract.ErrInput, err))
		return
	}
	n := req.MaxQuestions
	if n == 0 {
		n = s.maxQuestions
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	s.run(ctx, c, req.Context, n)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) run(ctx context.Context, c *gin.Context, text string, n int) {
	rs, err := s.runner.Run(ctx, text, n)
	if err != nil {
		s.fail(c, err)
		return
	}
	if rs == nil {
		rs = types.ResultSet{}
	}
	c.JSON(http.StatusOK, rs)
}

// questionCount parses the max_questions query value. Empty means the
// configured default.
func (s *Server) questionCount(raw string) (int, error) {
	if raw == "" {
		return s.maxQuestions, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxQuestionsLimit {
		return 0, fmt.Errorf("%w: max_questions must be an integer between 1 and %d", extract.ErrInput, MaxQuestionsLimit)
	}
	return n, nil
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, detail(err.Error()))
}

// StatusFor maps an error to the HTTP status reported to the caller.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case generate.IsBackendFailure(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func detail(msg string) gin.H {
	return gin.H{"detail": msg}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
