// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the question, chain-of-thought, reflection and
// final-answer stages over a context and collects the records in question
// order.
//
// Questions are independent of each other and run on a bounded worker pool.
// The three answer stages of one question always run in sequence, each built
// only from the outputs of the stages before it.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/cot-engine/internal/prompt"
	"github.com/pdiddy/cot-engine/internal/question"
	"github.com/pdiddy/cot-engine/pkg/types"
)

// Generator produces text for a prompt. *generate.Client and the retry
// wrapper satisfy it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Pipeline orchestrates runs against one generator. It is safe for
// concurrent use; concurrent runs share the worker pool, so Concurrency
// bounds the total number of questions in flight against the backend.
type Pipeline struct {
	gen       Generator
	questions *question.Generator
	model     string
	cfg       types.PipelineConfig
	pool      *ants.Pool
	log       *zap.SugaredLogger
	observer  Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for pool diagnostics and the default
// observer.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithObserver replaces the default logging observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithModel sets the model sent with every generation call. Empty defers to
// the generator's default.
func WithModel(model string) Option {
	return func(p *Pipeline) { p.model = model }
}

// New creates a Pipeline. A zero MaxContextLength means
// DefaultMaxContextLength, a Concurrency below 1 means one question at a time
// and an empty FailurePolicy means abort.
func New(gen Generator, cfg types.PipelineConfig, opts ...Option) (*Pipeline, error) {
	if gen == nil {
		return nil, fmt.Errorf("pipeline: generator is required")
	}
	if cfg.MaxContextLength == 0 {
		cfg.MaxContextLength = DefaultMaxContextLength
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = types.FailureAbort
	}
	if cfg.FailurePolicy != types.FailureAbort && cfg.FailurePolicy != types.FailureContinue {
		return nil, fmt.Errorf("pipeline: unknown failure policy %q", cfg.FailurePolicy)
	}

	p := &Pipeline{gen: gen, cfg: cfg, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(p)
	}
	if p.observer == nil {
		p.observer = NewLogObserver(p.log)
	}
	p.questions = question.New(gen, p.model)

	pool, err := ants.NewPool(cfg.Concurrency,
		ants.WithExpiryDuration(30*time.Second),
		ants.WithPanicHandler(func(v any) {
			p.log.Errorw("pipeline worker panic", "panic", v)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Close releases the worker pool. Runs started after Close fail.
func (p *Pipeline) Close() {
	p.pool.Release()
}

// Config returns the effective pipeline configuration.
func (p *Pipeline) Config() types.PipelineConfig {
	return p.cfg
}

// Run truncates rawContext, generates up to maxQuestions questions and runs
// the three answer stages for each. Records come back in question order.
//
// Zero generated questions is a successful, empty result. Under the abort
// policy the first failing question cancels the others and its
// *StageError is returned with no records. Under the continue policy failed
// questions become records with Error set, and Run returns nil error.
// Cancelling ctx cancels every in-flight stream.
func (p *Pipeline) Run(ctx context.Context, rawContext string, maxQuestions int) (types.ResultSet, error) {
	runID := uuid.NewString()
	cctx := NewContext(rawContext, p.cfg.MaxContextLength)
	p.observer.RunStarted(runID, cctx)

	rs, err := p.run(ctx, runID, cctx, maxQuestions)
	p.observer.RunFinished(runID, len(rs), err)
	return rs, err
}

func (p *Pipeline) run(ctx context.Context, runID string, cctx Context, maxQuestions int) (types.ResultSet, error) {
	questions, err := p.questions.Generate(ctx, cctx.Text, maxQuestions)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &StageError{Stage: types.StageQuestions, Question: -1, Err: err}
	}
	p.observer.QuestionsGenerated(runID, questions)
	if len(questions) == 0 {
		return types.ResultSet{}, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	results := make(chan Result, len(questions))
	abort := p.cfg.FailurePolicy == types.FailureAbort

	for _, q := range questions {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			res := p.answerSafely(runCtx, runID, cctx, q)
			if res.Err != nil && abort && runCtx.Err() == nil {
				once.Do(func() {
					firstErr = res.Err
					cancel()
				})
			}
			results <- res
		})
		if err != nil {
			wg.Done()
			cancel()
			wg.Wait()
			return nil, fmt.Errorf("scheduling question %d: %w", q.Index, err)
		}
	}
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	collected := make([]Result, 0, len(questions))
	for r := range results {
		collected = append(collected, r)
	}
	return ToOrderedCollection(collected), nil
}

// answerSafely runs answer and turns a panic into a question failure so the
// run always collects one result per question.
func (p *Pipeline) answerSafely(ctx context.Context, runID string, cctx Context, q types.Question) (res Result) {
	defer func() {
		if v := recover(); v != nil {
			p.log.Errorw("question panicked", "run", runID, "question", q.Index, "panic", v)
			res = Result{
				Index:  q.Index,
				Record: types.PipelineRecord{Question: q.Text},
				Err:    fmt.Errorf("question %d: panic: %v", q.Index, v),
			}
		}
	}()
	return p.answer(ctx, runID, cctx, q)
}

// answer runs chain-of-thought, reflection and final answer for one
// question. Each stage sees only the context, the question and the outputs
// of earlier stages of the same question.
func (p *Pipeline) answer(ctx context.Context, runID string, cctx Context, q types.Question) Result {
	rec := types.PipelineRecord{Question: q.Text}
	res := Result{Index: q.Index, Record: rec}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	p.observer.QuestionStarted(runID, q)

	var err error
	if rec.ChainOfThought, err = p.stage(ctx, runID, q.Index, types.StageChainOfThought,
		prompt.ChainOfThought(cctx.Text, q.Text)); err != nil {
		return p.finish(runID, res, err)
	}
	res.Record = rec
	if rec.Reflection, err = p.stage(ctx, runID, q.Index, types.StageReflection,
		prompt.Reflection(cctx.Text, q.Text, rec.ChainOfThought)); err != nil {
		return p.finish(runID, res, err)
	}
	res.Record = rec
	if rec.FinalAnswer, err = p.stage(ctx, runID, q.Index, types.StageFinalAnswer,
		prompt.FinalAnswer(rec.Reflection)); err != nil {
		return p.finish(runID, res, err)
	}
	res.Record = rec
	return p.finish(runID, res, nil)
}

func (p *Pipeline) finish(runID string, res Result, err error) Result {
	res.Err = err
	p.observer.QuestionFinished(runID, res.Index, err)
	return res
}

// stage makes one generation call, bounded by the stage timeout when set.
func (p *Pipeline) stage(ctx context.Context, runID string, index int, stage types.Stage, text string) (string, error) {
	if p.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := p.gen.Generate(ctx, p.model, text)
	elapsed := time.Since(start)
	if err != nil {
		err = &StageError{Stage: stage, Question: index, Err: err}
	}
	p.observer.StageFinished(runID, index, stage, elapsed, err)
	return out, err
}
