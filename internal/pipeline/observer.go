// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/cot-engine/pkg/types"
)

// Observer receives progress events from a run. Question and stage events
// arrive from worker goroutines, so implementations must be safe for
// concurrent use.
type Observer interface {
	RunStarted(runID string, ctx Context)
	QuestionsGenerated(runID string, questions []types.Question)
	QuestionStarted(runID string, q types.Question)
	StageFinished(runID string, question int, stage types.Stage, elapsed time.Duration, err error)
	QuestionFinished(runID string, question int, err error)
	RunFinished(runID string, records int, err error)
}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) RunStarted(runID string, ctx Context) {
	for _, ob := range o {
		ob.RunStarted(runID, ctx)
	}
}

func (o Observers) QuestionsGenerated(runID string, questions []types.Question) {
	for _, ob := range o {
		ob.QuestionsGenerated(runID, questions)
	}
}

func (o Observers) QuestionStarted(runID string, q types.Question) {
	for _, ob := range o {
		ob.QuestionStarted(runID, q)
	}
}

func (o Observers) StageFinished(runID string, question int, stage types.Stage, elapsed time.Duration, err error) {
	for _, ob := range o {
		ob.StageFinished(runID, question, stage, elapsed, err)
	}
}

func (o Observers) QuestionFinished(runID string, question int, err error) {
	for _, ob := range o {
		ob.QuestionFinished(runID, question, err)
	}
}

func (o Observers) RunFinished(runID string, records int, err error) {
	for _, ob := range o {
		ob.RunFinished(runID, records, err)
	}
}

// LogObserver writes each event as a structured log line.
type LogObserver struct {
	log *zap.SugaredLogger
}

// NewLogObserver creates a LogObserver writing to log.
func NewLogObserver(log *zap.SugaredLogger) *LogObserver {
	return &LogObserver{log: log}
}

func (l *LogObserver) RunStarted(runID string, ctx Context) {
	l.log.Infow("run started",
		"run", runID,
		"context_chars", len([]rune(ctx.Text)),
		"truncated", ctx.Truncated,
	)
}

func (l *LogObserver) QuestionsGenerated(runID string, questions []types.Question) {
	l.log.Infow("questions generated", "run", runID, "count", len(questions))
}

func (l *LogObserver) QuestionStarted(runID string, q types.Question) {
	l.log.Infow("processing question", "run", runID, "question", q.Index, "text", q.Text)
}

func (l *LogObserver) StageFinished(runID string, question int, stage types.Stage, elapsed time.Duration, err error) {
	if err != nil {
		l.log.Warnw("stage failed",
			"run", runID,
			"question", question,
			"stage", stage,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.log.Debugw("stage finished", "run", runID, "question", question, "stage", stage, "elapsed", elapsed)
}

func (l *LogObserver) QuestionFinished(runID string, question int, err error) {
	if err != nil {
		l.log.Errorw("question failed", "run", runID, "question", question, "error", err)
		return
	}
	l.log.Infow("question finished", "run", runID, "question", question)
}

func (l *LogObserver) RunFinished(runID string, records int, err error) {
	if err != nil {
		l.log.Errorw("run failed", "run", runID, "error", err)
		return
	}
	l.log.Infow("run finished", "run", runID, "records", records)
}
