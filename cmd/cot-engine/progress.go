// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/cot-engine/internal/pipeline"
	"github.com/pdiddy/cot-engine/pkg/types"
)

// progressObserver draws one bar step per finished answer stage. The bar
// is created once the question count is known.
type progressObserver struct {
	w   io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

func (p *progressObserver) RunStarted(string, pipeline.Context) {}

func (p *progressObserver) QuestionsGenerated(_ string, questions []types.Question) {
	if len(questions) == 0 {
		return
	}
	bar := progressbar.NewOptions(len(questions)*len(types.AnswerStages),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(color.BlueString(fmt.Sprintf("Answering %d questions", len(questions)))),
		progressbar.OptionSetItsString("stages"),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
	)
	p.mu.Lock()
	p.bar = bar
	p.mu.Unlock()
}

func (p *progressObserver) QuestionStarted(string, types.Question) {}

func (p *progressObserver) StageFinished(_ string, _ int, _ types.Stage, _ time.Duration, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressObserver) QuestionFinished(string, int, error) {}

func (p *progressObserver) RunFinished(string, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
