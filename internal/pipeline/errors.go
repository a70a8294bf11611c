// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/cot-engine/pkg/types"
)

// StageError is a failed generation call, tagged with the stage and the
// question it belonged to. Question is -1 for the question-set stage.
type StageError struct {
	Stage    types.Stage
	Question int
	Err      error
}

func (e *StageError) Error() string {
	if e.Question < 0 {
		return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s (question %d): %v", e.Stage, e.Question, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
