// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the value types shared by the generation client, the
// pipeline and the surfaces that expose it.
package types

// Stage identifies one generation call within a run.
type Stage string

const (
	// StageQuestions is the single question-set generation call of a run.
	StageQuestions Stage = "questions"

	StageChainOfThought Stage = "chain_of_thought"
	StageReflection     Stage = "reflection"
	StageFinalAnswer    Stage = "final_answer"
)

// AnswerStages lists the per-question stages in their dependency order.
var AnswerStages = []Stage{StageChainOfThought, StageReflection, StageFinalAnswer}

// GenerationRequest is the body of one call to the generation backend.
type GenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// Question is one generated question. Index is 0-based and defines the
// position of its record in the ResultSet.
type Question struct {
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
}

// PipelineRecord is the outcome of the three answer stages for one question.
// Error is set only when the run uses FailureContinue and a stage failed; the
// stage outputs completed before the failure are kept.
type PipelineRecord struct {
	Question       string `json:"question" yaml:"question"`
	ChainOfThought string `json:"chain_of_thought" yaml:"chain_of_thought"`
	Reflection     string `json:"reflection" yaml:"reflection"`
	FinalAnswer    string `json:"final_answer" yaml:"final_answer"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the record is an error placeholder.
func (r PipelineRecord) Failed() bool {
	return r.Error != ""
}

// ResultSet is the ordered output of a run: element i belongs to the
// question with Index i.
type ResultSet []PipelineRecord

// Failures returns the number of error placeholders in the set.
func (rs ResultSet) Failures() int {
	n := 0
	for _, r := range rs {
		if r.Failed() {
			n++
		}
	}
	return n
}
