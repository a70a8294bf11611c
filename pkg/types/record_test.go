// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultSetFailures(t *testing.T) {
	rs := ResultSet{
		{Question: "a", FinalAnswer: "x"},
		{Question: "b", Error: "stage reflection (question 1): boom"},
		{Question: "c", FinalAnswer: "z"},
	}
	assert.False(t, rs[0].Failed())
	assert.True(t, rs[1].Failed())
	assert.Equal(t, 1, rs.Failures())
	assert.Equal(t, 0, ResultSet{}.Failures())
}

func TestAnswerStagesOrder(t *testing.T) {
	assert.Equal(t, []Stage{StageChainOfThought, StageReflection, StageFinalAnswer}, AnswerStages)
}
