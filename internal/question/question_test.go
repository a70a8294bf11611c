// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package question

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cot-engine/pkg/types"
)

type fakeBackend struct {
	text   string
	err    error
	model  string
	prompt string
}

func (f *fakeBackend) Generate(_ context.Context, model, prompt string) (string, error) {
	f.model = model
	f.prompt = prompt
	return f.text, f.err
}

func texts(qs []types.Question) []string {
	var out []string
	for _, q := range qs {
		out = append(out, q.Text)
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dash bullets",
			text: "- What is A?\n- What is B?",
			want: []string{"What is A?", "What is B?"},
		},
		{
			name: "numbered",
			text: "1. First?\n2) Second?\n(3) Third?\n10. Tenth?",
			want: []string{"First?", "Second?", "Third?", "Tenth?"},
		},
		{
			name: "asterisks and bullets",
			text: "* Star?\n• Dot?\n  -  Indented?",
			want: []string{"Star?", "Dot?", "Indented?"},
		},
		{
			name: "mixed markers",
			text: "- 1. Both?",
			want: []string{"Both?"},
		},
		{
			name: "blank and marker-only lines dropped",
			text: "\n\nWhat?\n   \n-\n2.\n\r\nWhy?\n",
			want: []string{"What?", "Why?"},
		},
		{
			name: "numbers inside text kept",
			text: "3.5 million people live where?\n2024 was what kind of year?",
			want: []string{"3.5 million people live where?", "2024 was what kind of year?"},
		},
		{
			name: "trailing dash kept",
			text: "Is this well-formed -",
			want: []string{"Is this well-formed -"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			assert.Equal(t, tt.want, texts(got))
			for i, q := range got {
				assert.Equal(t, i, q.Index)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	b := &fakeBackend{text: "- What temperature does water boil at sea level?"}
	qs, err := New(b, "m").Generate(context.Background(), "Water boils at 100C at sea level.", 1)
	require.NoError(t, err)

	assert.Equal(t, []types.Question{{Index: 0, Text: "What temperature does water boil at sea level?"}}, qs)
	assert.Equal(t, "m", b.model)
	assert.Contains(t, b.prompt, "Water boils at 100C at sea level.")
	assert.Contains(t, b.prompt, "Generate 1 questions")
}

func TestGenerate_CountNotEnforced(t *testing.T) {
	b := &fakeBackend{text: "A?\nB?\nC?"}
	qs, err := New(b, "").Generate(context.Background(), "ctx", 1)
	require.NoError(t, err)
	assert.Len(t, qs, 3)
}

func TestGenerate_EmptyResponse(t *testing.T) {
	qs, err := New(&fakeBackend{text: ""}, "").Generate(context.Background(), "ctx", 5)
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestGenerate_BackendError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&fakeBackend{err: boom}, "").Generate(context.Background(), "ctx", 5)
	assert.ErrorIs(t, err, boom)
}
