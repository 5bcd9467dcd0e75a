package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(DefaultQuestions())

	assert.Equal(t, 5, src.Total())

	q, ok := src.Question(0)
	require.True(t, ok)
	assert.Equal(t, "Which planet is known as the Red Planet?", q.Prompt)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, "Mars", q.Options[q.CorrectOption])
}

func TestStaticSource_OutOfRange(t *testing.T) {
	src := NewStaticSource(DefaultQuestions())

	_, ok := src.Question(-1)
	assert.False(t, ok)
	_, ok = src.Question(src.Total())
	assert.False(t, ok)
}

func TestStaticSource_QuestionsIsACopy(t *testing.T) {
	src := NewStaticSource(DefaultQuestions())

	qs := src.Questions()
	qs[0].Prompt = "mutated"

	q, ok := src.Question(0)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", q.Prompt)
}
