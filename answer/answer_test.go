package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type modelFunc func(ctx context.Context, prompt string) (string, error)

func (f modelFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type searcherFunc func(ctx context.Context, query string) (string, error)

func (f searcherFunc) Search(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

func TestShouldSearchWeb(t *testing.T) {
	long := strings.Repeat("the lecture goes on and on ", 10)

	// Factual shapes
	assert.True(t, shouldSearchWeb("What is the speed of light?", long))
	assert.True(t, shouldSearchWeb("Can you explain entropy?", long))
	assert.True(t, shouldSearchWeb("Tell me about the French revolution", long))

	// Contextual question with enough transcript
	assert.False(t, shouldSearchWeb("And then it happened again, didn't it", long))

	// Any question before the class has built up context
	assert.True(t, shouldSearchWeb("And then it happened again, didn't it", "short"))
}

func TestAnswerPrefersFirstModel(t *testing.T) {
	s := New(nil,
		modelFunc(func(_ context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "water crosses the membrane")
			assert.Contains(t, prompt, "Why does water move?")
			return "• Along the concentration gradient.", nil
		}),
		modelFunc(func(_ context.Context, _ string) (string, error) {
			t.Fatal("second model should not be consulted")
			return "", nil
		}),
	)
	text, err := s.Answer(context.Background(), "Why does water move?", strings.Repeat("water crosses the membrane ", 10))
	assert.NoError(t, err)
	assert.Equal(t, "• Along the concentration gradient.", text)
}

func TestAnswerFallsBackAcrossModels(t *testing.T) {
	s := New(nil,
		modelFunc(func(_ context.Context, _ string) (string, error) { return "", assert.AnError }),
		modelFunc(func(_ context.Context, _ string) (string, error) { return "   ", nil }),
		modelFunc(func(_ context.Context, _ string) (string, error) { return "• It works.", nil }),
	)
	text, err := s.Answer(context.Background(), "Why does it happen again here today", strings.Repeat("context ", 50))
	assert.NoError(t, err)
	assert.Equal(t, "• It works.", text)
}

func TestAnswerDegradesToSearchThenFallback(t *testing.T) {
	// All models fail, search saves the day
	s := New(
		searcherFunc(func(_ context.Context, q string) (string, error) {
			return "Here is what I found on the web:\n- Light: it is fast", nil
		}),
		modelFunc(func(_ context.Context, _ string) (string, error) { return "", assert.AnError }),
	)
	text, err := s.Answer(context.Background(), "What is the speed of light?", "")
	assert.NoError(t, err)
	assert.Contains(t, text, "Here is what I found on the web")

	// No searcher either
	s = New(nil, modelFunc(func(_ context.Context, _ string) (string, error) { return "", assert.AnError }))
	text, err = s.Answer(context.Background(), "What is the speed of light?", "")
	assert.NoError(t, err)
	assert.Equal(t, Fallback, text)

	// No models at all
	s = New(nil)
	text, err = s.Answer(context.Background(), "Why does it happen again here today", strings.Repeat("context ", 50))
	assert.NoError(t, err)
	assert.Equal(t, Fallback, text)
}

func TestBuildPrompt(t *testing.T) {
	// Empty transcript placeholder
	p := buildPrompt("What is osmosis?", "", "")
	assert.Contains(t, p, "(empty - class has not started yet)")
	assert.Contains(t, p, "What is osmosis?")

	// Search results are appended when present
	p = buildPrompt("What is osmosis?", "some transcript", "Here is what I found on the web:\n- Osmosis: water movement")
	assert.Contains(t, p, "Here is what I found on the web")

	// Long transcripts keep only the tail
	long := strings.Repeat("a", transcriptTail+100) + " THE END"
	p = buildPrompt("What is osmosis?", long, "")
	assert.Contains(t, p, "THE END")
	assert.NotContains(t, p, strings.Repeat("a", transcriptTail+100))
}
