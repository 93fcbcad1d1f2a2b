package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuestions(t *testing.T) {
	// No questions
	assert.Empty(t, ExtractQuestions(""))
	assert.Empty(t, ExtractQuestions("The mitochondria is the powerhouse of the cell."))

	// Explicit question
	qs := ExtractQuestions("Today we cover osmosis. What happens when the membrane is removed?")
	assert.Equal(t, []string{"What happens when the membrane is removed?"}, qs)

	// Interrogative sentence without a question mark
	qs = ExtractQuestions("Let's move on. How does diffusion differ from osmosis. Good.")
	assert.Equal(t, []string{"How does diffusion differ from osmosis?"}, qs)

	// Both, explicit questions first
	qs = ExtractQuestions("Can anyone name the process involved. We discussed light. Why is the sky blue?")
	assert.Equal(t, []string{
		"Why is the sky blue?",
		"Can anyone name the process involved?",
	}, qs)
}

func TestSplitAtLastTerminator(t *testing.T) {
	// No terminator
	complete, rest := SplitAtLastTerminator("so the next thing we")
	assert.Equal(t, "", complete)
	assert.Equal(t, "so the next thing we", rest)

	// Terminator mid-text
	complete, rest = SplitAtLastTerminator("That concludes osmosis. Next we look at")
	assert.Equal(t, "That concludes osmosis.", complete)
	assert.Equal(t, "Next we look at", rest)

	// Terminator at the end
	complete, rest = SplitAtLastTerminator("Any questions so far?")
	assert.Equal(t, "Any questions so far?", complete)
	assert.Equal(t, "", rest)
}
