package transcript

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsJunk(t *testing.T) {
	// Exact hallucinations
	assert.True(t, isJunk("Thank you."))
	assert.True(t, isJunk("you"))
	assert.True(t, isJunk("  Okay!  "))

	// Substring hallucinations
	assert.True(t, isJunk("Thank you for watching, see you next time."))
	assert.True(t, isJunk("Subtitles by the Amara community"))
	assert.True(t, isJunk("This video is sponsored by our friends"))

	// Structural patterns
	assert.True(t, isJunk("......"))
	assert.True(t, isJunk("[MUSIC PLAYING]"))
	assert.True(t, isJunk("(applause)"))
	assert.True(t, isJunk("♪ la la la ♪"))

	// Repetitions
	assert.True(t, isJunk("substring substring repeated here substring substring repeated here"))
	assert.True(t, isJunk("it was good. it was good. it was good."))

	// Too short
	assert.True(t, isJunk("a"))
	assert.True(t, isJunk("go now"))

	// Real speech
	assert.False(t, isJunk("Photosynthesis converts light energy into chemical energy."))
	assert.False(t, isJunk("Mitochondria produce most of a cell's chemical energy."))
	assert.False(t, isJunk("Newton's second law relates force, mass and acceleration."))
}

type classifierFunc func(ctx context.Context, text string) (bool, error)

func (f classifierFunc) IsHallucination(ctx context.Context, text string) (bool, error) {
	return f(ctx, text)
}

func TestFilterAccept(t *testing.T) {
	ctx := context.Background()
	const text = "Photosynthesis converts light energy into chemical energy."

	// No classifier
	f := NewFilter(FilterOptions{})
	assert.True(t, f.Accept(ctx, text))
	assert.False(t, f.Accept(ctx, "Thank you for watching!"))

	// Classifier flags the text
	f = NewFilter(FilterOptions{Classifier: classifierFunc(func(_ context.Context, _ string) (bool, error) {
		return true, nil
	})})
	assert.False(t, f.Accept(ctx, text))

	// Classifier failure counts as an accept
	f = NewFilter(FilterOptions{Classifier: classifierFunc(func(_ context.Context, _ string) (bool, error) {
		return false, errors.New("unavailable")
	})})
	assert.True(t, f.Accept(ctx, text))

	// Pattern rules short-circuit before the classifier
	var called bool
	f = NewFilter(FilterOptions{Classifier: classifierFunc(func(_ context.Context, _ string) (bool, error) {
		called = true
		return false, nil
	})})
	assert.False(t, f.Accept(ctx, "Thank you."))
	assert.False(t, called)
}
