package transcript

import (
	"context"
	"strings"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// Model is a prompt-in/text-out completion.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelClassifier asks a model whether a transcription looks like a Whisper
// hallucination. Models are tried in order; the first that responds decides.
type ModelClassifier struct {
	ms []Model
}

func NewModelClassifier(ms ...Model) *ModelClassifier {
	return &ModelClassifier{ms: ms}
}

func (c *ModelClassifier) IsHallucination(ctx context.Context, text string) (h bool, err error) {
	// Build prompt
	prompt := hallucinationPrompt(text)

	// Try models in order
	for _, m := range c.ms {
		var a string
		if a, err = m.Complete(ctx, prompt); err != nil {
			astilog.Error(errors.Wrap(err, "transcript: classifying failed"))
			err = nil
			continue
		}
		h = strings.HasPrefix(strings.ToLower(strings.TrimSpace(a)), "yes")
		return
	}
	err = errors.New("transcript: no model could classify")
	return
}

func hallucinationPrompt(text string) string {
	return strings.Join([]string{
		"You are a Whisper transcription quality filter.",
		"When Whisper receives silent or near-silent audio it often \"hallucinates\" random text that was never actually spoken.",
		"Common hallucination signs:",
		"- Random unrelated sentences (horror, cooking, religious text, song lyrics)",
		"- YouTube/podcast outros (\"thanks for watching\", \"subscribe\")",
		"- Repeated phrases or gibberish",
		"- Text that sounds like captions from a random video",
		"- Generic filler that doesn't sound like real classroom speech",
		"",
		"Real classroom speech sounds like a teacher or student talking about a topic — lectures, questions, explanations, discussions.",
		"",
		"Transcription to check: \"" + text + "\"",
		"",
		"Is this likely a Whisper hallucination? Reply with ONLY \"yes\" or \"no\".",
	}, "\n")
}
