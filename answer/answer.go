package answer

import (
	"context"
	"regexp"
	"strings"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// Fallback is the terminal answer when every upstream option failed.
const Fallback = "I'm not sure how to answer that right now."

// Model is a prompt-in/text-out completion.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Searcher summarizes web results for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

const transcriptTail = 6000

// Questions about specific facts, definitions, examples or comparisons get a
// proactive web search before the models are consulted.
var factualRegexps = []*regexp.Regexp{
	regexp.MustCompile(`what (?:is|are|was|were) `),
	regexp.MustCompile(`define `),
	regexp.MustCompile(`explain `),
	regexp.MustCompile(`how (?:does|do|did|is|are) `),
	regexp.MustCompile(`difference between `),
	regexp.MustCompile(`example of `),
	regexp.MustCompile(`why (?:does|do|did|is|are) `),
	regexp.MustCompile(`when (?:was|were|did|is) `),
	regexp.MustCompile(`who (?:is|are|was|were) `),
	regexp.MustCompile(`tell (?:me|us) about `),
	regexp.MustCompile(`can you (?:explain|describe|tell)`),
}

// Service answers questions with the lecture transcript as context, trying
// each model in order and degrading to a raw web summary, then to Fallback.
type Service struct {
	ms []Model
	s  Searcher
}

func New(s Searcher, ms ...Model) *Service {
	return &Service{
		ms: ms,
		s:  s,
	}
}

// Answer always returns some text: upstream failures are absorbed.
func (s *Service) Answer(ctx context.Context, question, fullTranscript string) (text string, err error) {
	// Proactive web search
	var searchResults string
	if s.s != nil && shouldSearchWeb(question, fullTranscript) {
		if searchResults, err = s.s.Search(ctx, question); err != nil {
			astilog.Error(errors.Wrap(err, "answer: proactive web search failed"))
			err = nil
		}
	}

	// Build prompt
	prompt := buildPrompt(question, fullTranscript, searchResults)

	// Try models in order
	for _, m := range s.ms {
		var v string
		if v, err = m.Complete(ctx, prompt); err != nil {
			astilog.Error(errors.Wrap(err, "answer: completing failed"))
			err = nil
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			text = v
			return
		}
	}

	// Last resort: raw web search summary
	if searchResults == "" && s.s != nil {
		if searchResults, err = s.s.Search(ctx, question); err != nil {
			astilog.Error(errors.Wrap(err, "answer: last resort web search failed"))
			err = nil
		}
	}
	if searchResults != "" {
		text = searchResults
		return
	}
	text = Fallback
	return
}

// shouldSearchWeb reports whether to fetch web results before consulting the
// models: factual question shapes always do, and so does any question asked
// before the class has built up context.
func shouldSearchWeb(question, fullTranscript string) bool {
	q := strings.ToLower(question)
	for _, re := range factualRegexps {
		if re.MatchString(q) {
			return true
		}
	}
	return len(strings.TrimSpace(fullTranscript)) < 200
}

func buildPrompt(question, fullTranscript, searchResults string) string {
	// Cap transcript to its tail
	t := fullTranscript
	if len(t) > transcriptTail {
		t = t[len(t)-transcriptTail:]
	}
	if t == "" {
		t = "(empty - class has not started yet)"
	}

	// Build parts
	parts := []string{
		"You are a classroom assistant. A student needs a QUICK answer they can glance at.",
		"",
		"RULES:",
		"- Answer in 2-4 bullet points MAX.",
		"- Each bullet should be ONE short sentence.",
		"- Use \"•\" for bullets.",
		"- No introductions, no conclusions, no filler.",
		"- If the answer is a simple fact, give ONE bullet.",
		"- Never write paragraphs. Never start with \"Great question\" or similar.",
		"- Blend transcript context with your own knowledge seamlessly.",
		"",
		"--- CLASS TRANSCRIPT (live, may be partial) ---",
		t,
		"--- END TRANSCRIPT ---",
	}
	if strings.TrimSpace(searchResults) != "" {
		parts = append(parts,
			"",
			"--- WEB SEARCH RESULTS ---",
			searchResults,
			"--- END SEARCH RESULTS ---",
		)
	}
	parts = append(parts,
		"",
		"Question: \""+question+"\"",
		"",
		"Answer with bullet points only. Be concise.",
	)
	return strings.Join(parts, "\n")
}
