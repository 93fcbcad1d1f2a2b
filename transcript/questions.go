package transcript

import (
	"regexp"
	"strings"
)

var (
	questionRegexp     = regexp.MustCompile(`[^.!?]*\?`)
	exclamationRegexp  = regexp.MustCompile(`[.!]`)
	interrogativeWords = map[string]bool{
		"what": true, "why": true, "how": true, "can": true, "does": true,
		"do": true, "could": true, "would": true, "should": true, "is": true,
		"are": true, "did": true,
	}
)

const terminatorCutset = ".!?"

// ExtractQuestions returns candidate questions found in a block of text, in
// order of appearance. Sentences ending in "?" come first, then sentences
// starting with an interrogative keyword. No deduplication is performed.
func ExtractQuestions(text string) (qs []string) {
	if text == "" {
		return
	}

	// Explicit questions
	for _, m := range questionRegexp.FindAllString(text, -1) {
		if v := strings.TrimSpace(m); len(v) > 3 {
			qs = append(qs, v)
		}
	}

	// Sentences starting with an interrogative keyword
	for _, s := range exclamationRegexp.Split(text, -1) {
		v := strings.TrimSpace(s)
		if len(v) < 8 || strings.HasSuffix(v, "?") {
			continue
		}
		w := strings.ToLower(strings.Fields(v)[0])
		if interrogativeWords[w] {
			qs = append(qs, v+"?")
		}
	}
	return
}

// SplitAtLastTerminator splits s after the rightmost sentence terminator.
// complete holds everything up to and including that terminator, rest the
// remainder. When no terminator is found, complete is empty.
func SplitAtLastTerminator(s string) (complete, rest string) {
	if idx := strings.LastIndexAny(s, terminatorCutset); idx >= 0 {
		return s[:idx+1], strings.TrimSpace(s[idx+1:])
	}
	return "", s
}
