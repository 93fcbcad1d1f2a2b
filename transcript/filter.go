package transcript

import (
	"context"
	"regexp"
	"strings"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// Classifier asks an external model whether a transcription looks like a
// hallucination. It's a secondary check: when it's unavailable or fails, the
// text is accepted.
type Classifier interface {
	IsHallucination(ctx context.Context, text string) (bool, error)
}

// Whisper hallucinations that show up when audio is near-silent or contains
// background noise. Exact matches: the whole normalized transcription equals
// one of these.
var junkExact = map[string]bool{
	"you": true, "bye": true, "bye bye": true, "goodbye": true, "so": true,
	"the the": true, "thank you": true, "thank you very much": true,
	"thanks": true, "okay": true, "ok": true, "oh": true, "ah": true,
	"uh": true, "um": true, "music": true, "dramatic music": true,
	"soft music": true, "upbeat music": true, "gentle music": true,
	"have a good day": true, "have a nice day": true, "take care": true,
	"silence": true, "applause": true, "laughter": true, "cheering": true,
	"hmm": true, "huh": true, "mhm": true, "mmm": true, "yeah": true,
	"yes": true, "no": true, "nah": true, "right": true, "well": true,
	"like": true, "the end": true, "end": true, "hello": true, "hi": true,
	"hey": true, "good morning": true, "good evening": true,
	"good night": true, "i": true, "it": true, "a": true, "the": true,
	"is": true, "this": true, "that": true, "and": true, "or": true,
	"but": true,
}

// Substring matches: if any of these appears anywhere, it's junk.
var junkContains = []string{
	"thank you for watching", "thanks for watching",
	"please subscribe", "like and subscribe", "don't forget to subscribe",
	"hit the bell", "hit the notification bell",
	"check out the next video", "see you in the next video", "see you next time",
	"leave a comment below", "link in the description",
	"thanks for listening", "thank you for listening",
	"please like and subscribe", "smash that like button",
	"follow us on", "check out our",
	"subtitles by", "captions by", "translated by", "transcribed by",
	"copyright", "all rights reserved",
	"sponsored by", "brought to you by",
	"patreon", "ko-fi",
	"www.", "http", ".com", ".org", ".net",
	"experience the new horror",
	"fried lamb steak", "doughnuts",
}

var (
	punctuationOnlyRegexp = regexp.MustCompile(`^[\s.,!?…\-—]*$`)
	bracketedRegexp       = regexp.MustCompile(`^\[.*\]$`)
	parenthesizedRegexp   = regexp.MustCompile(`^\(.*\)$`)
	sentenceSplitRegexp   = regexp.MustCompile(`[.!?]+`)
	normalizeRegexp       = regexp.MustCompile(`[.,!?;:…]`)
)

const musicSymbols = "♪♫\U0001F3B5\U0001F3B6"

type Filter struct {
	c Classifier
}

type FilterOptions struct {
	Classifier Classifier
}

func NewFilter(o FilterOptions) *Filter {
	return &Filter{c: o.Classifier}
}

// Accept reports whether a raw transcription should be kept. It never returns
// an error: an unavailable classifier counts as an accept.
func (f *Filter) Accept(ctx context.Context, text string) bool {
	// Pattern rules
	if isJunk(text) {
		astilog.Debugf("transcript: filtered junk transcription (pattern): %s", text)
		return false
	}

	// Secondary check
	if f.c != nil {
		h, err := f.c.IsHallucination(ctx, text)
		if err != nil {
			astilog.Warn(errors.Wrap(err, "transcript: hallucination check failed"))
			return true
		}
		if h {
			astilog.Debugf("transcript: filtered junk transcription (classifier): %s", text)
			return false
		}
	}
	return true
}

func isJunk(text string) bool {
	// Normalize
	lowered := strings.TrimSpace(strings.ToLower(text))
	normalized := strings.TrimSpace(normalizeRegexp.ReplaceAllString(lowered, ""))

	// Too short to be real speech
	if len(normalized) < 4 {
		return true
	}

	// Exact match against known hallucinations
	if junkExact[normalized] {
		return true
	}

	// Substring match
	for _, phrase := range junkContains {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}

	// Structural patterns
	if punctuationOnlyRegexp.MatchString(normalized) ||
		bracketedRegexp.MatchString(normalized) ||
		parenthesizedRegexp.MatchString(normalized) ||
		strings.ContainsAny(normalized, musicSymbols) ||
		hasRepeatedRun(normalized) {
		return true
	}

	// Same sentence repeated
	if sameSentenceRepeated(lowered) {
		return true
	}

	// Very short text that doesn't form a real utterance
	if len(strings.Fields(normalized)) <= 2 && len(normalized) < 15 {
		return true
	}
	return false
}

// hasRepeatedRun detects a substring of 8+ characters immediately repeated, or
// a short leading phrase repeated right after itself.
func hasRepeatedRun(s string) bool {
	// Long immediate repetition anywhere
	for l := 8; l*2 <= len(s); l++ {
		for i := 0; i+2*l <= len(s); i++ {
			if s[i:i+l] == s[i+l:i+2*l] {
				return true
			}
		}
	}

	// Short leading phrase repeated
	for l := 2; l <= 15 && l <= len(s); l++ {
		rest := strings.TrimLeft(s[l:], " \t")
		if strings.HasPrefix(rest, s[:l]) {
			return true
		}
	}
	return false
}

func sameSentenceRepeated(s string) bool {
	// Split sentences
	var ss []string
	for _, v := range sentenceSplitRegexp.Split(s, -1) {
		if v = strings.TrimSpace(v); v != "" {
			ss = append(ss, v)
		}
	}

	// Not enough sentences
	if len(ss) < 2 {
		return false
	}

	// Compare
	for _, v := range ss[1:] {
		if v != ss[0] {
			return false
		}
	}
	return true
}
