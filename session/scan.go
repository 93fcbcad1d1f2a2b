package session

import (
	"strings"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilecture/transcript"
	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// scan runs in the serialized context. It drains new fragments through the
// sentence-boundary buffer so that a question is never evaluated on a fragment
// split across two cycles, and force-flushes the pending buffer once speech
// has paused for MaxStaleCycles cycles.
func (s *Session) scan() {
	// Session is closed
	if s.ctx.Err() != nil {
		return
	}

	// Nothing to do
	newFragments := s.fragments[s.scanCursor:]
	if len(newFragments) == 0 && s.pendingBuffer == "" {
		return
	}

	// Combine pending buffer with new fragments
	parts := []string{}
	if s.pendingBuffer != "" {
		parts = append(parts, s.pendingBuffer)
	}
	parts = append(parts, newFragments...)
	combined := strings.Join(parts, " ")
	s.scanCursor = len(s.fragments)

	// Decide what's complete enough to scan
	var textToScan string
	if len(newFragments) == 0 {
		// No new text: wait for more before scanning, unless speech has
		// paused for too long
		s.staleCycles++
		if s.staleCycles < s.o.MaxStaleCycles {
			return
		}

		// Force-flush the pending buffer
		textToScan = combined
		s.pendingBuffer = ""
		s.staleCycles = 0
	} else {
		// Split at the last sentence terminator, the remainder waits in the
		// pending buffer
		s.staleCycles = 0
		textToScan, s.pendingBuffer = transcript.SplitAtLastTerminator(combined)
	}

	// Nothing complete yet
	if textToScan == "" {
		return
	}

	// Extract questions
	qs := transcript.ExtractQuestions(textToScan)
	if len(qs) == 0 {
		return
	}
	astilog.Debugf("session: detected %d question(s) in %s", len(qs), s.name)

	// Snapshot transcript
	full := strings.Join(s.fragments, " ")

	// Answer outside the serialized context, in extraction order
	go s.answerQuestions(qs, full)
}

func (s *Session) answerQuestions(qs []string, fullTranscript string) {
	for _, q := range qs {
		// Answer
		answer, err := s.a.Answer(s.ctx, q, fullTranscript)
		if err != nil {
			// One failed candidate doesn't block the others
			astilog.Error(errors.Wrap(err, "session: answering detected question failed"))
			continue
		}

		// Session is closed
		if s.ctx.Err() != nil {
			return
		}

		// Emit the question
		s.emitChat(astilecture.Chat{
			FromTeacher: true,
			ID:          nextChatID(),
			Role:        astilecture.TeacherRole,
			Text:        q,
		})

		// Emit the answer
		s.emitChat(astilecture.Chat{
			FromTeacher: true,
			ID:          nextChatID(),
			Role:        astilecture.AssistantRole,
			Text:        answer,
		})
	}
}

// evolveDiagram runs in the serialized context. Regeneration is gated on word
// growth since the last successful update; the watermark only advances when
// the diagram service succeeds.
func (s *Session) evolveDiagram() {
	// Session is closed
	if s.ctx.Err() != nil {
		return
	}

	// Not enough material yet
	if len(s.fragments) < 2 {
		return
	}

	// Word growth gate
	full := strings.Join(s.fragments, " ")
	wc := len(strings.Fields(full))
	if wc-s.lastDiagramWordCount < s.o.DiagramMinWordGrowth {
		return
	}

	// A regeneration is already running
	if s.diagramInFlight {
		return
	}
	s.diagramInFlight = true

	// Snapshot the previous graph
	previous := s.diagram.Clone()

	// Request outside the serialized context
	go func() {
		g, err := s.d.Diagram(s.ctx, full, previous)

		// Apply in the serialized context
		s.c.Add(func() {
			s.diagramInFlight = false

			// Session is closed
			if s.ctx.Err() != nil {
				return
			}

			// Leave the session untouched on failure
			if err != nil {
				astilog.Error(errors.Wrap(err, "session: generating diagram failed"))
				return
			}

			// Replace graph and advance watermark
			s.diagram = g
			s.lastDiagramWordCount = wc

			// Emit
			s.emitDiagram(g.Clone())
		})
	}()
}
