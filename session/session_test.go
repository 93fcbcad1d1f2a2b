package session

import (
	"context"
	"testing"
	"time"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilecture/transcript"
	"github.com/stretchr/testify/assert"
)

type transcriberFunc func(ctx context.Context, data []byte, mimeType string) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return f(ctx, data, mimeType)
}

type answererFunc func(ctx context.Context, question, fullTranscript string) (string, error)

func (f answererFunc) Answer(ctx context.Context, question, fullTranscript string) (string, error) {
	return f(ctx, question, fullTranscript)
}

type diagrammerFunc func(ctx context.Context, fullTranscript string, previous astilecture.Graph) (astilecture.Graph, error)

func (f diagrammerFunc) Diagram(ctx context.Context, fullTranscript string, previous astilecture.Graph) (astilecture.Graph, error) {
	return f(ctx, fullTranscript, previous)
}

// testSession builds a started session whose schedulers never fire on their
// own, so that tests drive scan and evolveDiagram deterministically.
func testSession(t *testing.T, a Answerer, d Diagrammer) (s *Session, ms chan *astilecture.Message) {
	ms = make(chan *astilecture.Message, 16)
	s = New("class-test",
		transcriberFunc(func(_ context.Context, _ []byte, _ string) (string, error) { return "", nil }),
		a, d,
		transcript.NewFilter(transcript.FilterOptions{}),
		func(m *astilecture.Message) { ms <- m },
		Options{
			DiagramPeriod: time.Hour,
			ScanPeriod:    time.Hour,
		},
	)
	s.Start()
	t.Cleanup(s.Close)
	return
}

// run executes f in the session's serialized context and waits for it.
func run(s *Session, f func()) {
	done := make(chan struct{})
	s.c.Add(func() {
		f()
		close(done)
	})
	<-done
}

func nextMessage(t *testing.T, ms chan *astilecture.Message) (m *astilecture.Message) {
	select {
	case m = <-ms:
	case <-time.After(time.Second):
		t.Fatal("no message emitted")
	}
	return
}

func assertNoMessage(t *testing.T, ms chan *astilecture.Message) {
	select {
	case m := <-ms:
		t.Fatalf("unexpected message %s", m.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScanWaitsForSentenceBoundary(t *testing.T) {
	s, ms := testSession(t,
		answererFunc(func(_ context.Context, q, _ string) (string, error) { return "• Because it makes ATP.", nil }),
		nil,
	)

	// Incomplete fragment waits in the pending buffer
	run(s, func() { s.fragments = append(s.fragments, "So why does the mitochondria") })
	run(s, s.scan)
	assertNoMessage(t, ms)
	run(s, func() { assert.Equal(t, "So why does the mitochondria", s.pendingBuffer) })

	// The next fragment completes the sentence
	run(s, func() { s.fragments = append(s.fragments, "matter so much? Let's find out.") })
	run(s, s.scan)

	// Question then answer
	m := nextMessage(t, ms)
	assert.Equal(t, astilecture.EventChatMessage, m.Name)
	c, err := astilecture.ParseEventChatPayload(m)
	assert.NoError(t, err)
	assert.True(t, c.FromTeacher)
	assert.Equal(t, astilecture.TeacherRole, c.Role)
	assert.Equal(t, "So why does the mitochondria matter so much?", c.Text)

	c, err = astilecture.ParseEventChatPayload(nextMessage(t, ms))
	assert.NoError(t, err)
	assert.Equal(t, astilecture.AssistantRole, c.Role)
	assert.Equal(t, "• Because it makes ATP.", c.Text)
}

func TestScanFlushesStalePendingBuffer(t *testing.T) {
	s, ms := testSession(t,
		answererFunc(func(_ context.Context, q, _ string) (string, error) { return "• It moves along the gradient.", nil }),
		nil,
	)

	// A fragment without terminator waits in the pending buffer
	run(s, func() { s.fragments = append(s.fragments, "why does osmosis occur in cells without any pump") })
	run(s, s.scan)
	assertNoMessage(t, ms)

	// Two silent cycles are not enough
	run(s, s.scan)
	run(s, s.scan)
	assertNoMessage(t, ms)

	// The third one force-flushes
	run(s, s.scan)
	c, err := astilecture.ParseEventChatPayload(nextMessage(t, ms))
	assert.NoError(t, err)
	assert.Equal(t, astilecture.TeacherRole, c.Role)
	assert.Equal(t, "why does osmosis occur in cells without any pump?", c.Text)
	nextMessage(t, ms)

	// The buffer is spent
	run(s, func() { assert.Equal(t, "", s.pendingBuffer) })
	run(s, s.scan)
	assertNoMessage(t, ms)
}

func TestHandleStudentQuestion(t *testing.T) {
	s, ms := testSession(t,
		answererFunc(func(_ context.Context, q, full string) (string, error) {
			assert.Equal(t, "What is osmosis?", q)
			return "• Diffusion of water across a membrane.", nil
		}),
		nil,
	)

	s.HandleStudentQuestion(astilecture.StudentQuestion{Text: "What is osmosis?"})
	c, err := astilecture.ParseEventChatPayload(nextMessage(t, ms))
	assert.NoError(t, err)
	assert.False(t, c.FromTeacher)
	assert.Equal(t, astilecture.AssistantRole, c.Role)
	assert.Equal(t, "• Diffusion of water across a membrane.", c.Text)
}

func TestEvolveDiagramGatesOnWordGrowth(t *testing.T) {
	var calls int
	s, ms := testSession(t, nil,
		diagrammerFunc(func(_ context.Context, _ string, previous astilecture.Graph) (astilecture.Graph, error) {
			calls++
			g := previous.Clone()
			g.Nodes = append(g.Nodes, astilecture.Node{
				Bullets: []string{},
				ID:      "osmosis",
				Label:   "Osmosis",
				Type:    astilecture.TopicNodeType,
			})
			return g, nil
		}),
	)

	// Not enough words yet
	run(s, func() {
		s.fragments = append(s.fragments, "Today we talk about osmosis.", "Water crosses the membrane.")
	})
	run(s, s.evolveDiagram)
	assertNoMessage(t, ms)
	assert.Equal(t, 0, calls)

	// Enough growth triggers a regeneration
	run(s, func() {
		s.fragments = append(s.fragments,
			"Osmosis is the movement of water across a semipermeable membrane.",
			"It goes from the region of lower solute concentration to the higher one.",
			"No energy input is required because the process is entirely passive.",
		)
	})
	run(s, s.evolveDiagram)
	m := nextMessage(t, ms)
	assert.Equal(t, astilecture.EventDiagramUpdateMessage, m.Name)
	g, err := astilecture.ParseEventDiagramUpdatePayload(m)
	assert.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
	assert.Equal(t, 1, calls)

	// The watermark advanced: no growth, no regeneration
	run(s, s.evolveDiagram)
	assertNoMessage(t, ms)
	assert.Equal(t, 1, calls)
}

func TestEvolveDiagramKeepsWatermarkOnFailure(t *testing.T) {
	fail := true
	var calls int
	s, ms := testSession(t, nil,
		diagrammerFunc(func(_ context.Context, _ string, previous astilecture.Graph) (astilecture.Graph, error) {
			calls++
			if fail {
				return astilecture.Graph{}, assert.AnError
			}
			g := previous.Clone()
			g.Nodes = append(g.Nodes, astilecture.Node{Bullets: []string{}, ID: "t", Label: "T", Type: astilecture.TopicNodeType})
			return g, nil
		}),
	)

	// Enough material for a first regeneration
	run(s, func() {
		s.fragments = append(s.fragments,
			"Osmosis is the movement of water across a semipermeable membrane.",
			"It goes from the region of lower solute concentration to the higher one.",
			"No energy input is required because the process is entirely passive.",
		)
	})

	// Failure leaves the watermark untouched
	run(s, s.evolveDiagram)
	assertNoMessage(t, ms)
	run(s, func() { assert.Equal(t, 0, s.lastDiagramWordCount) })
	assert.Equal(t, 1, calls)

	// The next cycle retries with the same transcript
	fail = false
	run(s, s.evolveDiagram)
	m := nextMessage(t, ms)
	assert.Equal(t, astilecture.EventDiagramUpdateMessage, m.Name)
	assert.Equal(t, 2, calls)
}

func TestHandleAudioSegmentAppendsAcceptedFragment(t *testing.T) {
	ms := make(chan *astilecture.Message, 16)
	s := New("class-test",
		transcriberFunc(func(_ context.Context, data []byte, mimeType string) (string, error) {
			assert.Equal(t, "audio/wav", mimeType)
			return "Photosynthesis converts light energy into chemical energy.", nil
		}),
		nil, nil,
		transcript.NewFilter(transcript.FilterOptions{}),
		func(m *astilecture.Message) { ms <- m },
		Options{DiagramPeriod: time.Hour, ScanPeriod: time.Hour},
	)
	s.Start()
	t.Cleanup(s.Close)

	s.HandleAudioSegment(astilecture.AudioSegment{Data: []byte{1, 2, 3}, MimeType: "audio/wav"})
	m := nextMessage(t, ms)
	assert.Equal(t, astilecture.EventTranscriptMessage, m.Name)
	tr, err := astilecture.ParseEventTranscriptPayload(m)
	assert.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light energy into chemical energy.", tr.Text)
	run(s, func() { assert.Equal(t, []string{tr.Text}, s.fragments) })
}

func TestHandleAudioSegmentDropsJunk(t *testing.T) {
	ms := make(chan *astilecture.Message, 16)
	s := New("class-test",
		transcriberFunc(func(_ context.Context, _ []byte, _ string) (string, error) {
			return "Thank you for watching!", nil
		}),
		nil, nil,
		transcript.NewFilter(transcript.FilterOptions{}),
		func(m *astilecture.Message) { ms <- m },
		Options{DiagramPeriod: time.Hour, ScanPeriod: time.Hour},
	)
	s.Start()
	t.Cleanup(s.Close)

	s.HandleAudioSegment(astilecture.AudioSegment{Data: []byte{1}, MimeType: "audio/wav"})
	assertNoMessage(t, ms)
	run(s, func() { assert.Empty(t, s.fragments) })
}
