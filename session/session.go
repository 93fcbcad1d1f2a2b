package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilecture/transcript"
	"github.com/asticode/go-astilog"
	astiptr "github.com/asticode/go-astitools/ptr"
	astisync "github.com/asticode/go-astitools/sync"
	"github.com/pkg/errors"
)

// Transcriber turns an audio segment into text. An empty string means the
// segment produced nothing usable.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Answerer answers a question using the accumulated transcript as context.
type Answerer interface {
	Answer(ctx context.Context, question, fullTranscript string) (string, error)
}

// Diagrammer evolves the previous graph based on the full transcript.
type Diagrammer interface {
	Diagram(ctx context.Context, fullTranscript string, previous astilecture.Graph) (astilecture.Graph, error)
}

// EmitFunc pushes a message towards the session's class client.
type EmitFunc func(m *astilecture.Message)

type Options struct {
	DiagramMinWordGrowth int           `toml:"diagram_min_word_growth"`
	DiagramPeriod        time.Duration `toml:"diagram_period"`
	MaxStaleCycles       int           `toml:"max_stale_cycles"`
	ScanPeriod           time.Duration `toml:"scan_period"`
}

var chatCount uint64

// Session holds the per-connection state. All mutation goes through c so that
// audio arrivals and the two schedulers never race.
type Session struct {
	a                    Answerer
	c                    *astisync.Chan
	cancel               context.CancelFunc
	ctx                  context.Context
	d                    Diagrammer
	diagram              astilecture.Graph
	diagramInFlight      bool
	emit                 EmitFunc
	f                    *transcript.Filter
	fragments            []string
	lastDiagramWordCount int
	name                 string
	o                    Options
	pendingBuffer        string
	scanCursor           int
	staleCycles          int
	t                    Transcriber
	wg                   *sync.WaitGroup
}

func New(name string, t Transcriber, a Answerer, d Diagrammer, f *transcript.Filter, emit EmitFunc, o Options) (s *Session) {
	// Create session
	s = &Session{
		a:       a,
		c:       astisync.NewChan(astisync.ChanOptions{}),
		d:       d,
		diagram: astilecture.NewGraph(),
		emit:    emit,
		f:       f,
		name:    name,
		o:       o,
		t:       t,
		wg:      &sync.WaitGroup{},
	}

	// Default options
	if s.o.DiagramMinWordGrowth <= 0 {
		s.o.DiagramMinWordGrowth = 30
	}
	if s.o.DiagramPeriod <= 0 {
		s.o.DiagramPeriod = 15 * time.Second
	}
	if s.o.MaxStaleCycles <= 0 {
		s.o.MaxStaleCycles = 3
	}
	if s.o.ScanPeriod <= 0 {
		s.o.ScanPeriod = 5 * time.Second
	}
	return
}

func (s *Session) Name() string { return s.name }

// Start spawns the serialized context and the two schedulers.
func (s *Session) Start() {
	// Create context
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Start chan
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.c.Start(s.ctx)
	}()

	// Start schedulers
	s.wg.Add(2)
	go s.tick(s.o.ScanPeriod, s.scan)
	go s.tick(s.o.DiagramPeriod, s.evolveDiagram)
}

func (s *Session) tick(period time.Duration, f func()) {
	defer s.wg.Done()
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.c.Add(f)
		case <-s.ctx.Done():
			return
		}
	}
}

// Close cancels the schedulers and the serialized context. In-flight external
// requests may still complete but their results are dropped.
func (s *Session) Close() {
	s.cancel()
	s.c.Stop()
	s.wg.Wait()
	astilog.Debugf("session: %s closed", s.name)
}

// HandleAudioSegment transcribes a segment, filters the result and appends the
// accepted fragment to the transcript. Transcription happens outside the
// serialized context so that it never blocks scan or diagram work.
func (s *Session) HandleAudioSegment(seg astilecture.AudioSegment) {
	go func() {
		// Transcribe
		text, err := s.t.Transcribe(s.ctx, seg.Data, seg.MimeType)
		if err != nil {
			astilog.Error(errors.Wrap(err, "session: transcribing failed"))
			return
		}

		// Nothing usable
		if text == "" {
			return
		}

		// Filter
		if !s.f.Accept(s.ctx, text) {
			return
		}

		// Append in the serialized context
		s.c.Add(func() {
			// Session is closed
			if s.ctx.Err() != nil {
				return
			}

			// Append fragment
			s.fragments = append(s.fragments, text)

			// Emit transcript event
			s.emitTranscript(text)
		})
	}()
}

// HandleStudentQuestion answers a direct question with the full transcript as
// context. The answer goes to the requester only.
func (s *Session) HandleStudentQuestion(q astilecture.StudentQuestion) {
	s.c.Add(func() {
		// Session is closed
		if s.ctx.Err() != nil {
			return
		}

		// Snapshot transcript
		full := strings.Join(s.fragments, " ")

		// Answer outside the serialized context
		go func() {
			answer, err := s.a.Answer(s.ctx, q.Text, full)
			if err != nil {
				astilog.Error(errors.Wrap(err, "session: answering student question failed"))
				return
			}

			// Session is closed
			if s.ctx.Err() != nil {
				return
			}

			// Emit answer
			s.emitChat(astilecture.Chat{
				FromTeacher: false,
				ID:          nextChatID(),
				Role:        astilecture.AssistantRole,
				Text:        answer,
			})
		}()
	})
}

func nextChatID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), atomic.AddUint64(&chatCount, 1))
}

func (s *Session) to() *astilecture.Identifier {
	return &astilecture.Identifier{
		Name: astiptr.Str(s.name),
		Type: astilecture.ClassIdentifierType,
	}
}

func (s *Session) from() astilecture.Identifier {
	return astilecture.Identifier{Type: astilecture.IndexIdentifierType}
}

func (s *Session) emitTranscript(text string) {
	// Create message
	m, err := astilecture.NewEventTranscriptMessage(s.from(), s.to(), astilecture.Transcript{Text: text})
	if err != nil {
		astilog.Error(errors.Wrap(err, "session: creating transcript message failed"))
		return
	}

	// Emit
	s.emit(m)
}

func (s *Session) emitChat(c astilecture.Chat) {
	// Create message
	m, err := astilecture.NewEventChatMessage(s.from(), s.to(), c)
	if err != nil {
		astilog.Error(errors.Wrap(err, "session: creating chat message failed"))
		return
	}

	// Emit
	s.emit(m)
}

func (s *Session) emitDiagram(g astilecture.Graph) {
	// Create message
	m, err := astilecture.NewEventDiagramUpdateMessage(s.from(), s.to(), g)
	if err != nil {
		astilog.Error(errors.Wrap(err, "session: creating diagram update message failed"))
		return
	}

	// Emit
	s.emit(m)
}
