package listener

import (
	"encoding/json"
	"sync"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilecture/listen"
	"github.com/asticode/go-astilog"
	astiptr "github.com/asticode/go-astitools/ptr"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/asticode/go-astiws"
	"github.com/pkg/errors"
)

type Options struct {
	Gate   listen.GateOptions `toml:"gate"`
	Index  IndexOptions       `toml:"index"`
	Server ServerOptions      `toml:"server"`
}

type IndexOptions struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	Username string `toml:"username"`
}

type ServerOptions struct {
	Addr string `toml:"addr"`
}

// Listener captures microphone audio, gates it and ships accepted segments to
// the index over a websocket.
type Listener struct {
	d    *astilecture.Dispatcher
	g    *listen.Gate
	m    *sync.Mutex // Locks name
	name string
	o    Options
	w    *astiworker.Worker
	ws   *astiws.Client
}

// New creates a new listener
func New(s listen.Stream, o Options) (l *Listener) {
	// Create listener
	l = &Listener{
		d:  astilecture.NewDispatcher(),
		m:  &sync.Mutex{},
		o:  o,
		w:  astiworker.NewWorker(),
		ws: astiws.NewClient(astiws.ClientConfiguration{}),
	}

	// Default options
	if l.o.Index.Addr == "" {
		l.o.Index.Addr = "127.0.0.1:4000"
	}
	if l.o.Server.Addr == "" {
		l.o.Server.Addr = "127.0.0.1:4001"
	}

	// Create gate
	l.g = listen.NewGate(s, l.sendAudioSegment, l.o.Gate)

	// Add websocket message handler
	l.ws.SetMessageHandler(l.handleIndexMessage)

	// Add dispatcher handlers
	l.d.On(astilecture.DispatchConditions{Name: astiptr.Str(astilecture.EventClassWelcomeMessage)}, l.finishRegistration)
	l.d.On(astilecture.DispatchConditions{Name: astiptr.Str(astilecture.EventTranscriptMessage)}, l.handleTranscript)
	l.d.On(astilecture.DispatchConditions{Name: astiptr.Str(astilecture.EventChatMessage)}, l.handleChat)
	l.d.On(astilecture.DispatchConditions{To: &astilecture.Identifier{Type: astilecture.IndexIdentifierType}}, l.sendMessageToIndex)
	return
}

// Close closes the listener properly
func (l *Listener) Close() error {
	// Stop gate
	l.g.Stop()

	// Close websocket
	if err := l.ws.Close(); err != nil {
		astilog.Error(errors.Wrap(err, "listener: closing websocket failed"))
	}
	return nil
}

// HandleSignals handles signals
func (l *Listener) HandleSignals() {
	l.w.HandleSignals()
}

// Wait waits for the listener to be stopped
func (l *Listener) Wait() {
	l.w.Wait()
}

// Stop stops the listener
func (l *Listener) Stop() {
	l.w.Stop()
}

func (l *Listener) from() astilecture.Identifier {
	l.m.Lock()
	defer l.m.Unlock()
	i := astilecture.Identifier{Type: astilecture.ClassIdentifierType}
	if l.name != "" {
		i.Name = astiptr.Str(l.name)
	}
	return i
}

func (l *Listener) handleIndexMessage(p []byte) (err error) {
	// Log
	astilog.Debugf("listener: handling index message %s", p)

	// Unmarshal
	m := astilecture.NewMessage()
	if err = json.Unmarshal(p, m); err != nil {
		err = errors.Wrap(err, "listener: unmarshaling failed")
		return
	}

	// Dispatch
	l.d.Dispatch(m)
	return
}

func (l *Listener) finishRegistration(m *astilecture.Message) (err error) {
	// Parse payload
	var name string
	if name, err = astilecture.ParseEventClassWelcomePayload(m); err != nil {
		err = errors.Wrap(err, "listener: parsing payload failed")
		return
	}

	// Store name
	l.m.Lock()
	l.name = name
	l.m.Unlock()

	// Log
	astilog.Infof("listener: registered to the index as %s", name)
	return
}

func (l *Listener) handleTranscript(m *astilecture.Message) (err error) {
	// Parse payload
	var t astilecture.Transcript
	if t, err = astilecture.ParseEventTranscriptPayload(m); err != nil {
		err = errors.Wrap(err, "listener: parsing payload failed")
		return
	}

	// Log
	astilog.Infof("listener: transcript: %s", t.Text)
	return
}

func (l *Listener) handleChat(m *astilecture.Message) (err error) {
	// Parse payload
	var c astilecture.Chat
	if c, err = astilecture.ParseEventChatPayload(m); err != nil {
		err = errors.Wrap(err, "listener: parsing payload failed")
		return
	}

	// Log
	astilog.Infof("listener: chat (%s): %s", c.Role, c.Text)
	return
}

func (l *Listener) sendAudioSegment(s astilecture.AudioSegment) {
	// Create message
	m, err := astilecture.NewCmdAudioSegmentMessage(l.from(), &astilecture.Identifier{Type: astilecture.IndexIdentifierType}, s)
	if err != nil {
		astilog.Error(errors.Wrap(err, "listener: creating audio segment message failed"))
		return
	}

	// Dispatch
	l.d.Dispatch(m)
}

// AskQuestion ships a direct question to the index.
func (l *Listener) AskQuestion(text string) (err error) {
	// Create message
	var m *astilecture.Message
	if m, err = astilecture.NewCmdStudentQuestionMessage(l.from(), &astilecture.Identifier{Type: astilecture.IndexIdentifierType}, astilecture.StudentQuestion{Text: text}); err != nil {
		err = errors.Wrap(err, "listener: creating student question message failed")
		return
	}

	// Dispatch
	l.d.Dispatch(m)
	return
}

func (l *Listener) sendMessageToIndex(m *astilecture.Message) (err error) {
	// Write
	if err = l.ws.WriteJSON(m); err != nil {
		err = errors.Wrap(err, "listener: writing JSON message failed")
		return
	}
	return
}
