package index

import (
	"sync"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilecture/session"
	"github.com/asticode/go-astilecture/transcript"
	"github.com/asticode/go-astilog"
	astiptr "github.com/asticode/go-astitools/ptr"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/asticode/go-astiws"
	"github.com/pkg/errors"
)

// Vars
var (
	from = astilecture.Identifier{Type: astilecture.IndexIdentifierType}
)

type Options struct {
	Server  ServerOptions   `toml:"server"`
	Session session.Options `toml:"session"`
}

type ServerOptions struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	Username string `toml:"username"`
}

// Index is the lecture server: it owns one session per connected class client
// and routes messages between sessions and websockets.
type Index struct {
	a  session.Answerer
	d  *astilecture.Dispatcher
	dg session.Diagrammer
	f  *transcript.Filter
	ms *sync.Mutex // Locks ss
	o  Options
	ss map[string]*session.Session
	t  session.Transcriber
	w  *astiworker.Worker
	wc *astiws.Manager
}

// New creates a new index
func New(t session.Transcriber, a session.Answerer, dg session.Diagrammer, f *transcript.Filter, o Options) (i *Index) {
	// Create index
	i = &Index{
		a:  a,
		d:  astilecture.NewDispatcher(),
		dg: dg,
		f:  f,
		ms: &sync.Mutex{},
		o:  o,
		ss: make(map[string]*session.Session),
		t:  t,
		w:  astiworker.NewWorker(),
		wc: astiws.NewManager(astiws.ManagerConfiguration{}),
	}

	// Default options
	if i.o.Server.Addr == "" {
		i.o.Server.Addr = "127.0.0.1:4000"
	}

	// Add dispatcher handlers
	i.d.On(astilecture.DispatchConditions{Name: astiptr.Str(astilecture.CmdAudioSegmentMessage)}, i.handleAudioSegment)
	i.d.On(astilecture.DispatchConditions{Name: astiptr.Str(astilecture.CmdStudentQuestionMessage)}, i.handleStudentQuestion)
	i.d.On(astilecture.DispatchConditions{To: &astilecture.Identifier{Type: astilecture.ClassIdentifierType}}, i.sendMessageToClass)
	return
}

// Close closes the index properly
func (i *Index) Close() error {
	// Close sessions
	i.ms.Lock()
	for _, s := range i.ss {
		s.Close()
	}
	i.ss = make(map[string]*session.Session)
	i.ms.Unlock()

	// Close class clients
	if i.wc != nil {
		if err := i.wc.Close(); err != nil {
			astilog.Error(errors.Wrap(err, "index: closing class clients failed"))
		}
	}
	return nil
}

// HandleSignals handles signals
func (i *Index) HandleSignals() {
	i.w.HandleSignals()
}

// Wait waits for the index to be stopped
func (i *Index) Wait() {
	i.w.Wait()
}

// Stop stops the index
func (i *Index) Stop() {
	i.w.Stop()
}

// On makes sure to handle messages with specific conditions
func (i *Index) On(c astilecture.DispatchConditions, h astilecture.MessageHandler) {
	i.d.On(c, h)
}
