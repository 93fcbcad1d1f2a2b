package index

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilecture/session"
	"github.com/asticode/go-astilog"
	astiptr "github.com/asticode/go-astitools/ptr"
	"github.com/asticode/go-astiws"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

var classCount uint64

func nextClassName() string {
	return fmt.Sprintf("class-%d", atomic.AddUint64(&classCount, 1))
}

func (i *Index) handleClassWebsocket(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := i.wc.ServeHTTP(rw, r, i.adaptClassWebsocket); err != nil {
		if v, ok := errors.Cause(err).(*websocket.CloseError); !ok || v.Code != websocket.CloseNormalClosure {
			astilog.Error(errors.Wrap(err, "index: handling class websocket failed"))
		}
		return
	}
}

func (i *Index) adaptClassWebsocket(c *astiws.Client) (err error) {
	// Register client
	name := nextClassName()
	i.wc.RegisterClient(name, c)

	// Create session owned by this connection
	s := session.New(name, i.t, i.a, i.dg, i.f, func(m *astilecture.Message) { i.d.Dispatch(m) }, i.o.Session)

	// Update pool
	i.ms.Lock()
	i.ss[name] = s
	i.ms.Unlock()

	// Start session
	s.Start()

	// Handle disconnect
	c.SetListener(astiws.EventNameDisconnect, func(_ *astiws.Client, _ string, _ json.RawMessage) error {
		i.delClass(name)
		return nil
	})

	// Set message handler
	c.SetMessageHandler(i.handleClassMessage(name))

	// Log
	astilog.Infof("index: class %s has connected", name)

	// Create welcome message
	var m *astilecture.Message
	if m, err = astilecture.NewEventClassWelcomeMessage(from, &astilecture.Identifier{
		Name: astiptr.Str(name),
		Type: astilecture.ClassIdentifierType,
	}, name); err != nil {
		err = errors.Wrap(err, "index: creating welcome message failed")
		return
	}

	// Write
	if err = c.WriteJSON(m); err != nil {
		err = errors.Wrap(err, "index: writing welcome message failed")
		return
	}
	return
}

// delClass tears the session down: both schedulers are cancelled before the
// record is discarded.
func (i *Index) delClass(name string) {
	// Update pool
	i.ms.Lock()
	s, ok := i.ss[name]
	delete(i.ss, name)
	i.ms.Unlock()

	// Close session
	if ok {
		s.Close()
	}

	// Unregister client
	i.wc.UnregisterClient(name)

	// Log
	astilog.Infof("index: class %s has disconnected", name)
}

func (i *Index) handleClassMessage(name string) astiws.MessageHandler {
	return func(p []byte) (err error) {
		// Unmarshal
		m := astilecture.NewMessage()
		if err = json.Unmarshal(p, m); err != nil {
			err = errors.Wrap(err, "index: unmarshaling failed")
			return
		}

		// Identify the sender ourselves: the connection owns the session
		m.From = astilecture.Identifier{
			Name: astiptr.Str(name),
			Type: astilecture.ClassIdentifierType,
		}

		// Dispatch
		i.d.Dispatch(m)
		return
	}
}

func (i *Index) classSession(m *astilecture.Message) (s *session.Session, err error) {
	// No name
	if m.From.Name == nil {
		err = errors.New("index: no from name in message")
		return
	}

	// Retrieve session
	i.ms.Lock()
	s, ok := i.ss[*m.From.Name]
	i.ms.Unlock()
	if !ok {
		err = fmt.Errorf("index: session %s doesn't exist", *m.From.Name)
		return
	}
	return
}

func (i *Index) handleAudioSegment(m *astilecture.Message) (err error) {
	// Retrieve session
	var s *session.Session
	if s, err = i.classSession(m); err != nil {
		err = errors.Wrap(err, "index: retrieving session failed")
		return
	}

	// Parse payload
	var seg astilecture.AudioSegment
	if seg, err = astilecture.ParseCmdAudioSegmentPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing payload failed")
		return
	}

	// Log
	astilog.Debugf("index: received audio segment of %d bytes from %s", len(seg.Data), s.Name())

	// Handle
	s.HandleAudioSegment(seg)
	return
}

func (i *Index) handleStudentQuestion(m *astilecture.Message) (err error) {
	// Retrieve session
	var s *session.Session
	if s, err = i.classSession(m); err != nil {
		err = errors.Wrap(err, "index: retrieving session failed")
		return
	}

	// Parse payload
	var q astilecture.StudentQuestion
	if q, err = astilecture.ParseCmdStudentQuestionPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing payload failed")
		return
	}

	// Handle
	s.HandleStudentQuestion(q)
	return
}

func (i *Index) sendMessageToClass(m *astilecture.Message) (err error) {
	// Get clients
	var cs []*astiws.Client
	if m.To != nil && m.To.Name != nil {
		// Retrieve client from manager
		c, ok := i.wc.Client(*m.To.Name)
		if !ok {
			// The class disconnected: drop the message
			astilog.Debugf("index: dropping %s message, client %s doesn't exist", m.Name, *m.To.Name)
			return
		}

		// Append client
		cs = append(cs, c)
	} else {
		// Loop through clients
		i.wc.Clients(func(_ interface{}, c *astiws.Client) (err error) {
			cs = append(cs, c)
			return
		})
	}

	// Loop through clients
	for _, c := range cs {
		// Write
		if err = c.WriteJSON(m); err != nil {
			err = errors.Wrap(err, "index: writing JSON message failed")
			return
		}
	}
	return
}
