package listener

import (
	"encoding/base64"
	"net/http"

	"github.com/asticode/go-astilog"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Connect dials the index and starts capturing once connected. The gate's
// generation counter makes repeated dials after reconnects safe.
func (l *Listener) Connect() {
	// Create headers
	h := make(http.Header)
	if l.o.Index.Password != "" && l.o.Index.Username != "" {
		h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(l.o.Index.Username+":"+l.o.Index.Password)))
	}

	// Dial
	l.w.Dial(astiworker.DialOptions{
		Addr:   "ws://" + l.o.Index.Addr + "/websockets/class",
		Client: l.ws,
		Header: h,
		OnDial: l.startCapture,
		OnReadError: func(err error) {
			if v, ok := errors.Cause(err).(*websocket.CloseError); ok && v.Code == websocket.CloseNormalClosure {
				astilog.Info("listener: listener has disconnected from index")
			} else {
				astilog.Error(errors.Wrap(err, "listener: reading websocket failed"))
			}
		},
	})
}

func (l *Listener) startCapture() (err error) {
	if err = l.g.Start(l.w.Context()); err != nil {
		err = errors.Wrap(err, "listener: starting gate failed")
		return
	}
	return
}
