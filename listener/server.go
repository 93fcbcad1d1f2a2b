package listener

import (
	"net/http"

	"github.com/asticode/go-astilecture"
	astihttp "github.com/asticode/go-astitools/http"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

// Serve spawns the local server. It only exposes the calibration endpoint.
func (l *Listener) Serve() {
	// Create router
	r := httprouter.New()

	// API
	r.GET("/api/ok", l.ok)
	r.GET("/api/calibrate", l.calibrate)

	// Chain middlewares
	h := astihttp.ChainMiddlewares(http.Handler(r), astihttp.MiddlewareContentType("application/json"))

	// Serve
	l.w.Serve(l.o.Server.Addr, h)
}

func (l *Listener) ok(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {}

func (l *Listener) calibrate(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Calibrate
	c, err := l.g.Calibrate()
	if err != nil {
		astilecture.WriteHTTPError(rw, http.StatusInternalServerError, errors.Wrap(err, "listener: calibrating failed"))
		return
	}

	// Write
	astilecture.WriteHTTPData(rw, c)
}
