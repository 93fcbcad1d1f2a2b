package index

import (
	"net/http"

	astihttp "github.com/asticode/go-astitools/http"
	"github.com/julienschmidt/httprouter"
)

// Server prefixes
const (
	apiPrefix = "/api"
)

// Serve spawns the server
func (i *Index) Serve() {
	// Create router
	r := httprouter.New()

	// API
	r.GET(apiPrefix+"/ok", i.ok)

	// Websockets
	r.GET("/websockets/class", i.handleClassWebsocket)

	// Chain middlewares
	h := astihttp.ChainMiddlewares(http.Handler(r), astihttp.MiddlewareBasicAuth(i.o.Server.Username, i.o.Server.Password))
	h = astihttp.ChainMiddlewaresWithPrefix(h, []string{apiPrefix + "/"}, astihttp.MiddlewareContentType("application/json"))

	// Serve
	i.w.Serve(i.o.Server.Addr, h)
}

func (i *Index) ok(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {}
