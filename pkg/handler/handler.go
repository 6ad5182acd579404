package handler

import (
	"net/http"
)

// Handler is a ready to use handler with routing.
type Handler struct {
	*UnroutedHandler
	http.Handler
}

// NewHandler creates a routed handler for the upload slot protocol. This is
// the simplest way to use the package but may not be as configurable as you
// require. If you are integrating this into an existing app you may like to
// use NewUnroutedHandler instead, which allows the individual method
// handlers to be combined into your existing router (aka mux) directly.
//
// Method dispatch is a closed enumeration: GET, HEAD and PUT are handled,
// OPTIONS is answered by the middleware, and every other method is declined
// to the configured fallback handler.
func NewHandler(config Config) (*Handler, error) {
	handler, err := NewUnroutedHandler(config)
	if err != nil {
		return nil, err
	}

	routedHandler := &Handler{
		UnroutedHandler: handler,
	}

	mux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			handler.GetFile(w, r)
		case "HEAD":
			handler.HeadFile(w, r)
		case "PUT":
			handler.PutFile(w, r)
		default:
			handler.decline(handler.newContext(w, r))
		}
	})

	routedHandler.Handler = handler.Middleware(mux)

	return routedHandler, nil
}
