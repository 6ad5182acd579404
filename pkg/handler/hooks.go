package handler

import (
	"context"
	"net/http"
)

// HookEvent represents an event from the handler, for example a completed
// upload. It is passed to the CompleteUploads channel and from there to the
// configured hook notifiers.
type HookEvent struct {
	// Context provides access to the request-scoped context. It is canceled
	// once the causing HTTP request is finished, so notifiers that outlive
	// the request should derive their own context.
	Context context.Context `json:"-"`
	// Upload contains information about the stored file.
	Upload FileInfo
	// HTTPRequest contains details about the HTTP request that caused the
	// event.
	HTTPRequest HTTPRequest
}

func newHookEvent(c *httpContext, info FileInfo) HookEvent {
	return HookEvent{
		Context: c,
		Upload:  info,
		HTTPRequest: HTTPRequest{
			Method:     c.req.Method,
			URI:        c.req.RequestURI,
			RemoteAddr: c.req.RemoteAddr,
			Header:     cloneHeader(c.req.Header),
		},
	}
}

func cloneHeader(h http.Header) http.Header {
	clone := make(http.Header, len(h))
	for key, values := range h {
		clone[key] = append([]string(nil), values...)
	}
	return clone
}
