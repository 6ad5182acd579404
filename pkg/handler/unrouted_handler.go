package handler

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// allowedMethods is the value of the Allow header sent in response to
// OPTIONS requests. All other methods are declined to the fallback handler.
const allowedMethods = "OPTIONS, HEAD, GET, PUT"

var (
	ErrLengthRequired  = NewError("ERR_LENGTH_REQUIRED", "missing or invalid Content-Length header", http.StatusLengthRequired)
	ErrInvalidToken    = NewError("ERR_INVALID_TOKEN", "missing or invalid authorization token", http.StatusForbidden)
	ErrInvalidPath     = NewError("ERR_INVALID_PATH", "request path does not denote an uploadable location", http.StatusBadRequest)
	ErrMissingBody     = NewError("ERR_MISSING_BODY", "request carries no body source", http.StatusBadRequest)
	ErrFileExists      = NewError("ERR_FILE_EXISTS", "destination is already occupied by an earlier upload", http.StatusConflict)
	ErrAccessDenied    = NewError("ERR_ACCESS_DENIED", "insufficient permissions for the destination", http.StatusForbidden)
	ErrInternalStore   = NewError("ERR_INTERNAL_SERVER_ERROR", "internal server error", http.StatusInternalServerError)
	ErrReadTimeout     = NewError("ERR_READ_TIMEOUT", "timeout while reading request body", http.StatusInternalServerError)
	ErrConnectionReset = NewError("ERR_CONNECTION_RESET", "TCP connection reset by peer", http.StatusInternalServerError)
)

// spooledBody is implemented by request bodies that have already been
// written to a temporary file on disk, for example when the host server
// buffers uploads before handing them over. Such bodies are moved into
// place instead of being copied through userspace a second time. The
// handler takes ownership of the temporary file. *os.File satisfies this
// interface.
type spooledBody interface {
	io.Reader
	Name() string
}

// UnroutedHandler exposes methods to handle requests as part of the upload
// slot protocol, such as PutFile, GetFile and HeadFile. It expects the
// methods to be combined with a router (aka mux) of your choice. If you are
// looking for a preconfigured handler, see NewHandler.
type UnroutedHandler struct {
	config Config
	store  DataStore
	logger *slog.Logger

	// CompleteUploads is used to send notifications whenever an upload is
	// completed by a user. The HookEvent will contain information about this
	// upload after it is completed. Sending to this channel will only
	// happen if the NotifyCompleteUploads field is set to true in the Config
	// structure.
	CompleteUploads chan HookEvent

	// Metrics provides numbers of the usage for this handler.
	Metrics Metrics
}

// NewUnroutedHandler creates a new handler without routing using the given
// configuration. It exposes the http handlers which need to be combined with
// a router (aka mux) of your choice. If you are looking for a preconfigured
// handler, see NewHandler.
func NewUnroutedHandler(config Config) (*UnroutedHandler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	handler := &UnroutedHandler{
		config:          config,
		store:           config.Store,
		logger:          config.Logger,
		CompleteUploads: make(chan HookEvent),
		Metrics:         newMetrics(),
	}

	return handler, nil
}

// Middleware attaches the configured extra headers to every response before
// any method-specific handling runs, answers OPTIONS requests with the
// supported methods and hands all other requests to h.
func (handler *UnroutedHandler) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := handler.newContext(w, r)

		handler.logger.Info("RequestIncoming", "method", r.Method, "path", r.URL.Path, "requestId", getRequestId(r))

		handler.Metrics.incRequestsTotal(r.Method)

		header := w.Header()

		for key, value := range handler.config.ExtraHeaders {
			header.Set(key, value)
		}

		// Add nosniff to all responses https://golang.org/src/net/http/server.go#L1429
		header.Set("X-Content-Type-Options", "nosniff")

		// Answer OPTIONS requests with the supported methods and no body,
		// allowing capability discovery by clients.
		if r.Method == "OPTIONS" {
			handler.sendResp(c, HTTPResponse{
				StatusCode: http.StatusOK,
				Header: HTTPHeader{
					"Allow": allowedMethods,
				},
			})
			return
		}

		// Proceed with routing the request
		h.ServeHTTP(w, r)
	})
}

// PutFile stores the request body under the path derived from the request
// URI, after validating the MAC from the v query parameter. The MAC covers
// the pair of path and content length, so a missing Content-Length header is
// rejected before anything else. No disk access happens for requests without
// a valid token.
func (handler *UnroutedHandler) PutFile(w http.ResponseWriter, r *http.Request) {
	c := handler.newContext(w, r)

	// The declared length is part of the MAC message, so it must be known
	// up front. Transfer encodings without a length cannot be authorized.
	if r.Header.Get("Content-Length") == "" {
		handler.sendError(c, ErrLengthRequired)
		return
	}

	length, err := strconv.ParseInt(r.Header.Get("Content-Length"), 10, 64)
	if err != nil || length < 0 {
		handler.sendError(c, ErrLengthRequired)
		return
	}

	path := resolvePath(r.URL.Path, handler.config.StripPrefixSegments)
	if path == "" {
		handler.sendError(c, ErrInvalidPath)
		return
	}

	if !verifyToken(handler.config.Secret, path, length, r.URL.Query().Get("v")) {
		handler.sendError(c, ErrInvalidToken)
		return
	}

	if r.Body == nil {
		handler.sendError(c, ErrMissingBody)
		return
	}

	var info FileInfo
	if spooled, ok := r.Body.(spooledBody); ok {
		info, err = handler.store.CreateFromFile(c, path, spooled.Name())
	} else {
		info, err = handler.store.Create(c, path, r.Body)
	}
	if err != nil {
		handler.logger.Error("UploadStoreError", "path", path, "error", err.Error(), "requestId", getRequestId(r))
		handler.sendError(c, classifyStoreError(err))
		return
	}

	handler.Metrics.incBytesReceived(uint64(info.Size))
	handler.Metrics.incUploadsCreated()
	handler.logger.Info("UploadCreated", "path", path, "size", info.Size, "requestId", getRequestId(r))

	if handler.config.NotifyCompleteUploads {
		handler.CompleteUploads <- newHookEvent(c, info)
	}

	handler.sendResp(c, HTTPResponse{
		StatusCode: http.StatusCreated,
	})
}

// GetFile handles requests to download an uploaded file. If no stored file
// corresponds to the request path, the request is declined to the fallback
// handler instead of answering with an error body.
func (handler *UnroutedHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	handler.serveFile(w, r)
}

// HeadFile handles requests for the metadata of an uploaded file. The
// response carries the file's current content length but no body.
func (handler *UnroutedHandler) HeadFile(w http.ResponseWriter, r *http.Request) {
	handler.serveFile(w, r)
}

func (handler *UnroutedHandler) serveFile(w http.ResponseWriter, r *http.Request) {
	c := handler.newContext(w, r)

	path := resolvePath(r.URL.Path, handler.config.StripPrefixSegments)
	if path == "" {
		handler.decline(c)
		return
	}

	stat, err := handler.store.Stat(c, path)
	if err != nil || !stat.Mode().IsRegular() {
		// A missing or unreadable file is not an error of this handler. The
		// fallback produces whatever the deployment considers a 404.
		handler.decline(c)
		return
	}

	if err := handler.store.ServeContent(c, path, w, r); err != nil {
		handler.logger.Error("DownloadError", "path", path, "error", err.Error(), "requestId", getRequestId(r))
		return
	}

	handler.Metrics.incDownloadsServed()
	handler.logger.Info("DownloadServed", "method", r.Method, "path", path, "size", stat.Size(), "requestId", getRequestId(r))
}

// decline hands the request over to the configured fallback handler, which
// plays the role of the host server's default handling.
func (handler *UnroutedHandler) decline(c *httpContext) {
	handler.logger.Info("RequestDeclined", "method", c.req.Method, "path", c.req.URL.Path, "requestId", getRequestId(c.req))
	handler.config.Fallback.ServeHTTP(c.res, c.req)
}

// classifyStoreError maps an error from the storage layer to the Error sent
// to the client. The mapping is exhaustive over the storage error taxonomy:
// a destination that already exists yields 409, denied filesystem
// permissions yield 403 and everything else is an internal error. The
// underlying detail has been logged by the caller and is not echoed to the
// client.
func classifyStoreError(err error) Error {
	switch {
	case errors.Is(err, fs.ErrExist):
		return ErrFileExists
	case errors.Is(err, fs.ErrPermission):
		return ErrAccessDenied
	default:
		return ErrInternalStore
	}
}

// sendError sends the error in the response body. Errors which are not an
// Error value are logged and translated into a generic internal error
// response, so no system error detail reaches the client.
func (handler *UnroutedHandler) sendError(c *httpContext, err error) {
	// Errors for read timeouts contain too much information which is not
	// necessary for us and makes grouping for the metrics harder. The error
	// message looks like: read tcp 127.0.0.1:1080->127.0.0.1:53673: i/o timeout
	// Therefore, we use a common error message for all of them.
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		err = ErrReadTimeout
	}

	// Errors for connection resets also contain TCP details we don't need, e.g:
	// read tcp 127.0.0.1:1080->127.0.0.1:10023: read: connection reset by peer
	// Therefore, we also trim those down.
	if strings.HasSuffix(err.Error(), "read: connection reset by peer") {
		err = ErrConnectionReset
	}

	r := c.req

	detailedErr, ok := err.(Error)
	if !ok {
		handler.logger.Error("InternalServerError", "message", err.Error(), "method", r.Method, "path", r.URL.Path, "requestId", getRequestId(r))
		detailedErr = ErrInternalStore
	}

	// If we are sending the response for a HEAD request, ensure that we are not including
	// any response body.
	if r.Method == "HEAD" {
		detailedErr.HTTPResponse.Body = ""
	}

	handler.sendResp(c, detailedErr.HTTPResponse)
	handler.Metrics.incErrorsTotal(detailedErr)
}

// sendResp writes the header to w with the specified status code.
func (handler *UnroutedHandler) sendResp(c *httpContext, resp HTTPResponse) {
	resp.writeTo(c.res)

	handler.logger.Info("ResponseOutgoing", "status", resp.StatusCode, "method", c.req.Method, "path", c.req.URL.Path, "requestId", getRequestId(c.req))
}

// getRequestId returns the value of the X-Request-ID header, if available,
// and also takes care of truncating the input.
func getRequestId(r *http.Request) string {
	reqId := r.Header.Get("X-Request-ID")
	if reqId == "" {
		return ""
	}

	// Limit the length of the request ID to 36 characters, which is enough
	// to fit a UUID.
	if len(reqId) > 36 {
		reqId = reqId[:36]
	}

	return reqId
}
