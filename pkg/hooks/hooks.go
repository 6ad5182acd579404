// Package hooks allows you to notify external systems about completed
// uploads, using the notification channel exposed by the handler. The actual
// notification transports are implemented in the subpackages and this
// package provides the glue between the handler and the hook system. For
// example, to use the HTTP-based hook system:
//
//	import (
//		"github.com/slotd/slotd/pkg/handler"
//		"github.com/slotd/slotd/pkg/hooks"
//		"github.com/slotd/slotd/pkg/hooks/http"
//	)
//	config := handler.Config{}
//	hookHandler := &http.HttpHook{
//		Endpoint: "https://example.com",
//	}
//	handler, err := hooks.NewHandlerWithHooks(&config, hookHandler)
package hooks

import (
	"fmt"
	"log/slog"

	"github.com/slotd/slotd/pkg/handler"
)

// HookType is the name of a hook event.
type HookType string

const (
	// HookPostUpload is emitted after a file has been stored completely and
	// the 201 response has been handed to the client.
	HookPostUpload HookType = "post-upload"
)

// AvailableHooks is a slice of all hook types this package can emit.
var AvailableHooks = []HookType{HookPostUpload}

// HookHandler is the main interface to be implemented by all hook backends.
type HookHandler interface {
	// Setup is invoked once the hook backend is initialized.
	Setup() error
	// InvokeHook is invoked for every emitted event. req contains the
	// corresponding information about the hook type, the stored file, and
	// the causing HTTP request. Notifications are fire-and-forget: a
	// returned error is logged but does not influence the upload, which
	// has already completed at this point.
	InvokeHook(req HookRequest) error
}

// HookRequest contains the information about the hook type, the stored
// file, and the causing HTTP request.
type HookRequest struct {
	// Type is the name of the hook.
	Type HookType
	// Event contains the involved upload and causing HTTP request.
	Event handler.HookEvent
}

// NewHandlerWithHooks creates a routed handler from the config and starts a
// goroutine which forwards completed uploads to the hook backend. The
// NotifyCompleteUploads field of the config is enabled by this function.
func NewHandlerWithHooks(config *handler.Config, hookHandler HookHandler) (*handler.Handler, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := hookHandler.Setup(); err != nil {
		return nil, fmt.Errorf("unable to setup hooks for handler: %w", err)
	}

	config.NotifyCompleteUploads = true

	routedHandler, err := handler.NewHandler(*config)
	if err != nil {
		return nil, err
	}

	go func() {
		for event := range routedHandler.CompleteUploads {
			req := HookRequest{
				Type:  HookPostUpload,
				Event: event,
			}

			if err := hookHandler.InvokeHook(req); err != nil {
				logger.Error("HookInvocationError", "type", string(req.Type), "path", event.Upload.Path, "error", err.Error())
			}
		}
	}()

	return routedHandler, nil
}
