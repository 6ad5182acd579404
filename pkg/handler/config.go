package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
)

// Config provides a way to configure the Handler depending on your needs.
// The zero value is not usable; at least Store and Secret must be set.
// A Config is treated as immutable once a handler has been created from it.
type Config struct {
	// Store is the storage backend used to create uploaded files and to
	// serve them back for downloads.
	Store DataStore
	// Secret is the shared secret also known to the XMPP server component
	// that issues upload slots. The MAC in the upload URL is keyed with it.
	Secret string
	// StripPrefixSegments is the number of leading path segments that are
	// removed from the request path before it is used as the MAC message
	// and the storage location. For uploads rooted at "/some/prefix/" this
	// is 2. If the path has fewer segments, only the existing ones are
	// stripped.
	StripPrefixSegments int
	// ExtraHeaders is a fixed set of headers added to every response before
	// any method-specific handling, intended for cross-origin access
	// control, e.g. Access-Control-Allow-Origin.
	ExtraHeaders HTTPHeader
	// Fallback is invoked whenever the handler declines a request, i.e. for
	// GET/HEAD requests to paths without a stored file and for unsupported
	// methods. It takes the role of the host server's default handling.
	// Defaults to http.NotFoundHandler().
	Fallback http.Handler
	// NotifyCompleteUploads indicates whether sending notifications about
	// completed uploads using the CompleteUploads channel should be enabled.
	NotifyCompleteUploads bool
	// Logger is the logger to use internally, mostly for printing requests.
	Logger *slog.Logger
}

func (config *Config) validate() error {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	if config.Fallback == nil {
		config.Fallback = http.NotFoundHandler()
	}

	if config.Store == nil {
		return errors.New("slotd: Store in Config must not be nil")
	}

	if config.Secret == "" {
		return errors.New("slotd: Secret in Config must not be empty")
	}

	if config.StripPrefixSegments < 0 {
		return errors.New("slotd: StripPrefixSegments in Config must not be negative")
	}

	return nil
}
