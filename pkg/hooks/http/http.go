// Package http implements an HTTP-based hook system. For each hook event, it
// will send a POST request to the specified endpoint. The body is a
// JSON-formatted object including the hook type, upload and request
// information.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethgrid/pester"

	"github.com/slotd/slotd/pkg/hooks"
)

// maxResponseBody limits how much of an error response from the hook
// endpoint is read back for the log message.
const maxResponseBody = 4 * 1024

type HttpHook struct {
	Endpoint       string
	MaxRetries     int
	Backoff        time.Duration
	ForwardHeaders []string
	Timeout        time.Duration

	client *pester.Client
}

func (h *HttpHook) Setup() error {
	// Use a linear backoff strategy with the user defined values.
	client := pester.New()
	client.KeepLog = true
	client.MaxRetries = h.MaxRetries
	client.Backoff = func(_ int) time.Duration {
		return h.Backoff
	}

	h.client = client

	if h.Timeout <= 0 {
		h.Timeout = 5 * time.Second
	}

	return nil
}

func (h *HttpHook) InvokeHook(hookReq hooks.HookRequest) error {
	jsonInfo, err := json.Marshal(hookReq)
	if err != nil {
		return err
	}

	ctx := hookReq.Event.Context
	if ctx == nil {
		ctx = context.Background()
	}

	// The event's context is canceled once the causing request finishes,
	// but the notification must outlive the request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", h.Endpoint, bytes.NewBuffer(jsonInfo))
	if err != nil {
		return err
	}

	for _, k := range h.ForwardHeaders {
		// Lookup the canonicalized version of the specified header
		if vals, ok := hookReq.Event.HTTPRequest.Header[http.CanonicalHeaderKey(k)]; ok {
			// but set the case specified by the user
			httpReq.Header[k] = vals
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := h.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpRes.Body.Close()

	httpBody, err := io.ReadAll(io.LimitReader(httpRes.Body, maxResponseBody))
	if err != nil {
		return err
	}

	// Report an error, if the response has a non-2XX status code
	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected response code from hook endpoint (%d): %s", httpRes.StatusCode, string(httpBody))
	}

	return nil
}
