package handler

import (
	"sync"
	"sync/atomic"
)

// Metrics provides numbers about the usage of the handler. Since these may
// be accessed from multiple goroutines, it is necessary to read and modify
// them atomically using the functions exposed in the sync/atomic package,
// such as atomic.LoadUint64. In addition the maps must not be modified to
// prevent data races.
type Metrics struct {
	// RequestsTotal counts the number of incoming requests per method.
	RequestsTotal map[string]*uint64
	// ErrorsTotal counts the number of returned errors by their error code.
	ErrorsTotal *ErrorsTotalMap
	// BytesReceived counts the number of bytes written to storage.
	BytesReceived *uint64
	// UploadsCreated counts the number of successfully stored uploads.
	UploadsCreated *uint64
	// DownloadsServed counts the number of GET/HEAD requests answered with
	// a stored file.
	DownloadsServed *uint64
}

// incRequestsTotal increases the counter for this request method atomically
// by one. The method must be one of GET, HEAD, PUT, OPTIONS.
func (m Metrics) incRequestsTotal(method string) {
	if ptr, ok := m.RequestsTotal[method]; ok {
		atomic.AddUint64(ptr, 1)
	}
}

// incErrorsTotal increases the counter for this error atomically by one.
func (m Metrics) incErrorsTotal(err Error) {
	ptr := m.ErrorsTotal.retrievePointerFor(err)
	atomic.AddUint64(ptr, 1)
}

// incBytesReceived increases the number of received bytes atomically by the
// specified number.
func (m Metrics) incBytesReceived(delta uint64) {
	atomic.AddUint64(m.BytesReceived, delta)
}

// incUploadsCreated increases the counter for stored uploads atomically by one.
func (m Metrics) incUploadsCreated() {
	atomic.AddUint64(m.UploadsCreated, 1)
}

// incDownloadsServed increases the counter for served files atomically by one.
func (m Metrics) incDownloadsServed() {
	atomic.AddUint64(m.DownloadsServed, 1)
}

func newMetrics() Metrics {
	return Metrics{
		RequestsTotal: map[string]*uint64{
			"GET":     new(uint64),
			"HEAD":    new(uint64),
			"PUT":     new(uint64),
			"OPTIONS": new(uint64),
		},
		ErrorsTotal:     newErrorsTotalMap(),
		BytesReceived:   new(uint64),
		UploadsCreated:  new(uint64),
		DownloadsServed: new(uint64),
	}
}

// ErrorsTotalMap stores the counters for the different HTTP errors.
type ErrorsTotalMap struct {
	lock sync.RWMutex
	m    map[simpleHTTPError]*uint64
}

type simpleHTTPError struct {
	ErrorCode  string
	StatusCode int
}

func simplifyHTTPError(err Error) simpleHTTPError {
	return simpleHTTPError{
		ErrorCode:  err.ErrorCode,
		StatusCode: err.HTTPResponse.StatusCode,
	}
}

func newErrorsTotalMap() *ErrorsTotalMap {
	return &ErrorsTotalMap{
		m: make(map[simpleHTTPError]*uint64, 20),
	}
}

// retrievePointerFor returns (after creating it if necessary) the pointer to
// the counter for the error.
func (e *ErrorsTotalMap) retrievePointerFor(err Error) *uint64 {
	serr := simplifyHTTPError(err)

	e.lock.RLock()
	ptr, ok := e.m[serr]
	e.lock.RUnlock()
	if ok {
		return ptr
	}

	// For pointer creation, a write lock is required
	e.lock.Lock()
	// We ensure that the ptr wasn't created in the meantime
	if ptr, ok = e.m[serr]; !ok {
		ptr = new(uint64)
		e.m[serr] = ptr
	}
	e.lock.Unlock()

	return ptr
}

// Load retrieves a copy of the map of the counter pointers.
func (e *ErrorsTotalMap) Load() map[simpleHTTPError]*uint64 {
	e.lock.RLock()
	m := make(map[simpleHTTPError]*uint64, len(e.m))
	for err, ptr := range e.m {
		m[err] = ptr
	}
	e.lock.RUnlock()

	return m
}
