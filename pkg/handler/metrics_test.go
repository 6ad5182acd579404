package handler_test

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slotd/slotd/pkg/handler"
)

func TestMetrics(t *testing.T) {
	a := assert.New(t)
	h, dir := newTestHandler(t, handler.Config{})
	seedFile(t, dir, "user/stored.txt", "hello world")

	token := uploadToken(testSecret, "user/file.txt", 11)

	(&httpTest{
		Method: "PUT",
		URL:    "/upload/user/file.txt?v=" + token,
		ReqHeader: map[string]string{
			"Content-Length": "11",
		},
		ReqBody: strings.NewReader("hello world"),
		Code:    http.StatusCreated,
	}).Run(h, t)

	(&httpTest{
		Method: "PUT",
		URL:    "/upload/user/file.txt?v=" + token,
		ReqHeader: map[string]string{
			"Content-Length": "11",
		},
		ReqBody: strings.NewReader("hello world"),
		Code:    http.StatusConflict,
	}).Run(h, t)

	(&httpTest{
		Method:  "GET",
		URL:     "/upload/user/stored.txt",
		Code:    http.StatusOK,
		ResBody: "hello world",
	}).Run(h, t)

	a.EqualValues(2, atomic.LoadUint64(h.Metrics.RequestsTotal["PUT"]))
	a.EqualValues(1, atomic.LoadUint64(h.Metrics.RequestsTotal["GET"]))
	a.EqualValues(1, atomic.LoadUint64(h.Metrics.UploadsCreated))
	a.EqualValues(1, atomic.LoadUint64(h.Metrics.DownloadsServed))
	a.EqualValues(11, atomic.LoadUint64(h.Metrics.BytesReceived))

	var errorCount uint64
	for _, ptr := range h.Metrics.ErrorsTotal.Load() {
		errorCount += atomic.LoadUint64(ptr)
	}
	a.EqualValues(1, errorCount)
}
