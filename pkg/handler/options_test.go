package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slotd/slotd/pkg/handler"
)

func TestOptions(t *testing.T) {
	t.Run("Discovery", func(t *testing.T) {
		a := assert.New(t)
		h, _ := newTestHandler(t, handler.Config{})

		w := (&httpTest{
			Method: "OPTIONS",
			URL:    "/upload/user/file.txt",
			ResHeader: map[string]string{
				"Allow":                  "OPTIONS, HEAD, GET, PUT",
				"X-Content-Type-Options": "nosniff",
			},
			Code: http.StatusOK,
		}).Run(h, t)

		a.Equal(0, w.Body.Len())
	})

	t.Run("UnsupportedMethod", func(t *testing.T) {
		h, _ := newTestHandler(t, handler.Config{})

		(&httpTest{
			Method: "POST",
			URL:    "/upload/user/file.txt",
			Code:   http.StatusNotFound,
		}).Run(h, t)
	})
}
