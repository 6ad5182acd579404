package hooks_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slotd/slotd/pkg/filestore"
	"github.com/slotd/slotd/pkg/handler"
	"github.com/slotd/slotd/pkg/hooks"
)

type recordingHook struct {
	setup bool
	reqs  chan hooks.HookRequest
}

func (h *recordingHook) Setup() error {
	h.setup = true
	return nil
}

func (h *recordingHook) InvokeHook(req hooks.HookRequest) error {
	h.reqs <- req
	return nil
}

func TestNewHandlerWithHooks(t *testing.T) {
	a := assert.New(t)

	secret := "geheim"
	hook := &recordingHook{
		reqs: make(chan hooks.HookRequest, 1),
	}

	config := handler.Config{
		Store:               filestore.New(t.TempDir()),
		Secret:              secret,
		StripPrefixSegments: 1,
	}

	h, err := hooks.NewHandlerWithHooks(&config, hook)
	a.NoError(err)
	a.True(hook.setup)

	body := "hello world"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("user/file.txt 11"))
	token := hex.EncodeToString(mac.Sum(nil))

	url := "/upload/user/file.txt?v=" + token
	req, _ := http.NewRequest("PUT", url, strings.NewReader(body))
	req.RequestURI = url
	req.Header.Set("Content-Length", "11")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	a.Equal(http.StatusCreated, w.Code)

	select {
	case hookReq := <-hook.reqs:
		a.Equal(hooks.HookPostUpload, hookReq.Type)
		a.Equal("user/file.txt", hookReq.Event.Upload.Path)
		a.EqualValues(11, hookReq.Event.Upload.Size)
		a.Equal("PUT", hookReq.Event.HTTPRequest.Method)
	case <-time.After(time.Second):
		t.Fatal("hook was not invoked")
	}
}
