package handler_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/slotd/slotd/pkg/filestore"
	"github.com/slotd/slotd/pkg/handler"
)

const testSecret = "test-secret"

// newTestHandler builds a routed handler backed by a fresh temporary
// directory, which is returned alongside so tests can inspect the stored
// files directly.
func newTestHandler(t *testing.T, config handler.Config) (*handler.Handler, string) {
	t.Helper()

	dir := t.TempDir()
	config.Store = filestore.New(dir)
	if config.Secret == "" {
		config.Secret = testSecret
	}
	if config.StripPrefixSegments == 0 {
		config.StripPrefixSegments = 1
	}

	h, err := handler.NewHandler(config)
	if err != nil {
		t.Fatalf("unable to create handler: %s", err)
	}

	return h, dir
}

// uploadToken computes the MAC a client would present in the v query
// parameter for the given relative path and content length.
func uploadToken(secret, path string, length int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(path + " " + strconv.FormatInt(length, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

type httpTest struct {
	Name string

	Method string
	URL    string

	ReqBody   io.Reader
	ReqHeader map[string]string

	Code      int
	ResBody   string
	ResHeader map[string]string
}

func (test *httpTest) Run(handler http.Handler, t *testing.T) *httptest.ResponseRecorder {
	w := test.runWithoutCodeCheck(handler)

	if w.Code != test.Code {
		t.Errorf("Expected %v %s as status code (got %v %s)", test.Code, http.StatusText(test.Code), w.Code, http.StatusText(w.Code))
	}

	for key, value := range test.ResHeader {
		header := w.Header().Get(key)

		if value != header {
			t.Errorf("Expected '%s' as '%s' (got '%s')", value, key, header)
		}
	}

	if test.ResBody != "" && w.Body.String() != test.ResBody {
		t.Errorf("Expected '%s' as body (got '%s'", test.ResBody, w.Body.String())
	}

	return w
}

// runWithoutCodeCheck performs the request like Run but leaves all
// assertions to the caller, for tests where more than one outcome is
// acceptable.
func (test *httpTest) runWithoutCodeCheck(handler http.Handler) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(test.Method, test.URL, test.ReqBody)
	req.RequestURI = test.URL

	// Add headers
	for key, value := range test.ReqHeader {
		req.Header.Set(key, value)
	}

	req.Host = "share.example.com"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	return w
}
