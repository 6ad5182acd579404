package handler_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slotd/slotd/pkg/handler"
)

func TestPut(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		body := "hello world"
		token := uploadToken(testSecret, "user/file.txt", int64(len(body)))

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/file.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader(body),
			Code:    http.StatusCreated,
		}).Run(h, t)

		content, err := os.ReadFile(filepath.Join(dir, "user", "file.txt"))
		a.NoError(err)
		a.Equal(body, string(content))

		stat, err := os.Stat(filepath.Join(dir, "user", "file.txt"))
		a.NoError(err)
		a.Equal(os.FileMode(0644), stat.Mode().Perm())
	})

	t.Run("CreateEmpty", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		token := uploadToken(testSecret, "user/empty.txt", 0)

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/empty.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "0",
			},
			ReqBody: strings.NewReader(""),
			Code:    http.StatusCreated,
		}).Run(h, t)

		stat, err := os.Stat(filepath.Join(dir, "user", "empty.txt"))
		a.NoError(err)
		a.EqualValues(0, stat.Size())
	})

	t.Run("Conflict", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		token := uploadToken(testSecret, "user/file.txt", 11)

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/file.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader("first claim"),
			Code:    http.StatusCreated,
		}).Run(h, t)

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/file.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader("second try!"),
			Code:    http.StatusConflict,
			ResBody: "ERR_FILE_EXISTS: destination is already occupied by an earlier upload\n",
		}).Run(h, t)

		// The earlier upload must be untouched.
		content, err := os.ReadFile(filepath.Join(dir, "user", "file.txt"))
		a.NoError(err)
		a.Equal("first claim", string(content))
	})

	t.Run("ConcurrentClaims", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		token := uploadToken(testSecret, "user/file.txt", 11)
		bodies := []string{"AAAAAAAAAAA", "BBBBBBBBBBB"}

		codes := make(chan int, len(bodies))

		var wg sync.WaitGroup
		for _, body := range bodies {
			wg.Add(1)
			go func(body string) {
				defer wg.Done()

				w := (&httpTest{
					Method: "PUT",
					URL:    "/upload/user/file.txt?v=" + token,
					ReqHeader: map[string]string{
						"Content-Length": "11",
					},
					ReqBody: strings.NewReader(body),
				}).runWithoutCodeCheck(h)
				codes <- w.Code
			}(body)
		}
		wg.Wait()
		close(codes)

		var got []int
		for code := range codes {
			got = append(got, code)
		}
		a.ElementsMatch([]int{http.StatusCreated, http.StatusConflict}, got)

		// The file holds the winner's content in full, never a mixture.
		content, err := os.ReadFile(filepath.Join(dir, "user", "file.txt"))
		a.NoError(err)
		a.Contains(bodies, string(content))
	})

	t.Run("InvalidToken", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		// A valid MAC for a different length does not transfer to this
		// request.
		token := uploadToken(testSecret, "user/file.txt", 12)

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/file.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader("hello world"),
			Code:    http.StatusForbidden,
			ResBody: "ERR_INVALID_TOKEN: missing or invalid authorization token\n",
		}).Run(h, t)

		// Unauthorized requests must not leave any trace on disk.
		_, err := os.Stat(filepath.Join(dir, "user", "file.txt"))
		a.True(os.IsNotExist(err))
	})

	t.Run("MissingToken", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/file.txt",
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader("hello world"),
			Code:    http.StatusForbidden,
		}).Run(h, t)

		_, err := os.Stat(filepath.Join(dir, "user", "file.txt"))
		a.True(os.IsNotExist(err))
	})

	t.Run("LengthRequired", func(t *testing.T) {
		h, _ := newTestHandler(t, handler.Config{})

		token := uploadToken(testSecret, "user/file.txt", 11)

		(&httpTest{
			Method:  "PUT",
			URL:     "/upload/user/file.txt?v=" + token,
			ReqBody: strings.NewReader("hello world"),
			Code:    http.StatusLengthRequired,
		}).Run(h, t)

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/file.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "eleven",
			},
			ReqBody: strings.NewReader("hello world"),
			Code:    http.StatusLengthRequired,
		}).Run(h, t)
	})

	t.Run("InvalidPath", func(t *testing.T) {
		h, _ := newTestHandler(t, handler.Config{})

		token := uploadToken(testSecret, "", 11)

		// Nothing remains after stripping the mount prefix.
		(&httpTest{
			Method: "PUT",
			URL:    "/upload?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader("hello world"),
			Code:    http.StatusBadRequest,
		}).Run(h, t)
	})

	t.Run("Traversal", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		token := uploadToken(testSecret, "../escape.txt", 11)

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/../escape.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader("hello world"),
			Code:    http.StatusBadRequest,
		}).Run(h, t)

		_, err := os.Stat(filepath.Join(dir, "..", "escape.txt"))
		a.True(os.IsNotExist(err))
	})

	t.Run("SanitizedName", func(t *testing.T) {
		a := assert.New(t)
		h, dir := newTestHandler(t, handler.Config{})

		// The client is expected to compute the MAC over the sanitized path,
		// which is what the upload service hands out in the slot.
		body := "hello world"
		token := uploadToken(testSecret, "user/t_st_file.txt", int64(len(body)))

		(&httpTest{
			Method: "PUT",
			URL:    "/upload/user/t%C3%A4st%20file.txt?v=" + token,
			ReqHeader: map[string]string{
				"Content-Length": "11",
			},
			ReqBody: strings.NewReader(body),
			Code:    http.StatusCreated,
		}).Run(h, t)

		content, err := os.ReadFile(filepath.Join(dir, "user", "t_st_file.txt"))
		a.NoError(err)
		a.Equal(body, string(content))
	})

	t.Run("NotifyCompleteUploads", func(t *testing.T) {
		a := assert.New(t)
		h, _ := newTestHandler(t, handler.Config{
			NotifyCompleteUploads: true,
		})

		body := "hello world"
		token := uploadToken(testSecret, "user/file.txt", int64(len(body)))

		done := make(chan struct{})
		go func() {
			defer close(done)

			(&httpTest{
				Method: "PUT",
				URL:    "/upload/user/file.txt?v=" + token,
				ReqHeader: map[string]string{
					"Content-Length": "11",
				},
				ReqBody: strings.NewReader(body),
				Code:    http.StatusCreated,
			}).Run(h, t)
		}()

		event := <-h.CompleteUploads
		<-done

		a.Equal("user/file.txt", event.Upload.Path)
		a.EqualValues(11, event.Upload.Size)
		a.Equal("PUT", event.HTTPRequest.Method)
		a.Equal("/upload/user/file.txt?v="+token, event.HTTPRequest.URI)
	})
}
