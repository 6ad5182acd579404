package handler

import (
	"context"
	"io"
	"net/http"
	"os"
)

// FileInfo describes a file that has been stored by a DataStore.
type FileInfo struct {
	// Path is the sanitized path relative to the document root under which
	// the file has been stored. It equals the MAC message's path component.
	Path string
	// Size is the number of bytes stored on disk.
	Size int64
	// Storage contains information about where the file is stored. The
	// available values depend on the data store in use. For the file store
	// it contains the "Type" and the absolute "Path" of the file.
	Storage map[string]string
}

// DataStore is the storage backend for the handler. Implementations must
// guarantee that Create and CreateFromFile never overwrite an existing file:
// of two concurrent calls for the same path exactly one succeeds and the
// other fails with an error matching fs.ErrExist.
type DataStore interface {
	// Create stores the content read from src under the given sanitized
	// relative path, creating missing parent directories on demand. The
	// destination file is created exclusively; if it already exists, an
	// error matching fs.ErrExist is returned and nothing is written.
	Create(ctx context.Context, path string, src io.Reader) (FileInfo, error)

	// CreateFromFile moves the already spooled temporary file at tmpPath to
	// the given sanitized relative path. When source and destination reside
	// on the same filesystem, the content must not be copied through
	// userspace again. The same exclusive-create guarantees as for Create
	// apply.
	CreateFromFile(ctx context.Context, path string, tmpPath string) (FileInfo, error)

	// Stat returns information about the file stored under the given path.
	Stat(ctx context.Context, path string) (os.FileInfo, error)

	// ServeContent writes the stored file to w, honoring Range and
	// conditional request headers and emitting Content-Length. For HEAD
	// requests no body is written.
	ServeContent(ctx context.Context, path string, w http.ResponseWriter, r *http.Request) error
}
