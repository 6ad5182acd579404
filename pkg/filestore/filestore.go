// Package filestore provides a storage backend based on the local file
// system.
//
// FileStore writes each upload to the document root at its sanitized
// relative path, creating missing parent directories on demand. The
// destination file is always created exclusively, so a path can be claimed
// by exactly one upload; concurrent requests for the same path are decided
// by the operating system's create-exclusively primitive and need no
// additional locking. Stored files are never modified or replaced by this
// package. No cleanup is performed, so you may want to run a cronjob to
// ensure your disk is not filled up with old uploads.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/slotd/slotd/pkg/handler"
)

var defaultFilePerm = os.FileMode(0644)
var defaultDirectoryPerm = os.FileMode(0755)

// See the handler.DataStore interface for documentation about the different
// methods.
type FileStore struct {
	// Path is the document root below which all uploads are stored.
	// FileStore does not check whether the path exists, use os.MkdirAll in
	// this case on your own.
	Path string
	// FileMode is applied to created files. It is reapplied with chmod
	// after the content has been written, so the process umask cannot
	// change the effective bits.
	FileMode os.FileMode
	// DirMode is used for directories created below the document root.
	DirMode os.FileMode
}

// New creates a new file based storage backend rooted at the given document
// root, using the default permission bits for files and directories.
func New(path string) FileStore {
	return FileStore{
		Path:     path,
		FileMode: defaultFilePerm,
		DirMode:  defaultDirectoryPerm,
	}
}

func (store FileStore) Create(ctx context.Context, path string, src io.Reader) (handler.FileInfo, error) {
	dst := store.absPath(path)

	if err := store.ensureDir(dst); err != nil {
		return handler.FileInfo{}, err
	}

	// O_EXCL is the sole concurrency control: of two concurrent requests
	// for the same path, exactly one create succeeds and the other observes
	// EEXIST without touching the file.
	file, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, store.FileMode)
	if err != nil {
		return handler.FileInfo{}, fmt.Errorf("create file %s: %w", dst, err)
	}

	n, err := io.Copy(file, src)
	if err != nil {
		file.Close()
		// An interrupted upload must not occupy the slot, so the partial
		// file is removed and the client can retry the PUT.
		os.Remove(dst)
		return handler.FileInfo{}, fmt.Errorf("write file %s: %w", dst, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(dst)
		return handler.FileInfo{}, fmt.Errorf("close file %s: %w", dst, err)
	}

	if err := store.applyFileMode(dst); err != nil {
		return handler.FileInfo{}, err
	}

	return store.fileInfo(path, n), nil
}

func (store FileStore) CreateFromFile(ctx context.Context, path string, tmpPath string) (handler.FileInfo, error) {
	dst := store.absPath(path)

	if err := store.ensureDir(dst); err != nil {
		return handler.FileInfo{}, err
	}

	// A plain rename(2) would silently replace an existing destination.
	// link(2) refuses with EEXIST while still avoiding a second copy of the
	// data on the same filesystem, so the spooled file is linked into place
	// and the source name removed afterwards.
	err := os.Link(tmpPath, dst)
	if isCrossDeviceLink(err) {
		return store.copyFromFile(ctx, path, tmpPath)
	}
	if err != nil {
		return handler.FileInfo{}, fmt.Errorf("link %s to %s: %w", tmpPath, dst, err)
	}

	// The content is already in place, a leftover temporary file is only a
	// cosmetic problem.
	os.Remove(tmpPath)

	if err := store.applyFileMode(dst); err != nil {
		return handler.FileInfo{}, err
	}

	stat, err := os.Stat(dst)
	if err != nil {
		return handler.FileInfo{}, fmt.Errorf("stat file %s: %w", dst, err)
	}

	return store.fileInfo(path, stat.Size()), nil
}

// copyFromFile is the fallback for spooled files on another filesystem. The
// destination is still created exclusively, so the no-overwrite invariant is
// unaffected by the slower path.
func (store FileStore) copyFromFile(ctx context.Context, path string, tmpPath string) (handler.FileInfo, error) {
	src, err := os.Open(tmpPath)
	if err != nil {
		return handler.FileInfo{}, fmt.Errorf("open spooled file %s: %w", tmpPath, err)
	}
	defer src.Close()

	info, err := store.Create(ctx, path, src)
	if err != nil {
		return handler.FileInfo{}, err
	}

	os.Remove(tmpPath)

	return info, nil
}

func (store FileStore) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	return os.Stat(store.absPath(path))
}

func (store FileStore) ServeContent(ctx context.Context, path string, w http.ResponseWriter, r *http.Request) error {
	file, err := os.Open(store.absPath(path))
	if err != nil {
		return fmt.Errorf("open file %s: %w", store.absPath(path), err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat file %s: %w", store.absPath(path), err)
	}

	// http.ServeContent handles Range and conditional headers and omits the
	// body for HEAD requests. http.ServeFile is avoided because of its
	// special treatment of index.html and dot-dot elements in the URL.
	http.ServeContent(w, r, filepath.Base(path), stat.ModTime(), file)

	return nil
}

// ensureDir creates the parent directory chain for dst. Concurrent requests
// may race on creating the same missing parents; os.MkdirAll treats an
// already existing directory as success, which is exactly the semantic
// needed here.
func (store FileStore) ensureDir(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), store.DirMode); err != nil {
		return fmt.Errorf("create directories for %s: %w", dst, err)
	}
	return nil
}

// applyFileMode reapplies the configured permission bits after the content
// has been written. The bits passed to open are narrowed by the process
// umask, so an explicit chmod is needed for the configured mode to be
// effective.
func (store FileStore) applyFileMode(dst string) error {
	if err := os.Chmod(dst, store.FileMode); err != nil {
		return fmt.Errorf("chmod file %s: %w", dst, err)
	}
	return nil
}

// absPath maps a sanitized relative path to the location on disk. The
// handler guarantees that the path contains no dot-dot elements, so the
// result cannot leave the document root.
func (store FileStore) absPath(path string) string {
	return filepath.Join(store.Path, filepath.FromSlash(path))
}

func (store FileStore) fileInfo(path string, size int64) handler.FileInfo {
	return handler.FileInfo{
		Path: path,
		Size: size,
		Storage: map[string]string{
			"Type": "filestore",
			"Path": store.absPath(path),
		},
	}
}

// isCrossDeviceLink reports whether err indicates that a hard link could not
// be created because source and destination live on different filesystems,
// or because the filesystem does not support hard links at all.
func isCrossDeviceLink(err error) bool {
	return errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.ENOTSUP)
}
