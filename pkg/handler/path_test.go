package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	a := assert.New(t)

	// Strip the mount prefix before anything else.
	a.Equal("user/file.txt", resolvePath("/upload/user/file.txt", 1))
	a.Equal("file.txt", resolvePath("/upload/user/file.txt", 2))
	a.Equal("upload/user/file.txt", resolvePath("/upload/user/file.txt", 0))

	// Stripping more segments than the path has leaves nothing to serve.
	a.Equal("", resolvePath("/file.txt", 2))
	a.Equal("", resolvePath("/upload/file.txt", 2))
	a.Equal("", resolvePath("/", 0))

	// Dot and dot-dot segments never denote a valid slot.
	a.Equal("", resolvePath("/upload/../etc/passwd", 1))
	a.Equal("", resolvePath("/upload/user/..", 1))
	a.Equal("", resolvePath("/upload/./file.txt", 1))

	// A file whose name merely contains dots is fine.
	a.Equal("user/file.tar.gz", resolvePath("/upload/user/file.tar.gz", 1))
	a.Equal("user/...txt", resolvePath("/upload/user/...txt", 1))
}

func TestSanitizePath(t *testing.T) {
	a := assert.New(t)

	a.Equal("AZaz09/_.-", sanitizePath("AZaz09/_.-"))
	a.Equal("file_name.txt", sanitizePath("file name.txt"))
	a.Equal("t_st.txt", sanitizePath("täst.txt"))
	a.Equal("__.bin", sanitizePath("日本.bin"))
	a.Equal("a_b_c", sanitizePath("a%b:c"))
}

func TestStripPathSegments(t *testing.T) {
	a := assert.New(t)

	a.Equal("a/b/c", stripPathSegments("/a/b/c", 0))
	a.Equal("b/c", stripPathSegments("/a/b/c", 1))
	a.Equal("c", stripPathSegments("/a/b/c", 2))
	a.Equal("", stripPathSegments("/a/b/c", 3))
	a.Equal("", stripPathSegments("/a/b/c", 4))
	a.Equal("", stripPathSegments("/", 0))
}
