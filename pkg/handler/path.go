package handler

import "strings"

// resolvePath derives the sanitized relative path from a decoded request
// path. It strips up to stripSegments leading path segments (but no more
// than exist) and then replaces every rune outside [A-Za-z0-9/_.-] with an
// underscore. The result is used both as the MAC message's path component
// and as the storage location relative to the document root.
//
// An empty string is returned if no path remains after stripping, or if the
// remainder contains "." or ".." segments, which have no legitimate use in
// slot names and would otherwise allow the storage layer to leave the
// document root.
func resolvePath(urlPath string, stripSegments int) string {
	rel := stripPathSegments(urlPath, stripSegments)
	rel = sanitizePath(rel)

	for _, segment := range strings.Split(rel, "/") {
		if segment == "." || segment == ".." {
			return ""
		}
	}

	return rel
}

// stripPathSegments removes up to n leading "/segment" groups from p. The
// operation works on the decoded path, so the segment count is not affected
// by percent-encoded slashes.
func stripPathSegments(p string, n int) string {
	p = strings.TrimPrefix(p, "/")

	for ; n > 0 && p != ""; n-- {
		i := strings.IndexByte(p, '/')
		if i < 0 {
			return ""
		}
		p = p[i+1:]
	}

	return p
}

// sanitizePath replaces every rune outside [A-Za-z0-9/_.-] with an
// underscore. It operates on runes, not bytes, so a multi-byte character
// collapses into a single underscore instead of several.
func sanitizePath(p string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '/' || r == '_' || r == '.' || r == '-':
		default:
			return '_'
		}
		return r
	}, p)
}
