package vfs

import (
	"path"
	"strings"
)

// StripQueryOrFragment returns s up to (excluding) the first '?' or
// '#', or s unchanged when neither occurs. Applied to every incoming
// path-like and URI-like field at ingestion.
func StripQueryOrFragment(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}

// EnsureTrailingSeparator appends a '/' unless one is already present.
func EnsureTrailingSeparator(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// ParentOf derives the parent path. The root is its own parent;
// trailing separators are stripped before the last segment is removed.
func ParentOf(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, `\`) {
		return ParentOf(p[:len(p)-1])
	}
	i := strings.LastIndexAny(p, `/\`)
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// LastSegment returns the final non-empty segment of p, or "" when
// there is none. Callers substitute "/" for the root case.
func LastSegment(p string) string {
	segs := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Join combines a parent path and a name. A rooted name wins outright:
// the directory-transfer default of reusing the full source path as the
// name depends on this.
func Join(parent, name string) string {
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return name
	}
	return EnsureTrailingSeparator(parent) + name
}

// Canonical produces the canonical absolute form of p: query/fragment
// stripped, backslashes mapped to slashes, rooted at /, lexically
// cleaned so ".." collapses against the root and cannot escape. No
// trailing separator except on the root itself.
func Canonical(p string) string {
	p = StripQueryOrFragment(p)
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
