// Package mimes resolves MIME types for virtual paths.
//
// Lookup order is extension table first, then content sniffing when a
// reader is available. Unknown types fall back to octet-stream.
package mimes

import (
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultType is returned when neither extension nor content identify
// the file.
const DefaultType = "application/octet-stream"

// Resolver maps paths and content to MIME types.
type Resolver struct{}

// NewResolver creates a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ByExtension resolves the MIME type from the path's extension alone.
// Returns "" when the extension is unknown.
func (r *Resolver) ByExtension(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	// Strip parameters like "; charset=utf-8".
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// Detect resolves the MIME type for p, sniffing content when the
// extension is unknown and content is non-nil.
func (r *Resolver) Detect(p string, content io.Reader) string {
	if t := r.ByExtension(p); t != "" {
		return t
	}
	if content != nil {
		if mt, err := mimetype.DetectReader(content); err == nil {
			t := mt.String()
			if i := strings.IndexByte(t, ';'); i >= 0 {
				t = strings.TrimSpace(t[:i])
			}
			return t
		}
	}
	return DefaultType
}
