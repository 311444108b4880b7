// Package vfs implements the sandboxed virtual filesystem engine.
//
// The engine turns opaque paths and URIs into validated entries and
// performs file and directory manipulation against the store contract.
// It never touches a transport and never logs; failures come back as
// errors that the provider layer classifies into stable codes.
package vfs

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/sandfs/sandfs/internal/mimes"
	"github.com/sandfs/sandfs/internal/store"
)

// DefaultTempDir is the virtual path of the temporary filesystem root.
const DefaultTempDir = "/tmp"

// VFS is the engine. Safe for use from multiple requests; all mutable
// state lives in the store.
type VFS struct {
	store   store.Store
	mimes   *mimes.Resolver
	tempDir string
}

// Option configures a VFS.
type Option func(*VFS)

// WithTempDir overrides the temporary filesystem root.
func WithTempDir(dir string) Option {
	return func(v *VFS) { v.tempDir = Canonical(dir) }
}

// New creates an engine over st.
func New(st store.Store, opts ...Option) *VFS {
	v := &VFS{
		store:   st,
		mimes:   mimes.NewResolver(),
		tempDir: DefaultTempDir,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Store exposes the underlying store, for health reporting.
func (v *VFS) Store() store.Store { return v.store }

// FileExists reports whether path names an existing file. An empty
// path answers false; nothing cannot exist.
func (v *VFS) FileExists(ctx context.Context, path string) (bool, error) {
	if StripQueryOrFragment(path) == "" {
		return false, nil
	}
	return v.store.FileExists(ctx, Canonical(path))
}

// DirExists reports whether path names an existing directory.
func (v *VFS) DirExists(ctx context.Context, path string) (bool, error) {
	if StripQueryOrFragment(path) == "" {
		return false, nil
	}
	return v.store.DirExists(ctx, Canonical(path))
}

// ReadAll drains the file at path.
func (v *VFS) ReadAll(ctx context.Context, path string) ([]byte, error) {
	rc, err := v.store.OpenRead(ctx, Canonical(path))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ReadAsDataURL reads the file at path and shapes it as a data: URL
// with a base64 payload. The MIME type comes from the path extension,
// falling back to content sniffing.
func (v *VFS) ReadAsDataURL(ctx context.Context, path string) (string, error) {
	data, err := v.ReadAll(ctx, path)
	if err != nil {
		return "", err
	}
	mime := v.mimes.Detect(Canonical(path), strings.NewReader(string(data)))
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ReadAsText reads the file at path and decodes it to UTF-8 using the
// given encoding label. An empty label means UTF-8; the literal label
// "auto" selects statistical detection. Unknown labels fail with an
// Encoding error.
func (v *VFS) ReadAsText(ctx context.Context, path, encoding string) (string, error) {
	data, err := v.ReadAll(ctx, path)
	if err != nil {
		return "", err
	}
	label := strings.ToLower(strings.TrimSpace(encoding))
	switch label {
	case "", "utf-8", "utf8":
		return string(data), nil
	case "auto":
		label = detectCharset(data)
	}
	decoder, err := charset.NewReaderLabel(label, strings.NewReader(string(data)))
	if err != nil {
		return "", NewError(CodeEncoding, "readAsText", path, fmt.Errorf("unknown encoding %q", encoding))
	}
	decoded, err := io.ReadAll(decoder)
	if err != nil {
		return "", NewError(CodeEncoding, "readAsText", path, err)
	}
	return string(decoded), nil
}

// detectCharset picks the statistically best charset label for data.
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Write writes data into the file at path starting at position,
// creating the file and missing parents when absent. Returns the
// number of bytes written.
func (v *VFS) Write(ctx context.Context, path string, data []byte, position int64) (int, error) {
	if StripQueryOrFragment(path) == "" {
		return 0, NewError(CodeNotFound, "write", path, fmt.Errorf("empty path"))
	}
	if position < 0 {
		return 0, NewError(CodeEncoding, "write", path, fmt.Errorf("negative position %d", position))
	}
	f, err := v.store.OpenWrite(ctx, Canonical(path))
	if err != nil {
		return 0, err
	}
	if _, err := f.Seek(position, io.SeekStart); err != nil {
		f.Close()
		return 0, err
	}
	n, err := f.Write(data)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, err
	}
	return n, nil
}

// DecodePayload turns a request data payload into bytes. Binary
// payloads arrive base64-encoded; a payload that does not decode is a
// malformed argument.
func DecodePayload(data string, isBinary bool) ([]byte, error) {
	if !isBinary {
		return []byte(data), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, NewError(CodeEncoding, "write", "", fmt.Errorf("malformed base64 payload: %w", err))
	}
	return decoded, nil
}

// Truncate cuts or extends the file at path to size bytes and returns
// the resulting length. The file must already exist.
func (v *VFS) Truncate(ctx context.Context, path string, size int64) (int64, error) {
	if StripQueryOrFragment(path) == "" {
		return 0, NewError(CodeNotFound, "truncate", path, fmt.Errorf("empty path"))
	}
	if size < 0 {
		return 0, NewError(CodeEncoding, "truncate", path, fmt.Errorf("negative size %d", size))
	}
	canonical := Canonical(path)
	exists, err := v.store.FileExists(ctx, canonical)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, NewError(CodeNotFound, "truncate", path, store.ErrNotExist)
	}
	f, err := v.store.OpenWrite(ctx, canonical)
	if err != nil {
		return 0, err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return size, nil
}

// ReadEntries enumerates the directory at path: files first, then
// directories, each group in store order.
func (v *VFS) ReadEntries(ctx context.Context, path string) ([]Entry, error) {
	if StripQueryOrFragment(path) == "" {
		return nil, NewError(CodeNotFound, "readEntries", path, fmt.Errorf("empty path"))
	}
	dir := Canonical(path)
	exists, err := v.store.DirExists(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NewError(CodeNotFound, "readEntries", path, store.ErrNotExist)
	}
	files, err := v.store.ListFiles(ctx, dir)
	if err != nil {
		return nil, err
	}
	dirs, err := v.store.ListDirs(ctx, dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(files)+len(dirs))
	for _, name := range files {
		entries = append(entries, Entry{
			IsFile:   true,
			Name:     name,
			FullPath: Join(dir, name),
		})
	}
	for _, name := range dirs {
		entries = append(entries, Entry{
			IsDirectory: true,
			Name:        name,
			FullPath:    Join(dir, name),
		})
	}
	return entries, nil
}

// Parent resolves the parent entry of path. The root is its own
// parent.
func (v *VFS) Parent(ctx context.Context, path string) (Entry, error) {
	if StripQueryOrFragment(path) == "" {
		return Entry{}, NewError(CodeNotFound, "getParent", path, fmt.Errorf("empty path"))
	}
	return v.Resolve(ctx, ParentOf(Canonical(path)))
}

// CreateFlags carries the create/exclusive pair of a getFile or
// getDirectory request.
type CreateFlags struct {
	Create    bool
	Exclusive bool
}

// GetFile looks up or creates the file at path relative to root,
// honoring create/exclusive semantics.
func (v *VFS) GetFile(ctx context.Context, root, path string, flags CreateFlags) (Entry, error) {
	return v.getEntry(ctx, "getFile", root, path, flags, false)
}

// GetDirectory looks up or creates the directory at path relative to
// root, honoring create/exclusive semantics.
func (v *VFS) GetDirectory(ctx context.Context, root, path string, flags CreateFlags) (Entry, error) {
	return v.getEntry(ctx, "getDirectory", root, path, flags, true)
}

func (v *VFS) getEntry(ctx context.Context, op, root, path string, flags CreateFlags, wantDir bool) (Entry, error) {
	if StripQueryOrFragment(path) == "" {
		return Entry{}, NewError(CodeEncoding, op, path, fmt.Errorf("empty path"))
	}
	full := Canonical(Join(Canonical(root), path))

	fileExists, err := v.store.FileExists(ctx, full)
	if err != nil {
		return Entry{}, err
	}
	dirExists := false
	if !fileExists {
		dirExists, err = v.store.DirExists(ctx, full)
		if err != nil {
			return Entry{}, err
		}
	}
	exists := fileExists || dirExists

	switch {
	case flags.Create && flags.Exclusive && exists:
		return Entry{}, NewError(CodePathExists, op, full, fmt.Errorf("entry already exists"))
	case flags.Create && !exists:
		if wantDir {
			err = v.store.CreateDir(ctx, full)
		} else {
			err = v.store.CreateFile(ctx, full)
		}
		if err != nil {
			return Entry{}, err
		}
	case !flags.Create && !exists:
		return Entry{}, NewError(CodeNotFound, op, full, store.ErrNotExist)
	case exists && fileExists == wantDir:
		// The entry exists but its kind does not match the request.
		return Entry{}, NewError(CodeTypeMismatch, op, full, fmt.Errorf("entry kind does not match request"))
	}
	return v.Resolve(ctx, full)
}

// FreeSpace reports the store's available bytes.
func (v *VFS) FreeSpace(ctx context.Context) (int64, error) {
	return v.store.FreeSpace(ctx)
}
