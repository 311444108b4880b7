package store

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors returned by backends. Wrapped with %w so callers can
// match with errors.Is regardless of added context.
var (
	ErrNotExist    = errors.New("entry does not exist")
	ErrExist       = errors.New("entry already exists")
	ErrNotEmpty    = errors.New("directory not empty")
	ErrNotDir      = errors.New("not a directory")
	ErrIsDir       = errors.New("is a directory")
	ErrInvalidPath = errors.New("invalid path")
	ErrPermission  = errors.New("permission denied")
	ErrNoSpace     = errors.New("insufficient free space")
	ErrClosed      = errors.New("store is closed")
)

// Info describes a single entry
type Info struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// File is an open handle with random access. Always closed by the
// caller on every exit path.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Truncate(size int64) error
}

// Store is the capability contract every backend satisfies. Paths are
// virtual: rooted at /, separated by /, already canonicalized by the
// caller. Backends never interpret query strings, fragments, or
// backslashes.
type Store interface {
	// Existence
	FileExists(ctx context.Context, path string) (bool, error)
	DirExists(ctx context.Context, path string) (bool, error)

	// Enumeration of immediate children, backend order
	ListFiles(ctx context.Context, dir string) ([]string, error)
	ListDirs(ctx context.Context, dir string) ([]string, error)

	// Byte I/O. OpenWrite creates the file and missing parent
	// directories when absent.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
	OpenWrite(ctx context.Context, path string) (File, error)

	// Creation. Both create missing parents; CreateDir is idempotent.
	CreateFile(ctx context.Context, path string) error
	CreateDir(ctx context.Context, path string) error

	// Deletion. DeleteDir refuses non-empty directories.
	DeleteFile(ctx context.Context, path string) error
	DeleteDir(ctx context.Context, path string) error

	// Rename. RenameDir moves the whole subtree; targets must be absent.
	RenameFile(ctx context.Context, oldPath, newPath string) error
	RenameDir(ctx context.Context, oldPath, newPath string) error

	// CopyFile byte-copies with overwrite allowed.
	CopyFile(ctx context.Context, src, dst string) error

	Stat(ctx context.Context, path string) (Info, error)

	// FreeSpace reports bytes available for new content.
	FreeSpace(ctx context.Context) (int64, error)

	// Type identifies the backend ("local", "memory").
	Type() string

	Close() error
}
