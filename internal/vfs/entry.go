package vfs

import (
	"context"
	"fmt"

	"github.com/sandfs/sandfs/internal/store"
)

// Entry is an immutable descriptor of a resolved file or directory.
// Exactly one of IsFile/IsDirectory is set for an existing object.
// Constructed on demand from a live existence check; never cached.
type Entry struct {
	IsFile      bool   `json:"isFile"`
	IsDirectory bool   `json:"isDirectory"`
	Name        string `json:"name"`
	FullPath    string `json:"fullPath"`
}

// Resolve determines whether path denotes an existing file or
// directory and builds its descriptor. File existence is checked
// first; a backend reporting both kinds yields the file
// interpretation. A path that exists as neither fails NotFound.
func (v *VFS) Resolve(ctx context.Context, path string) (Entry, error) {
	if StripQueryOrFragment(path) == "" {
		return Entry{}, NewError(CodeEncoding, "resolve", path, fmt.Errorf("empty path"))
	}
	full := Canonical(path)

	isFile, err := v.store.FileExists(ctx, full)
	if err != nil {
		return Entry{}, err
	}
	isDir := false
	if !isFile {
		isDir, err = v.store.DirExists(ctx, full)
		if err != nil {
			return Entry{}, err
		}
	}
	if !isFile && !isDir {
		return Entry{}, NewError(CodeNotFound, "resolve", path, store.ErrNotExist)
	}

	name := LastSegment(full)
	if name == "" {
		name = "/"
	}
	return Entry{
		IsFile:      isFile,
		IsDirectory: isDir,
		Name:        name,
		FullPath:    full,
	}, nil
}

// Lookup is the relaxed get-entry-or-null variant: every resolution
// failure is swallowed into ok=false. Used where an entry is
// opportunistically looked up to decorate a result; Resolve is used
// where non-existence is itself the meaningful failure.
func (v *VFS) Lookup(ctx context.Context, path string) (Entry, bool) {
	entry, err := v.Resolve(ctx, path)
	if err != nil {
		return Entry{}, false
	}
	return entry, true
}
