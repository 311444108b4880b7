package vfs

import (
	"context"
	"fmt"

	"github.com/sandfs/sandfs/internal/store"
)

// Remove deletes the single entry at path: a file, or an empty
// directory. The virtual root is never removable.
func (v *VFS) Remove(ctx context.Context, path string) error {
	if StripQueryOrFragment(path) == "" {
		return NewError(CodeNotFound, "remove", path, fmt.Errorf("empty path"))
	}
	full := Canonical(path)
	if full == "/" {
		return NewError(CodeNoModificationAllowed, "remove", path, fmt.Errorf("the root is not removable"))
	}
	entry, err := v.Resolve(ctx, full)
	if err != nil {
		return err
	}
	if entry.IsFile {
		return v.store.DeleteFile(ctx, full)
	}
	return v.store.DeleteDir(ctx, full)
}

// RemoveTree deletes the directory subtree at path bottom-up: file
// children first, then each subdirectory recursively, then the now
// empty node itself. A failure mid-subtree aborts the remaining steps;
// already-deleted children stay deleted.
func (v *VFS) RemoveTree(ctx context.Context, path string) error {
	if StripQueryOrFragment(path) == "" {
		return NewError(CodeNotFound, "removeRecursively", path, fmt.Errorf("empty path"))
	}
	full := Canonical(path)
	if full == "/" {
		return NewError(CodeNoModificationAllowed, "removeRecursively", path, fmt.Errorf("the root is not removable"))
	}
	exists, err := v.store.DirExists(ctx, full)
	if err != nil {
		return err
	}
	if !exists {
		return NewError(CodeNotFound, "removeRecursively", path, store.ErrNotExist)
	}
	if err := v.removeTree(ctx, full); err != nil {
		return NewError(CodeNoModificationAllowed, "removeRecursively", path, err)
	}
	return nil
}

func (v *VFS) removeTree(ctx context.Context, dir string) error {
	files, err := v.store.ListFiles(ctx, dir)
	if err != nil {
		return err
	}
	for _, name := range files {
		if err := v.store.DeleteFile(ctx, Join(dir, name)); err != nil {
			return err
		}
	}
	dirs, err := v.store.ListDirs(ctx, dir)
	if err != nil {
		return err
	}
	for _, name := range dirs {
		if err := v.removeTree(ctx, Join(dir, name)); err != nil {
			return err
		}
	}
	return v.store.DeleteDir(ctx, dir)
}
