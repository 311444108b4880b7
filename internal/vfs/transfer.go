package vfs

import (
	"context"
	"fmt"

	"github.com/sandfs/sandfs/internal/store"
)

// Transfer copies or moves the entry at sourcePath under
// destinationParent. newName overrides the destination name; when
// empty the name defaults to the source's own name for files and to
// the full source path for directories. With the rooted-name-wins
// Join rule a nameless directory transfer therefore targets the
// source path itself and degenerates to a self-transfer. That
// asymmetry is long-standing caller-visible behavior and is kept.
func (v *VFS) Transfer(ctx context.Context, sourcePath, destinationParent, newName string, move bool) (Entry, error) {
	op := "copyTo"
	if move {
		op = "moveTo"
	}
	if StripQueryOrFragment(sourcePath) == "" || StripQueryOrFragment(destinationParent) == "" {
		return Entry{}, NewError(CodeNotFound, op, sourcePath, fmt.Errorf("empty path"))
	}

	parent := Canonical(destinationParent)
	parentIsDir, err := v.store.DirExists(ctx, parent)
	if err != nil {
		return Entry{}, err
	}
	if !parentIsDir {
		return Entry{}, NewError(CodeNotFound, op, destinationParent, store.ErrNotExist)
	}

	source, err := v.Resolve(ctx, sourcePath)
	if err != nil {
		return Entry{}, err
	}

	name := newName
	if name == "" {
		if source.IsFile {
			name = source.Name
		} else {
			name = source.FullPath
		}
	}
	destination := Canonical(Join(EnsureTrailingSeparator(parent), name))

	if destination != source.FullPath {
		// Clear a colliding destination before the transfer. Directory
		// copies merge instead, and an equal destination must never
		// delete the source it is about to use.
		if source.IsFile {
			if exists, err := v.store.FileExists(ctx, destination); err != nil {
				return Entry{}, err
			} else if exists {
				if err := v.store.DeleteFile(ctx, destination); err != nil {
					return Entry{}, err
				}
			}
		} else if move {
			if exists, err := v.store.DirExists(ctx, destination); err != nil {
				return Entry{}, err
			} else if exists {
				if err := v.store.DeleteDir(ctx, destination); err != nil {
					return Entry{}, err
				}
			}
		}
	}

	switch {
	case source.IsFile && move:
		if destination != source.FullPath {
			if err := v.store.RenameFile(ctx, source.FullPath, destination); err != nil {
				return Entry{}, err
			}
		}
	case source.IsFile:
		if err := v.store.CopyFile(ctx, source.FullPath, destination); err != nil {
			return Entry{}, err
		}
	case move:
		if destination != source.FullPath {
			if err := v.store.RenameDir(ctx, source.FullPath, destination); err != nil {
				return Entry{}, err
			}
		}
	default:
		if err := v.copyTree(ctx, source.FullPath, destination, destination); err != nil {
			return Entry{}, err
		}
	}

	result, err := v.Resolve(ctx, destination)
	if err != nil {
		// The transfer reported success but the destination does not
		// resolve; an internal-consistency failure.
		return Entry{}, NewError(CodeNotFound, op, destination, err)
	}
	return result, nil
}

// copyTree recursively copies the directory at src to dst. A
// pre-existing destination is merged into. destRoot is the top of the
// copy; a source subtree that is the destination itself is skipped so
// copying a directory into its own descendant terminates.
func (v *VFS) copyTree(ctx context.Context, src, dst, destRoot string) error {
	files, err := v.store.ListFiles(ctx, src)
	if err != nil {
		return err
	}
	dirs, err := v.store.ListDirs(ctx, src)
	if err != nil {
		return err
	}
	if err := v.store.CreateDir(ctx, dst); err != nil {
		return err
	}
	for _, name := range files {
		if err := v.store.CopyFile(ctx, Join(src, name), Join(dst, name)); err != nil {
			return err
		}
	}
	for _, name := range dirs {
		childSrc := Join(src, name)
		if childSrc == destRoot {
			continue
		}
		if err := v.copyTree(ctx, childSrc, Join(dst, name), destRoot); err != nil {
			return err
		}
	}
	return nil
}
