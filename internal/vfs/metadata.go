package vfs

import (
	"context"
	"fmt"
	"time"

	"github.com/sandfs/sandfs/internal/store"
)

// ModificationMetadata carries the last-write time of an entry.
type ModificationMetadata struct {
	ModificationTime string `json:"modificationTime"`
}

// FileMetadata fully describes a file at read time.
type FileMetadata struct {
	FileName         string `json:"fileName"`
	FullPath         string `json:"fullPath"`
	Type             string `json:"type"`
	LastModifiedDate string `json:"lastModifiedDate"`
	Size             int64  `json:"size"`
}

// Metadata returns the last-write time of the file or directory at
// path. File existence decides first.
func (v *VFS) Metadata(ctx context.Context, path string) (ModificationMetadata, error) {
	if StripQueryOrFragment(path) == "" {
		return ModificationMetadata{}, NewError(CodeNotFound, "getMetadata", path, fmt.Errorf("empty path"))
	}
	full := Canonical(path)
	if _, err := v.Resolve(ctx, full); err != nil {
		return ModificationMetadata{}, err
	}
	info, err := v.store.Stat(ctx, full)
	if err != nil {
		return ModificationMetadata{}, err
	}
	return ModificationMetadata{
		ModificationTime: info.ModTime.UTC().Format(time.RFC3339),
	}, nil
}

// FileMetadataOf builds the full metadata of the file at path. The
// target must exist as a file.
func (v *VFS) FileMetadataOf(ctx context.Context, path string) (FileMetadata, error) {
	if StripQueryOrFragment(path) == "" {
		return FileMetadata{}, NewError(CodeNotFound, "getFileMetadata", path, fmt.Errorf("empty path"))
	}
	full := Canonical(path)
	exists, err := v.store.FileExists(ctx, full)
	if err != nil {
		return FileMetadata{}, err
	}
	if !exists {
		return FileMetadata{}, NewError(CodeNotFound, "getFileMetadata", path, store.ErrNotExist)
	}
	info, err := v.store.Stat(ctx, full)
	if err != nil {
		return FileMetadata{}, err
	}
	mime := v.mimes.ByExtension(full)
	if mime == "" {
		// Unknown extension; sniff the content instead.
		if rc, err := v.store.OpenRead(ctx, full); err == nil {
			mime = v.mimes.Detect(full, rc)
			rc.Close()
		} else {
			mime = v.mimes.Detect(full, nil)
		}
	}
	name := LastSegment(full)
	if name == "" {
		name = "/"
	}
	return FileMetadata{
		FileName:         name,
		FullPath:         full,
		Type:             mime,
		LastModifiedDate: info.ModTime.UTC().Format(time.RFC3339),
		Size:             info.Size,
	}, nil
}

// CheckQuota verifies that requested bytes fit in the store's free
// space. A requested size of exactly zero means no check.
func (v *VFS) CheckQuota(ctx context.Context, requested int64) error {
	if requested == 0 {
		return nil
	}
	free, err := v.store.FreeSpace(ctx)
	if err != nil {
		return err
	}
	if requested > free {
		return NewError(CodeQuotaExceeded, "requestFileSystem", "",
			fmt.Errorf("requested %d bytes, %d available", requested, free))
	}
	return nil
}
