package file

import (
	"context"

	"github.com/sandfs/sandfs/internal/types"
	"github.com/sandfs/sandfs/internal/vfs"
)

// Read-path operations. Unmapped failures on these call sites default
// to NotReadable.

func (p *Provider) checkFileExists(ctx context.Context, opts Options) (*types.Result, error) {
	exists, err := p.vfs.FileExists(ctx, opts.FilePath)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"exists": exists})
}

func (p *Provider) checkDirectoryExists(ctx context.Context, opts Options) (*types.Result, error) {
	exists, err := p.vfs.DirExists(ctx, opts.DirName)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"exists": exists})
}

func (p *Provider) readAsDataURL(ctx context.Context, opts Options) (*types.Result, error) {
	if opts.FilePath == "" {
		return Fail(vfs.CodeNotFound, "filePath option required")
	}
	dataURL, err := p.vfs.ReadAsDataURL(ctx, opts.FilePath)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"data_url": dataURL})
}

func (p *Provider) readAsText(ctx context.Context, opts Options) (*types.Result, error) {
	if opts.FilePath == "" {
		return Fail(vfs.CodeNotFound, "filePath option required")
	}
	text, err := p.vfs.ReadAsText(ctx, opts.FilePath, opts.Encoding)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"text": text})
}

func (p *Provider) getMetadata(ctx context.Context, opts Options) (*types.Result, error) {
	meta, err := p.vfs.Metadata(ctx, opts.FullPath)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"modificationTime": meta.ModificationTime})
}

func (p *Provider) getFileMetadata(ctx context.Context, opts Options) (*types.Result, error) {
	meta, err := p.vfs.FileMetadataOf(ctx, opts.FullPath)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{
		"fileName":         meta.FileName,
		"fullPath":         meta.FullPath,
		"type":             meta.Type,
		"lastModifiedDate": meta.LastModifiedDate,
		"size":             meta.Size,
	})
}

func (p *Provider) getParent(ctx context.Context, opts Options) (*types.Result, error) {
	entry, err := p.vfs.Parent(ctx, opts.FullPath)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"entry": entryData(entry)})
}

func (p *Provider) readEntries(ctx context.Context, opts Options) (*types.Result, error) {
	entries, err := p.vfs.ReadEntries(ctx, opts.FullPath)
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	shaped := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		shaped = append(shaped, entryData(e))
	}
	return Success(map[string]interface{}{
		"entries": shaped,
		"count":   len(shaped),
	})
}

func (p *Provider) resolveURI(ctx context.Context, opts Options) (*types.Result, error) {
	entry, err := p.vfs.ResolveURI(ctx, opts.URI)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"entry": entryData(entry)})
}

func (p *Provider) getFreeDiskSpace(ctx context.Context) (*types.Result, error) {
	free, err := p.vfs.FreeSpace(ctx)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"free_space": free})
}
