package file

import (
	"context"

	"github.com/sandfs/sandfs/internal/types"
	"github.com/sandfs/sandfs/internal/vfs"
)

// Write-path operations. Unmapped failures on these call sites default
// to NoModificationAllowed, except truncate and write whose documented
// default is NotReadable.

func (p *Provider) truncate(ctx context.Context, opts Options) (*types.Result, error) {
	length, err := p.vfs.Truncate(ctx, opts.FilePath, opts.Size)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"length": length})
}

func (p *Provider) write(ctx context.Context, opts Options) (*types.Result, error) {
	payload, err := vfs.DecodePayload(opts.Data, opts.IsBinary)
	if err != nil {
		return Failure(err, vfs.CodeEncoding)
	}
	written, err := p.vfs.Write(ctx, opts.FilePath, payload, opts.Position)
	if err != nil {
		return Failure(err, vfs.CodeNotReadable)
	}
	return Success(map[string]interface{}{"written": written})
}

func (p *Provider) remove(ctx context.Context, opts Options) (*types.Result, error) {
	if err := p.vfs.Remove(ctx, opts.FullPath); err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{"removed": true, "path": opts.FullPath})
}

func (p *Provider) removeRecursively(ctx context.Context, opts Options) (*types.Result, error) {
	if err := p.vfs.RemoveTree(ctx, opts.FullPath); err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{"removed": true, "path": opts.FullPath})
}

func (p *Provider) requestFileSystem(ctx context.Context, opts Options) (*types.Result, error) {
	info, err := p.vfs.RequestFileSystem(ctx, vfs.FSType(opts.Type), opts.Size)
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	data := map[string]interface{}{"name": info.Name}
	if info.Root != nil {
		data["root"] = entryData(*info.Root)
	}
	return Success(data)
}

func (p *Provider) transfer(ctx context.Context, opts Options, move bool) (*types.Result, error) {
	entry, err := p.vfs.Transfer(ctx, opts.FullPath, opts.Parent, opts.NewName, move)
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{"entry": entryData(entry)})
}

func (p *Provider) getFile(ctx context.Context, opts Options) (*types.Result, error) {
	entry, err := p.vfs.GetFile(ctx, opts.FullPath, opts.Path, vfs.CreateFlags{
		Create:    opts.Create,
		Exclusive: opts.Exclusive,
	})
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{"entry": entryData(entry)})
}

func (p *Provider) getDirectory(ctx context.Context, opts Options) (*types.Result, error) {
	entry, err := p.vfs.GetDirectory(ctx, opts.FullPath, opts.Path, vfs.CreateFlags{
		Create:    opts.Create,
		Exclusive: opts.Exclusive,
	})
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{"entry": entryData(entry)})
}

func (p *Provider) archive(ctx context.Context, opts Options) (*types.Result, error) {
	format, err := vfs.ParseArchiveFormat(opts.Format)
	if err != nil {
		return Failure(err, vfs.CodeEncoding)
	}
	if opts.Target == "" {
		return Fail(vfs.CodeNotFound, "target option required")
	}
	stats, err := p.vfs.Archive(ctx, opts.FullPath, opts.Target, format)
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{
		"target":  opts.Target,
		"entries": stats.Entries,
		"bytes":   stats.Bytes,
	})
}

func (p *Provider) extract(ctx context.Context, opts Options) (*types.Result, error) {
	format, err := vfs.ParseArchiveFormat(opts.Format)
	if err != nil {
		return Failure(err, vfs.CodeEncoding)
	}
	if opts.Target == "" {
		return Fail(vfs.CodeNotFound, "target option required")
	}
	entries, err := p.vfs.Extract(ctx, opts.FullPath, opts.Target, format)
	if err != nil {
		return Failure(err, vfs.CodeNoModificationAllowed)
	}
	return Success(map[string]interface{}{
		"target":  opts.Target,
		"entries": entries,
	})
}
