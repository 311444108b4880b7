package vfs

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/sandfs/sandfs/internal/store"
)

// ArchiveFormat selects the compression codec for pack and extract.
type ArchiveFormat string

const (
	FormatGzip ArchiveFormat = "gzip"
	FormatZstd ArchiveFormat = "zstd"
)

// ParseArchiveFormat maps a request label to a format. Empty means
// gzip; anything else is a malformed argument.
func ParseArchiveFormat(label string) (ArchiveFormat, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "gzip", "gz":
		return FormatGzip, nil
	case "zstd", "zst":
		return FormatZstd, nil
	default:
		return "", NewError(CodeEncoding, "archive", "", fmt.Errorf("unknown archive format %q", label))
	}
}

// ArchiveStats summarizes a completed pack.
type ArchiveStats struct {
	Entries int
	Bytes   int64
}

// Archive packs the file or directory subtree at sourcePath into a
// compressed tar stream written at targetPath. Everything flows
// through the store, so the jail and quota apply to both ends.
func (v *VFS) Archive(ctx context.Context, sourcePath, targetPath string, format ArchiveFormat) (ArchiveStats, error) {
	if StripQueryOrFragment(sourcePath) == "" || StripQueryOrFragment(targetPath) == "" {
		return ArchiveStats{}, NewError(CodeNotFound, "archive", sourcePath, fmt.Errorf("empty path"))
	}
	source, err := v.Resolve(ctx, sourcePath)
	if err != nil {
		return ArchiveStats{}, err
	}
	target := Canonical(targetPath)

	out, err := v.store.OpenWrite(ctx, target)
	if err != nil {
		return ArchiveStats{}, err
	}
	defer out.Close()
	if err := out.Truncate(0); err != nil {
		return ArchiveStats{}, err
	}

	counter := &countingWriter{w: out}
	compressor, err := newCompressor(counter, format)
	if err != nil {
		return ArchiveStats{}, err
	}
	tw := tar.NewWriter(compressor)

	var entries int
	if source.IsFile {
		entries, err = v.packFile(ctx, tw, source.FullPath, source.Name)
	} else {
		entries, err = v.packTree(ctx, tw, source.FullPath, "", target)
	}
	if err != nil {
		tw.Close()
		compressor.Close()
		return ArchiveStats{}, err
	}
	if err := tw.Close(); err != nil {
		compressor.Close()
		return ArchiveStats{}, err
	}
	if err := compressor.Close(); err != nil {
		return ArchiveStats{}, err
	}
	return ArchiveStats{Entries: entries, Bytes: counter.n}, nil
}

func (v *VFS) packFile(ctx context.Context, tw *tar.Writer, path, name string) (int, error) {
	info, err := v.store.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    info.Size,
		ModTime: info.ModTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, err
	}
	rc, err := v.store.OpenRead(ctx, path)
	if err != nil {
		return 0, err
	}
	_, err = io.Copy(tw, rc)
	rc.Close()
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// packTree walks dir depth-first. skip is the archive target itself,
// which must not pack into its own stream.
func (v *VFS) packTree(ctx context.Context, tw *tar.Writer, dir, prefix, skip string) (int, error) {
	files, err := v.store.ListFiles(ctx, dir)
	if err != nil {
		return 0, err
	}
	dirs, err := v.store.ListDirs(ctx, dir)
	if err != nil {
		return 0, err
	}
	var entries int
	for _, name := range files {
		path := Join(dir, name)
		if path == skip {
			continue
		}
		n, err := v.packFile(ctx, tw, path, joinRelative(prefix, name))
		if err != nil {
			return entries, err
		}
		entries += n
	}
	for _, name := range dirs {
		rel := joinRelative(prefix, name)
		hdr := &tar.Header{
			Name:     rel + "/",
			Typeflag: tar.TypeDir,
			Mode:     0o755,
			ModTime:  time.Now().UTC(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return entries, err
		}
		entries++
		n, err := v.packTree(ctx, tw, Join(dir, name), rel, skip)
		if err != nil {
			return entries, err
		}
		entries += n
	}
	return entries, nil
}

// Extract reads a compressed tar stream at sourcePath and recreates
// its files and directories under targetDir. Entry paths are relative
// and rejected when they would escape the target.
func (v *VFS) Extract(ctx context.Context, sourcePath, targetDir string, format ArchiveFormat) (int, error) {
	if StripQueryOrFragment(sourcePath) == "" || StripQueryOrFragment(targetDir) == "" {
		return 0, NewError(CodeNotFound, "extract", sourcePath, fmt.Errorf("empty path"))
	}
	src := Canonical(sourcePath)
	exists, err := v.store.FileExists(ctx, src)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, NewError(CodeNotFound, "extract", sourcePath, store.ErrNotExist)
	}
	target := Canonical(targetDir)
	if err := v.store.CreateDir(ctx, target); err != nil {
		return 0, err
	}

	rc, err := v.store.OpenRead(ctx, src)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	decompressor, err := newDecompressor(rc, format)
	if err != nil {
		return 0, err
	}
	defer decompressor.Close()

	tr := tar.NewReader(decompressor)
	var entries int
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, NewError(CodeEncoding, "extract", sourcePath, err)
		}
		dest, err := secureJoin(target, hdr.Name)
		if err != nil {
			return entries, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := v.store.CreateDir(ctx, dest); err != nil {
				return entries, err
			}
		case tar.TypeReg:
			if err := v.writeExtracted(ctx, dest, tr); err != nil {
				return entries, err
			}
		default:
			// Symlinks and specials are outside the data model.
			continue
		}
		entries++
	}
	return entries, nil
}

func (v *VFS) writeExtracted(ctx context.Context, path string, r io.Reader) error {
	f, err := v.store.OpenWrite(ctx, path)
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// secureJoin anchors an archive-relative name under target and rejects
// names that climb out of it.
func secureJoin(target, name string) (string, error) {
	joined := Canonical(target + "/" + strings.TrimSuffix(name, "/"))
	if joined != target && !strings.HasPrefix(joined, EnsureTrailingSeparator(target)) {
		return "", NewError(CodeSecurity, "extract", name, fmt.Errorf("entry escapes target directory"))
	}
	return joined, nil
}

func joinRelative(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func newCompressor(w io.Writer, format ArchiveFormat) (io.WriteCloser, error) {
	switch format {
	case FormatZstd:
		return zstd.NewWriter(w)
	case FormatGzip:
		return gzip.NewWriter(w), nil
	default:
		return nil, NewError(CodeEncoding, "archive", "", fmt.Errorf("unknown archive format %q", format))
	}
}

func newDecompressor(r io.Reader, format ArchiveFormat) (io.ReadCloser, error) {
	switch format {
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, NewError(CodeEncoding, "extract", "", err)
		}
		return zr.IOReadCloser(), nil
	case FormatGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, NewError(CodeEncoding, "extract", "", err)
		}
		return gr, nil
	default:
		return nil, NewError(CodeEncoding, "extract", "", fmt.Errorf("unknown archive format %q", format))
	}
}
