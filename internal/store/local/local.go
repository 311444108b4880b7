// Package local provides the on-disk store backend.
//
// All content lives under a single OS root directory. Virtual paths
// are mapped into that root and verified to stay inside it; escape
// attempts fail before any syscall runs. Free space combines the
// device's available bytes with the configured quota.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/charlievieth/fastwalk"

	"github.com/sandfs/sandfs/internal/store"
)

// Config holds local backend settings.
type Config struct {
	// Root is the OS directory that jails all content.
	Root string
	// QuotaBytes caps total content size. Zero means unlimited.
	QuotaBytes int64
}

// Store is a disk-backed jailed store.
type Store struct {
	root   string
	quota  int64
	closed atomic.Bool
}

// New creates the backend, creating the root directory when absent.
func New(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", cfg.Root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", root, err)
	}
	return &Store{root: root, quota: cfg.QuotaBytes}, nil
}

// toOSPath maps a virtual path into the jail. The mapped path must
// stay inside the root after lexical resolution.
func (s *Store) toOSPath(path string) (string, error) {
	clean := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	rel, err := filepath.Rel(s.root, clean)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, store.ErrInvalidPath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, store.ErrPermission)
	}
	return clean, nil
}

// mapErr translates OS failures into store sentinels.
func mapErr(path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", path, store.ErrNotExist)
	case errors.Is(err, fs.ErrExist), errors.Is(err, syscall.ENOTEMPTY):
		// rmdir on a populated directory reports ENOTEMPTY on most
		// systems and EEXIST on some.
		if errors.Is(err, syscall.ENOTEMPTY) {
			return fmt.Errorf("%s: %w", path, store.ErrNotEmpty)
		}
		return fmt.Errorf("%s: %w", path, store.ErrExist)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w", path, store.ErrPermission)
	case errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s: %w", path, store.ErrNotDir)
	case errors.Is(err, syscall.EISDIR):
		return fmt.Errorf("%s: %w", path, store.ErrIsDir)
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EDQUOT):
		return fmt.Errorf("%s: %w", path, store.ErrNoSpace)
	default:
		return fmt.Errorf("%s: %w", path, err)
	}
}

func (s *Store) guard() error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return nil
}

// FileExists reports whether a regular file lives at path.
func (s *Store) FileExists(ctx context.Context, path string) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(osPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, mapErr(path, err)
	}
	return !info.IsDir(), nil
}

// DirExists reports whether a directory lives at path.
func (s *Store) DirExists(ctx context.Context, path string) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(osPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, mapErr(path, err)
	}
	return info.IsDir(), nil
}

func (s *Store) readDir(path string) ([]os.DirEntry, error) {
	osPath, err := s.toOSPath(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(osPath)
	if err != nil {
		return nil, mapErr(path, err)
	}
	return entries, nil
}

// ListFiles returns file names directly under dir, in directory order.
func (s *Store) ListFiles(ctx context.Context, dir string) ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	entries, err := s.readDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListDirs returns directory names directly under dir, in directory
// order.
func (s *Store) ListDirs(ctx context.Context, dir string) ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	entries, err := s.readDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// OpenRead opens a file for reading.
func (s *Store) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(osPath)
	if err != nil {
		return nil, mapErr(path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, store.ErrIsDir)
	}
	f, err := os.Open(osPath)
	if err != nil {
		return nil, mapErr(path, err)
	}
	return f, nil
}

// OpenWrite opens path read-write, creating the file and missing
// parents when absent.
func (s *Store) OpenWrite(ctx context.Context, path string) (store.File, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(osPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, store.ErrIsDir)
	}
	if err := os.MkdirAll(filepath.Dir(osPath), 0o755); err != nil {
		return nil, mapErr(path, err)
	}
	f, err := os.OpenFile(osPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, mapErr(path, err)
	}
	return f, nil
}

// CreateFile creates an empty file, truncating existing content.
func (s *Store) CreateFile(ctx context.Context, path string) error {
	if err := s.guard(); err != nil {
		return err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(osPath); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", path, store.ErrIsDir)
	}
	if err := os.MkdirAll(filepath.Dir(osPath), 0o755); err != nil {
		return mapErr(path, err)
	}
	f, err := os.OpenFile(osPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return mapErr(path, err)
	}
	return f.Close()
}

// CreateDir creates a directory and missing parents. Idempotent.
func (s *Store) CreateDir(ctx context.Context, path string) error {
	if err := s.guard(); err != nil {
		return err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(osPath); err == nil && !info.IsDir() {
		return fmt.Errorf("%s: %w", path, store.ErrExist)
	}
	if err := os.MkdirAll(osPath, 0o755); err != nil {
		return mapErr(path, err)
	}
	return nil
}

// DeleteFile removes a single file.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	if err := s.guard(); err != nil {
		return err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(osPath)
	if err != nil {
		return mapErr(path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", path, store.ErrIsDir)
	}
	if err := os.Remove(osPath); err != nil {
		return mapErr(path, err)
	}
	return nil
}

// DeleteDir removes an empty directory.
func (s *Store) DeleteDir(ctx context.Context, path string) error {
	if err := s.guard(); err != nil {
		return err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return err
	}
	if osPath == s.root {
		return fmt.Errorf("/: %w", store.ErrPermission)
	}
	info, err := os.Stat(osPath)
	if err != nil {
		return mapErr(path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, store.ErrNotDir)
	}
	if err := os.Remove(osPath); err != nil {
		return mapErr(path, err)
	}
	return nil
}

func (s *Store) rename(oldPath, newPath string, wantDir bool) error {
	oldOS, err := s.toOSPath(oldPath)
	if err != nil {
		return err
	}
	newOS, err := s.toOSPath(newPath)
	if err != nil {
		return err
	}
	if oldOS == newOS {
		return nil
	}
	info, err := os.Stat(oldOS)
	if err != nil {
		return mapErr(oldPath, err)
	}
	if info.IsDir() != wantDir {
		if wantDir {
			return fmt.Errorf("%s: %w", oldPath, store.ErrNotDir)
		}
		return fmt.Errorf("%s: %w", oldPath, store.ErrIsDir)
	}
	if wantDir && strings.HasPrefix(newOS+string(filepath.Separator), oldOS+string(filepath.Separator)) {
		return fmt.Errorf("%s: %w", newPath, store.ErrInvalidPath)
	}
	// os.Rename silently replaces files and empty directories;
	// the contract requires an absent target.
	if _, err := os.Stat(newOS); err == nil {
		return fmt.Errorf("%s: %w", newPath, store.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(newOS), 0o755); err != nil {
		return mapErr(newPath, err)
	}
	if err := os.Rename(oldOS, newOS); err != nil {
		return mapErr(newPath, err)
	}
	return nil
}

// RenameFile moves a single file. The target must not exist.
func (s *Store) RenameFile(ctx context.Context, oldPath, newPath string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.rename(oldPath, newPath, false)
}

// RenameDir moves a whole subtree. The target must not exist.
func (s *Store) RenameDir(ctx context.Context, oldPath, newPath string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.rename(oldPath, newPath, true)
}

// CopyFile byte-copies src over dst through a temp file in the target
// directory, so a failed copy never leaves a half-written dst.
func (s *Store) CopyFile(ctx context.Context, src, dst string) error {
	if err := s.guard(); err != nil {
		return err
	}
	srcOS, err := s.toOSPath(src)
	if err != nil {
		return err
	}
	dstOS, err := s.toOSPath(dst)
	if err != nil {
		return err
	}
	info, err := os.Stat(srcOS)
	if err != nil {
		return mapErr(src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", src, store.ErrIsDir)
	}
	if dstInfo, err := os.Stat(dstOS); err == nil && dstInfo.IsDir() {
		return fmt.Errorf("%s: %w", dst, store.ErrIsDir)
	}
	in, err := os.Open(srcOS)
	if err != nil {
		return mapErr(src, err)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dstOS), 0o755); err != nil {
		return mapErr(dst, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dstOS), ".copy-*")
	if err != nil {
		return mapErr(dst, err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return mapErr(dst, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return mapErr(dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return mapErr(dst, err)
	}
	if err := os.Rename(tmpName, dstOS); err != nil {
		os.Remove(tmpName)
		return mapErr(dst, err)
	}
	return nil
}

// Stat describes the entry at path.
func (s *Store) Stat(ctx context.Context, path string) (store.Info, error) {
	if err := s.guard(); err != nil {
		return store.Info{}, err
	}
	osPath, err := s.toOSPath(path)
	if err != nil {
		return store.Info{}, err
	}
	info, err := os.Stat(osPath)
	if err != nil {
		return store.Info{}, mapErr(path, err)
	}
	return store.Info{
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
		IsDir:   info.IsDir(),
	}, nil
}

// Usage sums content bytes under the root.
func (s *Store) Usage(ctx context.Context) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total.Add(info.Size())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("usage scan: %w", err)
	}
	return total.Load(), nil
}

// FreeSpace reports bytes available for new content: device free
// space, further capped by the configured quota.
func (s *Store) FreeSpace(ctx context.Context) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	_, deviceFree, err := diskUsage(s.root)
	if err != nil {
		return 0, fmt.Errorf("disk usage: %w", err)
	}
	free := int64(deviceFree)
	if s.quota > 0 {
		used, err := s.Usage(ctx)
		if err != nil {
			return 0, err
		}
		remaining := s.quota - used
		if remaining < 0 {
			remaining = 0
		}
		if remaining < free {
			free = remaining
		}
	}
	return free, nil
}

// Root exposes the jail directory.
func (s *Store) Root() string { return s.root }

// Type identifies the backend.
func (s *Store) Type() string { return "local" }

// Close marks the store closed; subsequent operations fail.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
