// Package memory provides a volatile in-memory store backend.
//
// The tree is guarded by a single mutex and enumerates children in
// sorted order, which keeps tests deterministic. A capacity cap makes
// quota behavior observable without touching a disk.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandfs/sandfs/internal/store"
)

type node struct {
	dirs    map[string]*node
	files   map[string]*file
	modTime time.Time
}

type file struct {
	data    []byte
	modTime time.Time
}

func newNode(now time.Time) *node {
	return &node{
		dirs:    make(map[string]*node),
		files:   make(map[string]*file),
		modTime: now,
	}
}

// Store is an in-memory backend.
type Store struct {
	mu       sync.Mutex
	root     *node
	capacity int64
	used     int64
	closed   bool
	// clock advances on every mutation so modification times are
	// strictly ordered even within one wall-clock tick.
	clock time.Time
}

// New creates an empty in-memory store. capacity of zero means
// unlimited.
func New(capacity int64) *Store {
	now := time.Now().UTC()
	return &Store{
		root:     newNode(now),
		capacity: capacity,
		clock:    now,
	}
}

func (s *Store) now() time.Time {
	next := time.Now().UTC()
	if !next.After(s.clock) {
		next = s.clock.Add(time.Microsecond)
	}
	s.clock = next
	return next
}

// split breaks a canonical virtual path into segments.
func split(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dirAt walks to the directory node at path.
func (s *Store) dirAt(path string) (*node, bool) {
	n := s.root
	for _, seg := range split(path) {
		child, ok := n.dirs[seg]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// parentAndBase walks to the parent directory of path.
func (s *Store) parentAndBase(path string) (*node, string, bool) {
	segs := split(path)
	if len(segs) == 0 {
		return nil, "", false
	}
	n := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := n.dirs[seg]
		if !ok {
			return nil, "", false
		}
		n = child
	}
	return n, segs[len(segs)-1], true
}

// ensureParents creates every directory above path, returning the
// parent node and base name.
func (s *Store) ensureParents(path string) (*node, string, error) {
	segs := split(path)
	if len(segs) == 0 {
		return nil, "", fmt.Errorf("%s: %w", path, store.ErrInvalidPath)
	}
	n := s.root
	for _, seg := range segs[:len(segs)-1] {
		if _, isFile := n.files[seg]; isFile {
			return nil, "", fmt.Errorf("%s: %w", path, store.ErrNotDir)
		}
		child, ok := n.dirs[seg]
		if !ok {
			child = newNode(s.now())
			n.dirs[seg] = child
		}
		n = child
	}
	return n, segs[len(segs)-1], nil
}

func (s *Store) guard() error {
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// FileExists reports whether a file lives at path.
func (s *Store) FileExists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return false, err
	}
	parent, base, ok := s.parentAndBase(path)
	if !ok {
		return false, nil
	}
	_, exists := parent.files[base]
	return exists, nil
}

// DirExists reports whether a directory lives at path.
func (s *Store) DirExists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return false, err
	}
	if len(split(path)) == 0 {
		return true, nil
	}
	_, ok := s.dirAt(path)
	return ok, nil
}

// ListFiles returns the sorted file names directly under dir.
func (s *Store) ListFiles(ctx context.Context, dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	n, ok := s.dirAt(dir)
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, store.ErrNotExist)
	}
	names := make([]string, 0, len(n.files))
	for name := range n.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListDirs returns the sorted directory names directly under dir.
func (s *Store) ListDirs(ctx context.Context, dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	n, ok := s.dirAt(dir)
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, store.ErrNotExist)
	}
	names := make([]string, 0, len(n.dirs))
	for name := range n.dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// OpenRead opens a file for reading. The returned reader sees a
// snapshot of the content at open time.
func (s *Store) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	parent, base, ok := s.parentAndBase(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	f, exists := parent.files[base]
	if !exists {
		if _, isDir := parent.dirs[base]; isDir {
			return nil, fmt.Errorf("%s: %w", path, store.ErrIsDir)
		}
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	snapshot := make([]byte, len(f.data))
	copy(snapshot, f.data)
	return io.NopCloser(bytes.NewReader(snapshot)), nil
}

// handle implements store.File over a buffered copy, flushed back on
// Close so partial writes never land.
type handle struct {
	s      *Store
	path   string
	buf    []byte
	pos    int64
	closed bool
}

func (h *handle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, store.ErrClosed
	}
	if h.pos >= int64(len(h.buf)) {
		return 0, io.EOF
	}
	n := copy(p, h.buf[h.pos:])
	h.pos += int64(n)
	return n, nil
}

func (h *handle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, store.ErrClosed
	}
	end := h.pos + int64(len(p))
	if end > int64(len(h.buf)) {
		grown := make([]byte, end)
		copy(grown, h.buf)
		h.buf = grown
	}
	copy(h.buf[h.pos:end], p)
	h.pos = end
	return len(p), nil
}

func (h *handle) Seek(offset int64, whence int) (int64, error) {
	if h.closed {
		return 0, store.ErrClosed
	}
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = h.pos + offset
	case io.SeekEnd:
		next = int64(len(h.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	h.pos = next
	return next, nil
}

func (h *handle) Truncate(size int64) error {
	if h.closed {
		return store.ErrClosed
	}
	if size < 0 {
		return fmt.Errorf("negative truncate size %d", size)
	}
	if size <= int64(len(h.buf)) {
		h.buf = h.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, h.buf)
	h.buf = grown
	return nil
}

func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.s.commit(h.path, h.buf)
}

func (s *Store) commit(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	parent, base, err := s.ensureParents(path)
	if err != nil {
		return err
	}
	var prev int64
	if f, ok := parent.files[base]; ok {
		prev = int64(len(f.data))
	}
	delta := int64(len(data)) - prev
	if s.capacity > 0 && s.used+delta > s.capacity {
		return fmt.Errorf("%s: %w", path, store.ErrNoSpace)
	}
	s.used += delta
	parent.files[base] = &file{data: data, modTime: s.now()}
	return nil
}

// OpenWrite opens path for random-access writing, creating the file
// and missing parents when absent.
func (s *Store) OpenWrite(ctx context.Context, path string) (store.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	parent, base, err := s.ensureParents(path)
	if err != nil {
		return nil, err
	}
	if _, isDir := parent.dirs[base]; isDir {
		return nil, fmt.Errorf("%s: %w", path, store.ErrIsDir)
	}
	var buf []byte
	if f, ok := parent.files[base]; ok {
		buf = make([]byte, len(f.data))
		copy(buf, f.data)
	}
	return &handle{s: s, path: path, buf: buf}, nil
}

// CreateFile creates an empty file, with parents, truncating any
// existing content.
func (s *Store) CreateFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	parent, base, err := s.ensureParents(path)
	if err != nil {
		return err
	}
	if _, isDir := parent.dirs[base]; isDir {
		return fmt.Errorf("%s: %w", path, store.ErrIsDir)
	}
	if f, ok := parent.files[base]; ok {
		s.used -= int64(len(f.data))
	}
	parent.files[base] = &file{modTime: s.now()}
	return nil
}

// CreateDir creates a directory and missing parents. Idempotent.
func (s *Store) CreateDir(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	segs := split(path)
	n := s.root
	for _, seg := range segs {
		if _, isFile := n.files[seg]; isFile {
			return fmt.Errorf("%s: %w", path, store.ErrExist)
		}
		child, ok := n.dirs[seg]
		if !ok {
			child = newNode(s.now())
			n.dirs[seg] = child
		}
		n = child
	}
	return nil
}

// DeleteFile removes a single file.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	parent, base, ok := s.parentAndBase(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	f, exists := parent.files[base]
	if !exists {
		return fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	s.used -= int64(len(f.data))
	delete(parent.files, base)
	return nil
}

// DeleteDir removes an empty directory.
func (s *Store) DeleteDir(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if len(split(path)) == 0 {
		return fmt.Errorf("/: %w", store.ErrPermission)
	}
	parent, base, ok := s.parentAndBase(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	n, exists := parent.dirs[base]
	if !exists {
		return fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	if len(n.dirs) > 0 || len(n.files) > 0 {
		return fmt.Errorf("%s: %w", path, store.ErrNotEmpty)
	}
	delete(parent.dirs, base)
	return nil
}

// RenameFile moves a single file. The target must not exist.
func (s *Store) RenameFile(ctx context.Context, oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}
	oldParent, oldBase, ok := s.parentAndBase(oldPath)
	if !ok {
		return fmt.Errorf("%s: %w", oldPath, store.ErrNotExist)
	}
	f, exists := oldParent.files[oldBase]
	if !exists {
		return fmt.Errorf("%s: %w", oldPath, store.ErrNotExist)
	}
	newParent, newBase, err := s.ensureParents(newPath)
	if err != nil {
		return err
	}
	if _, taken := newParent.files[newBase]; taken {
		return fmt.Errorf("%s: %w", newPath, store.ErrExist)
	}
	if _, taken := newParent.dirs[newBase]; taken {
		return fmt.Errorf("%s: %w", newPath, store.ErrExist)
	}
	delete(oldParent.files, oldBase)
	f.modTime = s.now()
	newParent.files[newBase] = f
	return nil
}

// RenameDir moves a whole subtree. The target must not exist.
func (s *Store) RenameDir(ctx context.Context, oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}
	if len(split(oldPath)) == 0 {
		return fmt.Errorf("/: %w", store.ErrPermission)
	}
	oldParent, oldBase, ok := s.parentAndBase(oldPath)
	if !ok {
		return fmt.Errorf("%s: %w", oldPath, store.ErrNotExist)
	}
	n, exists := oldParent.dirs[oldBase]
	if !exists {
		return fmt.Errorf("%s: %w", oldPath, store.ErrNotExist)
	}
	// Renaming a directory under itself would detach the subtree.
	if strings.HasPrefix(newPath+"/", oldPath+"/") {
		return fmt.Errorf("%s: %w", newPath, store.ErrInvalidPath)
	}
	newParent, newBase, err := s.ensureParents(newPath)
	if err != nil {
		return err
	}
	if _, taken := newParent.files[newBase]; taken {
		return fmt.Errorf("%s: %w", newPath, store.ErrExist)
	}
	if _, taken := newParent.dirs[newBase]; taken {
		return fmt.Errorf("%s: %w", newPath, store.ErrExist)
	}
	delete(oldParent.dirs, oldBase)
	n.modTime = s.now()
	newParent.dirs[newBase] = n
	return nil
}

// CopyFile byte-copies src over dst, overwriting existing content.
func (s *Store) CopyFile(ctx context.Context, src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	srcParent, srcBase, ok := s.parentAndBase(src)
	if !ok {
		return fmt.Errorf("%s: %w", src, store.ErrNotExist)
	}
	f, exists := srcParent.files[srcBase]
	if !exists {
		return fmt.Errorf("%s: %w", src, store.ErrNotExist)
	}
	dstParent, dstBase, err := s.ensureParents(dst)
	if err != nil {
		return err
	}
	if _, isDir := dstParent.dirs[dstBase]; isDir {
		return fmt.Errorf("%s: %w", dst, store.ErrIsDir)
	}
	var prev int64
	if existing, ok := dstParent.files[dstBase]; ok {
		prev = int64(len(existing.data))
	}
	delta := int64(len(f.data)) - prev
	if src != dst && s.capacity > 0 && s.used+delta > s.capacity {
		return fmt.Errorf("%s: %w", dst, store.ErrNoSpace)
	}
	data := make([]byte, len(f.data))
	copy(data, f.data)
	if src != dst {
		s.used += delta
	}
	dstParent.files[dstBase] = &file{data: data, modTime: s.now()}
	return nil
}

// Stat describes the entry at path.
func (s *Store) Stat(ctx context.Context, path string) (store.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return store.Info{}, err
	}
	if len(split(path)) == 0 {
		return store.Info{IsDir: true, ModTime: s.root.modTime}, nil
	}
	parent, base, ok := s.parentAndBase(path)
	if !ok {
		return store.Info{}, fmt.Errorf("%s: %w", path, store.ErrNotExist)
	}
	if f, exists := parent.files[base]; exists {
		return store.Info{Size: int64(len(f.data)), ModTime: f.modTime}, nil
	}
	if n, exists := parent.dirs[base]; exists {
		return store.Info{IsDir: true, ModTime: n.modTime}, nil
	}
	return store.Info{}, fmt.Errorf("%s: %w", path, store.ErrNotExist)
}

// FreeSpace reports remaining capacity, or a large value when
// unlimited.
func (s *Store) FreeSpace(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return 0, err
	}
	if s.capacity <= 0 {
		return int64(1) << 40, nil
	}
	free := s.capacity - s.used
	if free < 0 {
		free = 0
	}
	return free, nil
}

// Used reports current content size in bytes.
func (s *Store) Used() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Type identifies the backend.
func (s *Store) Type() string { return "memory" }

// Close marks the store closed; subsequent operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
