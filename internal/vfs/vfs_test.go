package vfs_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandfs/sandfs/internal/store/memory"
	"github.com/sandfs/sandfs/internal/vfs"
)

func newTestVFS(t *testing.T) *vfs.VFS {
	t.Helper()
	st := memory.New(0)
	t.Cleanup(func() { st.Close() })
	return vfs.New(st)
}

func mustWrite(t *testing.T, v *vfs.VFS, path, content string) {
	t.Helper()
	n, err := v.Write(context.Background(), path, []byte(content), 0)
	require.NoError(t, err)
	require.Equal(t, len(content), n)
}

func TestWriteAndReadAsText(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	n, err := v.Write(ctx, "/docs/hello.txt", []byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	text, err := v.ReadAsText(ctx, "/docs/hello.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestWriteAtPosition(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/f.txt", "hello")
	n, err := v.Write(ctx, "/f.txt", []byte("XY"), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	text, err := v.ReadAsText(ctx, "/f.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "hXYlo", text)
}

func TestWritePastEnd(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/f.txt", "ab")
	_, err := v.Write(ctx, "/f.txt", []byte("z"), 4)
	require.NoError(t, err)

	data, err := v.ReadAll(ctx, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 'z'}, data)
}

func TestWriteRejectsBadArguments(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	_, err := v.Write(ctx, "", []byte("x"), 0)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)

	_, err = v.Write(ctx, "/f.txt", []byte("x"), -1)
	code, ok = vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeEncoding, code)
}

func TestDecodePayload(t *testing.T) {
	data, err := vfs.DecodePayload("hello", false)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	encoded := base64.StdEncoding.EncodeToString([]byte{0x00, 0xff, 0x10})
	data, err = vfs.DecodePayload(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, data)

	_, err = vfs.DecodePayload("not base64!!", true)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeEncoding, code)
}

func TestReadAsDataURL(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/note.txt", "hi")
	url, err := v.ReadAsDataURL(ctx, "/note.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:text/plain;base64,"), "got %q", url)

	payload := strings.TrimPrefix(url, "data:text/plain;base64,")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(decoded))
}

func TestReadAsTextEncodings(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	// "café" in ISO-8859-1: the é is a single 0xE9 byte.
	latin1 := []byte{'c', 'a', 'f', 0xE9}
	_, err := v.Write(ctx, "/latin1.txt", latin1, 0)
	require.NoError(t, err)

	text, err := v.ReadAsText(ctx, "/latin1.txt", "iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", text)

	_, err = v.ReadAsText(ctx, "/latin1.txt", "klingon-7")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeEncoding, code)
}

func TestReadAsTextAutoDetect(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/plain.txt", "plain ascii text that any detector settles on")
	text, err := v.ReadAsText(ctx, "/plain.txt", "auto")
	require.NoError(t, err)
	assert.Equal(t, "plain ascii text that any detector settles on", text)
}

func TestReadMissingFile(t *testing.T) {
	v := newTestVFS(t)

	_, err := v.ReadAsText(context.Background(), "/nope.txt", "")
	require.Error(t, err)
	assert.Equal(t, vfs.CodeNotFound, vfs.Classify(err, vfs.CodeNotReadable))
}

func TestTruncate(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/f.txt", "hello")

	length, err := v.Truncate(ctx, "/f.txt", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	text, err := v.ReadAsText(ctx, "/f.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "he", text)

	// Extending pads with zero bytes.
	length, err = v.Truncate(ctx, "/f.txt", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), length)
	data, err := v.ReadAll(ctx, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{'h', 'e', 0, 0}, data)
}

func TestTruncateMissingFile(t *testing.T) {
	v := newTestVFS(t)

	_, err := v.Truncate(context.Background(), "/nope.txt", 0)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}

func TestExistenceChecks(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/dir/f.txt", "x")

	exists, err := v.FileExists(ctx, "/dir/f.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = v.FileExists(ctx, "/dir")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = v.DirExists(ctx, "/dir")
	require.NoError(t, err)
	assert.True(t, exists)

	// Empty paths answer false, never an error.
	exists, err = v.FileExists(ctx, "")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = v.DirExists(ctx, "?x=1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadEntriesOrder(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/d/b.txt", "b")
	mustWrite(t, v, "/d/a.txt", "a")
	mustWrite(t, v, "/d/zsub/inner.txt", "i")
	mustWrite(t, v, "/d/asub/inner.txt", "i")

	entries, err := v.ReadEntries(ctx, "/d")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Files first, then directories, each group sorted.
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.True(t, entries[0].IsFile)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "asub", entries[2].Name)
	assert.True(t, entries[2].IsDirectory)
	assert.Equal(t, "zsub", entries[3].Name)
	assert.Equal(t, "/d/a.txt", entries[0].FullPath)
	assert.Equal(t, "/d/zsub", entries[3].FullPath)
}

func TestReadEntriesMissingDir(t *testing.T) {
	v := newTestVFS(t)

	_, err := v.ReadEntries(context.Background(), "/nope")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}

func TestResolve(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/a/f.txt", "x")

	entry, err := v.Resolve(ctx, "/a/f.txt")
	require.NoError(t, err)
	assert.True(t, entry.IsFile)
	assert.False(t, entry.IsDirectory)
	assert.Equal(t, "f.txt", entry.Name)
	assert.Equal(t, "/a/f.txt", entry.FullPath)

	root, err := v.Resolve(ctx, "/")
	require.NoError(t, err)
	assert.True(t, root.IsDirectory)
	assert.Equal(t, "/", root.Name)
	assert.Equal(t, "/", root.FullPath)

	_, err = v.Resolve(ctx, "/missing")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)

	_, err = v.Resolve(ctx, "")
	code, ok = vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeEncoding, code)
}

func TestLookup(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/a.txt", "x")

	entry, ok := v.Lookup(ctx, "/a.txt")
	assert.True(t, ok)
	assert.Equal(t, "a.txt", entry.Name)

	_, ok = v.Lookup(ctx, "/missing")
	assert.False(t, ok)
}

func TestParent(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/a/b/f.txt", "x")

	parent, err := v.Parent(ctx, "/a/b/f.txt")
	require.NoError(t, err)
	assert.True(t, parent.IsDirectory)
	assert.Equal(t, "/a/b", parent.FullPath)

	// The root is its own parent.
	parent, err = v.Parent(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "/", parent.FullPath)
}

func TestGetFileCreate(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	entry, err := v.GetFile(ctx, "/", "notes.txt", vfs.CreateFlags{Create: true})
	require.NoError(t, err)
	assert.True(t, entry.IsFile)
	assert.Equal(t, "/notes.txt", entry.FullPath)

	// Create without exclusive is idempotent.
	_, err = v.GetFile(ctx, "/", "notes.txt", vfs.CreateFlags{Create: true})
	require.NoError(t, err)
}

func TestGetFileExclusiveTwice(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()
	flags := vfs.CreateFlags{Create: true, Exclusive: true}

	_, err := v.GetFile(ctx, "/", "once.txt", flags)
	require.NoError(t, err)

	_, err = v.GetFile(ctx, "/", "once.txt", flags)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodePathExists, code)
}

func TestGetFileLookupMissing(t *testing.T) {
	v := newTestVFS(t)

	_, err := v.GetFile(context.Background(), "/", "absent.txt", vfs.CreateFlags{})
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}

func TestGetFileKindMismatch(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/d/inner.txt", "x")

	// getFile against an existing directory.
	_, err := v.GetFile(ctx, "/", "d", vfs.CreateFlags{})
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeTypeMismatch, code)

	// getDirectory against an existing file.
	_, err = v.GetDirectory(ctx, "/d", "inner.txt", vfs.CreateFlags{Create: true})
	code, ok = vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeTypeMismatch, code)
}

func TestGetDirectoryCreate(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	entry, err := v.GetDirectory(ctx, "/data", "logs", vfs.CreateFlags{Create: true})
	require.NoError(t, err)
	assert.True(t, entry.IsDirectory)
	assert.Equal(t, "/data/logs", entry.FullPath)

	exists, err := v.DirExists(ctx, "/data/logs")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMetadata(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/f.txt", "content")

	meta, err := v.Metadata(ctx, "/f.txt")
	require.NoError(t, err)
	ts, err := time.Parse(time.RFC3339, meta.ModificationTime)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)

	_, err = v.Metadata(ctx, "/absent")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}

func TestFileMetadataOf(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/docs/report.txt", "twelve bytes")

	meta, err := v.FileMetadataOf(ctx, "/docs/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "report.txt", meta.FileName)
	assert.Equal(t, "/docs/report.txt", meta.FullPath)
	assert.Equal(t, "text/plain", meta.Type)
	assert.Equal(t, int64(12), meta.Size)
	_, err = time.Parse(time.RFC3339, meta.LastModifiedDate)
	assert.NoError(t, err)

	// Directories are not files.
	_, err = v.FileMetadataOf(ctx, "/docs")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}

func TestCheckQuota(t *testing.T) {
	st := memory.New(1024)
	t.Cleanup(func() { st.Close() })
	v := vfs.New(st)
	ctx := context.Background()

	assert.NoError(t, v.CheckQuota(ctx, 0))
	assert.NoError(t, v.CheckQuota(ctx, 512))

	err := v.CheckQuota(ctx, 4096)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeQuotaExceeded, code)
}

func TestRequestFileSystem(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	persistent, err := v.RequestFileSystem(ctx, vfs.Persistent, 0)
	require.NoError(t, err)
	assert.Equal(t, "persistent", persistent.Name)
	require.NotNil(t, persistent.Root)
	assert.Equal(t, "/", persistent.Root.FullPath)

	// The temporary root is created lazily and idempotently, and its
	// descriptor carries a trailing separator.
	for i := 0; i < 2; i++ {
		temp, err := v.RequestFileSystem(ctx, vfs.Temporary, 0)
		require.NoError(t, err)
		assert.Equal(t, "temporary", temp.Name)
		require.NotNil(t, temp.Root)
		assert.Equal(t, "/tmp/", temp.Root.FullPath)
	}

	resource, err := v.RequestFileSystem(ctx, vfs.Resource, 0)
	require.NoError(t, err)
	assert.Equal(t, "resource", resource.Name)
	assert.Nil(t, resource.Root)

	app, err := v.RequestFileSystem(ctx, vfs.Application, 0)
	require.NoError(t, err)
	assert.Equal(t, "application", app.Name)
	assert.Nil(t, app.Root)

	_, err = v.RequestFileSystem(ctx, vfs.FSType(9), 0)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNoModificationAllowed, code)
}

func TestRequestFileSystemQuota(t *testing.T) {
	st := memory.New(100)
	t.Cleanup(func() { st.Close() })
	v := vfs.New(st)

	_, err := v.RequestFileSystem(context.Background(), vfs.Persistent, 1000)
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeQuotaExceeded, code)
}

func TestRequestFileSystemCustomTempDir(t *testing.T) {
	st := memory.New(0)
	t.Cleanup(func() { st.Close() })
	v := vfs.New(st, vfs.WithTempDir("/scratch"))

	temp, err := v.RequestFileSystem(context.Background(), vfs.Temporary, 0)
	require.NoError(t, err)
	require.NotNil(t, temp.Root)
	assert.Equal(t, "/scratch/", temp.Root.FullPath)
}

func TestResolveURI(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/data/my file.txt", "x")

	entry, err := v.ResolveURI(ctx, "file:///data/my%20file.txt")
	require.NoError(t, err)
	assert.Equal(t, "/data/my file.txt", entry.FullPath)

	entry, err = v.ResolveURI(ctx, "/data/my%20file.txt")
	require.NoError(t, err)
	assert.Equal(t, "my file.txt", entry.Name)

	_, err = v.ResolveURI(ctx, "relative/path.txt")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeEncoding, code)

	_, err = v.ResolveURI(ctx, "")
	code, ok = vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeEncoding, code)
}

func TestFreeSpace(t *testing.T) {
	st := memory.New(1000)
	t.Cleanup(func() { st.Close() })
	v := vfs.New(st)
	ctx := context.Background()

	free, err := v.FreeSpace(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), free)

	mustWrite(t, v, "/f.bin", strings.Repeat("x", 100))
	free, err = v.FreeSpace(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(900), free)
}
