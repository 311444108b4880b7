package vfs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandfs/sandfs/internal/vfs"
)

func TestRemoveFile(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/d/f.txt", "x")
	require.NoError(t, v.Remove(ctx, "/d/f.txt"))

	exists, err := v.FileExists(ctx, "/d/f.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveEmptyDirectory(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	_, err := v.GetDirectory(ctx, "/", "empty", vfs.CreateFlags{Create: true})
	require.NoError(t, err)
	require.NoError(t, v.Remove(ctx, "/empty"))

	exists, err := v.DirExists(ctx, "/empty")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveNonEmptyDirectory(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/d/f.txt", "x")

	err := v.Remove(ctx, "/d")
	require.Error(t, err)
	assert.Equal(t, vfs.CodeInvalidModification, vfs.Classify(err, vfs.CodeNoModificationAllowed))
}

func TestRemoveRoot(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	for _, path := range []string{"/", "//", "/./"} {
		err := v.Remove(ctx, path)
		code, ok := vfs.CodeOf(err)
		require.True(t, ok, "Remove(%q)", path)
		assert.Equal(t, vfs.CodeNoModificationAllowed, code)
	}

	err := v.RemoveTree(ctx, "/")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNoModificationAllowed, code)
}

func TestRemoveMissing(t *testing.T) {
	v := newTestVFS(t)

	err := v.Remove(context.Background(), "/absent")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}

func TestRemoveTree(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/d/a.txt", "x")
	mustWrite(t, v, "/d/sub/b.txt", "y")
	mustWrite(t, v, "/d/sub/deeper/c.txt", "z")
	mustWrite(t, v, "/sibling.txt", "keep")

	require.NoError(t, v.RemoveTree(ctx, "/d"))

	exists, err := v.DirExists(ctx, "/d")
	require.NoError(t, err)
	assert.False(t, exists)

	// Siblings are untouched.
	exists, err = v.FileExists(ctx, "/sibling.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRemoveTreeOnFile(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	mustWrite(t, v, "/f.txt", "x")

	err := v.RemoveTree(ctx, "/f.txt")
	code, ok := vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)

	err = v.RemoveTree(ctx, "/absent")
	code, ok = vfs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, vfs.CodeNotFound, code)
}
