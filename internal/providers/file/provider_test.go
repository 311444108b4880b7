package file

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandfs/sandfs/internal/store/memory"
	"github.com/sandfs/sandfs/internal/types"
	"github.com/sandfs/sandfs/internal/vfs"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	st := memory.New(0)
	t.Cleanup(func() { st.Close() })
	return NewProvider(vfs.New(st))
}

func execute(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func requireSuccess(t *testing.T, result *types.Result) map[string]interface{} {
	t.Helper()
	require.True(t, result.Success, "expected success, got error: %+v", result.Error)
	return result.Data
}

func requireCode(t *testing.T, result *types.Result, code vfs.Code) {
	t.Helper()
	require.False(t, result.Success, "expected failure, got data: %+v", result.Data)
	require.NotNil(t, result.Error)
	assert.Equal(t, int(code), result.Error.Code)
	assert.NotEmpty(t, result.Error.Message)
}

func TestDefinition(t *testing.T) {
	p := newTestProvider(t)
	def := p.Definition()

	assert.Equal(t, "file", def.ID)
	assert.Equal(t, types.CategoryFilesystem, def.Category)
	require.NotEmpty(t, def.Tools)

	seen := make(map[string]bool)
	for _, tool := range def.Tools {
		assert.True(t, len(tool.ID) > 5 && tool.ID[:5] == "file.", "tool %q", tool.ID)
		assert.False(t, seen[tool.ID], "duplicate tool %q", tool.ID)
		seen[tool.ID] = true
	}
}

func TestWriteThenReadAsText(t *testing.T) {
	p := newTestProvider(t)

	data := requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/notes.txt",
		"data":     "hello",
	}))
	assert.Equal(t, 5, data["written"])

	data = requireSuccess(t, execute(t, p, "file.readAsText", map[string]interface{}{
		"filePath": "/notes.txt",
	}))
	assert.Equal(t, "hello", data["text"])
}

func TestWriteBinaryPayload(t *testing.T) {
	p := newTestProvider(t)

	payload := base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0x02})
	data := requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/blob.bin",
		"data":     payload,
		"isBinary": true,
	}))
	assert.Equal(t, 3, data["written"])

	requireCode(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/blob.bin",
		"data":     "!!not base64!!",
		"isBinary": true,
	}), vfs.CodeEncoding)
}

func TestWriteAtPosition(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/f.txt",
		"data":     "hello",
	}))
	// JSON numbers decode as float64.
	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/f.txt",
		"data":     "XY",
		"position": float64(1),
	}))

	data := requireSuccess(t, execute(t, p, "file.readAsText", map[string]interface{}{
		"filePath": "/f.txt",
	}))
	assert.Equal(t, "hXYlo", data["text"])
}

func TestExistenceChecks(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/d/f.txt", "data": "x",
	}))

	data := requireSuccess(t, execute(t, p, "file.checkFileExists", map[string]interface{}{
		"filePath": "/d/f.txt",
	}))
	assert.Equal(t, true, data["exists"])

	// Query suffixes are stripped at ingestion.
	data = requireSuccess(t, execute(t, p, "file.checkFileExists", map[string]interface{}{
		"filePath": "/d/f.txt?cache=1",
	}))
	assert.Equal(t, true, data["exists"])

	data = requireSuccess(t, execute(t, p, "file.checkDirectoryExists", map[string]interface{}{
		"dirName": "/d",
	}))
	assert.Equal(t, true, data["exists"])

	data = requireSuccess(t, execute(t, p, "file.checkFileExists", map[string]interface{}{
		"filePath": "/absent",
	}))
	assert.Equal(t, false, data["exists"])
}

func TestReadAsDataURL(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/f.txt", "data": "hi",
	}))

	data := requireSuccess(t, execute(t, p, "file.readAsDataURL", map[string]interface{}{
		"filePath": "/f.txt",
	}))
	assert.Contains(t, data["data_url"], "data:text/plain;base64,")

	requireCode(t, execute(t, p, "file.readAsDataURL", map[string]interface{}{
		"filePath": "/absent",
	}), vfs.CodeNotFound)

	requireCode(t, execute(t, p, "file.readAsDataURL", map[string]interface{}{}), vfs.CodeNotFound)
}

func TestTruncate(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/f.txt", "data": "hello",
	}))

	data := requireSuccess(t, execute(t, p, "file.truncate", map[string]interface{}{
		"filePath": "/f.txt",
		"size":     float64(2),
	}))
	assert.Equal(t, int64(2), data["length"])

	requireCode(t, execute(t, p, "file.truncate", map[string]interface{}{
		"filePath": "/absent", "size": float64(0),
	}), vfs.CodeNotFound)
}

func TestGetMetadata(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/f.txt", "data": "x",
	}))

	data := requireSuccess(t, execute(t, p, "file.getMetadata", map[string]interface{}{
		"fullPath": "/f.txt",
	}))
	assert.NotEmpty(t, data["modificationTime"])

	requireCode(t, execute(t, p, "file.getMetadata", map[string]interface{}{
		"fullPath": "/absent",
	}), vfs.CodeNotFound)
}

func TestGetFileMetadata(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/doc.txt", "data": "four",
	}))

	data := requireSuccess(t, execute(t, p, "file.getFileMetadata", map[string]interface{}{
		"fullPath": "/doc.txt",
	}))
	assert.Equal(t, "doc.txt", data["fileName"])
	assert.Equal(t, "/doc.txt", data["fullPath"])
	assert.Equal(t, "text/plain", data["type"])
	assert.Equal(t, int64(4), data["size"])
	assert.NotEmpty(t, data["lastModifiedDate"])
}

func TestGetParent(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/a/b/f.txt", "data": "x",
	}))

	data := requireSuccess(t, execute(t, p, "file.getParent", map[string]interface{}{
		"fullPath": "/a/b/f.txt",
	}))
	entry := data["entry"].(map[string]interface{})
	assert.Equal(t, "/a/b", entry["fullPath"])
	assert.Equal(t, true, entry["isDirectory"])
}

func TestReadEntries(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/d/b.txt", "data": "b",
	}))
	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/d/sub/a.txt", "data": "a",
	}))

	data := requireSuccess(t, execute(t, p, "file.readEntries", map[string]interface{}{
		"fullPath": "/d",
	}))
	assert.Equal(t, 2, data["count"])
	entries := data["entries"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "b.txt", first["name"])
	assert.Equal(t, true, first["isFile"])

	requireCode(t, execute(t, p, "file.readEntries", map[string]interface{}{
		"fullPath": "/absent",
	}), vfs.CodeNotFound)
}

func TestRemove(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/f.txt", "data": "x",
	}))

	data := requireSuccess(t, execute(t, p, "file.remove", map[string]interface{}{
		"fullPath": "/f.txt",
	}))
	assert.Equal(t, true, data["removed"])
	assert.Equal(t, "/f.txt", data["path"])

	requireCode(t, execute(t, p, "file.remove", map[string]interface{}{
		"fullPath": "/f.txt",
	}), vfs.CodeNotFound)

	requireCode(t, execute(t, p, "file.remove", map[string]interface{}{
		"fullPath": "/",
	}), vfs.CodeNoModificationAllowed)
}

func TestRemoveNonEmptyDirectory(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/d/f.txt", "data": "x",
	}))

	// A plain remove refuses a populated directory.
	requireCode(t, execute(t, p, "file.remove", map[string]interface{}{
		"fullPath": "/d",
	}), vfs.CodeInvalidModification)

	requireSuccess(t, execute(t, p, "file.removeRecursively", map[string]interface{}{
		"fullPath": "/d",
	}))

	data := requireSuccess(t, execute(t, p, "file.checkDirectoryExists", map[string]interface{}{
		"dirName": "/d",
	}))
	assert.Equal(t, false, data["exists"])
}

func TestRequestFileSystem(t *testing.T) {
	p := newTestProvider(t)

	data := requireSuccess(t, execute(t, p, "file.requestFileSystem", map[string]interface{}{
		"type": float64(1),
	}))
	assert.Equal(t, "persistent", data["name"])
	root := data["root"].(map[string]interface{})
	assert.Equal(t, "/", root["fullPath"])

	data = requireSuccess(t, execute(t, p, "file.requestFileSystem", map[string]interface{}{
		"type": float64(0),
	}))
	assert.Equal(t, "temporary", data["name"])
	root = data["root"].(map[string]interface{})
	assert.Equal(t, "/tmp/", root["fullPath"])

	data = requireSuccess(t, execute(t, p, "file.requestFileSystem", map[string]interface{}{
		"type": float64(2),
	}))
	assert.Equal(t, "resource", data["name"])
	assert.NotContains(t, data, "root")

	// Missing type defaults to -1, which is not a filesystem.
	requireCode(t, execute(t, p, "file.requestFileSystem", map[string]interface{}{}),
		vfs.CodeNoModificationAllowed)
}

func TestRequestFileSystemQuota(t *testing.T) {
	st := memory.New(100)
	t.Cleanup(func() { st.Close() })
	p := NewProvider(vfs.New(st))

	requireCode(t, execute(t, p, "file.requestFileSystem", map[string]interface{}{
		"type": float64(1),
		"size": float64(1000),
	}), vfs.CodeQuotaExceeded)
}

func TestResolveLocalFileSystemURI(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/data/f.txt", "data": "x",
	}))

	data := requireSuccess(t, execute(t, p, "file.resolveLocalFileSystemURI", map[string]interface{}{
		"uri": "file:///data/f.txt",
	}))
	entry := data["entry"].(map[string]interface{})
	assert.Equal(t, "/data/f.txt", entry["fullPath"])

	requireCode(t, execute(t, p, "file.resolveLocalFileSystemURI", map[string]interface{}{
		"uri": "relative.txt",
	}), vfs.CodeEncoding)
}

func TestCopyAndMove(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/src/a.txt", "data": "payload",
	}))
	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/dst/keep.txt", "data": "x",
	}))

	data := requireSuccess(t, execute(t, p, "file.copyTo", map[string]interface{}{
		"fullPath": "/src/a.txt",
		"parent":   "/dst",
	}))
	entry := data["entry"].(map[string]interface{})
	assert.Equal(t, "/dst/a.txt", entry["fullPath"])

	data = requireSuccess(t, execute(t, p, "file.moveTo", map[string]interface{}{
		"fullPath": "/src/a.txt",
		"parent":   "/dst",
		"newName":  "moved.txt",
	}))
	entry = data["entry"].(map[string]interface{})
	assert.Equal(t, "/dst/moved.txt", entry["fullPath"])

	// The moved source is gone.
	requireCode(t, execute(t, p, "file.moveTo", map[string]interface{}{
		"fullPath": "/src/a.txt",
		"parent":   "/dst",
	}), vfs.CodeNotFound)
}

func TestGetFileAndDirectory(t *testing.T) {
	p := newTestProvider(t)

	data := requireSuccess(t, execute(t, p, "file.getFile", map[string]interface{}{
		"fullPath": "/",
		"path":     "new.txt",
		"options":  map[string]interface{}{"create": true},
	}))
	entry := data["entry"].(map[string]interface{})
	assert.Equal(t, "/new.txt", entry["fullPath"])
	assert.Equal(t, true, entry["isFile"])

	// Exclusive create fails the second time.
	requireSuccess(t, execute(t, p, "file.getFile", map[string]interface{}{
		"fullPath": "/",
		"path":     "once.txt",
		"options":  map[string]interface{}{"create": true, "exclusive": true},
	}))
	requireCode(t, execute(t, p, "file.getFile", map[string]interface{}{
		"fullPath": "/",
		"path":     "once.txt",
		"options":  map[string]interface{}{"create": true, "exclusive": true},
	}), vfs.CodePathExists)

	requireCode(t, execute(t, p, "file.getFile", map[string]interface{}{
		"fullPath": "/",
		"path":     "absent.txt",
	}), vfs.CodeNotFound)

	data = requireSuccess(t, execute(t, p, "file.getDirectory", map[string]interface{}{
		"fullPath": "/",
		"path":     "sub",
		"options":  map[string]interface{}{"create": true},
	}))
	entry = data["entry"].(map[string]interface{})
	assert.Equal(t, true, entry["isDirectory"])

	// A directory request for an existing file is a kind mismatch.
	requireCode(t, execute(t, p, "file.getDirectory", map[string]interface{}{
		"fullPath": "/",
		"path":     "new.txt",
	}), vfs.CodeTypeMismatch)
}

func TestGetFreeDiskSpace(t *testing.T) {
	st := memory.New(2048)
	t.Cleanup(func() { st.Close() })
	p := NewProvider(vfs.New(st))

	data := requireSuccess(t, execute(t, p, "file.getFreeDiskSpace", nil))
	assert.Equal(t, int64(2048), data["free_space"])
}

func TestArchiveAndExtract(t *testing.T) {
	p := newTestProvider(t)

	requireSuccess(t, execute(t, p, "file.write", map[string]interface{}{
		"filePath": "/src/a.txt", "data": "alpha",
	}))

	data := requireSuccess(t, execute(t, p, "file.archive", map[string]interface{}{
		"fullPath": "/src",
		"target":   "/out.tgz",
	}))
	assert.Equal(t, "/out.tgz", data["target"])
	assert.Equal(t, 1, data["entries"])

	data = requireSuccess(t, execute(t, p, "file.extract", map[string]interface{}{
		"fullPath": "/out.tgz",
		"target":   "/restored",
	}))
	assert.Equal(t, 1, data["entries"])

	text := requireSuccess(t, execute(t, p, "file.readAsText", map[string]interface{}{
		"filePath": "/restored/a.txt",
	}))
	assert.Equal(t, "alpha", text["text"])

	requireCode(t, execute(t, p, "file.archive", map[string]interface{}{
		"fullPath": "/src",
		"target":   "/out.x",
		"format":   "rar",
	}), vfs.CodeEncoding)

	requireCode(t, execute(t, p, "file.archive", map[string]interface{}{
		"fullPath": "/src",
	}), vfs.CodeNotFound)
}

func TestUnknownTool(t *testing.T) {
	p := newTestProvider(t)
	requireCode(t, execute(t, p, "file.selfDestruct", nil), vfs.CodeSyntax)
}
