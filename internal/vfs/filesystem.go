package vfs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// FSType selects one of the four logical filesystem roots.
type FSType int

const (
	Temporary   FSType = 0
	Persistent  FSType = 1
	Resource    FSType = 2
	Application FSType = 3
)

var fsNames = map[FSType]string{
	Temporary:   "temporary",
	Persistent:  "persistent",
	Resource:    "resource",
	Application: "application",
}

func (t FSType) String() string {
	if name, ok := fsNames[t]; ok {
		return name
	}
	return fmt.Sprintf("fstype(%d)", int(t))
}

// FileSystemInfo describes one logical filesystem root. Resource and
// application filesystems never carry a root entry.
type FileSystemInfo struct {
	Name string `json:"name"`
	Root *Entry `json:"root,omitempty"`
}

// RequestFileSystem validates the quota when size is non-zero and
// returns the descriptor of the requested logical root. The temporary
// root is created lazily and idempotently. Root descriptors carry a
// trailing separator.
func (v *VFS) RequestFileSystem(ctx context.Context, fsType FSType, size int64) (FileSystemInfo, error) {
	if size != 0 {
		if err := v.CheckQuota(ctx, size); err != nil {
			return FileSystemInfo{}, err
		}
	}
	switch fsType {
	case Persistent:
		root, err := v.Resolve(ctx, "/")
		if err != nil {
			return FileSystemInfo{}, err
		}
		return FileSystemInfo{Name: fsType.String(), Root: &root}, nil
	case Temporary:
		if err := v.store.CreateDir(ctx, v.tempDir); err != nil {
			return FileSystemInfo{}, err
		}
		root, err := v.Resolve(ctx, v.tempDir)
		if err != nil {
			return FileSystemInfo{}, err
		}
		root.FullPath = EnsureTrailingSeparator(root.FullPath)
		return FileSystemInfo{Name: fsType.String(), Root: &root}, nil
	case Resource, Application:
		return FileSystemInfo{Name: fsType.String()}, nil
	default:
		return FileSystemInfo{}, NewError(CodeNoModificationAllowed, "requestFileSystem", "",
			fmt.Errorf("unrecognized filesystem type %d", int(fsType)))
	}
}

// ResolveURI resolves an absolute file URI or rooted plain path to its
// entry. Relative or malformed input fails with Encoding.
func (v *VFS) ResolveURI(ctx context.Context, uri string) (Entry, error) {
	raw := StripQueryOrFragment(uri)
	if raw == "" {
		return Entry{}, NewError(CodeEncoding, "resolveLocalFileSystemURI", uri, fmt.Errorf("empty uri"))
	}

	var path string
	switch {
	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Entry{}, NewError(CodeEncoding, "resolveLocalFileSystemURI", uri, err)
		}
		path = u.Path
		if path == "" {
			path = "/"
		}
	case strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, `\`):
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return Entry{}, NewError(CodeEncoding, "resolveLocalFileSystemURI", uri, err)
		}
		path = decoded
	default:
		return Entry{}, NewError(CodeEncoding, "resolveLocalFileSystemURI", uri,
			fmt.Errorf("uri is not absolute"))
	}
	return v.Resolve(ctx, path)
}
