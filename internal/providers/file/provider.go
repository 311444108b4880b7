// Package file exposes the virtual filesystem engine as the "file"
// service: one tool per operation, a per-request options payload, and
// a result envelope carrying either data or a stable numeric error
// code.
package file

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandfs/sandfs/internal/types"
	"github.com/sandfs/sandfs/internal/vfs"
)

// Provider implements the file service over a VFS engine.
type Provider struct {
	vfs *vfs.VFS
}

// NewProvider creates the file service provider.
func NewProvider(engine *vfs.VFS) *Provider {
	return &Provider{vfs: engine}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "file",
		Name:        "File Service",
		Description: "Sandboxed virtual filesystem operations",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"write",
			"create",
			"delete",
			"list",
			"metadata",
			"move",
			"copy",
			"archive",
			"quota",
		},
		Tools: p.tools(),
	}
}

func (p *Provider) tools() []types.Tool {
	return []types.Tool{
		{
			ID:          "file.checkFileExists",
			Name:        "Check File Exists",
			Description: "Check whether a file exists",
			Parameters: []types.Parameter{
				{Name: "filePath", Type: "string", Description: "File path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "file.checkDirectoryExists",
			Name:        "Check Directory Exists",
			Description: "Check whether a directory exists",
			Parameters: []types.Parameter{
				{Name: "dirName", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "file.readAsDataURL",
			Name:        "Read As Data URL",
			Description: "Read a file as a base64 data: URL",
			Parameters: []types.Parameter{
				{Name: "filePath", Type: "string", Description: "File path", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "file.readAsText",
			Name:        "Read As Text",
			Description: "Read a file and decode it with the given encoding",
			Parameters: []types.Parameter{
				{Name: "filePath", Type: "string", Description: "File path", Required: true},
				{Name: "encoding", Type: "string", Description: "Encoding label (default UTF-8, 'auto' detects)", Required: false},
			},
			Returns: "string",
		},
		{
			ID:          "file.truncate",
			Name:        "Truncate",
			Description: "Cut or extend a file to a given length",
			Parameters: []types.Parameter{
				{Name: "filePath", Type: "string", Description: "File path", Required: true},
				{Name: "size", Type: "number", Description: "Resulting length in bytes", Required: true},
			},
			Returns: "number",
		},
		{
			ID:          "file.write",
			Name:        "Write",
			Description: "Write data into a file at a position, creating it when absent",
			Parameters: []types.Parameter{
				{Name: "filePath", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "string", Description: "Payload (base64 when isBinary)", Required: true},
				{Name: "position", Type: "number", Description: "Write offset", Required: false},
				{Name: "isBinary", Type: "boolean", Description: "Payload is base64", Required: false},
			},
			Returns: "number",
		},
		{
			ID:          "file.getMetadata",
			Name:        "Get Metadata",
			Description: "Get the modification time of a file or directory",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Entry path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "file.getFileMetadata",
			Name:        "Get File Metadata",
			Description: "Get name, path, MIME type, modification time and size of a file",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "file.getParent",
			Name:        "Get Parent",
			Description: "Resolve the parent entry of a path",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Entry path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "file.remove",
			Name:        "Remove",
			Description: "Delete a file or empty directory",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Entry path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "file.removeRecursively",
			Name:        "Remove Recursively",
			Description: "Delete a directory subtree bottom-up",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "file.readEntries",
			Name:        "Read Entries",
			Description: "List a directory: files first, then directories",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "file.requestFileSystem",
			Name:        "Request File System",
			Description: "Get a logical filesystem root, validating quota",
			Parameters: []types.Parameter{
				{Name: "type", Type: "number", Description: "0 temporary, 1 persistent, 2 resource, 3 application", Required: true},
				{Name: "size", Type: "number", Description: "Requested bytes (0 skips the quota check)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "file.resolveLocalFileSystemURI",
			Name:        "Resolve URI",
			Description: "Resolve an absolute file URI to its entry",
			Parameters: []types.Parameter{
				{Name: "uri", Type: "string", Description: "Absolute file:// URI or rooted path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "file.copyTo",
			Name:        "Copy",
			Description: "Copy a file or directory under a destination parent",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Source path", Required: true},
				{Name: "parent", Type: "string", Description: "Destination parent directory", Required: true},
				{Name: "newName", Type: "string", Description: "Destination name", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "file.moveTo",
			Name:        "Move",
			Description: "Move a file or directory under a destination parent",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Source path", Required: true},
				{Name: "parent", Type: "string", Description: "Destination parent directory", Required: true},
				{Name: "newName", Type: "string", Description: "Destination name", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "file.getFile",
			Name:        "Get File",
			Description: "Look up or create a file with create/exclusive semantics",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Root path", Required: true},
				{Name: "path", Type: "string", Description: "File path relative to root", Required: true},
				{Name: "options", Type: "object", Description: "{create, exclusive}", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "file.getDirectory",
			Name:        "Get Directory",
			Description: "Look up or create a directory with create/exclusive semantics",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Root path", Required: true},
				{Name: "path", Type: "string", Description: "Directory path relative to root", Required: true},
				{Name: "options", Type: "object", Description: "{create, exclusive}", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "file.getFreeDiskSpace",
			Name:        "Get Free Disk Space",
			Description: "Report available bytes in the store",
			Parameters:  []types.Parameter{},
			Returns:     "number",
		},
		{
			ID:          "file.archive",
			Name:        "Archive",
			Description: "Pack a file or subtree into a compressed tar stream",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Source path", Required: true},
				{Name: "target", Type: "string", Description: "Archive output path", Required: true},
				{Name: "format", Type: "string", Description: "gzip or zstd (default gzip)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "file.extract",
			Name:        "Extract",
			Description: "Extract a compressed tar stream into a directory",
			Parameters: []types.Parameter{
				{Name: "fullPath", Type: "string", Description: "Archive path", Required: true},
				{Name: "target", Type: "string", Description: "Destination directory", Required: true},
				{Name: "format", Type: "string", Description: "gzip or zstd (default gzip)", Required: false},
			},
			Returns: "object",
		},
	}
}

// Execute runs a file operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	op := strings.TrimPrefix(toolID, "file.")
	opts := parseOptions(params)

	switch op {
	case "checkFileExists":
		return p.checkFileExists(ctx, opts)
	case "checkDirectoryExists":
		return p.checkDirectoryExists(ctx, opts)
	case "readAsDataURL":
		return p.readAsDataURL(ctx, opts)
	case "readAsText":
		return p.readAsText(ctx, opts)
	case "truncate":
		return p.truncate(ctx, opts)
	case "write":
		return p.write(ctx, opts)
	case "getMetadata":
		return p.getMetadata(ctx, opts)
	case "getFileMetadata":
		return p.getFileMetadata(ctx, opts)
	case "getParent":
		return p.getParent(ctx, opts)
	case "remove":
		return p.remove(ctx, opts)
	case "removeRecursively":
		return p.removeRecursively(ctx, opts)
	case "readEntries":
		return p.readEntries(ctx, opts)
	case "requestFileSystem":
		return p.requestFileSystem(ctx, opts)
	case "resolveLocalFileSystemURI":
		return p.resolveURI(ctx, opts)
	case "copyTo":
		return p.transfer(ctx, opts, false)
	case "moveTo":
		return p.transfer(ctx, opts, true)
	case "getFile":
		return p.getFile(ctx, opts)
	case "getDirectory":
		return p.getDirectory(ctx, opts)
	case "getFreeDiskSpace":
		return p.getFreeDiskSpace(ctx)
	case "archive":
		return p.archive(ctx, opts)
	case "extract":
		return p.extract(ctx, opts)
	default:
		return Fail(vfs.CodeSyntax, fmt.Sprintf("unknown tool: %s", toolID))
	}
}
