package file

import "github.com/sandfs/sandfs/internal/vfs"

// Options is the per-request payload. One immutable value is built
// fresh from every parsed params map, so no state leaks between
// requests. Unknown fields are ignored.
type Options struct {
	FilePath  string
	FullPath  string
	DirName   string
	Path      string
	Encoding  string
	URI       string
	Size      int64
	Data      string
	IsBinary  bool
	Position  int64
	Type      int
	NewName   string
	Parent    string
	Create    bool
	Exclusive bool
	Format    string
	Target    string
}

// parseOptions extracts an Options value from a params map. Query and
// fragment suffixes are stripped from every path-like field at
// ingestion; the URI keeps its suffix until ResolveURI strips it.
func parseOptions(params map[string]interface{}) Options {
	opts := Options{
		FilePath: vfs.StripQueryOrFragment(getString(params, "filePath")),
		FullPath: vfs.StripQueryOrFragment(getString(params, "fullPath")),
		DirName:  vfs.StripQueryOrFragment(getString(params, "dirName")),
		Path:     vfs.StripQueryOrFragment(getString(params, "path")),
		Encoding: getString(params, "encoding"),
		URI:      getString(params, "uri"),
		Size:     getInt64(params, "size"),
		Data:     getString(params, "data"),
		IsBinary: getBool(params, "isBinary", false),
		Position: getInt64(params, "position"),
		Type:     getInt(params, "type", -1),
		NewName:  getString(params, "newName"),
		Parent:   vfs.StripQueryOrFragment(getString(params, "parent")),
		Format:   getString(params, "format"),
		Target:   vfs.StripQueryOrFragment(getString(params, "target")),
	}
	if nested, ok := params["options"].(map[string]interface{}); ok {
		opts.Create = getBool(nested, "create", false)
		opts.Exclusive = getBool(nested, "exclusive", false)
	}
	return opts
}

func getString(params map[string]interface{}, key string) string {
	val, _ := params[key].(string)
	return val
}

func getBool(params map[string]interface{}, key string, defaultVal bool) bool {
	val, ok := params[key].(bool)
	if !ok {
		return defaultVal
	}
	return val
}

// getInt64 accepts the numeric shapes JSON decoding produces.
func getInt64(params map[string]interface{}, key string) int64 {
	switch v := params[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func getInt(params map[string]interface{}, key string, defaultVal int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultVal
	}
}
