package file

import (
	"github.com/sandfs/sandfs/internal/types"
	"github.com/sandfs/sandfs/internal/vfs"
)

// Success shapes a successful result envelope.
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure classifies err with the given call-site fallback and shapes
// the failed envelope. This is the single classification boundary:
// every engine failure passes through here exactly once.
func Failure(err error, fallback vfs.Code) (*types.Result, error) {
	code := vfs.Classify(err, fallback)
	return &types.Result{
		Success: false,
		Error:   &types.ErrorInfo{Code: int(code), Message: err.Error()},
	}, nil
}

// Fail shapes a failed envelope from an explicit code and message,
// for precondition failures detected before touching the engine.
func Fail(code vfs.Code, message string) (*types.Result, error) {
	return &types.Result{
		Success: false,
		Error:   &types.ErrorInfo{Code: int(code), Message: message},
	}, nil
}

func entryData(e vfs.Entry) map[string]interface{} {
	return map[string]interface{}{
		"isFile":      e.IsFile,
		"isDirectory": e.IsDirectory,
		"name":        e.Name,
		"fullPath":    e.FullPath,
	}
}
