package vfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandfs/sandfs/internal/store"
)

// Code is a stable numeric error code returned to callers. Values are
// part of the wire contract and never change.
type Code int

const (
	CodeNotFound              Code = 1
	CodeSecurity              Code = 2
	CodeAbort                 Code = 3
	CodeNotReadable           Code = 4
	CodeEncoding              Code = 5
	CodeNoModificationAllowed Code = 6
	CodeInvalidState          Code = 7
	CodeSyntax                Code = 8
	CodeInvalidModification   Code = 9
	CodeQuotaExceeded         Code = 10
	CodeTypeMismatch          Code = 11
	CodePathExists            Code = 12
)

var codeNames = map[Code]string{
	CodeNotFound:              "not_found",
	CodeSecurity:              "security",
	CodeAbort:                 "abort",
	CodeNotReadable:           "not_readable",
	CodeEncoding:              "encoding",
	CodeNoModificationAllowed: "no_modification_allowed",
	CodeInvalidState:          "invalid_state",
	CodeSyntax:                "syntax",
	CodeInvalidModification:   "invalid_modification",
	CodeQuotaExceeded:         "quota_exceeded",
	CodeTypeMismatch:          "type_mismatch",
	CodePathExists:            "path_exists",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is a coded failure raised at a precondition site. Store-raised
// failures stay uncoded until Classify maps them at the boundary.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a coded error around a cause.
func NewError(code Code, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// Errorf builds a coded error from a message.
func Errorf(code Code, op, path, format string, args ...interface{}) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// Classify maps a failure to its stable code. Pure: the first coded
// wrapper wins, then store sentinels, then the call-site fallback.
// Read call sites pass CodeNotReadable, write call sites
// CodeNoModificationAllowed.
func Classify(err error, fallback Code) Code {
	if err == nil {
		return 0
	}
	if code, ok := CodeOf(err); ok {
		return code
	}
	switch {
	case errors.Is(err, store.ErrNotExist):
		return CodeNotFound
	case errors.Is(err, store.ErrPermission):
		return CodeSecurity
	case errors.Is(err, store.ErrInvalidPath):
		return CodeEncoding
	case errors.Is(err, store.ErrExist),
		errors.Is(err, store.ErrNotEmpty),
		errors.Is(err, store.ErrNotDir),
		errors.Is(err, store.ErrIsDir):
		return CodeInvalidModification
	case errors.Is(err, store.ErrNoSpace):
		return CodeQuotaExceeded
	case errors.Is(err, store.ErrClosed):
		return CodeInvalidState
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return CodeAbort
	default:
		return fallback
	}
}
