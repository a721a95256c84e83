package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrBinary marks content that sniffs as non-text.
var ErrBinary = errors.New("binary file")

// ErrInvalidName marks a node name that cannot be used as a single path
// component.
var ErrInvalidName = errors.New("invalid name")

// Error is a failed filesystem operation. The in-memory model is left at
// its last-known-good state whenever one is returned.
type Error struct {
	Op     string
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap converts err into *Error with a user-facing reason. nil stays nil and
// an existing *Error is returned unchanged.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Op: op, Path: path, Reason: Reason(err), Err: err}
}

// Reason classifies err into a short message suitable for the user.
func Reason(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "no such file or directory"
	case errors.Is(err, fs.ErrExist):
		return "already exists"
	case errors.Is(err, fs.ErrPermission):
		return "permission denied"
	case errors.Is(err, syscall.ENOSPC):
		return "disk full"
	case errors.Is(err, syscall.ENOTEMPTY):
		return "directory not empty"
	case errors.Is(err, ErrBinary):
		return "binary file"
	case errors.Is(err, ErrInvalidName):
		return "invalid name"
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

// IsNotExist reports whether err means the entry vanished.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
