package filesystem

import (
	"io/fs"
	"time"
)

// Entry is one directory listing entry. IsDir follows symlinks.
type Entry struct {
	Name  string
	IsDir bool
}

// Info represents file metadata
type Info struct {
	Name     string
	Path     string
	Size     int64
	IsDir    bool
	Mode     fs.FileMode
	Modified time.Time
}

// FS is the filesystem surface the engine consumes. Every method returns
// *Error on failure.
type FS interface {
	// ListDir returns all entries of a directory in no particular order.
	ListDir(path string) ([]Entry, error)
	// Probe reports whether the directory holds at least one entry for which
	// accept returns true. It stops reading at the first match.
	Probe(path string, accept func(Entry) bool) (bool, error)
	Stat(path string) (Info, error)
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the file atomically, creating it if needed.
	WriteFile(path string, data []byte) error
	Mkdir(path string) error
	Rename(from, to string) error
	// Remove deletes a file, or a directory and everything under it.
	Remove(path string) error
}
