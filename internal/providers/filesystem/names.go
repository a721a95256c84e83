package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// ValidName checks that name is usable as a single path component.
func ValidName(name string) error {
	switch {
	case strings.TrimSpace(name) == "",
		name == ".", name == "..",
		strings.ContainsRune(name, '/'),
		strings.ContainsRune(name, os.PathSeparator),
		strings.ContainsRune(name, 0):
		return ErrInvalidName
	}
	return nil
}

// Within reports whether path is root or lies under it.
func Within(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// Rebase moves path from under oldRoot to under newRoot. ok is false when
// path is not within oldRoot.
func Rebase(path, oldRoot, newRoot string) (string, bool) {
	if !Within(oldRoot, path) {
		return path, false
	}
	rel, err := filepath.Rel(filepath.Clean(oldRoot), filepath.Clean(path))
	if err != nil {
		return path, false
	}
	return filepath.Join(newRoot, rel), true
}
