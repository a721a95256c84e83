// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"github.com/stretchr/testify/require"
)

// Project creates a folder named name inside a fresh temp dir and fills it.
// Keys are "/"-separated relative paths; a trailing "/" creates an empty
// directory, anything else a file with the given content.
func Project(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(root, 0o755))

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// ReadFile returns a file's content or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FaultFS wraps a filesystem and fails selected operations. Keys of Fail
// are operation names: "list", "probe", "stat", "read", "write", "mkdir",
// "rename", "remove".
type FaultFS struct {
	filesystem.FS

	mu    sync.Mutex
	fail  map[string]error
	calls map[string]int
}

// NewFaultFS wraps fsys with no faults armed.
func NewFaultFS(fsys filesystem.FS) *FaultFS {
	return &FaultFS{FS: fsys, fail: map[string]error{}, calls: map[string]int{}}
}

// Fail arms err for op. A nil err disarms it.
func (f *FaultFS) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Calls returns how many times op was invoked.
func (f *FaultFS) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FaultFS) check(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err, ok := f.fail[op]; ok {
		return filesystem.Wrap(op, path, err)
	}
	return nil
}

func (f *FaultFS) ListDir(path string) ([]filesystem.Entry, error) {
	if err := f.check("list", path); err != nil {
		return nil, err
	}
	return f.FS.ListDir(path)
}

func (f *FaultFS) Probe(path string, accept func(filesystem.Entry) bool) (bool, error) {
	if err := f.check("probe", path); err != nil {
		return false, err
	}
	return f.FS.Probe(path, accept)
}

func (f *FaultFS) Stat(path string) (filesystem.Info, error) {
	if err := f.check("stat", path); err != nil {
		return filesystem.Info{}, err
	}
	return f.FS.Stat(path)
}

func (f *FaultFS) ReadFile(path string) ([]byte, error) {
	if err := f.check("read", path); err != nil {
		return nil, err
	}
	return f.FS.ReadFile(path)
}

func (f *FaultFS) WriteFile(path string, data []byte) error {
	if err := f.check("write", path); err != nil {
		return err
	}
	return f.FS.WriteFile(path, data)
}

func (f *FaultFS) Mkdir(path string) error {
	if err := f.check("mkdir", path); err != nil {
		return err
	}
	return f.FS.Mkdir(path)
}

func (f *FaultFS) Rename(from, to string) error {
	if err := f.check("rename", from); err != nil {
		return err
	}
	return f.FS.Rename(from, to)
}

func (f *FaultFS) Remove(path string) error {
	if err := f.check("remove", path); err != nil {
		return err
	}
	return f.FS.Remove(path)
}
