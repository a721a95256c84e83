package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// probeBatch bounds how many entries Probe reads per syscall.
const probeBatch = 16

// OS implements FS on the host filesystem.
type OS struct {
	log *zap.Logger
}

// NewOS creates the host filesystem provider
func NewOS(log *zap.Logger) *OS {
	if log == nil {
		log = zap.NewNop()
	}
	return &OS{log: log}
}

// ListDir lists a directory. Symlinked entries report the target's kind.
func (o *OS) ListDir(path string) ([]Entry, error) {
	des, err := os.ReadDir(path)
	if err != nil {
		return nil, Wrap("list", path, err)
	}

	entries := make([]Entry, 0, len(des))
	for _, d := range des {
		entries = append(entries, Entry{Name: d.Name(), IsDir: o.isDir(path, d)})
	}
	return entries, nil
}

// Probe reads the directory in small batches until accept matches.
func (o *OS) Probe(path string, accept func(Entry) bool) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, Wrap("probe", path, err)
	}
	defer f.Close()

	for {
		batch, err := f.ReadDir(probeBatch)
		for _, d := range batch {
			if accept(Entry{Name: d.Name(), IsDir: o.isDir(path, d)}) {
				return true, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, Wrap("probe", path, err)
		}
	}
}

func (o *OS) isDir(dir string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.IsDir()
	}
	info, err := os.Stat(filepath.Join(dir, d.Name()))
	if err != nil {
		// Dangling link: list it as a file so it can still be removed.
		return false
	}
	return info.IsDir()
}

// Stat returns metadata, following symlinks.
func (o *OS) Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, Wrap("stat", path, err)
	}
	return Info{
		Name:     fi.Name(),
		Path:     path,
		Size:     fi.Size(),
		IsDir:    fi.IsDir(),
		Mode:     fi.Mode(),
		Modified: fi.ModTime(),
	}, nil
}

// ReadFile reads a whole file.
func (o *OS) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Wrap("read", path, err)
	}
	return data, nil
}

// WriteFile writes through a temp file in the same directory and renames it
// into place, keeping the mode of an existing file.
func (o *OS) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		if fi.IsDir() {
			return &Error{Op: "write", Path: path, Reason: "is a directory"}
		}
		mode = fi.Mode().Perm()
	}

	f, err := os.CreateTemp(dir, ".flick-*")
	if err != nil {
		return Wrap("write", path, err)
	}
	tmp := f.Name()

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return Wrap("write", path, err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return Wrap("write", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return Wrap("write", path, err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return Wrap("write", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Wrap("write", path, err)
	}
	return nil
}

// Mkdir creates a single directory.
func (o *OS) Mkdir(path string) error {
	return Wrap("mkdir", path, os.Mkdir(path, 0o755))
}

// Rename moves from to to.
func (o *OS) Rename(from, to string) error {
	return Wrap("rename", from, os.Rename(from, to))
}

// Remove deletes path. Directories are enumerated first; if any part of the
// subtree cannot be read nothing is deleted. Removal then runs deepest
// first and keeps going past individual failures, so whatever could not be
// removed survives intact.
func (o *OS) Remove(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return Wrap("remove", path, err)
	}
	if !fi.IsDir() {
		return Wrap("remove", path, os.Remove(path))
	}

	var (
		mu      sync.Mutex
		paths   []string
		walkErr error
	)
	root := filepath.Clean(path)
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			walkErr = multierr.Append(walkErr, err)
			return nil
		}
		if filepath.Clean(p) != root {
			paths = append(paths, p)
		}
		return nil
	})
	walkErr = multierr.Append(walkErr, err)
	if walkErr != nil {
		return Wrap("remove", path, walkErr)
	}

	sort.Slice(paths, func(i, j int) bool {
		di, dj := depth(paths[i]), depth(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] > paths[j]
	})
	paths = append(paths, root)

	var errs error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		o.log.Warn("Partial delete",
			zap.String("path", path),
			zap.Int("failures", len(multierr.Errors(errs))))
		return Wrap("remove", path, errs)
	}
	return nil
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(filepath.Separator))
}
