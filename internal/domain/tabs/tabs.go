// Package tabs is the registry of open documents. It is the only code that
// mutates Tab records; the session decides when.
package tabs

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

// ErrNotFound is returned when no tab has the given path.
var ErrNotFound = errors.New("tab not found")

// Tab is an open document. The active tab's content is stale while it is
// active; the live buffer holds the authoritative text.
type Tab struct {
	path     string
	name     string
	content  string
	modified bool
	active   bool
	encoding string
	mime     string
}

func (t *Tab) Path() string     { return t.path }
func (t *Tab) Name() string     { return t.name }
func (t *Tab) Content() string  { return t.content }
func (t *Tab) Modified() bool   { return t.modified }
func (t *Tab) Active() bool     { return t.active }
func (t *Tab) Encoding() string { return t.encoding }
func (t *Tab) MIME() string     { return t.mime }

// Snapshot is a copy of a tab for callers outside the session goroutine.
type Snapshot struct {
	Path     string
	Name     string
	Modified bool
	Active   bool
}

// Document is what a tab is created from.
type Document struct {
	Path     string
	Content  string
	Modified bool
	Encoding string
	MIME     string
}

// Registry keeps tabs in display order.
type Registry struct {
	tabs   []*Tab
	active int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: -1}
}

func (r *Registry) Len() int { return len(r.tabs) }

// Index returns the position of path, or -1.
func (r *Registry) Index(path string) int {
	for i, t := range r.tabs {
		if t.path == path {
			return i
		}
	}
	return -1
}

// Find returns the tab for path, or nil.
func (r *Registry) Find(path string) *Tab {
	if i := r.Index(path); i >= 0 {
		return r.tabs[i]
	}
	return nil
}

// At returns the tab at index i, or nil.
func (r *Registry) At(i int) *Tab {
	if i < 0 || i >= len(r.tabs) {
		return nil
	}
	return r.tabs[i]
}

// Active returns the active tab, or nil when none is.
func (r *Registry) Active() *Tab {
	return r.At(r.active)
}

func (r *Registry) ActiveIndex() int { return r.active }

// Tabs returns the tabs in order.
func (r *Registry) Tabs() []*Tab {
	out := make([]*Tab, len(r.tabs))
	copy(out, r.tabs)
	return out
}

// Snapshots copies every tab.
func (r *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, len(r.tabs))
	for i, t := range r.tabs {
		out[i] = Snapshot{Path: t.path, Name: t.name, Modified: t.modified, Active: t.active}
	}
	return out
}

// Add appends a tab for doc, or returns the existing tab for doc.Path.
// The new tab is inactive.
func (r *Registry) Add(doc Document) (*Tab, bool) {
	if t := r.Find(doc.Path); t != nil {
		return t, false
	}
	t := &Tab{
		path:     doc.Path,
		name:     filepath.Base(doc.Path),
		content:  doc.Content,
		modified: doc.Modified,
		encoding: doc.Encoding,
		mime:     doc.MIME,
	}
	r.tabs = append(r.tabs, t)
	return t, true
}

// Activate marks path active and the previous one inactive. It does not
// touch content; flushing is the caller's job.
func (r *Registry) Activate(path string) (*Tab, error) {
	i := r.Index(path)
	if i < 0 {
		return nil, ErrNotFound
	}
	if prev := r.Active(); prev != nil {
		prev.active = false
	}
	r.active = i
	r.tabs[i].active = true
	return r.tabs[i], nil
}

// Deactivate leaves the registry with no active tab.
func (r *Registry) Deactivate() {
	if prev := r.Active(); prev != nil {
		prev.active = false
	}
	r.active = -1
}

// Flush stores live content and modified flag into the tab at path.
func (r *Registry) Flush(path, content string, modified bool) error {
	t := r.Find(path)
	if t == nil {
		return ErrNotFound
	}
	t.content = content
	t.modified = modified
	return nil
}

// SetContent replaces a tab's backing content, e.g. after a reload.
func (r *Registry) SetContent(path, content, encoding, mime string) error {
	t := r.Find(path)
	if t == nil {
		return ErrNotFound
	}
	t.content = content
	t.encoding = encoding
	t.mime = mime
	return nil
}

// UpdateModified sets only the modified flag and reports whether it
// changed.
func (r *Registry) UpdateModified(path string, modified bool) (bool, error) {
	t := r.Find(path)
	if t == nil {
		return false, ErrNotFound
	}
	if t.modified == modified {
		return false, nil
	}
	t.modified = modified
	return true, nil
}

// Remove deletes the tab at path. When the removed tab was active, next is
// the tab now at the same index (or the last tab) and the registry is left
// with no active tab so the caller can load it. next is nil when the
// registry becomes empty or the removed tab was not active.
func (r *Registry) Remove(path string) (next *Tab, err error) {
	i := r.Index(path)
	if i < 0 {
		return nil, ErrNotFound
	}
	wasActive := i == r.active
	r.tabs = slices.Delete(r.tabs, i, i+1)

	switch {
	case wasActive:
		r.active = -1
		if len(r.tabs) > 0 {
			next = r.tabs[min(i, len(r.tabs)-1)]
		}
	case r.active > i:
		r.active--
	}
	return next, nil
}

// Move places path at index, clamped to the valid range. Only order
// changes.
func (r *Registry) Move(path string, index int) error {
	i := r.Index(path)
	if i < 0 {
		return ErrNotFound
	}
	index = max(0, min(index, len(r.tabs)-1))
	if i == index {
		return nil
	}
	var activePath string
	if a := r.Active(); a != nil {
		activePath = a.path
	}
	t := r.tabs[i]
	r.tabs = slices.Insert(slices.Delete(r.tabs, i, i+1), index, t)
	if activePath != "" {
		r.active = r.Index(activePath)
	}
	return nil
}

// Rename re-keys a tab. Renaming onto another open tab's path fails.
func (r *Registry) Rename(oldPath, newPath string) error {
	t := r.Find(oldPath)
	if t == nil {
		return ErrNotFound
	}
	if oldPath == newPath {
		return nil
	}
	if r.Find(newPath) != nil {
		return fmt.Errorf("tab already open: %s", newPath)
	}
	t.path = newPath
	t.name = filepath.Base(newPath)
	return nil
}

// Under returns the paths of tabs at or below dir, in order.
func (r *Registry) Under(dir string) []string {
	var out []string
	prefix := dir + string(filepath.Separator)
	for _, t := range r.tabs {
		if t.path == dir || len(t.path) > len(prefix) && t.path[:len(prefix)] == prefix {
			out = append(out, t.path)
		}
	}
	return out
}

// AnyModified reports whether some tab is modified.
func (r *Registry) AnyModified() bool {
	for _, t := range r.tabs {
		if t.modified {
			return true
		}
	}
	return false
}
