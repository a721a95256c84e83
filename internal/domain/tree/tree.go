package tree

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"go.uber.org/zap"
)

// Tree mirrors one folder. It is not safe for concurrent use; the session
// goroutine owns it.
type Tree struct {
	fs         filesystem.FS
	base       *Filter
	filter     *Filter
	ignoreFile string
	log        *zap.Logger

	folder string
	root   *Node

	// OnRefresh, when set, is called after every Refresh.
	OnRefresh func(*Node)
}

// New creates an empty tree. Call Scan to populate it.
func New(fsys filesystem.FS, filter *Filter, log *zap.Logger) *Tree {
	if filter == nil {
		filter = DefaultFilter()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{fs: fsys, base: filter, filter: filter, log: log}
}

// SetIgnoreFile names a per-folder file of extra ignore patterns, read on
// every Scan. Empty disables it.
func (t *Tree) SetIgnoreFile(name string) {
	t.ignoreFile = name
}

func (t *Tree) Root() *Node    { return t.root }
func (t *Tree) Folder() string { return t.folder }

// Scan replaces the tree with folder's listing. The root's immediate
// children are listed; each child directory gets a Placeholder when it
// holds at least one non-ignored entry.
func (t *Tree) Scan(folder string) (*Node, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, filesystem.Wrap("scan", folder, err)
	}
	abs = filepath.Clean(abs)

	info, err := t.fs.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir {
		return nil, &filesystem.Error{Op: "scan", Path: abs, Reason: "not a directory"}
	}

	t.filter = t.loadFilter(abs)

	root := newNode(filepath.Base(abs), Directory, nil)
	children, err := t.list(abs, root)
	if err != nil {
		return nil, err
	}
	root.children = children
	root.loaded = true
	root.expanded = true

	t.folder = abs
	t.root = root
	t.log.Debug("Scanned folder", zap.String("folder", abs), zap.Int("entries", len(children)))
	return root, nil
}

func (t *Tree) loadFilter(folder string) *Filter {
	if t.ignoreFile == "" {
		return t.base
	}
	data, err := t.fs.ReadFile(filepath.Join(folder, t.ignoreFile))
	if err != nil {
		if !filesystem.IsNotExist(err) {
			t.log.Warn("Failed to read ignore file", zap.Error(err))
		}
		return t.base
	}
	patterns := ParseIgnore(data)
	t.log.Debug("Loaded ignore file", zap.String("file", t.ignoreFile), zap.Int("patterns", len(patterns)))
	return t.base.WithPatterns(patterns...)
}

// list reads one directory level under parent, filtered and sorted.
func (t *Tree) list(dir string, parent *Node) ([]*Node, error) {
	entries, err := t.fs.ListDir(dir)
	if err != nil {
		return nil, err
	}

	prefix := parent.RelPath()
	nodes := make([]*Node, 0, len(entries))
	for _, e := range entries {
		rel := joinRel(prefix, e.Name)
		if !t.filter.Visible(rel, e) {
			continue
		}
		kind := File
		if e.IsDir {
			kind = Directory
		}
		nodes = append(nodes, newNode(e.Name, kind, parent))
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].kind != nodes[j].kind {
			return nodes[i].kind == Directory
		}
		return nodes[i].name < nodes[j].name
	})

	for _, n := range nodes {
		if n.kind == Directory {
			t.placehold(n, filepath.Join(dir, n.name))
		}
	}
	return nodes, nil
}

// placehold gives an unlisted directory its Placeholder when the probe
// finds a non-ignored entry. An unreadable directory is assumed non-empty;
// expanding it later yields an empty leaf.
func (t *Tree) placehold(n *Node, dir string) {
	prefix := n.RelPath()
	found, err := t.fs.Probe(dir, func(e filesystem.Entry) bool {
		return !t.filter.Ignored(joinRel(prefix, e.Name))
	})
	if err != nil {
		found = !filesystem.IsNotExist(err)
	}
	n.children = nil
	n.loaded = false
	if found {
		n.children = []*Node{newPlaceholder(n)}
	}
}

// Expand lists an unloaded directory and marks it expanded. Expanding a
// loaded directory only sets expanded. A directory that vanished becomes an
// empty leaf.
func (t *Tree) Expand(n *Node) {
	if n == nil || n.kind != Directory {
		return
	}
	if !n.loaded {
		children, err := t.list(t.AbsPath(n), n)
		if err != nil {
			t.log.Debug("Directory unavailable on expand", zap.String("path", n.RelPath()), zap.Error(err))
			children = nil
		}
		n.children = children
		n.loaded = true
	}
	n.expanded = true
}

// Collapse marks n collapsed. Children stay in memory.
func (t *Tree) Collapse(n *Node) {
	if n == nil || n.kind != Directory {
		return
	}
	n.expanded = false
}

// Refresh re-reads n from disk. Loaded directories are re-listed and their
// expanded descendants that still exist are expanded again; unloaded ones
// only recompute their Placeholder. n keeps its own expanded state.
func (t *Tree) Refresh(n *Node) {
	if n == nil || n.kind != Directory {
		return
	}
	defer func() {
		if t.OnRefresh != nil {
			t.OnRefresh(n)
		}
	}()

	if !n.loaded {
		t.placehold(n, t.AbsPath(n))
		return
	}

	keep := expandedUnder(n)
	children, err := t.list(t.AbsPath(n), n)
	if err != nil {
		t.log.Debug("Directory unavailable on refresh", zap.String("path", n.RelPath()), zap.Error(err))
		children = nil
	}
	n.children = children
	for _, segs := range keep {
		t.expandSegments(n, segs)
	}
}

// expandedUnder returns the segment paths, relative to n, of every
// expanded directory below n that is reachable through expanded parents.
func expandedUnder(n *Node) [][]string {
	var out [][]string
	var walk func(cur *Node, prefix []string)
	walk = func(cur *Node, prefix []string) {
		for _, c := range cur.children {
			if c.kind != Directory || !c.expanded {
				continue
			}
			segs := append(append([]string(nil), prefix...), c.name)
			out = append(out, segs)
			walk(c, segs)
		}
	}
	walk(n, nil)
	return out
}

// expandSegments expands each directory along segs below from, leaving
// from itself untouched. It stops at the first segment that does not exist
// or is not a directory.
func (t *Tree) expandSegments(from *Node, segs []string) *Node {
	cur := from
	for _, s := range segs {
		next := cur.Child(s)
		if next == nil || next.kind != Directory {
			return nil
		}
		t.Expand(next)
		cur = next
	}
	return cur
}

// CollapseAll collapses every first-level directory.
func (t *Tree) CollapseAll() {
	if t.root == nil {
		return
	}
	for _, c := range t.root.children {
		t.Collapse(c)
	}
}

// ExpandAll expands every first-level directory.
func (t *Tree) ExpandAll() {
	if t.root == nil {
		return
	}
	for _, c := range t.root.children {
		t.Expand(c)
	}
}

// targetDir resolves where a new entry goes: files and placeholders
// delegate to their directory, nil means the root.
func (t *Tree) targetDir(n *Node) *Node {
	if n == nil {
		return t.root
	}
	for n != nil && n.kind != Directory {
		n = n.parent
	}
	return n
}

// CreateFile creates an empty file in parent and returns its node. The
// node is nil when the name is filtered out of the tree.
func (t *Tree) CreateFile(parent *Node, name string) (*Node, error) {
	return t.create("create", parent, name, func(p string) error {
		return t.fs.WriteFile(p, nil)
	})
}

// CreateDirectory creates a directory in parent and returns its node.
func (t *Tree) CreateDirectory(parent *Node, name string) (*Node, error) {
	return t.create("mkdir", parent, name, t.fs.Mkdir)
}

func (t *Tree) create(op string, parent *Node, name string, mk func(string) error) (*Node, error) {
	dir := t.targetDir(parent)
	if dir == nil {
		return nil, &filesystem.Error{Op: op, Path: name, Reason: "no folder open"}
	}
	target := filepath.Join(t.AbsPath(dir), name)
	if err := filesystem.ValidName(name); err != nil {
		return nil, filesystem.Wrap(op, target, err)
	}
	if err := t.ensureAbsent(op, target); err != nil {
		return nil, err
	}
	if err := mk(target); err != nil {
		return nil, err
	}

	t.Refresh(dir)
	t.Expand(dir)
	return dir.Child(name), nil
}

func (t *Tree) ensureAbsent(op, target string) error {
	_, err := t.fs.Stat(target)
	switch {
	case err == nil:
		return &filesystem.Error{Op: op, Path: target, Reason: "already exists", Err: fs.ErrExist}
	case filesystem.IsNotExist(err):
		return nil
	default:
		return err
	}
}

// Rename renames n within its directory and returns the node that replaces
// it after the parent refresh (nil when the new name is filtered out).
func (t *Tree) Rename(n *Node, newName string) (*Node, error) {
	if n == nil || n.parent == nil || n.kind == Placeholder {
		return nil, &filesystem.Error{Op: "rename", Path: t.pathOf(n), Reason: "cannot rename this node"}
	}
	from := t.AbsPath(n)
	to := filepath.Join(filepath.Dir(from), newName)
	if err := filesystem.ValidName(newName); err != nil {
		return nil, filesystem.Wrap("rename", to, err)
	}
	if newName == n.name {
		return n, nil
	}
	if err := t.ensureAbsent("rename", to); err != nil {
		return nil, err
	}
	if err := t.fs.Rename(from, to); err != nil {
		return nil, err
	}

	wasExpanded := n.expanded
	parent := n.parent
	t.Refresh(parent)
	renamed := parent.Child(newName)
	if renamed != nil && wasExpanded {
		t.Expand(renamed)
	}
	return renamed, nil
}

// Delete removes n from disk, recursively for directories, then refreshes
// its parent. The parent is refreshed even when removal fails partway so
// the tree shows whatever survived.
func (t *Tree) Delete(n *Node) error {
	if n == nil || n.parent == nil || n.kind == Placeholder {
		return &filesystem.Error{Op: "remove", Path: t.pathOf(n), Reason: "cannot delete this node"}
	}
	parent := n.parent
	err := t.fs.Remove(t.AbsPath(n))
	if err != nil && !filesystem.IsNotExist(err) {
		t.log.Warn("Delete failed", zap.String("path", n.RelPath()), zap.Error(err))
	}
	t.Refresh(parent)
	if filesystem.IsNotExist(err) {
		return nil
	}
	return err
}

// AbsPath rebuilds n's filesystem path from the parent chain.
func (t *Tree) AbsPath(n *Node) string {
	if n == nil {
		return t.folder
	}
	return filepath.Join(append([]string{t.folder}, n.Segments()...)...)
}

func (t *Tree) pathOf(n *Node) string {
	if n == nil {
		return ""
	}
	return t.AbsPath(n)
}

// LoadedDirs returns the absolute paths of the root and every listed
// directory.
func (t *Tree) LoadedDirs() []string {
	if t.root == nil {
		return nil
	}
	var dirs []string
	t.Walk(func(n *Node) bool {
		if n.kind == Directory && n.loaded {
			dirs = append(dirs, t.AbsPath(n))
		}
		return true
	})
	return dirs
}

// Walk visits every real node depth-first, parents before children. fn
// returning false skips the node's children.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t.root == nil {
		return
	}
	var walk func(*Node)
	walk = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.children {
			if c.kind != Placeholder {
				walk(c)
			}
		}
	}
	walk(t.root)
}

// Row is one visible line of the tree.
type Row struct {
	Node  *Node
	Depth int
}

// Visible returns the rows a renderer would draw: the root's children and,
// recursively, the children of expanded directories. Placeholders are not
// rows.
func (t *Tree) Visible() []Row {
	if t.root == nil {
		return nil
	}
	var rows []Row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		for _, c := range n.children {
			if c.kind == Placeholder {
				continue
			}
			rows = append(rows, Row{Node: c, Depth: depth})
			if c.kind == Directory && c.expanded {
				walk(c, depth+1)
			}
		}
	}
	walk(t.root, 0)
	return rows
}

func joinRel(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func splitRel(rel string) []string {
	rel = filepath.ToSlash(rel)
	var segs []string
	for _, s := range strings.Split(rel, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}
	return segs
}
