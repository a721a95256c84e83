package tree

import (
	"path/filepath"
	"strings"
)

// StripRoot removes a leading "<rootName>/" segment (or a bare rootName)
// from a "/"-separated display path. Input without that prefix is returned
// unchanged.
func StripRoot(rootName, p string) string {
	if rootName == "" {
		return p
	}
	if p == rootName {
		return ""
	}
	if strings.HasPrefix(p, rootName+"/") {
		return p[len(rootName)+1:]
	}
	return p
}

// Lookup resolves a root-relative path against listed nodes without
// touching the filesystem. A path that does not resolve as given is retried
// with the root's own name stripped, so display paths work too.
func (t *Tree) Lookup(rel string) *Node {
	if t.root == nil {
		return nil
	}
	if n := t.walkLoaded(splitRel(rel)); n != nil {
		return n
	}
	stripped := StripRoot(t.root.name, filepath.ToSlash(rel))
	if stripped == filepath.ToSlash(rel) {
		return nil
	}
	return t.walkLoaded(splitRel(stripped))
}

// segments splits rel, dropping a leading root-name segment only when the
// root has no child of that name.
func (t *Tree) segments(rel string) []string {
	segs := splitRel(rel)
	if len(segs) > 0 && t.root.Child(segs[0]) != nil {
		return segs
	}
	return splitRel(StripRoot(t.root.name, filepath.ToSlash(rel)))
}

func (t *Tree) walkLoaded(segs []string) *Node {
	cur := t.root
	for _, s := range segs {
		cur = cur.Child(s)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// NodeAt resolves an absolute path inside the open folder.
func (t *Tree) NodeAt(abs string) *Node {
	if t.root == nil {
		return nil
	}
	rel, err := filepath.Rel(t.folder, filepath.Clean(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	if rel == "." {
		return t.root
	}
	return t.walkLoaded(splitRel(rel))
}

// Reveal expands every directory along rel, loading lazily, and returns the
// node at rel. It returns nil when some segment does not exist.
func (t *Tree) Reveal(rel string) *Node {
	if t.root == nil {
		return nil
	}
	segs := t.segments(rel)
	cur := t.root
	for i, s := range segs {
		t.Expand(cur)
		next := cur.Child(s)
		if next == nil {
			return nil
		}
		if i < len(segs)-1 && next.kind != Directory {
			return nil
		}
		cur = next
	}
	return cur
}

// ExpandedPaths returns the root-relative paths of expanded directories
// that have children, depth-first, parents before children. Collapsed
// subtrees are not descended into.
func (t *Tree) ExpandedPaths() []string {
	if t.root == nil {
		return nil
	}
	var out []string
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if c.kind != Directory || !c.expanded || len(c.children) == 0 {
				continue
			}
			out = append(out, c.RelPath())
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// RestoreExpanded expands each path component by component and returns
// how many paths were restored. Paths that no longer exist are skipped.
func (t *Tree) RestoreExpanded(paths []string) int {
	if t.root == nil {
		return 0
	}
	restored := 0
	for _, p := range paths {
		segs := t.segments(p)
		if len(segs) == 0 {
			continue
		}
		if t.expandSegments(t.root, segs) != nil {
			restored++
		}
	}
	return restored
}
