package tree

import "strings"

// Kind tags what a Node stands for.
type Kind int

const (
	File Kind = iota
	Directory
	// Placeholder is the single synthetic child of a directory whose
	// contents have not been listed yet.
	Placeholder
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Placeholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Node is one entry of the tree. Its filesystem path is derived from the
// parent chain; nodes never store absolute paths.
//
// A directory holds zero children, exactly one Placeholder, or only real
// children.
type Node struct {
	name     string
	kind     Kind
	parent   *Node
	children []*Node
	expanded bool
	loaded   bool
}

func newNode(name string, kind Kind, parent *Node) *Node {
	return &Node{name: name, kind: kind, parent: parent}
}

func newPlaceholder(parent *Node) *Node {
	return &Node{kind: Placeholder, parent: parent, loaded: true}
}

func (n *Node) Name() string    { return n.name }
func (n *Node) Kind() Kind      { return n.kind }
func (n *Node) Parent() *Node   { return n.parent }
func (n *Node) Expanded() bool  { return n.expanded }
func (n *Node) Loaded() bool    { return n.loaded }
func (n *Node) IsDir() bool     { return n.kind == Directory }
func (n *Node) IsRoot() bool    { return n.parent == nil }
func (n *Node) ChildCount() int { return len(n.children) }

// IsPlaceholder reports whether n is the synthetic "not listed yet" child.
func (n *Node) IsPlaceholder() bool { return n.kind == Placeholder }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// HasPlaceholder reports whether n is an unlisted directory with content.
func (n *Node) HasPlaceholder() bool {
	return len(n.children) == 1 && n.children[0].kind == Placeholder
}

// Child returns the real child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.kind != Placeholder && c.name == name {
			return c
		}
	}
	return nil
}

// Segments returns the names from just below the root down to n. The root
// itself yields no segments.
func (n *Node) Segments() []string {
	var segs []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		if cur.kind == Placeholder {
			continue
		}
		segs = append(segs, cur.name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

// RelPath returns the "/"-joined path relative to the root.
func (n *Node) RelPath() string {
	return strings.Join(n.Segments(), "/")
}

// Depth is 0 for the root.
func (n *Node) Depth() int {
	d := 0
	for cur := n.parent; cur != nil; cur = cur.parent {
		d++
	}
	return d
}
