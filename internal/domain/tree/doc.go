// Package tree mirrors a folder as a lazily listed node tree.
//
// Only the root's immediate children are listed on Scan. A directory that
// has not been listed carries a single Placeholder child when a cheap probe
// finds at least one non-ignored entry inside it, so renderers can draw an
// expander without reading the whole subtree. Expand lists one level and
// drops the Placeholder; Refresh re-lists after filesystem mutations.
//
// Nodes never store absolute paths. AbsPath rebuilds one from the parent
// chain and the folder passed to Scan.
//
// Example Usage:
//
//	t := tree.New(fsys, tree.DefaultFilter(), log.Named("tree"))
//	t.SetIgnoreFile(".flickignore")
//	root, err := t.Scan("/home/me/proj")
//	t.Expand(t.Lookup("docs"))
//	node, err := t.CreateFile(t.Lookup("docs"), "intro.md")
package tree
