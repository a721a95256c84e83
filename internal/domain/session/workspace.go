package session

import (
	"path/filepath"

	"github.com/jjiill888/Flick/internal/domain/tree"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// OpenFolder replaces the tree with folder. Any modified tab yields
// ErrUnsavedChanges.
func (s *Session) OpenFolder(folder string) error {
	if s.AnyModified() {
		return ErrUnsavedChanges
	}
	return s.openFolder(folder)
}

// ResolveOpenFolder completes an OpenFolder that returned
// ErrUnsavedChanges. Save writes every modified tab; Discard reloads them
// from disk, closing those whose file is gone.
func (s *Session) ResolveOpenFolder(folder string, choice Choice) error {
	switch choice {
	case Cancel:
		return nil
	case Save:
		if err := s.SaveAll(); err != nil {
			return err
		}
	case Discard:
		s.discardAll()
	}
	return s.openFolder(folder)
}

func (s *Session) discardAll() {
	if s.untitledModified() {
		s.DiscardUntitled()
	}
	for _, t := range s.tabs.Tabs() {
		if !s.modified(t) {
			continue
		}
		if err := s.Revert(t.Path()); err != nil {
			s.log.Info("Closing tab that cannot be reverted", zap.String("path", t.Path()), zap.Error(err))
			if _, uerr := s.tabs.UpdateModified(t.Path(), false); uerr == nil {
				if t.Active() {
					s.live.SetModified(false)
				}
				_ = s.closeTab(t.Path())
			}
		}
	}
}

func (s *Session) openFolder(folder string) error {
	if s.tree.Root() != nil {
		s.saveExpansion()
	}
	root, err := s.tree.Scan(folder)
	if err != nil {
		return s.fail(err)
	}
	folder = s.tree.Folder()

	paths, err := s.store.Expansion(folder)
	if err != nil {
		s.log.Warn("Tree expansion not restored", zap.Error(err))
	}
	restored := s.tree.RestoreExpanded(paths)
	s.expansionDirty = false

	if err := s.store.SaveLastFolder(folder); err != nil {
		s.log.Debug("Last folder not persisted", zap.Error(err))
	}
	s.syncWatcher()
	s.log.Info("Folder opened",
		zap.String("folder", folder),
		zap.Int("restored_expansions", restored))
	s.sink.TreeChanged(root)
	return nil
}

// Expand lists and expands a directory node.
func (s *Session) Expand(n *tree.Node) {
	if n == nil || !n.IsDir() {
		return
	}
	s.tree.Expand(n)
	s.treeChanged(n, true)
}

// Collapse collapses a directory node.
func (s *Session) Collapse(n *tree.Node) {
	if n == nil || !n.IsDir() {
		return
	}
	s.tree.Collapse(n)
	s.treeChanged(n, true)
}

// Refresh re-reads a directory node from disk.
func (s *Session) Refresh(n *tree.Node) {
	if n == nil || !n.IsDir() {
		return
	}
	s.tree.Refresh(n)
	s.treeChanged(n, false)
}

// CollapseAll collapses the first level.
func (s *Session) CollapseAll() {
	s.tree.CollapseAll()
	s.treeChanged(s.tree.Root(), true)
}

// ExpandAll expands the first level.
func (s *Session) ExpandAll() {
	s.tree.ExpandAll()
	s.treeChanged(s.tree.Root(), true)
}

// Reveal expands the directories down to rel and returns its node.
func (s *Session) Reveal(rel string) *tree.Node {
	n := s.tree.Reveal(rel)
	s.treeChanged(s.tree.Root(), true)
	return n
}

func (s *Session) treeChanged(n *tree.Node, expansion bool) {
	if n == nil {
		return
	}
	s.syncWatcher()
	if expansion {
		s.expansionChanged()
	}
	s.sink.TreeChanged(n)
}

// CreateFile creates an empty file under parent, or under parent's
// directory when parent is a file.
func (s *Session) CreateFile(parent *tree.Node, name string) (*tree.Node, error) {
	if s.tree.Root() == nil {
		return nil, ErrNoFolder
	}
	n, err := s.tree.CreateFile(parent, name)
	if err != nil {
		return nil, s.fail(err)
	}
	s.createdIn(n, parent)
	return n, nil
}

// CreateDirectory creates a directory under parent.
func (s *Session) CreateDirectory(parent *tree.Node, name string) (*tree.Node, error) {
	if s.tree.Root() == nil {
		return nil, ErrNoFolder
	}
	n, err := s.tree.CreateDirectory(parent, name)
	if err != nil {
		return nil, s.fail(err)
	}
	s.createdIn(n, parent)
	return n, nil
}

func (s *Session) createdIn(n, parent *tree.Node) {
	dir := s.tree.Root()
	switch {
	case n != nil:
		dir = n.Parent()
	case parent != nil && parent.IsDir():
		dir = parent
	case parent != nil && parent.Parent() != nil:
		dir = parent.Parent()
	}
	s.treeChanged(dir, true)
}

// Rename renames a node on disk and re-keys every open tab at or below it.
func (s *Session) Rename(n *tree.Node, newName string) (*tree.Node, error) {
	if s.tree.Root() == nil {
		return nil, ErrNoFolder
	}
	if n == nil || n.IsRoot() || n.IsPlaceholder() {
		return nil, s.fail(&filesystem.Error{Op: "rename", Reason: "cannot rename this node"})
	}
	from := s.tree.AbsPath(n)
	to := filepath.Join(filepath.Dir(from), newName)
	parent := n.Parent()

	renamed, err := s.tree.Rename(n, newName)
	if err != nil {
		return nil, s.fail(err)
	}

	active := s.ActivePath()
	rekeyed := 0
	for _, p := range s.tabs.Under(from) {
		target, ok := filesystem.Rebase(p, from, to)
		if !ok {
			continue
		}
		if err := s.tabs.Rename(p, target); err != nil {
			s.log.Warn("Tab not re-keyed", zap.String("path", p), zap.Error(err))
			continue
		}
		rekeyed++
		if p == active {
			s.sink.ActiveTabChanged(target)
		}
	}
	if rekeyed > 0 {
		s.persistTabs()
	}
	s.log.Info("Renamed", zap.String("from", from), zap.String("to", to), zap.Int("tabs", rekeyed))
	s.treeChanged(parent, true)
	return renamed, nil
}

// Delete removes a node from disk. Unmodified tabs at or below it are
// closed; modified ones stay open so their text can still be saved.
func (s *Session) Delete(n *tree.Node) error {
	if s.tree.Root() == nil {
		return ErrNoFolder
	}
	if n == nil || n.IsRoot() || n.IsPlaceholder() {
		return s.fail(&filesystem.Error{Op: "remove", Reason: "cannot delete this node"})
	}
	path := s.tree.AbsPath(n)
	parent := n.Parent()

	err := s.tree.Delete(n)
	s.treeChanged(parent, true)
	if err != nil {
		err = s.fail(err)
	}

	// After a partial delete, tabs whose file survived stay open.
	var errs error
	for _, p := range s.tabs.Under(path) {
		if _, serr := s.fs.Stat(p); serr == nil {
			continue
		}
		t := s.tabs.Find(p)
		if t == nil || s.modified(t) {
			continue
		}
		errs = multierr.Append(errs, s.closeTab(p))
	}
	return multierr.Append(err, errs)
}

// refreshParent refreshes the listed directory containing path, if any.
func (s *Session) refreshParent(path string) {
	if s.tree.Root() == nil {
		return
	}
	dir := s.tree.NodeAt(filepath.Dir(path))
	if dir == nil || !dir.Loaded() {
		return
	}
	s.tree.Refresh(dir)
	s.treeChanged(dir, false)
}

// expansionChanged saves the expansion set, rate limited. A skipped save
// leaves the set dirty for the next allowed save or shutdown.
func (s *Session) expansionChanged() {
	s.expansionDirty = true
	if s.expansionLimiter.Allow() {
		s.saveExpansion()
	}
}

func (s *Session) saveExpansion() {
	if s.tree.Root() == nil {
		return
	}
	if err := s.store.SaveExpansion(s.tree.Folder(), s.tree.ExpandedPaths()); err != nil {
		s.log.Debug("Tree expansion not persisted", zap.Error(err))
		return
	}
	s.expansionDirty = false
}

func (s *Session) syncWatcher() {
	if s.watcher == nil {
		return
	}
	if err := s.watcher.Sync(s.tree.LoadedDirs()); err != nil {
		s.log.Debug("Some directories are not watched", zap.Error(err))
	}
}

// applyChanges refreshes listed directories reported by the watcher.
func (s *Session) applyChanges(dirs []string) {
	for _, d := range dirs {
		n := s.tree.NodeAt(d)
		if n == nil || !n.Loaded() {
			continue
		}
		s.tree.Refresh(n)
		s.treeChanged(n, false)
	}
}
