package session

import (
	"context"
	"path/filepath"

	"github.com/jjiill888/Flick/internal/domain/tabs"
	"github.com/jjiill888/Flick/internal/providers/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Startup restores the previous session: preferences, the last folder and
// its expansion set, then the tab list with the persisted active tab loaded
// last. Missing or unreadable records and files are skipped; Startup only
// fails when ctx is done.
func (s *Session) Startup(ctx context.Context) error {
	snap, err := s.store.LoadAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("Some session records were not restored", zap.Error(err))
	}
	s.applyPreferences(snap)

	if snap.LastFolder != "" {
		if err := s.openFolder(snap.LastFolder); err != nil {
			s.log.Warn("Last folder not reopened", zap.String("folder", snap.LastFolder), zap.Error(err))
		}
	}

	list := snap.Tabs
	if list.Empty() && snap.LastFile != "" {
		list = storage.TabList{Active: snap.LastFile, Tabs: []storage.TabEntry{{Path: snap.LastFile}}}
	}
	docs, err := s.readTabs(ctx, list.Tabs)
	if err != nil {
		return err
	}
	for i, e := range list.Tabs {
		doc, ok := docs[i]
		if !ok {
			continue
		}
		doc.Modified = e.Modified
		s.tabs.Add(doc)
	}
	s.metrics.SetTabsOpen(s.tabs.Len())

	active := list.Active
	if active != "" {
		if abs, err := filepath.Abs(active); err == nil {
			active = abs
		}
	}
	if s.tabs.Find(active) == nil {
		active = ""
		if first := s.tabs.At(0); first != nil {
			active = first.Path()
		}
	}
	if active != "" {
		if err := s.activate(active); err != nil {
			return err
		}
	}

	s.log.Info("Session restored",
		zap.String("folder", s.tree.Folder()),
		zap.Int("tabs", s.tabs.Len()),
		zap.String("active", active))
	return nil
}

// readTabs reads every persisted tab concurrently. Files that are gone or
// unreadable are left out of the result.
func (s *Session) readTabs(ctx context.Context, entries []storage.TabEntry) (map[int]tabs.Document, error) {
	docs := make([]tabs.Document, len(entries))
	found := make([]bool, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := filepath.Abs(e.Path)
			if err != nil {
				return nil
			}
			doc, err := readDocument(s.fs, path)
			if err != nil {
				s.log.Info("Tab not restored", zap.String("path", path), zap.Error(err))
				return nil
			}
			docs[i] = doc
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int]tabs.Document, len(entries))
	for i := range entries {
		if found[i] {
			out[i] = docs[i]
		}
	}
	return out, nil
}

func (s *Session) applyPreferences(snap storage.Snapshot) {
	if snap.HasFontSize {
		s.fontSize = max(snap.FontSize, s.cfg.Editor.MinFontSize)
	}
	if snap.HasTheme {
		s.theme = snap.Theme
	}
	if snap.HasWidth {
		s.treeWidth = s.clampTreeWidth(snap.TreeWidth)
	}
	if snap.HasGeometry {
		s.geometry = snap.Geometry.Clamp(s.screen(), s.minWindow())
		s.hasGeom = true
	}
}

// Shutdown persists the session. A modified active document yields
// ErrUnsavedChanges and nothing is written.
func (s *Session) Shutdown() error {
	if s.live.Modified() {
		return ErrUnsavedChanges
	}
	return s.persistAll()
}

// ResolveShutdown completes a Shutdown that returned ErrUnsavedChanges.
// Discard keeps the file as it is on disk.
func (s *Session) ResolveShutdown(choice Choice) error {
	switch choice {
	case Cancel:
		return nil
	case Save:
		if err := s.Save(); err != nil {
			return err
		}
	case Discard:
		if t := s.tabs.Active(); t != nil {
			if _, err := s.tabs.UpdateModified(t.Path(), false); err != nil {
				return err
			}
		}
		s.live.SetModified(false)
	}
	return s.persistAll()
}

// persistAll writes every record. Failures are logged by the store and
// never stop the remaining writes.
func (s *Session) persistAll() error {
	if t := s.tabs.Active(); t != nil {
		if err := s.tabs.Flush(t.Path(), s.live.Text(), s.live.Modified()); err != nil {
			return err
		}
	}

	var errs error
	errs = multierr.Append(errs, s.store.SaveTabs(s.tabList()))
	if p := s.ActivePath(); p != "" {
		errs = multierr.Append(errs, s.store.SaveLastFile(p))
	}
	if folder := s.tree.Folder(); folder != "" {
		errs = multierr.Append(errs, s.store.SaveLastFolder(folder))
		errs = multierr.Append(errs, s.store.SaveExpansion(folder, s.tree.ExpandedPaths()))
		s.expansionDirty = false
	}
	if s.hasGeom {
		errs = multierr.Append(errs, s.store.SaveGeometry(s.geometry))
	}
	errs = multierr.Append(errs, s.store.SaveFontSize(s.fontSize))
	errs = multierr.Append(errs, s.store.SaveTheme(s.theme))
	errs = multierr.Append(errs, s.store.SaveTreeWidth(s.treeWidth))

	if errs != nil {
		s.log.Warn("Session persisted with errors", zap.Int("failed", len(multierr.Errors(errs))))
	} else {
		s.log.Info("Session persisted", zap.Int("tabs", s.tabs.Len()))
	}
	return nil
}

// Command runs on the session goroutine.
type Command func(*Session)

// Run owns the session goroutine: it executes commands, applies finished
// background reads and watcher events until ctx is done or cmds is closed.
func (s *Session) Run(ctx context.Context, cmds <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			cmd(s)
		case r := <-s.loads:
			// Errors already reached the error sink.
			_ = s.deliver(r)
		case dirs, ok := <-s.changes:
			if !ok {
				s.changes = nil
				continue
			}
			s.applyChanges(dirs)
		}
	}
}
