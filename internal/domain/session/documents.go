package session

import (
	"path/filepath"

	"github.com/jjiill888/Flick/internal/domain/tabs"
	"github.com/jjiill888/Flick/internal/infrastructure/monitoring"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"github.com/jjiill888/Flick/internal/providers/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// readDocument reads and sniffs a file. It touches no session state and
// runs on worker goroutines.
func readDocument(fsys filesystem.FS, path string) (tabs.Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return tabs.Document{}, filesystem.Wrap("read", path, err)
	}
	meta, err := filesystem.Detect(data)
	if err != nil {
		return tabs.Document{}, filesystem.Wrap("open", path, err)
	}
	return tabs.Document{
		Path:     path,
		Content:  string(data),
		Encoding: meta.Charset,
		MIME:     meta.MIME,
	}, nil
}

// Open shows path in a tab. An open tab is re-activated; otherwise the file
// is read and a new tab added. Files above the large-file threshold are
// read in the background and Open returns ErrLoadPending.
func (s *Session) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return s.fail(filesystem.Wrap("open", path, err))
	}
	if s.untitledModified() {
		return ErrUnsavedChanges
	}
	if s.tabs.Find(abs) != nil {
		return s.activate(abs)
	}

	info, err := s.fs.Stat(abs)
	if err != nil {
		return s.fail(filesystem.Wrap("open", abs, err))
	}
	if info.IsDir {
		return s.fail(&filesystem.Error{Op: "open", Path: abs, Reason: "is a directory"})
	}
	if info.Size > s.cfg.Editor.LargeFileBytes {
		s.startLoad(abs)
		return ErrLoadPending
	}

	timer := monitoring.NewTimer(s.metrics, "sync")
	doc, err := readDocument(s.fs, abs)
	timer.Stop(err)
	if err != nil {
		return s.fail(err)
	}
	return s.addAndActivate(doc)
}

func (s *Session) addAndActivate(doc tabs.Document) error {
	if _, added := s.tabs.Add(doc); added {
		s.metrics.SetTabsOpen(s.tabs.Len())
		s.log.Debug("Tab opened", zap.String("path", doc.Path), zap.String("encoding", doc.Encoding))
	}
	return s.activate(doc.Path)
}

// Activate makes an open tab active.
func (s *Session) Activate(path string) error {
	if s.tabs.Find(path) == nil {
		return tabs.ErrNotFound
	}
	if s.untitledModified() {
		return ErrUnsavedChanges
	}
	return s.activate(path)
}

// activate is the flush-then-load handover. The previous tab receives the
// live text and flag, then the target's content and flag become live.
func (s *Session) activate(path string) error {
	target := s.tabs.Find(path)
	if target == nil {
		return tabs.ErrNotFound
	}
	prev := s.tabs.Active()
	if prev == target {
		return nil
	}

	var err error
	s.switching(func() {
		if prev != nil {
			if err = s.tabs.Flush(prev.Path(), s.live.Text(), s.live.Modified()); err != nil {
				return
			}
		}
		if _, err = s.tabs.Activate(path); err != nil {
			return
		}
		s.live.Load(target.Content())
		s.live.SetModified(target.Modified())
	})
	if err != nil {
		return err
	}

	s.metrics.IncTabSwitches()
	s.sink.ActiveTabChanged(path)
	s.sink.ModifiedChanged(target.Modified())
	s.persistTabs()
	return nil
}

// load puts tab into the live buffer without flushing anything. Used when
// the previous active tab is gone.
func (s *Session) load(tab *tabs.Tab) {
	s.switching(func() {
		if tab == nil {
			s.tabs.Deactivate()
			s.live.Clear()
			s.live.SetModified(false)
			return
		}
		if _, err := s.tabs.Activate(tab.Path()); err != nil {
			s.log.Error("Failed to activate tab", zap.String("path", tab.Path()), zap.Error(err))
		}
		s.live.Load(tab.Content())
		s.live.SetModified(tab.Modified())
	})
	if tab == nil {
		s.sink.ActiveTabChanged("")
		s.sink.ModifiedChanged(false)
		return
	}
	s.sink.ActiveTabChanged(tab.Path())
	s.sink.ModifiedChanged(tab.Modified())
}

// modified reports a tab's effective flag; the live flag wins for the
// active tab.
func (s *Session) modified(t *tabs.Tab) bool {
	if t.Active() {
		return s.live.Modified()
	}
	return t.Modified()
}

func (s *Session) untitledModified() bool {
	return s.tabs.Active() == nil && s.live.Modified()
}

// AnyModified reports whether any document has unsaved edits.
func (s *Session) AnyModified() bool {
	if s.live.Modified() {
		return true
	}
	return s.tabs.AnyModified()
}

// Close closes a tab. A modified tab yields ErrUnsavedChanges.
func (s *Session) Close(path string) error {
	t := s.tabs.Find(path)
	if t == nil {
		return tabs.ErrNotFound
	}
	if s.modified(t) {
		return ErrUnsavedChanges
	}
	return s.closeTab(path)
}

// ResolveClose completes a Close that returned ErrUnsavedChanges.
func (s *Session) ResolveClose(path string, choice Choice) error {
	if s.tabs.Find(path) == nil {
		return tabs.ErrNotFound
	}
	switch choice {
	case Save:
		if err := s.saveTab(path); err != nil {
			return err
		}
	case Cancel:
		return nil
	}
	return s.closeTab(path)
}

func (s *Session) closeTab(path string) error {
	t := s.tabs.Find(path)
	if t == nil {
		return tabs.ErrNotFound
	}
	wasActive := t.Active()
	next, err := s.tabs.Remove(path)
	if err != nil {
		return err
	}
	if wasActive {
		s.load(next)
	}
	s.metrics.SetTabsOpen(s.tabs.Len())
	s.log.Debug("Tab closed", zap.String("path", path))
	s.persistTabs()
	return nil
}

// Move reorders a tab.
func (s *Session) Move(path string, index int) error {
	if err := s.tabs.Move(path, index); err != nil {
		return err
	}
	s.persistTabs()
	return nil
}

// Save writes the active document to its file.
func (s *Session) Save() error {
	t := s.tabs.Active()
	if t == nil {
		return ErrUntitled
	}
	return s.saveTab(t.Path())
}

func (s *Session) saveTab(path string) error {
	t := s.tabs.Find(path)
	if t == nil {
		return tabs.ErrNotFound
	}
	text := t.Content()
	if t.Active() {
		text = s.live.Text()
	}
	if err := s.fs.WriteFile(path, []byte(text)); err != nil {
		return s.fail(filesystem.Wrap("save", path, err))
	}

	if err := s.tabs.Flush(path, text, false); err != nil {
		return err
	}
	if t.Active() && s.live.SetModified(false) {
		s.sink.ModifiedChanged(false)
	}
	s.log.Info("Saved file", zap.String("path", path), zap.Int("bytes", len(text)))
	s.refreshParent(path)
	s.persistTabs()
	return nil
}

// SaveAs writes the live document to path and makes path the active tab.
// The current tab is re-keyed; an untitled document gets a new tab.
func (s *Session) SaveAs(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return s.fail(filesystem.Wrap("save", path, err))
	}
	active := s.tabs.Active()
	if active != nil && active.Path() == abs {
		return s.saveTab(abs)
	}
	if other := s.tabs.Find(abs); other != nil {
		return s.fail(&filesystem.Error{Op: "save", Path: abs, Reason: "already open in another tab"})
	}

	text := s.live.Text()
	if err := s.fs.WriteFile(abs, []byte(text)); err != nil {
		return s.fail(filesystem.Wrap("save", abs, err))
	}

	if active != nil {
		if err := s.tabs.Rename(active.Path(), abs); err != nil {
			return err
		}
	} else {
		s.tabs.Add(tabs.Document{Path: abs, Content: text})
		if _, err := s.tabs.Activate(abs); err != nil {
			return err
		}
		s.metrics.SetTabsOpen(s.tabs.Len())
	}
	if err := s.tabs.Flush(abs, text, false); err != nil {
		return err
	}

	s.live.SetModified(false)
	s.sink.ActiveTabChanged(abs)
	s.sink.ModifiedChanged(false)
	s.refreshParent(abs)
	s.persistTabs()
	return nil
}

// SaveAll writes every modified tab. Failures do not stop the others.
func (s *Session) SaveAll() error {
	var errs error
	for _, t := range s.tabs.Tabs() {
		if !s.modified(t) {
			continue
		}
		errs = multierr.Append(errs, s.saveTab(t.Path()))
	}
	return errs
}

// Revert reloads a tab from disk and clears its modified flag.
func (s *Session) Revert(path string) error {
	t := s.tabs.Find(path)
	if t == nil {
		return tabs.ErrNotFound
	}
	doc, err := readDocument(s.fs, path)
	if err != nil {
		return s.fail(err)
	}
	if err := s.tabs.SetContent(path, doc.Content, doc.Encoding, doc.MIME); err != nil {
		return err
	}
	if _, err := s.tabs.UpdateModified(path, false); err != nil {
		return err
	}
	if t.Active() {
		s.switching(func() {
			s.live.Load(doc.Content)
			s.live.SetModified(false)
		})
		s.sink.ModifiedChanged(false)
	}
	s.persistTabs()
	return nil
}

// NewDocument starts an untitled document. The active tab is flushed and
// deactivated. Unsaved untitled text yields ErrUnsavedChanges.
func (s *Session) NewDocument() error {
	if s.untitledModified() {
		return ErrUnsavedChanges
	}
	prev := s.tabs.Active()
	s.switching(func() {
		if prev != nil {
			if err := s.tabs.Flush(prev.Path(), s.live.Text(), s.live.Modified()); err != nil {
				s.log.Error("Failed to flush tab", zap.String("path", prev.Path()), zap.Error(err))
			}
		}
		s.tabs.Deactivate()
		s.live.Clear()
		s.live.SetModified(false)
	})
	s.sink.ActiveTabChanged("")
	s.sink.ModifiedChanged(false)
	s.persistTabs()
	return nil
}

// DiscardUntitled drops unsaved untitled text.
func (s *Session) DiscardUntitled() {
	if s.tabs.Active() != nil {
		return
	}
	s.switching(func() {
		s.live.Clear()
		s.live.SetModified(false)
	})
	s.sink.ModifiedChanged(false)
}

// tabList builds the tab record from the registry, using the live flag for
// the active tab.
func (s *Session) tabList() storage.TabList {
	l := storage.TabList{Active: s.ActivePath()}
	for _, t := range s.tabs.Tabs() {
		l.Tabs = append(l.Tabs, storage.TabEntry{Path: t.Path(), Modified: s.modified(t)})
	}
	return l
}

func (s *Session) persistTabs() {
	if err := s.store.SaveTabs(s.tabList()); err != nil {
		s.log.Debug("Tab list not persisted", zap.Error(err))
	}
	if p := s.ActivePath(); p != "" {
		if err := s.store.SaveLastFile(p); err != nil {
			s.log.Debug("Last file not persisted", zap.Error(err))
		}
	}
}
