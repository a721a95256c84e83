package session

import (
	"github.com/jjiill888/Flick/internal/providers/storage"
	"go.uber.org/zap"
)

const minTreeWidth = 100

func (s *Session) FontSize() int        { return s.fontSize }
func (s *Session) Theme() storage.Theme { return s.theme }
func (s *Session) TreeWidth() int       { return s.treeWidth }

// Geometry returns the last known window geometry, clamped to the screen.
func (s *Session) Geometry() (storage.Geometry, bool) { return s.geometry, s.hasGeom }

// SetFontSize sets and persists the font size, not below the minimum.
func (s *Session) SetFontSize(size int) int {
	s.fontSize = max(size, s.cfg.Editor.MinFontSize)
	if err := s.store.SaveFontSize(s.fontSize); err != nil {
		s.log.Debug("Font size not persisted", zap.Error(err))
	}
	return s.fontSize
}

func (s *Session) ZoomIn() int  { return s.SetFontSize(s.fontSize + 1) }
func (s *Session) ZoomOut() int { return s.SetFontSize(s.fontSize - 1) }

// SetTheme sets and persists the theme.
func (s *Session) SetTheme(t storage.Theme) {
	s.theme = t
	if err := s.store.SaveTheme(t); err != nil {
		s.log.Debug("Theme not persisted", zap.Error(err))
	}
}

// SetTreeWidth sets and persists the tree pane width.
func (s *Session) SetTreeWidth(px int) int {
	s.treeWidth = s.clampTreeWidth(px)
	if err := s.store.SaveTreeWidth(s.treeWidth); err != nil {
		s.log.Debug("Tree width not persisted", zap.Error(err))
	}
	return s.treeWidth
}

// clampTreeWidth keeps at least 200px for the editor.
func (s *Session) clampTreeWidth(px int) int {
	upper := max(s.cfg.Window.ScreenWidth-200, minTreeWidth)
	return max(minTreeWidth, min(px, upper))
}

// GeometryChanged records a move or resize. Only every Nth event is
// written.
func (s *Session) GeometryChanged(g storage.Geometry) {
	s.geometry = g
	s.hasGeom = true
	s.geomSaver.Do(func() {
		s.saveGeometry()
	})
}

// GeometryCommitted records the geometry at the end of a drag and writes
// it immediately.
func (s *Session) GeometryCommitted(g storage.Geometry) {
	s.geometry = g
	s.hasGeom = true
	s.saveGeometry()
}

func (s *Session) saveGeometry() {
	if err := s.store.SaveGeometry(s.geometry); err != nil {
		s.log.Debug("Geometry not persisted", zap.Error(err))
	}
}

func (s *Session) screen() storage.Size {
	return storage.Size{Width: s.cfg.Window.ScreenWidth, Height: s.cfg.Window.ScreenHeight}
}

func (s *Session) minWindow() storage.Size {
	return storage.Size{Width: s.cfg.Window.MinWidth, Height: s.cfg.Window.MinHeight}
}
