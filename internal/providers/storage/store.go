package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/jjiill888/Flick/internal/infrastructure/monitoring"
	"github.com/jjiill888/Flick/internal/infrastructure/resilience"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const filePrefix = ".flick_"

// Store reads and writes session records in one directory.
type Store struct {
	dir     string
	fs      filesystem.FS
	log     *zap.Logger
	metrics *monitoring.Metrics
	breaker *resilience.Breaker

	// last written content per file, to skip redundant writes
	cache sync.Map
}

// Option configures a Store.
type Option func(*Store)

// WithBreaker suspends writes while the record directory keeps failing.
// Without it a default breaker is used.
func WithBreaker(settings resilience.Settings) Option {
	return func(s *Store) {
		s.breaker = s.newBreaker(settings)
	}
}

// NewStore creates a store rooted at dir. metrics may be nil.
func NewStore(dir string, fsys filesystem.FS, log *zap.Logger, metrics *monitoring.Metrics, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		dir:     dir,
		fs:      fsys,
		log:     log.Named("storage"),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = s.newBreaker(resilience.Settings{})
	}
	return s
}

func (s *Store) newBreaker(settings resilience.Settings) *resilience.Breaker {
	settings.OnStateChange = func(_ string, from, to resilience.State) {
		switch to {
		case resilience.StateOpen:
			s.log.Warn("Suspending record writes", zap.String("dir", s.dir), zap.Stringer("from", from))
		case resilience.StateClosed:
			s.log.Info("Resuming record writes", zap.String("dir", s.dir))
		}
	}
	return resilience.New("storage", settings)
}

// Dir returns the record directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, filePrefix+name)
}

// expansionName keys the expansion record by the folder's base name.
func expansionName(folder string) string {
	return RecordExpansion + "_" + filepath.Base(folder)
}

// read returns nil data and no error when the record does not exist.
func (s *Store) read(record, name string) ([]byte, error) {
	data, err := s.fs.ReadFile(s.path(name))
	if err != nil {
		if filesystem.IsNotExist(err) {
			return nil, nil
		}
		return nil, &Error{Record: record, Op: "read", Err: err}
	}
	return data, nil
}

func (s *Store) write(record, name string, data []byte) error {
	key := s.path(name)
	if prev, ok := s.cache.Load(key); ok && prev.(string) == string(data) {
		return nil
	}

	err := s.breaker.Do(func() error { return s.fs.WriteFile(key, data) })
	if errors.Is(err, resilience.ErrOpen) {
		s.log.Debug("Skipped record write", zap.String("record", record))
		return &Error{Record: record, Op: "write", Err: err}
	}
	if s.metrics != nil {
		s.metrics.RecordPersist(record, err)
	}
	if err != nil {
		s.cache.Delete(key)
		s.log.Warn("Failed to persist record",
			zap.String("record", record),
			zap.String("path", key),
			zap.Error(err))
		return &Error{Record: record, Op: "write", Err: err}
	}
	s.cache.Store(key, string(data))
	return nil
}

func (s *Store) readInt(record string) (int, bool, error) {
	data, err := s.read(record, record)
	if err != nil || data == nil {
		return 0, false, err
	}
	v, err := parseInt(data)
	if err != nil {
		return 0, false, &Error{Record: record, Op: "parse", Err: err}
	}
	return v, true, nil
}

func (s *Store) writeInt(record string, v int) error {
	return s.write(record, record, []byte(strconv.Itoa(v)))
}

func (s *Store) readPath(record string) (string, error) {
	data, err := s.read(record, record)
	if err != nil || data == nil {
		return "", err
	}
	lines := DecodeLines(data)
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

// LastFile returns the last opened file, or "" when none was recorded.
func (s *Store) LastFile() (string, error) { return s.readPath(RecordLastFile) }

// SaveLastFile records path as the last opened file.
func (s *Store) SaveLastFile(path string) error {
	return s.write(RecordLastFile, RecordLastFile, []byte(path))
}

// LastFolder returns the last opened folder, or "".
func (s *Store) LastFolder() (string, error) { return s.readPath(RecordLastFolder) }

// SaveLastFolder records the open folder.
func (s *Store) SaveLastFolder(path string) error {
	return s.write(RecordLastFolder, RecordLastFolder, []byte(path))
}

// Tabs returns the persisted tab list.
func (s *Store) Tabs() (TabList, error) {
	data, err := s.read(RecordTabs, RecordTabs)
	if err != nil {
		return TabList{}, err
	}
	return DecodeTabs(data), nil
}

// SaveTabs writes the tab list.
func (s *Store) SaveTabs(l TabList) error {
	return s.write(RecordTabs, RecordTabs, EncodeTabs(l))
}

// Expansion returns the expanded paths recorded for folder.
func (s *Store) Expansion(folder string) ([]string, error) {
	data, err := s.read(RecordExpansion, expansionName(folder))
	if err != nil {
		return nil, err
	}
	return DecodeLines(data), nil
}

// SaveExpansion writes the expanded paths for folder.
func (s *Store) SaveExpansion(folder string, paths []string) error {
	return s.write(RecordExpansion, expansionName(folder), EncodeLines(paths))
}

// FontSize returns the font size and whether one was recorded.
func (s *Store) FontSize() (int, bool, error) { return s.readInt(RecordFontSize) }

// SaveFontSize writes the font size.
func (s *Store) SaveFontSize(size int) error { return s.writeInt(RecordFontSize, size) }

// Theme returns the theme and whether one was recorded. Unknown ordinals
// read as Dark.
func (s *Store) Theme() (Theme, bool, error) {
	v, ok, err := s.readInt(RecordTheme)
	if err != nil || !ok {
		return Dark, ok, err
	}
	if v != int(Light) {
		return Dark, true, nil
	}
	return Light, true, nil
}

// SaveTheme writes the theme ordinal.
func (s *Store) SaveTheme(t Theme) error { return s.writeInt(RecordTheme, int(t)) }

// TreeWidth returns the tree pane width and whether one was recorded.
func (s *Store) TreeWidth() (int, bool, error) { return s.readInt(RecordTreeWidth) }

// SaveTreeWidth writes the tree pane width.
func (s *Store) SaveTreeWidth(px int) error { return s.writeInt(RecordTreeWidth, px) }

// Geometry returns the raw, unclamped window geometry.
func (s *Store) Geometry() (Geometry, bool, error) {
	data, err := s.read(RecordGeometry, RecordGeometry)
	if err != nil || data == nil {
		return Geometry{}, false, err
	}
	g, err := ParseGeometry(string(data))
	if err != nil {
		return Geometry{}, false, &Error{Record: RecordGeometry, Op: "parse", Err: err}
	}
	return g, true, nil
}

// SaveGeometry writes the window geometry.
func (s *Store) SaveGeometry(g Geometry) error {
	return s.write(RecordGeometry, RecordGeometry, []byte(g.String()))
}

// Snapshot is every folder-independent record, read at startup.
type Snapshot struct {
	LastFile   string
	LastFolder string
	Tabs       TabList

	FontSize    int
	HasFontSize bool
	Theme       Theme
	HasTheme    bool
	TreeWidth   int
	HasWidth    bool
	Geometry    Geometry
	HasGeometry bool
}

// LoadAll reads every record concurrently. A record that fails to read or
// parse is logged and left at its zero value. The first such error is
// returned alongside the snapshot so callers can report it.
func (s *Store) LoadAll(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var g errgroup.Group

	load := func(record string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				s.log.Warn("Failed to load record", zap.String("record", record), zap.Error(err))
				return err
			}
			return nil
		})
	}

	load(RecordLastFile, func() (err error) {
		snap.LastFile, err = s.LastFile()
		return err
	})
	load(RecordLastFolder, func() (err error) {
		snap.LastFolder, err = s.LastFolder()
		return err
	})
	load(RecordTabs, func() (err error) {
		snap.Tabs, err = s.Tabs()
		return err
	})
	load(RecordFontSize, func() (err error) {
		snap.FontSize, snap.HasFontSize, err = s.FontSize()
		return err
	})
	load(RecordTheme, func() (err error) {
		snap.Theme, snap.HasTheme, err = s.Theme()
		return err
	})
	load(RecordTreeWidth, func() (err error) {
		snap.TreeWidth, snap.HasWidth, err = s.TreeWidth()
		return err
	})
	load(RecordGeometry, func() (err error) {
		snap.Geometry, snap.HasGeometry, err = s.Geometry()
		return err
	})

	return snap, g.Wait()
}
