package session

import (
	"errors"
	"fmt"

	"github.com/jjiill888/Flick/internal/domain/buffer"
	"github.com/jjiill888/Flick/internal/domain/tabs"
	"github.com/jjiill888/Flick/internal/domain/tree"
	"github.com/jjiill888/Flick/internal/infrastructure/config"
	"github.com/jjiill888/Flick/internal/infrastructure/monitoring"
	"github.com/jjiill888/Flick/internal/infrastructure/resilience"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"github.com/jjiill888/Flick/internal/providers/storage"
	"github.com/jjiill888/Flick/internal/providers/watcher"
	"github.com/jjiill888/Flick/internal/shared/id"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrUnsavedChanges means the operation would discard edits. Nothing
	// was changed; complete it with the matching Resolve method.
	ErrUnsavedChanges = errors.New("unsaved changes")
	// ErrLoadPending means the file is being read in the background and
	// the tab appears once the read is delivered.
	ErrLoadPending = errors.New("load pending")
	// ErrUntitled means the live buffer holds a document with no path.
	ErrUntitled = errors.New("document has no path")
	// ErrNoFolder means no folder is open.
	ErrNoFolder = errors.New("no folder open")
)

// Mode gates live-buffer change notifications. Only ModeIdle lets edits
// mark the active document modified.
type Mode int

const (
	ModeIdle Mode = iota
	ModeLoading
	ModeSwitching
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLoading:
		return "loading"
	case ModeSwitching:
		return "switching"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Choice answers an ErrUnsavedChanges prompt.
type Choice int

const (
	Save Choice = iota
	Discard
	Cancel
)

func (c Choice) String() string {
	switch c {
	case Save:
		return "save"
	case Discard:
		return "discard"
	default:
		return "cancel"
	}
}

// Sink receives state changes for rendering.
type Sink interface {
	TreeChanged(node *tree.Node)
	ActiveTabChanged(path string)
	ModifiedChanged(modified bool)
}

// ErrorSink is optionally implemented by a Sink that shows errors to the
// user.
type ErrorSink interface {
	ReportError(err error)
}

// NopSink discards notifications.
type NopSink struct{}

func (NopSink) TreeChanged(*tree.Node)  {}
func (NopSink) ActiveTabChanged(string) {}
func (NopSink) ModifiedChanged(bool)    {}

// Options configures New. Zero fields get defaults: config.Default, the OS
// filesystem, a no-op logger and sink, metrics on a private registry and a
// store in the configured directory.
type Options struct {
	Config  *config.Config
	FS      filesystem.FS
	Store   *storage.Store
	Sink    Sink
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Filter  *tree.Filter
}

// Session is one workspace.
type Session struct {
	id      id.SessionID
	ids     *id.Generator
	cfg     *config.Config
	fs      filesystem.FS
	store   *storage.Store
	sink    Sink
	log     *zap.Logger
	metrics *monitoring.Metrics

	tree *tree.Tree
	tabs *tabs.Registry
	live *buffer.Live

	mode     Mode
	loads    chan loadResult
	seq      map[string]uint64
	lastSeq  uint64
	inflight int

	fontSize  int
	theme     storage.Theme
	treeWidth int
	geometry  storage.Geometry
	hasGeom   bool
	geomSaver rate.Sometimes

	expansionLimiter *rate.Limiter
	expansionDirty   bool

	watcher *watcher.Watcher
	changes <-chan []string
}

// New creates a session with no folder and no tabs.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS(log)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics(prometheus.NewRegistry())
	}
	store := opts.Store
	if store == nil {
		dir, err := cfg.Storage.Path()
		if err != nil {
			return nil, err
		}
		store = storage.NewStore(dir, fsys, log, metrics, storage.WithBreaker(resilience.Settings{
			Threshold: cfg.Storage.FailureThreshold,
			Cooldown:  cfg.Storage.Cooldown(),
		}))
	}
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	filter := opts.Filter
	if filter == nil {
		filter = tree.DefaultFilter()
	}
	theme, err := storage.ParseTheme(cfg.Editor.Theme)
	if err != nil {
		return nil, err
	}

	sid := id.NewSessionID()
	s := &Session{
		id:        sid,
		ids:       id.NewGenerator(),
		cfg:       cfg,
		fs:        fsys,
		store:     store,
		sink:      sink,
		log:       log.Named("session").With(zap.String("session_id", sid.String())),
		metrics:   metrics,
		tree:      tree.New(fsys, filter, log),
		tabs:      tabs.NewRegistry(),
		live:      buffer.New(),
		loads:     make(chan loadResult, 16),
		seq:       make(map[string]uint64),
		fontSize:  cfg.Editor.FontSize,
		theme:     theme,
		treeWidth: cfg.Tree.DefaultWidth,
		geomSaver: rate.Sometimes{Every: cfg.Window.SaveEvery},

		expansionLimiter: rate.NewLimiter(rate.Limit(cfg.Storage.ExpansionSaveRPS), 1),
	}
	s.tree.SetIgnoreFile(cfg.Tree.IgnoreFile)
	s.tree.OnRefresh = func(*tree.Node) { s.metrics.IncTreeRefreshes() }
	s.live.Subscribe(s.onBufferChange)

	if cfg.Tree.Watch {
		w, err := watcher.New(cfg.Tree.WatchDebounce(), log)
		if err != nil {
			s.log.Warn("Directory watcher unavailable", zap.Error(err))
		} else {
			s.watcher = w
			s.changes = w.Events()
		}
	}
	return s, nil
}

func (s *Session) ID() id.SessionID             { return s.id }
func (s *Session) Mode() Mode                   { return s.mode }
func (s *Session) Tree() *tree.Tree             { return s.tree }
func (s *Session) Tabs() []tabs.Snapshot        { return s.tabs.Snapshots() }
func (s *Session) Live() *buffer.Live           { return s.live }
func (s *Session) Metrics() *monitoring.Metrics { return s.metrics }

// ActivePath returns the active tab's path, or "" for an untitled document.
func (s *Session) ActivePath() string {
	if t := s.tabs.Active(); t != nil {
		return t.Path()
	}
	return ""
}

// Modified reports whether the live document has unsaved edits.
func (s *Session) Modified() bool { return s.live.Modified() }

// Content returns a tab's current text. For the active tab that is the live
// buffer, not its stale backing content.
func (s *Session) Content(path string) (string, error) {
	t := s.tabs.Find(path)
	if t == nil {
		return "", tabs.ErrNotFound
	}
	if t.Active() {
		return s.live.Text(), nil
	}
	return t.Content(), nil
}

// onBufferChange turns user edits into the modified flag. Changes made
// while the mode is not idle are programmatic and ignored.
func (s *Session) onBufferChange(buffer.Change) {
	if s.mode != ModeIdle {
		return
	}
	if !s.live.SetModified(true) {
		return
	}
	if t := s.tabs.Active(); t != nil {
		if _, err := s.tabs.UpdateModified(t.Path(), true); err != nil {
			s.log.Error("Active tab missing from registry", zap.String("path", t.Path()))
		}
	}
	s.sink.ModifiedChanged(true)
}

// switching runs fn under ModeSwitching and restores the resting mode.
func (s *Session) switching(fn func()) {
	s.mode = ModeSwitching
	defer s.settle()
	fn()
}

// settle returns to Loading while reads are in flight, Idle otherwise.
func (s *Session) settle() {
	if s.inflight > 0 {
		s.mode = ModeLoading
	} else {
		s.mode = ModeIdle
	}
}

// fail surfaces err to the error sink and counts filesystem failures.
func (s *Session) fail(err error) error {
	if err == nil {
		return nil
	}
	var fe *filesystem.Error
	if errors.As(err, &fe) {
		s.metrics.RecordFSError(fe.Op)
	}
	s.log.Warn("Operation failed", zap.Error(err))
	if es, ok := s.sink.(ErrorSink); ok {
		es.ReportError(err)
	}
	return err
}

// Release stops the directory watcher. It does not persist anything; call
// Shutdown first.
func (s *Session) Release() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	s.changes = nil
	return err
}
