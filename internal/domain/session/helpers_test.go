package session

import (
	"path/filepath"
	"testing"

	"github.com/jjiill888/Flick/internal/domain/tree"
	"github.com/jjiill888/Flick/internal/infrastructure/config"
	"github.com/jjiill888/Flick/internal/infrastructure/monitoring"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"github.com/jjiill888/Flick/internal/providers/storage"
	"github.com/jjiill888/Flick/internal/shared/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSink struct {
	mock.Mock
}

func newMockSink() *mockSink {
	m := &mockSink{}
	m.On("TreeChanged", mock.Anything).Maybe()
	m.On("ActiveTabChanged", mock.Anything).Maybe()
	m.On("ModifiedChanged", mock.Anything).Maybe()
	m.On("ReportError", mock.Anything).Maybe()
	return m
}

func (m *mockSink) TreeChanged(n *tree.Node)      { m.Called(n) }
func (m *mockSink) ActiveTabChanged(path string)  { m.Called(path) }
func (m *mockSink) ModifiedChanged(modified bool) { m.Called(modified) }
func (m *mockSink) ReportError(err error)         { m.Called(err) }

// reset forgets recorded calls but keeps the expectations.
func (m *mockSink) reset() {
	m.Calls = nil
}

type fixture struct {
	s       *Session
	sink    *mockSink
	fs      *testutil.FaultFS
	store   *storage.Store
	metrics *monitoring.Metrics
	cfg     *config.Config
	dir     string
}

// standardProject mirrors the layout used throughout: one ignored VCS
// directory, a docs directory and two C sources.
var standardProject = map[string]string{
	".git/HEAD":     "ref: refs/heads/main",
	"docs/notes.md": "# notes",
	"a.c":           "int a;",
	"b.c":           "int b;",
}

func newFixture(t *testing.T, files map[string]string, tune ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	for _, fn := range tune {
		fn(cfg)
	}

	fsys := testutil.NewFaultFS(filesystem.NewOS(zap.NewNop()))
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := storage.NewStore(cfg.Storage.Dir, fsys, zap.NewNop(), metrics)
	sink := newMockSink()

	s, err := New(Options{
		Config:  cfg,
		FS:      fsys,
		Store:   store,
		Sink:    sink,
		Logger:  zap.NewNop(),
		Metrics: metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Release() })

	return &fixture{
		s:       s,
		sink:    sink,
		fs:      fsys,
		store:   store,
		metrics: metrics,
		cfg:     cfg,
		dir:     testutil.Project(t, "proj", files),
	}
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.dir, filepath.FromSlash(rel))
}

func (f *fixture) open(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, f.s.Open(f.path(rel)))
}

func (f *fixture) openFolder(t *testing.T) {
	t.Helper()
	require.NoError(t, f.s.OpenFolder(f.dir))
}

// edit appends text as a user edit.
func (f *fixture) edit(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.s.Live().Insert(f.s.Live().Len(), text))
}

func (f *fixture) record(t *testing.T, name string) string {
	t.Helper()
	return testutil.ReadFile(t, filepath.Join(f.cfg.Storage.Dir, ".flick_"+name))
}

func childNames(n *tree.Node) []string {
	var out []string
	for _, c := range n.Children() {
		if c.IsPlaceholder() {
			out = append(out, "<placeholder>")
			continue
		}
		out = append(out, c.Name())
	}
	return out
}
