package tree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"github.com/jjiill888/Flick/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childNames(n *Node) []string {
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

// assertPlaceholderInvariant fails if any directory mixes a Placeholder
// with real children.
func assertPlaceholderInvariant(t *testing.T, tr *Tree) {
	t.Helper()
	tr.Walk(func(n *Node) bool {
		if n.Kind() != Directory {
			return true
		}
		placeholders := 0
		for _, c := range n.Children() {
			if c.IsPlaceholder() {
				placeholders++
			}
		}
		if placeholders > 0 {
			assert.Equal(t, 1, n.ChildCount(), "%q mixes placeholder and real children", n.RelPath())
			assert.False(t, n.Loaded(), "%q is loaded but still has a placeholder", n.RelPath())
		}
		return true
	})
}

func newTree(t *testing.T, files map[string]string) (*Tree, string) {
	t.Helper()
	dir := testutil.Project(t, "proj", files)
	tr := New(filesystem.NewOS(nil), nil, nil)
	_, err := tr.Scan(dir)
	require.NoError(t, err)
	return tr, dir
}

func TestScanScenario(t *testing.T) {
	tr, _ := newTree(t, map[string]string{
		"a.c":           "int main;",
		".git/HEAD":     "ref: refs/heads/main",
		"docs/notes.md": "# notes",
	})

	root := tr.Root()
	require.NotNil(t, root)
	assert.Equal(t, "proj", root.Name())
	assert.True(t, root.Loaded())
	assert.True(t, root.Expanded())
	assert.Equal(t, []string{"docs", "a.c"}, childNames(root))

	docs := root.Children()[0]
	assert.Equal(t, Directory, docs.Kind())
	assert.True(t, docs.HasPlaceholder())
	assert.False(t, docs.Loaded())
	assert.False(t, docs.Expanded())

	assert.Equal(t, File, root.Children()[1].Kind())
	assertPlaceholderInvariant(t, tr)
}

func TestScanFiltersAndSorts(t *testing.T) {
	tr, _ := newTree(t, map[string]string{
		"b.go":               "",
		"B.c":                "",
		"README":             "",
		"logo.png":           "",
		"main.GO":            "",
		"Zeta/x.c":           "",
		"alpha/y.c":          "",
		"node_modules/m.js":  "",
		".DS_Store":          "",
		"build/out.txt":      "",
		"__pycache__/a.py":   "",
		"notes.txt":          "",
		"settings.YAML":      "",
		"scripts/run.sh":     "",
		"scripts/.gitignore": "",
	})

	assert.Equal(t,
		[]string{"Zeta", "alpha", "scripts", "B.c", "b.go", "main.GO", "notes.txt", "settings.YAML"},
		childNames(tr.Root()))
}

func TestScanPlaceholderProbe(t *testing.T) {
	tr, _ := newTree(t, map[string]string{
		"empty/":             "",
		"only_ignored/.git/": "",
		"only_ignored/.hg/":  "",
		"images/logo.png":    "",
		"nested/inner/":      "",
	})

	byName := map[string]*Node{}
	for _, c := range tr.Root().Children() {
		byName[c.Name()] = c
	}

	assert.False(t, byName["empty"].HasPlaceholder())
	assert.Zero(t, byName["empty"].ChildCount())
	assert.False(t, byName["only_ignored"].HasPlaceholder())
	assert.True(t, byName["images"].HasPlaceholder(), "non-ignored entries count even if not allowed")
	assert.True(t, byName["nested"].HasPlaceholder())

	// The optimistic placeholder expands into an empty leaf.
	tr.Expand(byName["images"])
	assert.Zero(t, byName["images"].ChildCount())
	assert.True(t, byName["images"].Loaded())
}

func TestScanErrors(t *testing.T) {
	dir := testutil.Project(t, "proj", map[string]string{"a.c": ""})
	tr := New(filesystem.NewOS(nil), nil, nil)

	_, err := tr.Scan(filepath.Join(dir, "a.c"))
	var fe *filesystem.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "not a directory", fe.Reason)

	_, err = tr.Scan(filepath.Join(dir, "missing"))
	require.ErrorAs(t, err, &fe)
	assert.Nil(t, tr.Root())
}

func TestExpandIdempotent(t *testing.T) {
	tr, _ := newTree(t, map[string]string{
		"docs/notes.md":     "",
		"docs/guide/a.md":   "",
		"docs/zz.txt":       "",
		"docs/.git/config":  "",
		"docs/picture.jpeg": "",
	})
	docs := tr.Lookup("docs")
	require.NotNil(t, docs)

	tr.Expand(docs)
	once := childNames(docs)
	first := docs.Children()

	tr.Expand(docs)
	assert.Equal(t, once, childNames(docs))
	assert.Equal(t, first, docs.Children(), "second expand keeps the same nodes")

	assert.Equal(t, []string{"guide", "notes.md", "zz.txt"}, once)
	assert.True(t, docs.Loaded())
	assert.True(t, docs.Expanded())
	assert.True(t, docs.Child("guide").HasPlaceholder())
	assertPlaceholderInvariant(t, tr)
}

func TestExpandVanishedDirectory(t *testing.T) {
	tr, dir := newTree(t, map[string]string{"docs/notes.md": ""})
	docs := tr.Lookup("docs")
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "docs")))

	tr.Expand(docs)

	assert.True(t, docs.Loaded())
	assert.True(t, docs.Expanded())
	assert.Zero(t, docs.ChildCount())
}

func TestExpandIgnoresFilesAndPlaceholders(t *testing.T) {
	tr, _ := newTree(t, map[string]string{"a.c": "", "docs/x.md": ""})

	a := tr.Lookup("a.c")
	tr.Expand(a)
	assert.False(t, a.Expanded())

	placeholder := tr.Lookup("docs").Children()[0]
	tr.Expand(placeholder)
	assert.True(t, tr.Lookup("docs").HasPlaceholder())
}

func TestCollapseKeepsChildren(t *testing.T) {
	tr, _ := newTree(t, map[string]string{"docs/notes.md": ""})
	docs := tr.Lookup("docs")

	tr.Expand(docs)
	children := docs.Children()
	tr.Collapse(docs)

	assert.False(t, docs.Expanded())
	assert.Equal(t, children, docs.Children())
}

func TestRefresh(t *testing.T) {
	tr, dir := newTree(t, map[string]string{
		"src/main.go":      "",
		"src/pkg/util.go":  "",
		"src/pkg/deep/x.c": "",
	})
	src := tr.Lookup("src")
	tr.Expand(src)
	tr.Expand(src.Child("pkg"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "added.c"), nil, 0o644))

	tr.Refresh(src)

	assert.True(t, src.Expanded(), "own expanded state preserved")
	assert.Equal(t, []string{"pkg", "added.c", "main.go"}, childNames(src))
	pkg := src.Child("pkg")
	require.NotNil(t, pkg)
	assert.True(t, pkg.Expanded(), "expanded descendants re-expanded")
	assert.Equal(t, []string{"deep", "util.go"}, childNames(pkg))
	assertPlaceholderInvariant(t, tr)
}

func TestRefreshCollapsedKeepsState(t *testing.T) {
	tr, _ := newTree(t, map[string]string{"src/pkg/util.go": ""})
	src := tr.Lookup("src")
	tr.Expand(src)
	tr.Expand(src.Child("pkg"))
	tr.Collapse(src)

	tr.Refresh(src)

	assert.False(t, src.Expanded())
	assert.True(t, src.Child("pkg").Expanded())
}

func TestRefreshUnloadedRecomputesPlaceholder(t *testing.T) {
	tr, dir := newTree(t, map[string]string{"docs/": ""})
	docs := tr.Lookup("docs")
	assert.False(t, docs.HasPlaceholder())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "new.md"), nil, 0o644))
	tr.Refresh(docs)

	assert.True(t, docs.HasPlaceholder())
	assert.False(t, docs.Loaded())
}

func TestRefreshHook(t *testing.T) {
	tr, _ := newTree(t, map[string]string{"docs/a.md": ""})
	var refreshed []string
	tr.OnRefresh = func(n *Node) { refreshed = append(refreshed, n.RelPath()) }

	tr.Refresh(tr.Lookup("docs"))
	tr.Refresh(tr.Root())

	assert.Equal(t, []string{"docs", ""}, refreshed)
}

func TestCreateFile(t *testing.T) {
	tr, dir := newTree(t, map[string]string{"src/main.go": ""})
	src := tr.Lookup("src")

	n, err := tr.CreateFile(src, "util.go")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "src/util.go", n.RelPath())
	assert.True(t, testutil.Exists(filepath.Join(dir, "src", "util.go")))
	assert.True(t, src.Expanded())
	assert.Equal(t, []string{"main.go", "util.go"}, childNames(src))

	t.Run("file node targets its directory", func(t *testing.T) {
		n, err := tr.CreateFile(src.Child("main.go"), "other.go")
		require.NoError(t, err)
		assert.Equal(t, "src/other.go", n.RelPath())
	})

	t.Run("existing entry is not overwritten", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main"), 0o644))
		before := src.Children()

		_, err := tr.CreateFile(src, "main.go")
		var fe *filesystem.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "already exists", fe.Reason)
		assert.Equal(t, "package main", testutil.ReadFile(t, filepath.Join(dir, "src", "main.go")))
		assert.Equal(t, before, src.Children(), "tree untouched on failure")
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := tr.CreateFile(src, "../escape.go")
		assert.ErrorIs(t, err, filesystem.ErrInvalidName)
	})

	t.Run("filtered name yields no node", func(t *testing.T) {
		n, err := tr.CreateFile(src, "image.png")
		require.NoError(t, err)
		assert.Nil(t, n)
		assert.True(t, testutil.Exists(filepath.Join(dir, "src", "image.png")))
	})

	t.Run("nil parent targets root", func(t *testing.T) {
		n, err := tr.CreateFile(nil, "top.c")
		require.NoError(t, err)
		assert.Equal(t, "top.c", n.RelPath())
	})
}

func TestCreateDirectoryFailureLeavesTree(t *testing.T) {
	dir := testutil.Project(t, "proj", map[string]string{"a.c": ""})
	fsys := testutil.NewFaultFS(filesystem.NewOS(nil))
	tr := New(fsys, nil, nil)
	_, err := tr.Scan(dir)
	require.NoError(t, err)
	before := tr.Root().Children()

	fsys.Fail("mkdir", os.ErrPermission)
	_, err = tr.CreateDirectory(nil, "lib")

	var fe *filesystem.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "permission denied", fe.Reason)
	assert.Equal(t, before, tr.Root().Children())

	fsys.Fail("mkdir", nil)
	n, err := tr.CreateDirectory(nil, "lib")
	require.NoError(t, err)
	assert.Equal(t, Directory, n.Kind())
	assert.False(t, n.HasPlaceholder())
}

func TestRename(t *testing.T) {
	tr, dir := newTree(t, map[string]string{
		"docs/notes.md": "",
		"docs/sub/a.md": "",
		"manual/":       "",
		"a.c":           "",
	})
	docs := tr.Lookup("docs")
	tr.Expand(docs)

	renamed, err := tr.Rename(docs, "guide")
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, "guide", renamed.Name())
	assert.True(t, renamed.Expanded(), "expanded directory stays expanded")
	assert.Equal(t, []string{"sub", "notes.md"}, childNames(renamed))
	assert.Nil(t, tr.Lookup("docs"))
	assert.True(t, testutil.Exists(filepath.Join(dir, "guide", "notes.md")))

	t.Run("collision", func(t *testing.T) {
		_, err := tr.Rename(renamed, "manual")
		var fe *filesystem.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "already exists", fe.Reason)
		assert.NotNil(t, tr.Lookup("guide"))
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		a := tr.Lookup("a.c")
		got, err := tr.Rename(a, "a.c")
		require.NoError(t, err)
		assert.Same(t, a, got)
	})

	t.Run("root cannot be renamed", func(t *testing.T) {
		_, err := tr.Rename(tr.Root(), "other")
		assert.Error(t, err)
	})
}

func TestDeleteExpandedDirectory(t *testing.T) {
	tr, dir := newTree(t, map[string]string{
		"a.c":               "",
		"docs/notes.md":     "",
		"docs/deep/more.md": "",
	})
	docs := tr.Lookup("docs")
	tr.Expand(docs)
	tr.Expand(docs.Child("deep"))

	require.NoError(t, tr.Delete(docs))

	assert.Equal(t, []string{"a.c"}, childNames(tr.Root()))
	assert.False(t, testutil.Exists(filepath.Join(dir, "docs")))
}

func TestDeleteFailureStillRefreshes(t *testing.T) {
	dir := testutil.Project(t, "proj", map[string]string{"a.c": "", "b.c": ""})
	fsys := testutil.NewFaultFS(filesystem.NewOS(nil))
	tr := New(fsys, nil, nil)
	_, err := tr.Scan(dir)
	require.NoError(t, err)

	// Something else removed b.c; the failed delete of a.c must still
	// resync the parent.
	require.NoError(t, os.Remove(filepath.Join(dir, "b.c")))
	fsys.Fail("remove", os.ErrPermission)

	err = tr.Delete(tr.Lookup("a.c"))
	var fe *filesystem.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"a.c"}, childNames(tr.Root()))
}

func TestDeleteAlreadyGone(t *testing.T) {
	tr, dir := newTree(t, map[string]string{"a.c": ""})
	require.NoError(t, os.Remove(filepath.Join(dir, "a.c")))

	assert.NoError(t, tr.Delete(tr.Lookup("a.c")))
	assert.Empty(t, childNames(tr.Root()))
}

func TestIgnoreFile(t *testing.T) {
	dir := testutil.Project(t, "proj", map[string]string{
		".flickignore":     "# generated code\ngenerated/\n**/*_test.go\n",
		"generated/out.go": "",
		"pkg/api.go":       "",
		"pkg/api_test.go":  "",
		"main.go":          "",
	})
	tr := New(filesystem.NewOS(nil), nil, nil)
	tr.SetIgnoreFile(".flickignore")
	_, err := tr.Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"pkg", "main.go"}, childNames(tr.Root()))
	pkg := tr.Lookup("pkg")
	tr.Expand(pkg)
	assert.Equal(t, []string{"api.go"}, childNames(pkg))
}

func TestCollapseAllExpandAll(t *testing.T) {
	tr, _ := newTree(t, map[string]string{"a/x.c": "", "b/y.c": "", "c.c": ""})

	tr.ExpandAll()
	for _, n := range tr.Root().Children() {
		if n.IsDir() {
			assert.True(t, n.Expanded(), n.Name())
		}
	}

	tr.CollapseAll()
	for _, n := range tr.Root().Children() {
		assert.False(t, n.Expanded(), n.Name())
	}
}

func TestVisibleAndLoadedDirs(t *testing.T) {
	tr, dir := newTree(t, map[string]string{"a/x.c": "", "a/b/y.c": "", "z.c": ""})
	tr.Expand(tr.Lookup("a"))

	var rows []string
	for _, r := range tr.Visible() {
		rows = append(rows, r.Node.RelPath())
	}
	assert.Equal(t, []string{"a", "a/b", "a/x.c", "z.c"}, rows)
	assert.Equal(t, 1, tr.Visible()[1].Depth)

	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "a")}, tr.LoadedDirs())
}

func TestEmptyTreeIsSafe(t *testing.T) {
	tr := New(filesystem.NewOS(nil), nil, nil)

	assert.Nil(t, tr.Root())
	assert.Nil(t, tr.Lookup("a"))
	assert.Nil(t, tr.Visible())
	assert.Nil(t, tr.ExpandedPaths())
	assert.Zero(t, tr.RestoreExpanded([]string{"a"}))
	tr.CollapseAll()
	tr.ExpandAll()

	_, err := tr.CreateFile(nil, "x.c")
	assert.True(t, errors.As(err, new(*filesystem.Error)))
}
