package tree

import (
	"bufio"
	"bytes"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
)

// DefaultIgnore lists version-control, dependency, build-output and OS
// metadata names hidden from the tree.
var DefaultIgnore = []string{
	".git", ".svn", ".hg", ".bzr",
	"node_modules", "vendor", "target", "build", "dist",
	".cache", ".tmp", ".temp", "__pycache__",
	".DS_Store", "Thumbs.db", "desktop.ini",
}

// DefaultExtensions lists the file extensions shown in the tree.
var DefaultExtensions = []string{
	".c", ".cpp", ".cc", ".cxx", ".h", ".hpp", ".hxx",
	".java", ".py", ".js", ".ts", ".html", ".css", ".scss",
	".php", ".rb", ".go", ".rs", ".swift", ".kt", ".scala",
	".cs", ".vb", ".sql",
	".sh", ".bash", ".zsh", ".fish",
	".cmake", ".make", ".mk",
	".md", ".txt", ".json", ".xml", ".yaml", ".yml", ".toml",
	".ini", ".cfg", ".conf",
}

// Filter decides which directory entries appear in the tree. Ignore
// patterns are doublestar globs matched against both the entry name and
// its root-relative path; the extension allow-set applies to files only.
type Filter struct {
	patterns   []string
	extensions map[string]struct{}
}

// NewFilter builds a filter. Invalid patterns are dropped.
func NewFilter(ignore, extensions []string) *Filter {
	f := &Filter{extensions: make(map[string]struct{}, len(extensions))}
	for _, p := range ignore {
		if doublestar.ValidatePattern(p) {
			f.patterns = append(f.patterns, p)
		}
	}
	for _, ext := range extensions {
		f.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return f
}

// DefaultFilter returns the built-in ignore and allow sets.
func DefaultFilter() *Filter {
	return NewFilter(DefaultIgnore, DefaultExtensions)
}

// WithPatterns returns a copy of f with extra ignore patterns.
func (f *Filter) WithPatterns(patterns ...string) *Filter {
	out := &Filter{
		patterns:   append([]string(nil), f.patterns...),
		extensions: f.extensions,
	}
	for _, p := range patterns {
		if doublestar.ValidatePattern(p) {
			out.patterns = append(out.patterns, p)
		}
	}
	return out
}

// Ignored reports whether the entry at rel (root-relative, "/"-separated)
// is hidden.
func (f *Filter) Ignored(rel string) bool {
	name := path.Base(rel)
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Allowed reports whether e passes the allow-set.
func (f *Filter) Allowed(e filesystem.Entry) bool {
	if e.IsDir {
		return true
	}
	ext := strings.ToLower(path.Ext(e.Name))
	if ext == "" {
		return false
	}
	_, ok := f.extensions[ext]
	return ok
}

// Visible combines Ignored and Allowed.
func (f *Filter) Visible(rel string, e filesystem.Entry) bool {
	return !f.Ignored(rel) && f.Allowed(e)
}

// ParseIgnore reads ignore-file content: one pattern per line, blank lines
// and "#" comments skipped, a trailing "/" dropped.
func ParseIgnore(data []byte) []string {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		if line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}
