package storage

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Record names, also used as metric labels.
const (
	RecordLastFile   = "last"
	RecordLastFolder = "last_folder"
	RecordTabs       = "tabs"
	RecordExpansion  = "tree_expansion"
	RecordFontSize   = "fontsize"
	RecordTheme      = "theme"
	RecordGeometry   = "window_state"
	RecordTreeWidth  = "tree_width"
)

// TabEntry is one persisted tab.
type TabEntry struct {
	Path     string
	Modified bool
}

// TabList is the persisted tab order plus the active path.
type TabList struct {
	Active string
	Tabs   []TabEntry
}

// Empty reports whether nothing was persisted.
func (l TabList) Empty() bool {
	return len(l.Tabs) == 0
}

// EncodeTabs renders l in the record format.
func EncodeTabs(l TabList) []byte {
	var b strings.Builder
	if l.Active != "" {
		fmt.Fprintf(&b, "ACTIVE:%s\n", l.Active)
	}
	for _, t := range l.Tabs {
		flag := 0
		if t.Modified {
			flag = 1
		}
		fmt.Fprintf(&b, "TAB:%s|%d\n", t.Path, flag)
	}
	return []byte(b.String())
}

// DecodeTabs parses the tab record. Unknown and blank lines are skipped.
// The flag is split at the last "|" so paths may contain "|".
func DecodeTabs(data []byte) TabList {
	var l TabList
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "ACTIVE:"):
			l.Active = strings.TrimPrefix(line, "ACTIVE:")
		case strings.HasPrefix(line, "TAB:"):
			rest := strings.TrimPrefix(line, "TAB:")
			entry := TabEntry{Path: rest}
			if i := strings.LastIndex(rest, "|"); i >= 0 {
				entry.Path = rest[:i]
				entry.Modified = rest[i+1:] == "1"
			}
			if entry.Path != "" {
				l.Tabs = append(l.Tabs, entry)
			}
		}
	}
	return l
}

// Theme is the persisted color theme ordinal.
type Theme int

const (
	Dark Theme = iota
	Light
)

func (t Theme) String() string {
	if t == Light {
		return "light"
	}
	return "dark"
}

// ParseTheme accepts "dark" or "light".
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return Dark, nil
	case "light":
		return Light, nil
	}
	return Dark, fmt.Errorf("unknown theme %q", s)
}

// Size is a screen or minimum window size.
type Size struct {
	Width, Height int
}

// Geometry is the window's position and size.
type Geometry struct {
	X, Y, W, H int
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d %d %d %d", g.X, g.Y, g.W, g.H)
}

// ParseGeometry reads "x y w h".
func ParseGeometry(s string) (Geometry, error) {
	var g Geometry
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d %d %d %d", &g.X, &g.Y, &g.W, &g.H); err != nil {
		return Geometry{}, fmt.Errorf("invalid geometry %q: %w", s, err)
	}
	return g, nil
}

// Clamp enforces the minimum size, fits the window on screen and keeps the
// origin non-negative.
func (g Geometry) Clamp(screen, minimum Size) Geometry {
	g.W = max(g.W, minimum.Width)
	g.H = max(g.H, minimum.Height)
	if screen.Width > 0 {
		g.W = min(g.W, max(screen.Width, minimum.Width))
		g.X = min(g.X, screen.Width-g.W)
	}
	if screen.Height > 0 {
		g.H = min(g.H, max(screen.Height, minimum.Height))
		g.Y = min(g.Y, screen.Height-g.H)
	}
	g.X = max(g.X, 0)
	g.Y = max(g.Y, 0)
	return g
}

// EncodeLines joins values one per line.
func EncodeLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// DecodeLines splits a record into non-blank lines.
func DecodeLines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func parseInt(data []byte) (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
