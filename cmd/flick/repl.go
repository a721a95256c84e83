package main

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/jjiill888/Flick/internal/domain/session"
	"github.com/jjiill888/Flick/internal/domain/tree"
	"github.com/jjiill888/Flick/internal/providers/filesystem"
	"go.uber.org/zap"
)

// console prints session notifications.
type console struct {
	out io.Writer
	log *zap.Logger
}

func (c *console) TreeChanged(n *tree.Node) {
	c.log.Debug("Tree changed", zap.String("node", n.RelPath()))
}

func (c *console) ActiveTabChanged(p string) {
	if p == "" {
		fmt.Fprintln(c.out, "active: untitled")
		return
	}
	fmt.Fprintf(c.out, "active: %s\n", p)
}

func (c *console) ModifiedChanged(modified bool) {
	if modified {
		fmt.Fprintln(c.out, "modified")
	}
}

func (c *console) ReportError(err error) {
	fmt.Fprintf(c.out, "error: %v\n", err)
}

// repl executes one command line at a time on the session goroutine.
type repl struct {
	out  io.Writer
	quit func()
	done bool
}

type handler func(r *repl, s *session.Session, args []string) error

var commands = map[string]handler{
	"tree":     (*repl).tree,
	"tabs":     (*repl).tabs,
	"folder":   (*repl).folder,
	"open":     (*repl).open,
	"switch":   (*repl).activate,
	"close":    (*repl).close,
	"save":     (*repl).save,
	"append":   (*repl).append,
	"undo":     (*repl).undo,
	"redo":     (*repl).redo,
	"expand":   (*repl).expand,
	"collapse": (*repl).collapse,
	"mkdir":    (*repl).mkdir,
	"touch":    (*repl).touch,
	"mv":       (*repl).move,
	"rm":       (*repl).remove,
	"stats":    (*repl).stats,
	"quit":     (*repl).exit,
}

var errUsage = errors.New("usage")

func (r *repl) execute(s *session.Session, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	h, ok := commands[fields[0]]
	if !ok {
		fmt.Fprintf(r.out, "unknown command %q\n", fields[0])
		return
	}
	err := h(r, s, fields[1:])
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintln(r.out, err)
	case errors.Is(err, session.ErrUnsavedChanges):
		fmt.Fprintf(r.out, "unsaved changes: repeat with save or discard\n")
	case errors.Is(err, session.ErrLoadPending):
		fmt.Fprintln(r.out, "loading")
	default:
		// filesystem errors already reached the sink
		var fe *filesystem.Error
		if !errors.As(err, &fe) {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

func choice(args []string, at int) (session.Choice, bool) {
	if len(args) <= at {
		return session.Cancel, false
	}
	switch args[at] {
	case "save":
		return session.Save, true
	case "discard":
		return session.Discard, true
	}
	return session.Cancel, false
}

func (r *repl) tree(s *session.Session, _ []string) error {
	if s.Tree().Root() == nil {
		return session.ErrNoFolder
	}
	for _, row := range s.Tree().Visible() {
		marker := " "
		switch {
		case row.Node.IsDir() && row.Node.Expanded():
			marker = "-"
		case row.Node.IsDir():
			marker = "+"
		}
		fmt.Fprintf(r.out, "%s%s %s\n", strings.Repeat("  ", row.Depth), marker, row.Node.Name())
	}
	return nil
}

func (r *repl) tabs(s *session.Session, _ []string) error {
	for _, t := range s.Tabs() {
		flags := ""
		if t.Active {
			flags += "*"
		}
		if t.Modified {
			flags += "+"
		}
		fmt.Fprintf(r.out, "%-2s %s\n", flags, t.Path)
	}
	return nil
}

func (r *repl) folder(s *session.Session, args []string) error {
	if len(args) < 1 {
		return usage("folder <dir> [save|discard]")
	}
	if c, ok := choice(args, 1); ok {
		return s.ResolveOpenFolder(args[0], c)
	}
	return s.OpenFolder(args[0])
}

func (r *repl) open(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("open <path>")
	}
	return s.Open(r.resolve(s, args[0]))
}

func (r *repl) activate(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("switch <path>")
	}
	return s.Activate(r.resolve(s, args[0]))
}

func (r *repl) close(s *session.Session, args []string) error {
	if len(args) < 1 {
		return usage("close <path> [save|discard]")
	}
	p := r.resolve(s, args[0])
	if c, ok := choice(args, 1); ok {
		return s.ResolveClose(p, c)
	}
	return s.Close(p)
}

func (r *repl) save(s *session.Session, args []string) error {
	if len(args) == 1 {
		return s.SaveAs(r.resolve(s, args[0]))
	}
	return s.Save()
}

func (r *repl) append(s *session.Session, args []string) error {
	text := strings.Join(args, " ") + "\n"
	return s.Live().Insert(s.Live().Len(), text)
}

func (r *repl) undo(s *session.Session, _ []string) error {
	s.Live().Undo()
	return nil
}

func (r *repl) redo(s *session.Session, _ []string) error {
	s.Live().Redo()
	return nil
}

func (r *repl) expand(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("expand <rel>")
	}
	n := s.Reveal(args[0])
	if n == nil {
		return fmt.Errorf("no such entry: %s", args[0])
	}
	s.Expand(n)
	return nil
}

func (r *repl) collapse(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("collapse <rel>")
	}
	n, err := r.lookup(s, args[0])
	if err != nil {
		return err
	}
	s.Collapse(n)
	return nil
}

func (r *repl) mkdir(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("mkdir <rel>")
	}
	parent, name, err := r.split(s, args[0])
	if err != nil {
		return err
	}
	_, err = s.CreateDirectory(parent, name)
	return err
}

func (r *repl) touch(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("touch <rel>")
	}
	parent, name, err := r.split(s, args[0])
	if err != nil {
		return err
	}
	_, err = s.CreateFile(parent, name)
	return err
}

func (r *repl) move(s *session.Session, args []string) error {
	if len(args) != 2 {
		return usage("mv <rel> <name>")
	}
	n, err := r.lookup(s, args[0])
	if err != nil {
		return err
	}
	_, err = s.Rename(n, args[1])
	return err
}

func (r *repl) remove(s *session.Session, args []string) error {
	if len(args) != 1 {
		return usage("rm <rel>")
	}
	n, err := r.lookup(s, args[0])
	if err != nil {
		return err
	}
	return s.Delete(n)
}

func (r *repl) stats(s *session.Session, _ []string) error {
	snap := s.Metrics().Snapshot()
	fmt.Fprintf(r.out, "tabs=%d loads=%d stale=%d persist_errors=%d pending=%d\n",
		snap.TabsOpen, snap.Loads, snap.StaleLoads, snap.PersistErrors, s.Pending())
	return nil
}

func (r *repl) exit(s *session.Session, args []string) error {
	var err error
	if c, ok := choice(args, 0); ok {
		err = s.ResolveShutdown(c)
	} else {
		err = s.Shutdown()
	}
	if err != nil {
		return err
	}
	r.done = true
	r.quit()
	return nil
}

// resolve maps a path relative to the open folder to an absolute one.
// Absolute paths and paths without an open folder pass through.
func (r *repl) resolve(s *session.Session, p string) string {
	folder := s.Tree().Folder()
	if folder == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(folder, filepath.FromSlash(p))
}

func (r *repl) lookup(s *session.Session, rel string) (*tree.Node, error) {
	if s.Tree().Root() == nil {
		return nil, session.ErrNoFolder
	}
	n := s.Tree().Lookup(rel)
	if n == nil {
		return nil, fmt.Errorf("no such entry: %s", rel)
	}
	return n, nil
}

// split resolves the parent of rel, revealing it, and returns the last
// segment as the new entry's name.
func (r *repl) split(s *session.Session, rel string) (*tree.Node, string, error) {
	if s.Tree().Root() == nil {
		return nil, "", session.ErrNoFolder
	}
	dir, name := path.Split(strings.TrimSuffix(rel, "/"))
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		return s.Tree().Root(), name, nil
	}
	parent := s.Reveal(dir)
	if parent == nil || !parent.IsDir() {
		return nil, "", fmt.Errorf("no such directory: %s", dir)
	}
	return parent, name, nil
}
