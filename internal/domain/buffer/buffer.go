// Package buffer holds the live text buffer bound to the editing surface.
package buffer

import (
	"errors"
	"strings"
)

var (
	// ErrOutOfRange is returned for edits outside the buffer.
	ErrOutOfRange = errors.New("edit out of range")
	// ErrMismatch is returned when the text an edit expects to replace is
	// not what the buffer holds.
	ErrMismatch = errors.New("edit does not match buffer content")
)

// Change describes one mutation: Removed was replaced by Inserted at
// Offset. Load reports the whole previous text as Removed.
type Change struct {
	Offset   int
	Removed  string
	Inserted string
}

// Listener observes buffer mutations.
type Listener func(Change)

type editOp struct {
	offset  int
	oldText string
	newText string
}

// Live is the single editable buffer. It never marks itself modified; its
// listeners decide whether a change counts as a user edit.
type Live struct {
	text      string
	modified  bool
	undoStack []editOp
	redoStack []editOp
	listeners []Listener
}

// New creates an empty buffer.
func New() *Live {
	return &Live{}
}

// Subscribe registers fn for every subsequent mutation.
func (b *Live) Subscribe(fn Listener) {
	b.listeners = append(b.listeners, fn)
}

func (b *Live) notify(c Change) {
	for _, fn := range b.listeners {
		fn(c)
	}
}

func (b *Live) Text() string   { return b.text }
func (b *Live) Len() int       { return len(b.text) }
func (b *Live) Modified() bool { return b.modified }

// SetModified sets the modified flag and reports whether it changed.
func (b *Live) SetModified(modified bool) bool {
	if b.modified == modified {
		return false
	}
	b.modified = modified
	return true
}

// Lines returns the number of lines; an empty buffer has one.
func (b *Live) Lines() int {
	return strings.Count(b.text, "\n") + 1
}

// Load replaces the whole content and drops undo history.
func (b *Live) Load(text string) {
	old := b.text
	b.text = text
	b.undoStack = nil
	b.redoStack = nil
	b.notify(Change{Removed: old, Inserted: text})
}

// Clear empties the buffer.
func (b *Live) Clear() {
	b.Load("")
}

// Insert inserts s at offset.
func (b *Live) Insert(offset int, s string) error {
	return b.Replace(offset, "", s)
}

// Delete removes n bytes at offset.
func (b *Live) Delete(offset, n int) error {
	if n < 0 || offset < 0 || offset+n > len(b.text) {
		return ErrOutOfRange
	}
	return b.Replace(offset, b.text[offset:offset+n], "")
}

// Replace swaps oldText at offset for newText and records it for undo.
func (b *Live) Replace(offset int, oldText, newText string) error {
	if offset < 0 || offset+len(oldText) > len(b.text) {
		return ErrOutOfRange
	}
	if b.text[offset:offset+len(oldText)] != oldText {
		return ErrMismatch
	}
	if oldText == newText {
		return nil
	}
	b.undoStack = append(b.undoStack, editOp{offset: offset, oldText: oldText, newText: newText})
	b.redoStack = nil
	b.apply(offset, oldText, newText)
	return nil
}

// SetText replaces the whole content as a user edit (paste-all, external
// formatter). Unlike Load it is undoable.
func (b *Live) SetText(text string) {
	_ = b.Replace(0, b.text, text)
}

func (b *Live) apply(offset int, oldText, newText string) {
	b.text = b.text[:offset] + newText + b.text[offset+len(oldText):]
	b.notify(Change{Offset: offset, Removed: oldText, Inserted: newText})
}

// Undo reverses the last edit. It reports false when there is nothing to
// undo.
func (b *Live) Undo() bool {
	if len(b.undoStack) == 0 {
		return false
	}
	op := b.undoStack[len(b.undoStack)-1]
	b.undoStack = b.undoStack[:len(b.undoStack)-1]
	b.apply(op.offset, op.newText, op.oldText)
	b.redoStack = append(b.redoStack, op)
	return true
}

// Redo reapplies the last undone edit.
func (b *Live) Redo() bool {
	if len(b.redoStack) == 0 {
		return false
	}
	op := b.redoStack[len(b.redoStack)-1]
	b.redoStack = b.redoStack[:len(b.redoStack)-1]
	b.apply(op.offset, op.oldText, op.newText)
	b.undoStack = append(b.undoStack, op)
	return true
}

func (b *Live) CanUndo() bool { return len(b.undoStack) > 0 }
func (b *Live) CanRedo() bool { return len(b.redoStack) > 0 }
