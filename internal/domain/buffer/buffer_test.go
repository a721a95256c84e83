package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdits(t *testing.T) {
	b := New()
	require.NoError(t, b.Insert(0, "hello world"))
	require.NoError(t, b.Replace(6, "world", "gophers"))
	require.NoError(t, b.Delete(0, 6))

	assert.Equal(t, "gophers", b.Text())
	assert.Equal(t, 7, b.Len())
	assert.False(t, b.Modified(), "the buffer never marks itself modified")
}

func TestEditErrors(t *testing.T) {
	b := New()
	b.Load("abc")

	assert.ErrorIs(t, b.Insert(4, "x"), ErrOutOfRange)
	assert.ErrorIs(t, b.Insert(-1, "x"), ErrOutOfRange)
	assert.ErrorIs(t, b.Delete(2, 5), ErrOutOfRange)
	assert.ErrorIs(t, b.Replace(0, "xyz", "q"), ErrMismatch)
	assert.Equal(t, "abc", b.Text())
}

func TestUndoRedo(t *testing.T) {
	b := New()
	require.NoError(t, b.Insert(0, "one"))
	require.NoError(t, b.Insert(3, " two"))

	assert.True(t, b.Undo())
	assert.Equal(t, "one", b.Text())
	assert.True(t, b.Undo())
	assert.Equal(t, "", b.Text())
	assert.False(t, b.Undo())

	assert.True(t, b.Redo())
	assert.Equal(t, "one", b.Text())
	assert.True(t, b.CanRedo())

	require.NoError(t, b.Insert(3, "!"))
	assert.False(t, b.CanRedo(), "new edit clears redo")
}

func TestLoadResetsHistory(t *testing.T) {
	b := New()
	require.NoError(t, b.Insert(0, "draft"))
	b.Load("from disk")

	assert.Equal(t, "from disk", b.Text())
	assert.False(t, b.CanUndo())
	assert.False(t, b.Undo())
}

func TestListeners(t *testing.T) {
	b := New()
	var changes []Change
	b.Subscribe(func(c Change) { changes = append(changes, c) })

	b.Load("abc")
	require.NoError(t, b.Insert(3, "d"))
	require.NoError(t, b.Replace(0, "a", "a"))
	b.Undo()
	b.Clear()

	require.Len(t, changes, 4)
	assert.Equal(t, Change{Removed: "", Inserted: "abc"}, changes[0])
	assert.Equal(t, Change{Offset: 3, Inserted: "d"}, changes[1])
	assert.Equal(t, Change{Offset: 3, Removed: "d"}, changes[2])
	assert.Equal(t, Change{Removed: "abc"}, changes[3])
}

func TestSetModified(t *testing.T) {
	b := New()

	assert.True(t, b.SetModified(true))
	assert.False(t, b.SetModified(true))
	assert.True(t, b.Modified())
	assert.True(t, b.SetModified(false))
}

func TestSetTextIsUndoable(t *testing.T) {
	b := New()
	b.Load("before")
	b.SetText("after")

	assert.Equal(t, "after", b.Text())
	assert.True(t, b.Undo())
	assert.Equal(t, "before", b.Text())
}

func TestLines(t *testing.T) {
	b := New()
	assert.Equal(t, 1, b.Lines())
	b.Load("a\nb\nc")
	assert.Equal(t, 3, b.Lines())
}
