package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		binary bool
	}{
		{"empty", []byte{}, false},
		{"c source", []byte("int main(void) {\n\treturn 0;\n}\n"), false},
		{"markdown", []byte("# Title\n\nSome *text*.\n"), false},
		{"json", []byte(`{"name": "flick", "tabs": [1, 2]}`), false},
		{"utf8 text", []byte("héllo wörld\n"), false},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"), true},
		{"nul bytes", []byte{0x00, 0x01, 0x02, 0x00, 0xff, 0xfe, 0x00, 0x00}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Detect(tt.data)
			assert.NotEmpty(t, meta.MIME)
			if tt.binary {
				assert.ErrorIs(t, err, ErrBinary)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "utf-8", meta.Charset)
		})
	}
}

func TestDetectCharsetTruncatedSample(t *testing.T) {
	// A multi-byte rune straddling the sample limit must not flip the
	// result away from UTF-8.
	data := strings.Repeat("a", sniffLimit-1) + "é" + "tail"
	assert.Equal(t, "utf-8", DetectCharset([]byte(data)))
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fs.ErrNotExist, "no such file or directory"},
		{fs.ErrExist, "already exists"},
		{fs.ErrPermission, "permission denied"},
		{syscall.ENOSPC, "disk full"},
		{ErrBinary, "binary file"},
		{fmt.Errorf("wrapped: %w", ErrInvalidName), "invalid name"},
		{&fs.PathError{Op: "open", Path: "/x", Err: errors.New("weird")}, "weird"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("read", "/x", nil))

	err := Wrap("read", "/x", fs.ErrNotExist)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "read /x: no such file or directory", err.Error())

	assert.Same(t, err, Wrap("open", "/y", err), "already wrapped errors pass through")
}

func TestValidName(t *testing.T) {
	for _, ok := range []string{"main.go", ".env", "file with spaces.txt"} {
		assert.NoError(t, ValidName(ok), ok)
	}
	for _, bad := range []string{"", "  ", ".", "..", "a/b", "nul\x00"} {
		assert.ErrorIs(t, ValidName(bad), ErrInvalidName, bad)
	}
}

func TestWithinAndRebase(t *testing.T) {
	root := filepath.FromSlash("/proj/docs")

	assert.True(t, Within(root, root))
	assert.True(t, Within(root, filepath.Join(root, "notes.md")))
	assert.False(t, Within(root, filepath.FromSlash("/proj/docs2/notes.md")))
	assert.False(t, Within(root, filepath.FromSlash("/proj")))

	got, ok := Rebase(filepath.Join(root, "a", "b.md"), root, filepath.FromSlash("/proj/manual"))
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/proj/manual/a/b.md"), got)

	_, ok = Rebase(filepath.FromSlash("/other/x"), root, "/proj/manual")
	assert.False(t, ok)
}
