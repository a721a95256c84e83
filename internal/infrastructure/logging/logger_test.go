package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New(Config{Level: "debug", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestFromLevelFallsBack(t *testing.T) {
	log := FromLevel("chatty", false)
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Info("discarded")
	log.Close()
}

func TestEncoding(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.WarnLevel, Time: time.Unix(0, 0), Message: "hello"}

	t.Run("development console is uncoloured", func(t *testing.T) {
		name, cfg := encoding(true)
		require.Equal(t, "console", name)
		buf, err := zapcore.NewConsoleEncoder(cfg).EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "WARN")
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("production json", func(t *testing.T) {
		name, cfg := encoding(false)
		require.Equal(t, "json", name)
		buf, err := zapcore.NewJSONEncoder(cfg).EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})
}
