package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBreaker(settings Settings) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1700000000, 0)}
	b := New("test", settings)
	b.now = c.now
	return b, c
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		calls    []func() error
		expected State
		failures int
	}{
		{
			name:     "stays closed on successes",
			calls:    []func() error{succeed, succeed, succeed},
			expected: StateClosed,
		},
		{
			name:     "success resets the failure run",
			calls:    []func() error{fail, fail, succeed, fail},
			expected: StateClosed,
			failures: 1,
		},
		{
			name:     "opens after consecutive failures",
			calls:    []func() error{fail, fail, fail},
			expected: StateOpen,
			failures: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBreaker(Settings{Threshold: 3, Cooldown: time.Minute})
			for _, call := range tt.calls {
				_ = b.Do(call)
			}
			assert.Equal(t, tt.expected, b.State())
			assert.Equal(t, tt.failures, b.Failures())
		})
	}
}

func TestOpenBreakerRejectsCalls(t *testing.T) {
	b, _ := newBreaker(Settings{Threshold: 1, Cooldown: time.Minute})
	require.ErrorIs(t, b.Do(fail), errBoom)

	called := false
	err := b.Do(func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestHalfOpenTrial(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		b, c := newBreaker(Settings{Threshold: 1, Cooldown: time.Minute})
		_ = b.Do(fail)
		c.advance(time.Minute)

		assert.Equal(t, StateHalfOpen, b.State())
		require.NoError(t, b.Do(succeed))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("failure reopens", func(t *testing.T) {
		b, c := newBreaker(Settings{Threshold: 3, Cooldown: time.Minute})
		for i := 0; i < 3; i++ {
			_ = b.Do(fail)
		}
		c.advance(time.Minute)

		require.ErrorIs(t, b.Do(fail), errBoom)
		assert.Equal(t, StateOpen, b.State())

		c.advance(30 * time.Second)
		assert.ErrorIs(t, b.Do(succeed), ErrOpen)
	})

	t.Run("one trial at a time", func(t *testing.T) {
		b, c := newBreaker(Settings{Threshold: 1, Cooldown: time.Minute})
		_ = b.Do(fail)
		c.advance(time.Minute)

		var inner error
		err := b.Do(func() error {
			inner = b.Do(succeed)
			return nil
		})

		require.NoError(t, err)
		assert.ErrorIs(t, inner, ErrOpen)
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	b, c := newBreaker(Settings{
		Threshold: 2,
		Cooldown:  time.Second,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = b.Do(fail)
	_ = b.Do(fail)
	c.advance(time.Second)
	_ = b.Do(succeed)

	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half-open",
		"test:half-open->closed",
	}, transitions)
}

func TestReset(t *testing.T) {
	b, _ := newBreaker(Settings{Threshold: 1})
	_ = b.Do(fail)
	require.Equal(t, StateOpen, b.State())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Failures())
	assert.NoError(t, b.Do(succeed))
}

func TestDefaults(t *testing.T) {
	b := New("defaults", Settings{})
	assert.Equal(t, 5, b.settings.Threshold)
	assert.Equal(t, 30*time.Second, b.settings.Cooldown)
	assert.Equal(t, "defaults", b.Name())
}
