package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before one trial call.
	Cooldown time.Duration
	// OnStateChange is called with the breaker lock held; it must not call
	// back into the breaker.
	OnStateChange func(name string, from, to State)
}

// Breaker stops calling a failing operation for a cooldown period.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// New creates a breaker. Zero settings default to five failures and a
// thirty second cooldown.
func New(name string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{name: name, settings: settings, now: time.Now}
}

func (b *Breaker) Name() string { return b.name }

// State returns the current state, moving an expired open breaker to
// half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// Failures returns the current run of consecutive failures.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Do runs fn unless the breaker is open. In half-open state a single trial
// call is let through; its outcome closes or reopens the breaker.
func (b *Breaker) Do(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err == nil)
	return err
}

// Reset closes the breaker and clears its counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.trial = false
	b.setState(StateClosed)
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.trial {
			return ErrOpen
		}
		b.trial = true
	}
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trial = false
	if success {
		b.failures = 0
		b.setState(StateClosed)
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.settings.Threshold {
		b.openedAt = b.now()
		b.setState(StateOpen)
	}
}

func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.setState(StateHalfOpen)
	}
}

func (b *Breaker) setState(state State) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
