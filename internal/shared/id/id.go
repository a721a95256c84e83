// Package id provides ULID-based identifiers for engine instances and
// asynchronous file loads.
//
// IDs are prefixed for readable logs (sess_*, load_*) and lexicographically
// sortable, so load IDs issued by one generator order the same way the
// requests were made.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Typed IDs
// ============================================================================

// SessionID identifies one running engine instance
type SessionID string

// LoadID identifies one asynchronous file read
type LoadID string

const (
	SessionPrefix = "sess"
	LoadPrefix    = "load"
)

func (id SessionID) String() string { return string(id) }
func (id LoadID) String() string    { return string(id) }

// ============================================================================
// Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with monotonic entropy, so IDs created
// within the same millisecond still sort in creation order.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewLoadID generates a new load ID
func (g *Generator) NewLoadID() LoadID {
	return LoadID(g.GenerateWithPrefix(LoadPrefix))
}

// ============================================================================
// Parsing
// ============================================================================

// Parse parses a ULID, accepting an optional "<prefix>_" in front of it.
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// IsValid reports whether id (prefixed or not) carries a valid ULID
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
