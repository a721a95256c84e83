package storage

import "fmt"

// Error is a failed record read or write. It never blocks editing.
type Error struct {
	Record string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s %s record: %v", e.Op, e.Record, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
