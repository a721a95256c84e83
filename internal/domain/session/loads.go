package session

import (
	"context"
	"time"

	"github.com/jjiill888/Flick/internal/domain/tabs"
	"github.com/jjiill888/Flick/internal/shared/id"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// loadResult is a finished background read.
type loadResult struct {
	id       id.LoadID
	path     string
	seq      uint64
	doc      tabs.Document
	err      error
	duration time.Duration
}

// startLoad reads path on a worker goroutine. A newer request for the same
// path supersedes any older one still in flight. Sequence numbers are
// session-wide and never reused.
func (s *Session) startLoad(path string) {
	s.lastSeq++
	seq := s.lastSeq
	s.seq[path] = seq
	s.inflight++
	if s.mode == ModeIdle {
		s.mode = ModeLoading
	}

	lid := s.ids.NewLoadID()
	s.log.Debug("Large file load started",
		zap.String("load_id", lid.String()),
		zap.String("path", path),
		zap.Uint64("seq", seq))

	fsys := s.fs
	go func() {
		start := time.Now()
		doc, err := readDocument(fsys, path)
		s.loads <- loadResult{id: lid, path: path, seq: seq, doc: doc, err: err, duration: time.Since(start)}
	}()
}

// Pending returns how many background reads have not been delivered.
func (s *Session) Pending() int { return s.inflight }

// deliver applies a background read on the session goroutine. Results
// superseded by a newer request for the same path are dropped.
func (s *Session) deliver(r loadResult) error {
	s.inflight--
	s.settle()

	result := "success"
	if r.err != nil {
		result = "error"
	}
	s.metrics.RecordLoad("async", result, r.duration)

	if r.seq != s.seq[r.path] {
		s.metrics.IncStaleLoads()
		s.log.Debug("Stale load dropped",
			zap.String("load_id", r.id.String()),
			zap.String("path", r.path),
			zap.Uint64("seq", r.seq),
			zap.Uint64("current", s.seq[r.path]))
		return nil
	}
	delete(s.seq, r.path)

	if r.err != nil {
		return s.fail(r.err)
	}
	s.log.Debug("Large file load delivered",
		zap.String("load_id", r.id.String()),
		zap.String("path", r.path),
		zap.Duration("duration", r.duration))

	if s.untitledModified() {
		if _, added := s.tabs.Add(r.doc); added {
			s.metrics.SetTabsOpen(s.tabs.Len())
			s.persistTabs()
		}
		return nil
	}
	return s.addAndActivate(r.doc)
}

// AwaitLoads blocks until every background read has been delivered.
func (s *Session) AwaitLoads(ctx context.Context) error {
	var errs error
	for s.inflight > 0 {
		select {
		case r := <-s.loads:
			errs = multierr.Append(errs, s.deliver(r))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errs
}
