package monitoring

import "time"

// Timer measures a file read
type Timer struct {
	start   time.Time
	metrics *Metrics
	mode    string
}

// NewTimer starts a timer for a read in the given mode ("sync" or "async")
func NewTimer(metrics *Metrics, mode string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		mode:    mode,
	}
}

// Stop records the read with its outcome
func (t *Timer) Stop(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	t.metrics.RecordLoad(t.mode, result, time.Since(t.start))
}
