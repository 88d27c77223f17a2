// Package framing tracks per-connection malformed-frame bursts, the shared
// N-failures-in-a-window rule used by both the WS and MQTT transports.
package framing

import (
	"sync"
	"time"
)

// FailureWindow trips after `limit` decode failures occur within `window`
// of each other. It resets once a successful decode is reported.
type FailureWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	failures []time.Time
}

// NewFailureWindow returns a window that trips at limit failures within
// window. limit<=0 defaults to 5, window<=0 defaults to 10s, matching the
// N=5/10s rule for malformed-frame disconnects.
func NewFailureWindow(limit int, window time.Duration) *FailureWindow {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	return &FailureWindow{limit: limit, window: window}
}

// RecordFailure registers a decode failure at now and reports whether the
// window has now tripped (i.e. the connection should be closed).
func (w *FailureWindow) RecordFailure(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.window)
	kept := w.failures[:0]
	for _, t := range w.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.failures = append(kept, now)
	return len(w.failures) >= w.limit
}

// RecordSuccess clears the failure history.
func (w *FailureWindow) RecordSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = w.failures[:0]
}
