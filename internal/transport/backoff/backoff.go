// Package backoff implements full-jitter exponential backoff for transport
// reconnect/retry loops.
package backoff

import (
	"math/rand"
	"time"
)

// FullJitter returns a delay uniformly distributed in [0, min(cap, base*2^attempt)].
// attempt is zero-based. base and cap default to 500ms/30s when <= 0.
func FullJitter(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if cap <= 0 {
		cap = 30 * time.Second
	}
	if attempt < 0 {
		attempt = 0
	}

	backoff := base
	for i := 0; i < attempt && backoff < cap; i++ {
		backoff *= 2
	}
	if backoff > cap {
		backoff = cap
	}
	if backoff <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(backoff)))
}
