package handlers

import (
	"sync/atomic"
	"time"
)

var transactionSeq int64

func init() {
	transactionSeq = time.Now().UnixNano() / int64(time.Millisecond)
}

// nextTransactionID hands out a monotonically-increasing, process-wide
// transactionId. It is intentionally coarse (no persistence of the
// counter itself) since uniqueness, not density, is what callers need —
// the (charge_point_id, evse_id, transaction_id) unique index is the real
// collision guard.
func nextTransactionID() int64 {
	return atomic.AddInt64(&transactionSeq, 1)
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

func int64ptr(v int64) *int64 { return &v }
