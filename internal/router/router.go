// Package router dispatches operator-initiated OCPP CALLs (RemoteStartTransaction,
// RemoteStopTransaction, ...) to the right charge point Session and correlates
// the eventual CALLRESULT/CALLERROR back to the caller. The waiter table is a
// generalized, single-key version of taoyao's internal/ordersession.Tracker
// (sync.Map pending/active store with a periodic TTL sweep and an Observer
// hook); the dedup cache reuses the same sweep shape with a shorter TTL.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/metrics"
	"github.com/csms/core/internal/session"
)

var (
	ErrChargerOffline = errors.New("router: charge point not online")
	ErrTimeout        = errors.New("router: call timed out waiting for reply")
)

const (
	defaultCallTimeout = 30 * time.Second
	defaultDedupWindow = 120 * time.Second
	sweepInterval       = 10 * time.Second
)

type waiter struct {
	ch       chan reply
	deadline time.Time
}

type reply struct {
	payload json.RawMessage
	cerr    *codec.CodecError
}

type dedupEntry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

// Router owns the Session registry, the outbound-call waiter table and the
// inbound dedup cache (§4.3).
type Router struct {
	sessions *session.Manager

	mu      sync.Mutex
	waiters map[string]*waiter
	dedup   map[string]dedupEntry

	callTimeout time.Duration
	dedupWindow time.Duration
	metrics     *metrics.AppMetrics
	logger      *zap.Logger
	now         func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a Router bound to sessions and registers itself as the
// Manager's reply sink. callTimeout/dedupWindow fall back to their §4.3
// defaults (30s / 120s) when zero.
func New(sessions *session.Manager, callTimeout, dedupWindow time.Duration, m *metrics.AppMetrics, logger *zap.Logger) *Router {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	if dedupWindow <= 0 {
		dedupWindow = defaultDedupWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		sessions:    sessions,
		waiters:     make(map[string]*waiter),
		dedup:       make(map[string]dedupEntry),
		callTimeout: callTimeout,
		dedupWindow: dedupWindow,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	sessions.SetOnReply(r.onReply)
	sessions.SetDedup(r)
	r.wg.Add(1)
	go r.sweepLoop()
	return r
}

// Close stops the background sweep. It does not touch the Sessions
// themselves — that is the Manager's responsibility.
func (r *Router) Close() {
	close(r.stop)
	r.wg.Wait()
}

func waiterKey(chargePointID, messageID string) string { return chargePointID + "|" + messageID }

// Dispatch encodes action/payload as a CALL, enqueues it on the charge
// point's Session and blocks for the matching CALLRESULT/CALLERROR, up to
// timeout (or Router's default). Returns the raw CALLRESULT payload on
// success, ErrChargerOffline if the Session isn't Online, ErrTimeout if no
// reply lands in time, or the CodecError carried by a CALLERROR.
func (r *Router) Dispatch(ctx context.Context, chargePointID, action string, payload interface{}, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = r.callTimeout
	}

	sess, ok := r.sessions.Get(chargePointID)
	if !ok || !sess.IsOnline() {
		return nil, ErrChargerOffline
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	messageID := uuid.New().String()
	frame, err := codec.Encode(&codec.Frame{TypeID: codec.TypeCall, MessageID: messageID, Action: action, Payload: raw})
	if err != nil {
		return nil, err
	}

	w := &waiter{ch: make(chan reply, 1), deadline: r.now().Add(timeout)}
	key := waiterKey(chargePointID, messageID)
	r.mu.Lock()
	r.waiters[key] = w
	r.mu.Unlock()

	if err := sess.EnqueueOutbound(frame); err != nil {
		r.mu.Lock()
		delete(r.waiters, key)
		r.mu.Unlock()
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.CallDispatchTotal.WithLabelValues(action).Inc()
	}

	select {
	case rep := <-w.ch:
		if rep.cerr != nil {
			if r.metrics != nil {
				r.metrics.CallErrorTotal.WithLabelValues(action, string(rep.cerr.Code)).Inc()
			}
			return nil, rep.cerr
		}
		if r.metrics != nil {
			r.metrics.CallResultTotal.WithLabelValues(action).Inc()
		}
		return rep.payload, nil
	case <-time.After(timeout):
		r.mu.Lock()
		delete(r.waiters, key)
		r.mu.Unlock()
		sess.ReleaseOutbound()
		return nil, ErrTimeout
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.waiters, key)
		r.mu.Unlock()
		sess.ReleaseOutbound()
		return nil, ctx.Err()
	}
}

// onReply is the Session callback wired via Manager.SetOnReply. It resolves
// the pending waiter for (chargePointID, messageID), if any.
func (r *Router) onReply(chargePointID, messageID string, payload json.RawMessage, cerr *codec.CodecError) {
	key := waiterKey(chargePointID, messageID)
	r.mu.Lock()
	w, ok := r.waiters[key]
	if ok {
		delete(r.waiters, key)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	w.ch <- reply{payload: payload, cerr: cerr}
}

// CheckDedup reports whether chargePointID has already sent messageID inside
// the dedup window, returning the cached CALLRESULT payload to resend
// verbatim instead of re-dispatching a handler (§4.3).
func (r *Router) CheckDedup(chargePointID, messageID string) (json.RawMessage, bool) {
	key := waiterKey(chargePointID, messageID)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.dedup[key]
	if !ok || r.now().After(entry.expiresAt) {
		return nil, false
	}
	if r.metrics != nil {
		r.metrics.DedupHitTotal.Inc()
	}
	return entry.payload, true
}

// StoreDedup records the CALLRESULT payload this CSMS sent back for an
// inbound CALL, so a retransmit within dedupWindow can be answered without
// re-running the handler.
func (r *Router) StoreDedup(chargePointID, messageID string, payload json.RawMessage) {
	key := waiterKey(chargePointID, messageID)
	r.mu.Lock()
	r.dedup[key] = dedupEntry{payload: payload, expiresAt: r.now().Add(r.dedupWindow)}
	r.mu.Unlock()
}

func (r *Router) sweepLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Router) sweep() {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, w := range r.waiters {
		if now.After(w.deadline) {
			delete(r.waiters, key)
		}
	}
	for key, entry := range r.dedup {
		if now.After(entry.expiresAt) {
			delete(r.dedup, key)
		}
	}
}
