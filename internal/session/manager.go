package session

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/store"
)

// Manager owns one Session per online (or recently online) charge point,
// generalized from langchou-tesgazer's internal/state.Manager.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg           Config
	store         store.Store
	cache         cache.Cache
	send          SendFunc
	logger        *zap.Logger
	onStateChange  func(chargePointID, from, to string)
	onReply        func(chargePointID, messageID string, payload json.RawMessage, cerr *codec.CodecError)
	dedup          Deduper
	decodeFailures DecodeFailureNotifier
}

// NewManager builds a Manager. send is shared by every Session it creates
// (bootstrap's gateway routes outbound bytes to whichever transport
// currently owns the charge point's connection).
func NewManager(cfg Config, st store.Store, ca cache.Cache, send SendFunc, logger *zap.Logger, onStateChange func(chargePointID, from, to string)) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:      make(map[string]*Session),
		cfg:           cfg,
		store:         st,
		cache:         ca,
		send:          send,
		logger:        logger,
		onStateChange: onStateChange,
	}
}

// SetOnReply registers the Router's CALLRESULT/CALLERROR callback on every
// Session this Manager creates from now on, and retroactively on every
// Session it already holds.
func (m *Manager) SetOnReply(fn func(chargePointID, messageID string, payload json.RawMessage, cerr *codec.CodecError)) {
	m.mu.Lock()
	m.onReply = fn
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.SetOnReply(fn)
	}
}

// SetDedup registers the Router's dedup cache on every Session this Manager
// creates from now on, and retroactively on every Session it already holds.
func (m *Manager) SetDedup(d Deduper) {
	m.mu.Lock()
	m.dedup = d
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.SetDedup(d)
	}
}

// SetDecodeFailureNotifier registers the transport-lookup callback used to
// enforce the malformed-frame disconnect rule, on every Session this
// Manager creates from now on and retroactively on every Session it already
// holds.
func (m *Manager) SetDecodeFailureNotifier(n DecodeFailureNotifier) {
	m.mu.Lock()
	m.decodeFailures = n
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.SetDecodeFailureNotifier(n)
	}
}

// GetOrCreate returns the existing Session for chargePointID, or creates one
// in StateDisconnected. Reconnects adopt the existing Session (and its
// preserved authorization cache) rather than discarding it (§4.4).
func (m *Manager) GetOrCreate(chargePointID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chargePointID]; ok {
		return s
	}
	s := New(chargePointID, m.cfg, m.store, m.cache, m.send, m.logger, m.onStateChange)
	if m.onReply != nil {
		s.SetOnReply(m.onReply)
	}
	if m.dedup != nil {
		s.SetDedup(m.dedup)
	}
	if m.decodeFailures != nil {
		s.SetDecodeFailureNotifier(m.decodeFailures)
	}
	m.sessions[chargePointID] = s
	return s
}

// Get returns the Session for chargePointID, if one exists.
func (m *Manager) Get(chargePointID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chargePointID]
	return s, ok
}

// Remove stops and forgets the Session for chargePointID. Sessions outlive
// a single connection (§4.4: "Terminal: none"), so this is only used for
// deprovisioning, not ordinary disconnects — those call Session.Disconnect.
func (m *Manager) Remove(chargePointID string) {
	m.mu.Lock()
	s, ok := m.sessions[chargePointID]
	delete(m.sessions, chargePointID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// All returns a snapshot of every tracked Session, for watchdog sweeps and
// dashboard listing.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
