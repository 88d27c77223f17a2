// Package session owns the per-charge-point OCPP state machine (§4.4): the
// Disconnected/Booting/Online/Faulted/Unavailable lifecycle, the bounded
// inbound/outbound work queues, the authorization cache, and dispatch into
// internal/session/handlers. Generalized from langchou-tesgazer's
// internal/state.Machine (a struct wrapping *fsm.FSM plus a state snapshot
// and an onStateChange callback).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/session/handlers"
	"github.com/csms/core/internal/store"
)

// States (§4.4).
const (
	StateDisconnected = "Disconnected"
	StateBooting      = "Booting"
	StateOnline       = "Online"
	StateFaulted      = "Faulted"
	StateUnavailable  = "Unavailable"
)

// Events driving the FSM.
const (
	eventConnect        = "connect"
	eventBootAccept     = "boot_accept"
	eventBootReject     = "boot_reject"
	eventInbound        = "inbound"
	eventFault          = "fault"
	eventFaultCleared   = "fault_cleared"
	eventSetUnavailable = "set_unavailable"
	eventSetAvailable   = "set_available"
	eventDisconnect     = "disconnect"
	eventWatchdogExpire = "watchdog_expire"
)

const (
	defaultInboundBufferDepth = 256
	defaultOutboundQueueDepth = 64
	defaultHeartbeatInterval  = 60 * time.Second
	defaultWatchdogGrace      = 30 * time.Second
)

var (
	// ErrChargerBusy is returned by EnqueueOutbound when the outbound queue
	// is already full (§5).
	ErrChargerBusy = errors.New("session: charger busy, outbound queue full")
	// ErrNotRunning is returned when enqueueing onto a session whose run
	// loop has already stopped.
	ErrNotRunning = errors.New("session: not running")
)

type inboundFrame struct {
	raw        []byte
	receivedAt time.Time
}

// SendFunc delivers a raw wire frame to the charge point's live transport
// connection. Supplied by whatever owns the Transports (bootstrap's gateway).
type SendFunc func(ctx context.Context, chargePointID string, frame []byte) error

// Deduper is the Router's inbound-CALL dedup cache (CheckDedup/StoreDedup),
// consulted so a transport-level retransmit (MQTT QoS-1, §4.3/§8) gets back
// the same CALLRESULT instead of re-running the handler a second time.
type Deduper interface {
	CheckDedup(chargePointID, messageID string) (json.RawMessage, bool)
	StoreDedup(chargePointID, messageID string, payload json.RawMessage)
}

// DecodeFailureNotifier is notified when an inbound frame fails to decode,
// so the owning transport can enforce the N=5/10s malformed-frame
// disconnect rule (§4.1). Session holds no transport back-pointer, so this
// is routed through whatever the Manager was given (the gateway, in
// production wiring).
type DecodeFailureNotifier interface {
	RecordDecodeFailure(chargePointID string)
}

// Config bundles the tunables named in §5/§9.
type Config struct {
	HeartbeatInterval  time.Duration
	WatchdogGrace      time.Duration
	InboundBufferDepth int
	OutboundQueueDepth int
	AuthCacheCap       int
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.WatchdogGrace <= 0 {
		c.WatchdogGrace = defaultWatchdogGrace
	}
	if c.InboundBufferDepth <= 0 {
		c.InboundBufferDepth = defaultInboundBufferDepth
	}
	if c.OutboundQueueDepth <= 0 {
		c.OutboundQueueDepth = defaultOutboundQueueDepth
	}
	if c.AuthCacheCap <= 0 {
		c.AuthCacheCap = defaultAuthCacheCap
	}
	return c
}

// Session is the live state machine for one charge point.
type Session struct {
	mu            sync.Mutex
	chargePointID string
	cfg           Config
	fsm           *fsm.FSM
	store         store.Store
	cache         cache.Cache
	authCache     *authLRU
	now           func() time.Time
	logger        *zap.Logger
	send          SendFunc

	inbound  chan inboundFrame
	outbound chan []byte
	release  chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup

	onStateChange  func(chargePointID, from, to string)
	onReply        func(chargePointID, messageID string, payload json.RawMessage, cerr *codec.CodecError)
	dedup          Deduper
	decodeFailures DecodeFailureNotifier
	lastSeen       time.Time
}

// New builds a Session in StateDisconnected and starts its inbound/outbound
// run loops. Call Connect once the transport reports OnConnected.
func New(chargePointID string, cfg Config, st store.Store, ca cache.Cache, send SendFunc, logger *zap.Logger, onStateChange func(chargePointID, from, to string)) *Session {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		chargePointID: chargePointID,
		cfg:           cfg,
		store:         st,
		cache:         ca,
		authCache:     newAuthLRU(cfg.AuthCacheCap),
		now:           time.Now,
		logger:        logger,
		send:          send,
		inbound:       make(chan inboundFrame, cfg.InboundBufferDepth),
		outbound:      make(chan []byte, cfg.OutboundQueueDepth),
		release:       make(chan struct{}, 1),
		stop:          make(chan struct{}),
		onStateChange: onStateChange,
	}

	s.fsm = fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: eventConnect, Src: []string{StateDisconnected}, Dst: StateBooting},
			{Name: eventBootAccept, Src: []string{StateBooting}, Dst: StateOnline},
			{Name: eventBootReject, Src: []string{StateBooting}, Dst: StateBooting},
			{Name: eventInbound, Src: []string{StateOnline}, Dst: StateOnline},
			{Name: eventFault, Src: []string{StateOnline}, Dst: StateFaulted},
			{Name: eventFaultCleared, Src: []string{StateFaulted}, Dst: StateOnline},
			{Name: eventSetUnavailable, Src: []string{StateOnline, StateFaulted}, Dst: StateUnavailable},
			{Name: eventSetAvailable, Src: []string{StateUnavailable}, Dst: StateOnline},
			{Name: eventDisconnect, Src: []string{StateBooting, StateOnline, StateFaulted, StateUnavailable}, Dst: StateDisconnected},
			{Name: eventWatchdogExpire, Src: []string{StateBooting, StateOnline, StateFaulted, StateUnavailable}, Dst: StateDisconnected},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				if s.onStateChange != nil && e.Src != e.Dst {
					s.onStateChange(s.chargePointID, e.Src, e.Dst)
				}
			},
		},
	)

	s.wg.Add(2)
	go s.inboundLoop()
	go s.outboundLoop()

	return s
}

// ChargePointID returns the charge point this session belongs to.
func (s *Session) ChargePointID() string { return s.chargePointID }

// SetOnReply registers the Router's callback for CALLRESULT/CALLERROR
// frames answering an outbound CALL this Session dispatched. Only the
// Router that owns the waiter table should call this.
func (s *Session) SetOnReply(fn func(chargePointID, messageID string, payload json.RawMessage, cerr *codec.CodecError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReply = fn
}

// SetDedup registers the Router's dedup cache. Only the Router that owns
// the cache should call this.
func (s *Session) SetDedup(d Deduper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedup = d
}

// SetDecodeFailureNotifier registers the transport-lookup callback the
// gateway uses to enforce the malformed-frame disconnect rule.
func (s *Session) SetDecodeFailureNotifier(n DecodeFailureNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decodeFailures = n
}

// CurrentState reports the FSM's current state.
func (s *Session) CurrentState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Current()
}

// Connect transitions Disconnected -> Booting on a new transport connection.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Event(context.Background(), eventConnect)
}

// Disconnect transitions any state -> Disconnected, e.g. on OnDisconnected
// or heartbeat-watchdog expiry. Active transactions are left untouched;
// that invariant lives in the store, not here.
func (s *Session) Disconnect(watchdog bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := eventDisconnect
	if watchdog {
		event = eventWatchdogExpire
	}
	_ = s.fsm.Event(context.Background(), event)
}

// IsOnline reports whether the session is in a state that can serve
// outbound Control API calls without rejecting ChargerOffline.
func (s *Session) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Current() == StateOnline
}

// WatchdogDeadline returns when the heartbeat watchdog expires given the
// last time any inbound frame was observed.
func (s *Session) WatchdogDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Add(2*s.cfg.HeartbeatInterval + s.cfg.WatchdogGrace)
}

// SetAvailability drives the operator-triggered Unavailable <-> Online
// transition (ChangeAvailability accepted).
func (s *Session) SetAvailability(available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if available {
		return s.fsm.Event(context.Background(), eventSetAvailable)
	}
	return s.fsm.Event(context.Background(), eventSetUnavailable)
}

// Close stops the run loops. Safe to call once.
func (s *Session) Close() {
	select {
	case <-s.stop:
		return
	default:
		close(s.stop)
	}
	s.wg.Wait()
}

// DeliverInbound hands a raw frame to the session's inbound queue. When the
// queue is full the oldest queued frame is dropped and logged rather than
// blocking the transport's read loop (§5).
func (s *Session) DeliverInbound(raw []byte, receivedAt time.Time) {
	frame := inboundFrame{raw: raw, receivedAt: receivedAt}
	select {
	case s.inbound <- frame:
		return
	default:
	}

	select {
	case dropped := <-s.inbound:
		s.logger.Warn("inbound buffer full, dropping oldest frame",
			zap.String("charge_point_id", s.chargePointID),
			zap.Time("dropped_received_at", dropped.receivedAt))
	default:
	}
	select {
	case s.inbound <- frame:
	default:
		s.logger.Warn("inbound buffer still full after drop, discarding frame",
			zap.String("charge_point_id", s.chargePointID))
	}
}

// EnqueueOutbound queues a server-initiated CALL frame for delivery. It
// returns ErrChargerBusy immediately if the outbound queue is already full
// rather than blocking the Router (§5).
func (s *Session) EnqueueOutbound(frame []byte) error {
	select {
	case <-s.stop:
		return ErrNotRunning
	default:
	}
	select {
	case s.outbound <- frame:
		return nil
	default:
		return ErrChargerBusy
	}
}

// ReleaseOutbound signals that the previously dispatched outbound CALL has
// been resolved (CALLRESULT/CALLERROR/timeout), allowing the next queued
// CALL to be sent. handleInbound calls it on a CALLRESULT/CALLERROR;
// Router.Dispatch calls it when its wait times out or its ctx ends.
func (s *Session) ReleaseOutbound() {
	select {
	case s.release <- struct{}{}:
	default:
	}
}

func (s *Session) outboundLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case frame := <-s.outbound:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.send(ctx, s.chargePointID, frame); err != nil {
				s.logger.Warn("outbound send failed", zap.String("charge_point_id", s.chargePointID), zap.Error(err))
			}
			cancel()
			select {
			case <-s.release:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *Session) inboundLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case f := <-s.inbound:
			s.handleInbound(f)
		}
	}
}

func (s *Session) handleInbound(f inboundFrame) {
	s.mu.Lock()
	s.lastSeen = f.receivedAt
	s.mu.Unlock()

	frame, err := codec.Decode(f.raw)
	if err != nil {
		// codec.Decode never returns a partial Frame on error, so there is
		// no messageId to reply to; the N=5/10s disconnect rule (§4.1) is
		// enforced by the owning transport, notified here since Session
		// holds no transport back-pointer.
		s.logger.Debug("decode failure", zap.String("charge_point_id", s.chargePointID), zap.Error(err))
		s.mu.Lock()
		notifier := s.decodeFailures
		s.mu.Unlock()
		if notifier != nil {
			notifier.RecordDecodeFailure(s.chargePointID)
		}
		return
	}
	if frame.TypeID != codec.TypeCall {
		// CALLRESULT/CALLERROR for an outbound CALL is the Router's concern
		// (it owns the waiter table); this session releases the outbound
		// slot and, if a Router has registered itself, hands it the reply.
		s.mu.Lock()
		onReply := s.onReply
		s.mu.Unlock()
		if onReply != nil {
			if frame.TypeID == codec.TypeCallError {
				onReply(s.chargePointID, frame.MessageID, nil, &codec.CodecError{Code: frame.ErrorCode, Description: frame.ErrorDescription})
			} else {
				onReply(s.chargePointID, frame.MessageID, frame.Payload, nil)
			}
		}
		s.ReleaseOutbound()
		return
	}

	s.mu.Lock()
	dedup := s.dedup
	s.mu.Unlock()
	if dedup != nil {
		if cached, ok := dedup.CheckDedup(s.chargePointID, frame.MessageID); ok {
			s.sendCallResultRaw(frame.MessageID, cached)
			return
		}
	}

	resp, cerr := s.dispatch(frame)
	if cerr != nil {
		s.sendCallError(frame.MessageID, cerr)
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal call result", zap.Error(err))
		return
	}
	if dedup != nil {
		dedup.StoreDedup(s.chargePointID, frame.MessageID, raw)
	}
	s.sendCallResultRaw(frame.MessageID, raw)
}

func (s *Session) dispatch(frame *codec.Frame) (interface{}, *codec.CodecError) {
	ctx := context.Background()
	deps := handlers.Deps{
		Store:             s.store,
		Cache:             s.cache,
		AuthCache:         s.authCache,
		ChargePointID:     s.chargePointID,
		HeartbeatInterval: s.cfg.HeartbeatInterval,
		Now:               s.now,
		NotifyFaulted: func(aggregateFaulted bool) {
			s.mu.Lock()
			defer s.mu.Unlock()
			switch {
			case aggregateFaulted && s.fsm.Current() == StateOnline:
				_ = s.fsm.Event(ctx, eventFault)
			case !aggregateFaulted && s.fsm.Current() == StateFaulted:
				_ = s.fsm.Event(ctx, eventFaultCleared)
			}
		},
	}

	// settle is a no-op self-transition (Online -> Online) that exists only
	// to run the after_event hook uniformly; while Faulted it does nothing,
	// since only StatusNotification's NotifyFaulted verdict can clear a fault.
	settle := func() {
		s.mu.Lock()
		_ = s.fsm.Event(ctx, eventInbound)
		s.mu.Unlock()
	}

	switch frame.Action {
	case "BootNotification":
		var req actions.BootNotificationRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		resp, cerr := handlers.HandleBootNotification(ctx, deps, req)
		if cerr != nil {
			return nil, cerr
		}
		s.mu.Lock()
		if resp.Status == "Accepted" {
			_ = s.fsm.Event(ctx, eventBootAccept)
		} else {
			_ = s.fsm.Event(ctx, eventBootReject)
		}
		s.mu.Unlock()
		return resp, nil

	case "Heartbeat":
		var req actions.HeartbeatRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		resp, cerr := handlers.HandleHeartbeat(ctx, deps, req)
		if cerr == nil {
			settle()
		}
		return resp, cerr

	case "StatusNotification":
		var req actions.StatusNotificationRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		// NotifyFaulted (called unconditionally by the handler) already
		// drives the Online<->Faulted transition for this action; no
		// generic settle() here, or a clear-fault verdict would be
		// immediately overwritten back to Online-via-inbound regardless.
		return handlers.HandleStatusNotification(ctx, deps, req)

	case "Authorize":
		var req actions.AuthorizeRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		resp, cerr := handlers.HandleAuthorize(ctx, deps, req)
		if cerr == nil {
			settle()
		}
		return resp, cerr

	case "StartTransaction":
		var req actions.StartTransactionRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		resp, cerr := handlers.HandleStartTransaction(ctx, deps, req)
		if cerr == nil {
			settle()
		}
		return resp, cerr

	case "MeterValues":
		var req actions.MeterValuesRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		resp, cerr := handlers.HandleMeterValues(ctx, deps, req)
		if cerr == nil {
			settle()
		}
		return resp, cerr

	case "StopTransaction":
		var req actions.StopTransactionRequest
		if cerr := codec.DecodePayload(frame.Payload, &req); cerr != nil {
			return nil, cerr
		}
		resp, cerr := handlers.HandleStopTransaction(ctx, deps, req)
		if cerr == nil {
			settle()
		}
		return resp, cerr

	default:
		return nil, codec.NewDomainError(codec.ErrNotImplemented, "no handler wired for action %q", frame.Action)
	}
}

func (s *Session) sendCallResultRaw(messageID string, raw json.RawMessage) {
	frame := &codec.Frame{TypeID: codec.TypeCallResult, MessageID: messageID, Payload: raw}
	s.sendFrame(frame)
}

func (s *Session) sendCallError(messageID string, cerr *codec.CodecError) {
	frame := &codec.Frame{
		TypeID:           codec.TypeCallError,
		MessageID:        messageID,
		ErrorCode:        cerr.Code,
		ErrorDescription: cerr.Description,
	}
	s.sendFrame(frame)
}

func (s *Session) sendFrame(frame *codec.Frame) {
	raw, err := codec.Encode(frame)
	if err != nil {
		s.logger.Error("encode frame", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.send(ctx, s.chargePointID, raw); err != nil {
		s.logger.Warn("send reply failed", zap.String("charge_point_id", s.chargePointID), zap.Error(err))
	}
}
