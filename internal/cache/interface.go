// Package cache tracks charge point liveness and short-lived dedup/
// authorization state, backed either by an in-memory map or Redis.
//
// Key scheme (Redis-backed implementation), all with a TTL so a crashed
// node's state self-heals instead of wedging a charge point offline forever:
//
//	cp:{id}:last_seen      -> RFC3339 timestamp, TTL = 2x the staleness timeout
//	cp:{id}:status         -> PhysicalStatus string, TTL = 2x the staleness timeout
//	cp:{id}:pending_calls  -> hash of messageId -> action, TTL = the ttl passed to PutPendingCall
//	idtag:{tag}            -> cached IdTagStatus, TTL = the ttl passed to CacheIdTagStatus
package cache

import "time"

// Cache is the session-liveness and dedup abstraction shared by the router
// and the transports. Both the in-memory Manager and the Redis-backed
// RedisManager implement it.
type Cache interface {
	// OnHeartbeat records a liveness signal for a charge point (any inbound
	// frame counts, not just Heartbeat.req).
	OnHeartbeat(chargePointID string, t time.Time)

	// SetStatus caches the charge point's last known physical status.
	SetStatus(chargePointID string, status string, t time.Time)
	// GetStatus returns the cached status, if any.
	GetStatus(chargePointID string) (status string, ok bool)

	// Bind associates a charge point with its live transport connection
	// handle (opaque to this package — a *ws.Conn or an mqtt client ref).
	Bind(chargePointID string, conn interface{})
	// Unbind removes the association, e.g. on disconnect.
	Unbind(chargePointID string)
	// GetConn returns the bound connection handle, if the charge point is
	// connected to this process.
	GetConn(chargePointID string) (interface{}, bool)

	// IsOnline reports whether the charge point's last heartbeat is within
	// the configured timeout of now.
	IsOnline(chargePointID string, now time.Time) bool
	// OnlineCount returns how many charge points are currently online.
	OnlineCount(now time.Time) int

	// PutPendingCall records a CALL dispatched to a charge point awaiting a
	// CALLRESULT/CALLERROR, so a process restart can recover in-flight state.
	PutPendingCall(chargePointID, messageID, action string, ttl time.Duration)
	// TakePendingCall removes and returns the action for a messageID, if present.
	TakePendingCall(chargePointID, messageID string) (action string, ok bool)

	// CacheIdTagStatus caches an authorization decision for the 300s window (§4.6).
	CacheIdTagStatus(idTag, status string, ttl time.Duration)
	// GetCachedIdTagStatus returns the cached decision, if still valid.
	GetCachedIdTagStatus(idTag string) (status string, ok bool)
}
