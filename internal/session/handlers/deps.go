// Package handlers implements the per-action OCPP 1.6 inbound handlers
// (§4.4). Each handler is a plain function of (ctx, Deps, request) so the
// session package can dispatch to them without an import cycle — Deps only
// references store/cache/codec, never the session package itself.
package handlers

import (
	"time"

	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/store"
)

// AuthCache is the per-session authorization decision cache (tag ->
// status), kept in the session package as an LRU and injected here.
type AuthCache interface {
	Get(tag string) (status string, ok bool)
	Put(tag, status string)
}

// Deps bundles everything a handler needs to execute one inbound action.
type Deps struct {
	Store         store.Store
	Cache         cache.Cache
	AuthCache     AuthCache
	ChargePointID string

	// HeartbeatInterval is reported back in BootNotificationResponse.
	HeartbeatInterval time.Duration

	// Now is injected for deterministic tests; defaults to time.Now in
	// production wiring.
	Now func() time.Time

	// NotifyFaulted is invoked by HandleStatusNotification on every
	// StatusNotification with the current aggregate-Faulted verdict (every
	// connector Faulted), so the session's FSM can transition Online ->
	// Faulted and back once the condition clears.
	NotifyFaulted func(aggregateFaulted bool)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
