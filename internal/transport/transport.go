// Package transport unifies WebSocket and MQTT charge point connections
// behind a single interface so the Router never has to know which one a
// charger is using.
package transport

import (
	"context"
	"time"
)

// AuthClaim carries the identity a transport extracted from the connection
// handshake (WS query/path param, MQTT topic+credentials) before handing it
// to the Router.
type AuthClaim struct {
	ChargePointID string
	DeviceSerial  string
}

// Transport sends/receives raw OCPP frames for a set of charge points and
// reports their connection lifecycle. A charger_id maps to at most one live
// connection at a time within a single Transport.
type Transport interface {
	Send(ctx context.Context, chargerID string, frame []byte) error
	OnInbound(func(chargerID string, frame []byte, receivedAt time.Time))
	OnConnected(func(chargerID string, claim AuthClaim))
	OnDisconnected(func(chargerID string, reason error))
	Close(chargerID string) error
	// RecordDecodeFailure feeds the N=5/10s malformed-frame disconnect rule
	// (§4.1) for chargerID's connection.
	RecordDecodeFailure(chargerID string)
}
