package bootstrap

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/session"
	"github.com/csms/core/internal/transport"
)

// gateway multiplexes however many transports (WS, MQTT) are configured onto
// one session.Manager, so the Router never has to know which transport owns
// a charge point's live connection (the transport.Transport package doc's
// stated purpose). The cache's existing Bind/GetConn opaque-handle slot
// already exists for exactly this: this reuses it to store which transport
// tag currently owns a charger instead of introducing a second registry.
type gateway struct {
	cache      cache.Cache
	sessions   *session.Manager
	logger     *zap.Logger
	transports map[string]transport.Transport
}

func newGateway(c cache.Cache, sessions *session.Manager, logger *zap.Logger) *gateway {
	return &gateway{
		cache:      c,
		sessions:   sessions,
		logger:     logger,
		transports: make(map[string]transport.Transport),
	}
}

// wire registers tag's lifecycle callbacks and adds it to the tag->Transport
// table the shared SendFunc consults.
func (g *gateway) wire(tag string, t transport.Transport) {
	g.transports[tag] = t

	t.OnConnected(func(chargerID string, claim transport.AuthClaim) {
		g.cache.Bind(chargerID, tag)
		sess := g.sessions.GetOrCreate(chargerID)
		if err := sess.Connect(); err != nil {
			g.logger.Warn("session connect rejected",
				zap.String("charge_point_id", chargerID), zap.String("transport", tag), zap.Error(err))
		}
	})
	t.OnInbound(func(chargerID string, frame []byte, receivedAt time.Time) {
		g.cache.OnHeartbeat(chargerID, receivedAt)
		sess, ok := g.sessions.Get(chargerID)
		if !ok {
			return
		}
		sess.DeliverInbound(frame, receivedAt)
	})
	t.OnDisconnected(func(chargerID string, reason error) {
		g.cache.Unbind(chargerID)
		if sess, ok := g.sessions.Get(chargerID); ok {
			sess.Disconnect(false)
		}
		g.logger.Info("charge point disconnected",
			zap.String("charge_point_id", chargerID), zap.String("transport", tag), zap.Error(reason))
	})
}

// RecordDecodeFailure implements session.DecodeFailureNotifier: it looks up
// which transport currently owns chargerID's connection and forwards the
// N=5/10s malformed-frame notification to it.
func (g *gateway) RecordDecodeFailure(chargerID string) {
	tagValue, ok := g.cache.GetConn(chargerID)
	if !ok {
		return
	}
	tag, ok := tagValue.(string)
	if !ok {
		return
	}
	if t, ok := g.transports[tag]; ok {
		t.RecordDecodeFailure(chargerID)
	}
}

var errNoTransportBound = errors.New("bootstrap: charge point has no bound transport")

// send is the session.SendFunc shared by every Session the Manager creates:
// it looks up which transport currently owns chargerID's connection (via the
// cache binding wire() set) and forwards the frame to it.
func (g *gateway) send(ctx context.Context, chargerID string, frame []byte) error {
	tagValue, ok := g.cache.GetConn(chargerID)
	if !ok {
		return errNoTransportBound
	}
	tag, ok := tagValue.(string)
	if !ok {
		return errNoTransportBound
	}
	t, ok := g.transports[tag]
	if !ok {
		return errNoTransportBound
	}
	return t.Send(ctx, chargerID, frame)
}
