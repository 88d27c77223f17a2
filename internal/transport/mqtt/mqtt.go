// Package mqtt implements the MQTT charge point transport built on
// eclipse paho.mqtt.golang.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/security"
	"github.com/csms/core/internal/transport"
	"github.com/csms/core/internal/transport/framing"
)

// CredentialLookup resolves the plaintext master secret for a device type
// code, used by VerifyCredentials to check an incoming CONNECT's password.
// The CSMS's own broker connection authenticates with Config.Username/
// Password; it only subscribes/publishes and never authenticates as a charger.
type CredentialLookup func(ctx context.Context, typeCode string) (masterSecret string, err error)

// Transport is the MQTT-backed implementation of transport.Transport. It
// subscribes to the uplink wildcard for its configured device type code and
// publishes to each charger's downlink topic.
type Transport struct {
	client   paho.Client
	logger   *zap.Logger
	cache    cache.Cache
	lookup   CredentialLookup
	typeCode string
	qos      byte

	mu       sync.RWMutex
	failures map[string]*framing.FailureWindow

	onInbound      func(chargerID string, frame []byte, receivedAt time.Time)
	onConnected    func(chargerID string, claim transport.AuthClaim)
	onDisconnected func(chargerID string, reason error)

	offlineTimeout time.Duration
	sweepStop      chan struct{}
}

// Config configures the MQTT transport.
type Config struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	TypeCode       string
	QoS            byte
	OfflineTimeout time.Duration
}

// New connects to the broker and subscribes to the uplink wildcard topic for
// cfg.TypeCode. It does not register callbacks until OnInbound/OnConnected/
// OnDisconnected are called.
func New(cfg Config, logger *zap.Logger, c cache.Cache, lookup CredentialLookup) (*Transport, error) {
	if cfg.OfflineTimeout <= 0 {
		cfg.OfflineTimeout = 90 * time.Second
	}
	if cfg.QoS == 0 {
		cfg.QoS = 1
	}

	t := &Transport{
		logger:         logger,
		cache:          c,
		lookup:         lookup,
		typeCode:       cfg.TypeCode,
		qos:            cfg.QoS,
		failures:       make(map[string]*framing.FailureWindow),
		offlineTimeout: cfg.OfflineTimeout,
		sweepStop:      make(chan struct{}),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetOnConnectHandler(t.onBrokerConnect)

	t.client = paho.NewClient(opts)
	token := t.client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", token.Error())
	}

	go t.sweepLoop()
	return t, nil
}

func (t *Transport) onBrokerConnect(c paho.Client) {
	uplinkTopic := fmt.Sprintf("%s/+/user/up", t.typeCode)
	token := c.Subscribe(uplinkTopic, t.qos, t.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		t.logger.Error("mqtt: subscribe failed", zap.String("topic", uplinkTopic), zap.Error(err))
	}
}

// serialFromTopic parses "{type_code}/{serial}/user/up" into serial.
func serialFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[2] != "user" || parts[3] != "up" {
		return "", false
	}
	return parts[1], true
}

func (t *Transport) handleMessage(_ paho.Client, msg paho.Message) {
	serial, ok := serialFromTopic(msg.Topic())
	if !ok {
		t.logger.Warn("mqtt: unparseable topic", zap.String("topic", msg.Topic()))
		return
	}
	chargerID := serial

	t.mu.Lock()
	if _, known := t.failures[chargerID]; !known {
		t.failures[chargerID] = framing.NewFailureWindow(5, 10*time.Second)
		t.mu.Unlock()
		if t.onConnected != nil {
			t.onConnected(chargerID, transport.AuthClaim{ChargePointID: chargerID, DeviceSerial: serial})
		}
	} else {
		t.mu.Unlock()
	}

	now := time.Now()
	t.cache.OnHeartbeat(chargerID, now)
	if t.onInbound != nil {
		t.onInbound(chargerID, msg.Payload(), now)
	}
}

// RecordDecodeFailure feeds the N=5/10s malformed-frame rule for chargerID.
// A tripped window is logged; MQTT has no per-message connection to close,
// so the effect is a warning rather than a disconnect.
func (t *Transport) RecordDecodeFailure(chargerID string) {
	t.mu.RLock()
	w, ok := t.failures[chargerID]
	t.mu.RUnlock()
	if !ok {
		return
	}
	if w.RecordFailure(time.Now()) {
		t.logger.Warn("mqtt: malformed frame burst", zap.String("charger_id", chargerID))
	}
}

func (t *Transport) downlinkTopic(serial string) string {
	return fmt.Sprintf("%s/%s/user/down", t.typeCode, serial)
}

// Send publishes frame to chargerID's downlink topic.
func (t *Transport) Send(ctx context.Context, chargerID string, frame []byte) error {
	token := t.client.Publish(t.downlinkTopic(chargerID), t.qos, false, frame)
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()
	select {
	case <-done:
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) OnInbound(f func(chargerID string, frame []byte, receivedAt time.Time)) {
	t.onInbound = f
}

func (t *Transport) OnConnected(f func(chargerID string, claim transport.AuthClaim)) {
	t.onConnected = f
}

func (t *Transport) OnDisconnected(f func(chargerID string, reason error)) {
	t.onDisconnected = f
}

// Close drops chargerID's synthesized connection bookkeeping. MQTT has no
// per-charger socket to tear down; the broker connection stays open.
func (t *Transport) Close(chargerID string) error {
	t.mu.Lock()
	delete(t.failures, chargerID)
	t.mu.Unlock()
	return nil
}

// Shutdown disconnects the underlying broker client and stops the
// connection-synthesis sweep.
func (t *Transport) Shutdown() {
	close(t.sweepStop)
	t.client.Disconnect(250)
}

// sweepLoop runs every offlineTimeout/3 and fires OnDisconnected for
// chargers the cache no longer reports online, since MQTT gives us no
// TCP-level close event per charger. The silence threshold is the cache's
// own staleness timeout (Cache.IsOnline), not offlineTimeout.
func (t *Transport) sweepLoop() {
	ticker := time.NewTicker(t.offlineTimeout / 3)
	defer ticker.Stop()

	for {
		select {
		case <-t.sweepStop:
			return
		case <-ticker.C:
			t.sweepOnce(time.Now())
		}
	}
}

func (t *Transport) sweepOnce(now time.Time) {
	t.mu.RLock()
	chargerIDs := make([]string, 0, len(t.failures))
	for id := range t.failures {
		chargerIDs = append(chargerIDs, id)
	}
	t.mu.RUnlock()

	for _, chargerID := range chargerIDs {
		if t.cache.IsOnline(chargerID, now) {
			continue
		}
		t.mu.Lock()
		delete(t.failures, chargerID)
		t.mu.Unlock()
		if t.onDisconnected != nil {
			t.onDisconnected(chargerID, errors.New("mqtt: silent past offline timeout"))
		}
	}
}

// VerifyCredentials checks a CONNECT's username/password against the stored,
// decrypted device secret. It does not implement broker-side ACL enforcement
// itself (that lives in the broker's auth plugin) — it is the function that
// plugin would call out to.
func VerifyCredentials(ctx context.Context, lookup CredentialLookup, typeCode, username, password string) (bool, error) {
	masterSecret, err := lookup(ctx, typeCode)
	if err != nil {
		return false, err
	}
	expected := security.DerivePassword(masterSecret, username)
	return expected == password, nil
}
