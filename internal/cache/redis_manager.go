package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes, see the package doc for the full scheme (§4.6).
const (
	keyLastSeenPrefix = "cp:"
	keyStatusSuffix   = ":status"
	keyPendingSuffix  = ":pending_calls"
	keyIdTagPrefix    = "idtag:"
)

// RedisManager is the Redis-backed Cache used for multi-node deployments.
// Connection handles (GetConn/Bind) are process-local by nature, so they are
// still kept in an in-memory map scoped to this instance.
type RedisManager struct {
	client  *redis.Client
	timeout time.Duration

	mu    sync.RWMutex
	conns map[string]interface{}
}

// NewRedisManager creates a Redis Cache. timeout is the heartbeat staleness
// window; last_seen/status keys are stored with 2x that TTL so a node that
// misses one heartbeat cycle doesn't immediately expire the record.
func NewRedisManager(client *redis.Client, timeout time.Duration) *RedisManager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &RedisManager{
		client:  client,
		timeout: timeout,
		conns:   make(map[string]interface{}),
	}
}

func lastSeenKey(id string) string { return keyLastSeenPrefix + id + ":last_seen" }
func statusKey(id string) string   { return keyLastSeenPrefix + id + keyStatusSuffix }
func pendingKey(id string) string  { return keyLastSeenPrefix + id + keyPendingSuffix }

func (m *RedisManager) OnHeartbeat(chargePointID string, t time.Time) {
	ctx := context.Background()
	m.client.Set(ctx, lastSeenKey(chargePointID), t.Format(time.RFC3339Nano), m.timeout*2)
}

func (m *RedisManager) SetStatus(chargePointID string, status string, t time.Time) {
	ctx := context.Background()
	m.client.Set(ctx, statusKey(chargePointID), status, m.timeout*2)
}

func (m *RedisManager) GetStatus(chargePointID string) (string, bool) {
	ctx := context.Background()
	val, err := m.client.Get(ctx, statusKey(chargePointID)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (m *RedisManager) Bind(chargePointID string, conn interface{}) {
	m.mu.Lock()
	m.conns[chargePointID] = conn
	m.mu.Unlock()
}

func (m *RedisManager) Unbind(chargePointID string) {
	m.mu.Lock()
	delete(m.conns, chargePointID)
	m.mu.Unlock()

	ctx := context.Background()
	m.client.Del(ctx, pendingKey(chargePointID))
}

func (m *RedisManager) GetConn(chargePointID string) (interface{}, bool) {
	m.mu.RLock()
	c, ok := m.conns[chargePointID]
	m.mu.RUnlock()
	return c, ok
}

func (m *RedisManager) IsOnline(chargePointID string, now time.Time) bool {
	ctx := context.Background()
	val, err := m.client.Get(ctx, lastSeenKey(chargePointID)).Result()
	if err != nil {
		return false
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return false
	}
	return now.Sub(ts) <= m.timeout
}

func (m *RedisManager) OnlineCount(now time.Time) int {
	ctx := context.Background()
	var cursor uint64
	count := 0
	for {
		keys, next, err := m.client.Scan(ctx, cursor, keyLastSeenPrefix+"*:last_seen", 200).Result()
		if err != nil {
			break
		}
		for _, key := range keys {
			id := key[len(keyLastSeenPrefix) : len(key)-len(":last_seen")]
			if m.IsOnline(id, now) {
				count++
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count
}

func (m *RedisManager) PutPendingCall(chargePointID, messageID, action string, ttl time.Duration) {
	ctx := context.Background()
	key := pendingKey(chargePointID)
	m.client.HSet(ctx, key, messageID, action)
	m.client.Expire(ctx, key, ttl)
}

func (m *RedisManager) TakePendingCall(chargePointID, messageID string) (string, bool) {
	ctx := context.Background()
	key := pendingKey(chargePointID)
	action, err := m.client.HGet(ctx, key, messageID).Result()
	if err != nil {
		return "", false
	}
	m.client.HDel(ctx, key, messageID)
	return action, true
}

func (m *RedisManager) CacheIdTagStatus(idTag, status string, ttl time.Duration) {
	ctx := context.Background()
	m.client.Set(ctx, keyIdTagPrefix+idTag, status, ttl)
}

func (m *RedisManager) GetCachedIdTagStatus(idTag string) (string, bool) {
	ctx := context.Background()
	val, err := m.client.Get(ctx, keyIdTagPrefix+idTag).Result()
	if err != nil {
		return "", false
	}
	return val, true
}
