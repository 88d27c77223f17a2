package health

import (
	"context"
	"fmt"
	"time"

	cache "github.com/csms/core/internal/cache"
)

// TransportChecker reports on the population of connected charge points
// tracked in the cache, regardless of which transport (WebSocket or MQTT)
// they arrived over.
type TransportChecker struct {
	cache    cache.Cache
	capacity int
}

// NewTransportChecker creates a transport health checker. capacity is the
// soft limit used to compute utilization; 0 disables the utilization check.
func NewTransportChecker(c cache.Cache, capacity int) *TransportChecker {
	return &TransportChecker{cache: c, capacity: capacity}
}

func (c *TransportChecker) Name() string { return "transport" }

func (c *TransportChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	now := time.Now()
	online := c.cache.OnlineCount(now)

	if c.capacity == 0 {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "no capacity limit configured",
			Details: map[string]interface{}{"online_charge_points": online},
			Latency: time.Since(start),
		}
	}

	utilization := float64(online) / float64(c.capacity)
	status := StatusHealthy
	message := "ok"
	if utilization > 0.8 {
		status = StatusDegraded
		message = "high charge point connection usage"
	}
	if utilization > 0.95 {
		status = StatusUnhealthy
		message = "charge point capacity near exhausted"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"online_charge_points": online,
			"capacity":             c.capacity,
			"utilization":          fmt.Sprintf("%.1f%%", utilization*100),
		},
		Latency: time.Since(start),
	}
}
