package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics holds the CSMS domain counters and gauges.
type AppMetrics struct {
	WSAccepted        prometheus.Counter
	FrameDecodeTotal  *prometheus.CounterVec // labels: result=ok|error
	CallDispatchTotal *prometheus.CounterVec // labels: action
	CallResultTotal   *prometheus.CounterVec // labels: action
	CallErrorTotal    *prometheus.CounterVec // labels: action, code
	DedupHitTotal     prometheus.Counter
	WatchdogExpireTotal prometheus.Counter
	StoreErrorTotal   *prometheus.CounterVec // labels: op
	OnlineGauge       prometheus.Gauge // current online charge points
	HeartbeatTotal    prometheus.Counter
}

// NewAppMetrics registers and returns the CSMS's business metrics.
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		WSAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ws_accept_total",
			Help: "Total accepted OCPP WebSocket connections.",
		}),
		FrameDecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocpp_frame_decode_total",
			Help: "OCPP frame decode attempts.",
		}, []string{"result"}),
		CallDispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocpp_call_dispatch_total",
			Help: "CALLs dispatched to charge points by action.",
		}, []string{"action"}),
		CallResultTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocpp_callresult_total",
			Help: "CALLRESULTs received by action.",
		}, []string{"action"}),
		CallErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ocpp_callerror_total",
			Help: "CALLERRORs by action and error code.",
		}, []string{"action", "code"}),
		DedupHitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ocpp_dedup_hit_total",
			Help: "Inbound CALLs served from the dedup cache instead of re-dispatched.",
		}),
		WatchdogExpireTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_watchdog_expire_total",
			Help: "Sessions forced to Disconnected by watchdog expiry.",
		}),
		StoreErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_error_total",
			Help: "Store operation failures by operation name.",
		}, []string{"op"}),
		OnlineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "session_online_count",
			Help: "Current number of online charge points.",
		}),
		HeartbeatTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_heartbeat_total",
			Help: "Total heartbeats observed.",
		}),
	}
	reg.MustRegister(
		m.WSAccepted, m.FrameDecodeTotal, m.CallDispatchTotal, m.CallResultTotal,
		m.CallErrorTotal, m.DedupHitTotal, m.WatchdogExpireTotal, m.StoreErrorTotal,
		m.OnlineGauge, m.HeartbeatTotal,
	)
	return m
}
