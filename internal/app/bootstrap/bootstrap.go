// Package bootstrap wires every package under internal/ into a running
// CSMS process: config, logging, metrics, storage, cache, the WS/MQTT
// transports, the session manager, the Router and the Control API, the way
// cmd/server/main.go wired the teacher's TCP gateway.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cfgpkg "github.com/csms/core/internal/config"
	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/controlapi"
	controlapihttp "github.com/csms/core/internal/controlapi/http"
	"github.com/csms/core/internal/health"
	"github.com/csms/core/internal/httpserver"
	"github.com/csms/core/internal/logging"
	appmetrics "github.com/csms/core/internal/metrics"
	"github.com/csms/core/internal/security"
	"github.com/csms/core/internal/session"
	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/gormrepo"
	redisstore "github.com/csms/core/internal/store/redis"
	"github.com/csms/core/internal/router"
	"github.com/csms/core/internal/transport/mqtt"
	"github.com/csms/core/internal/transport/ws"
)

// watchdogSweepInterval is how often Run polls every tracked Session's
// heartbeat watchdog deadline (§4.4/§8: "watchdog fires at 2x interval +
// grace"); a charger whose transport socket stays open but stops
// heartbeating is only detected offline at this granularity.
const watchdogSweepInterval = 10 * time.Second

// App is the fully-wired process: every long-lived component plus the one
// entrypoint (Run) that starts them and blocks until ctx is cancelled.
type App struct {
	cfg    *cfgpkg.Config
	logger *zap.Logger

	store      store.Store
	cache      cache.Cache
	sessions   *session.Manager
	router     *router.Router
	controlAPI *controlapi.Service

	hub         *ws.Hub
	wsSrv       *http.Server
	mqttClient  *mqtt.Transport
	gw          *gateway
	readiness   *health.Readiness
	aggregator  *health.Aggregator
	httpSrv     *httpserver.Server
}

// Build loads configuration, constructs every component and wires their
// callbacks together, but starts nothing — Run does that.
func Build(configPath string) (*App, error) {
	cfg, err := cfgpkg.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	readiness := health.New()

	db, err := gormrepo.OpenDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	readiness.SetDBReady(true)
	st := gormrepo.New(db)

	var c cache.Cache
	var redisClient *redisstore.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisstore.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c = cache.NewRedisManager(redisClient.Client, cfg.Session.OfflineTimeout)
	} else {
		c = cache.New(cfg.Session.OfflineTimeout)
	}

	reg := appmetrics.NewRegistry()
	appMetrics := appmetrics.NewAppMetrics(reg)

	sessionCfg := session.Config{
		HeartbeatInterval:  cfg.Session.HeartbeatInterval,
		WatchdogGrace:      cfg.Session.WatchdogGrace,
		InboundBufferDepth: cfg.Session.InboundBufferDepth,
		OutboundQueueDepth: cfg.Session.OutboundQueueDepth,
		AuthCacheCap:       cfg.Session.AuthorizeCacheCap,
	}

	onStateChange := func(chargePointID, from, to string) {
		logger.Info("session state transition",
			zap.String("charge_point_id", chargePointID), zap.String("from", from), zap.String("to", to))
		appMetrics.OnlineGauge.Set(float64(c.OnlineCount(time.Now())))
	}

	gw := newGateway(c, nil, logger)
	sessions := session.NewManager(sessionCfg, st, c, gw.send, logger, onStateChange)
	gw.sessions = sessions
	sessions.SetDecodeFailureNotifier(gw)

	r := router.New(sessions, cfg.Session.CallTimeout, cfg.Session.DedupWindow, appMetrics, logger)

	hub := ws.New(logger, cfg.WS.WriteTimeout, cfg.WS.OutboundQueueSize)
	gw.wire("ws", hub)
	readiness.SetTransportReady(true)

	wsMux := http.NewServeMux()
	wsMux.Handle("/ocpp", hub)
	wsMux.Handle("/ocpp/", hub)
	wsSrv := &http.Server{Addr: cfg.WS.ListenAddr, Handler: wsMux}

	var mqttClient *mqtt.Transport
	if cfg.MQTT.Enable {
		cipher := security.NewCipher(cfg.Security.MasterKey, cfg.Security.Salt)
		masterSecret, err := cipher.Decrypt(cfg.MQTT.MasterSecret)
		if err != nil {
			return nil, fmt.Errorf("decrypt mqtt master secret: %w", err)
		}
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = cfg.MQTT.TypeCode + "&csms"
		}
		mqttClient, err = mqtt.New(mqtt.Config{
			BrokerURL:      cfg.MQTT.BrokerURL,
			ClientID:       clientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			TypeCode:       cfg.MQTT.TypeCode,
			QoS:            cfg.MQTT.QoS,
			OfflineTimeout: cfg.MQTT.OfflineTimeout,
		}, logger, c, func(ctx context.Context, typeCode string) (string, error) {
			if typeCode != cfg.MQTT.TypeCode {
				return "", fmt.Errorf("bootstrap: no master secret configured for type code %q", typeCode)
			}
			return masterSecret, nil
		})
		if err != nil {
			return nil, fmt.Errorf("start mqtt transport: %w", err)
		}
		gw.wire("mqtt", mqttClient)
	}

	controlAPI := controlapi.New(st, sessions, r, logger)

	checkers := []health.Checker{
		health.NewDatabaseChecker(db),
		health.NewTransportChecker(c, 0),
	}
	if redisClient != nil {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	aggregator := health.NewAggregator(checkers...)

	authCfg := controlapihttp.AuthConfig{Enabled: cfg.ControlAPI.AuthEnabled, APIKeys: cfg.ControlAPI.APIKeys}

	mount := func(engine *gin.Engine) {
		controlapihttp.RegisterRoutes(engine, controlAPI, authCfg, logger)
		health.RegisterHTTPRoutes(engine, aggregator)
	}

	metricsHandler := appmetrics.Handler(reg)
	if !cfg.Metrics.Enable {
		metricsHandler = http.NotFoundHandler()
	}
	readyFn := func() bool { return readiness.Ready() && aggregator.Ready(context.Background()) }
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn, mount)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		cache:      c,
		sessions:   sessions,
		router:     r,
		controlAPI: controlAPI,
		hub:        hub,
		wsSrv:      wsSrv,
		mqttClient: mqttClient,
		gw:         gw,
		readiness:  readiness,
		aggregator: aggregator,
		httpSrv:    httpSrv,
	}, nil
}

// Run starts the control-plane HTTP listener, the OCPP WebSocket listener
// and the heartbeat watchdog sweep (each in its own goroutine) and waits for
// ctx to be cancelled or a listener to fail, then shuts everything down with
// a 10s grace period.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		if err := a.httpSrv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("control api server: %w", err)
		}
	}()
	go func() {
		if err := a.wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("ws server: %w", err)
		}
	}()
	go a.watchdogSweep(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		a.logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.router.Close()
	if a.mqttClient != nil {
		a.mqttClient.Shutdown()
	}
	_ = a.wsSrv.Shutdown(shutdownCtx)
	return a.httpSrv.Shutdown(shutdownCtx)
}

// watchdogSweep polls every tracked Session's heartbeat watchdog deadline
// and disconnects whichever have gone silent past it (§4.4/§8), the one
// piece a transport's own read-loop exit can never catch: a WS charger that
// keeps its TCP socket open but stops sending Heartbeat/*.req.
func (a *App) watchdogSweep(ctx context.Context) {
	ticker := time.NewTicker(watchdogSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			for _, sess := range a.sessions.All() {
				if sess.CurrentState() == session.StateDisconnected {
					continue
				}
				if now.After(sess.WatchdogDeadline()) {
					a.logger.Warn("heartbeat watchdog expired, disconnecting session",
						zap.String("charge_point_id", sess.ChargePointID()))
					sess.Disconnect(true)
				}
			}
		}
	}
}

// Logger exposes the process logger for main.go's deferred Sync.
func (a *App) Logger() *zap.Logger { return a.logger }
