package health

import "sync/atomic"

// Readiness aggregates coarse readiness flags for the pieces main.go brings
// up before the process should start accepting traffic: the database pool
// and at least one transport (WS hub or MQTT client) able to accept charge
// point connections.
type Readiness struct {
	dbReady        atomic.Bool
	transportReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetDBReady(v bool)        { r.dbReady.Store(v) }
func (r *Readiness) SetTransportReady(v bool) { r.transportReady.Store(v) }

// Ready reports whether every tracked subsystem is up.
func (r *Readiness) Ready() bool {
	return r.dbReady.Load() && r.transportReady.Load()
}
