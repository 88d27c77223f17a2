package controlapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csms/core/internal/cache"
	"github.com/csms/core/internal/router"
	"github.com/csms/core/internal/session"
	"github.com/csms/core/internal/store/models"
)

func newTestService(t *testing.T, st *fakeStore) *Service {
	t.Helper()
	sessions := session.NewManager(session.Config{}, st, cache.New(time.Minute),
		func(ctx context.Context, chargePointID string, frame []byte) error { return nil }, nil, nil)
	t.Cleanup(func() {
		for _, s := range sessions.All() {
			s.Close()
		}
	})
	r := router.New(sessions, time.Second, time.Minute, nil, nil)
	t.Cleanup(r.Close)
	return New(st, sessions, r, nil)
}

func seedChargePoint(st *fakeStore, id string, lat, lng, price *float64) {
	st.chargePoints[id] = &models.ChargePoint{
		ID:                id,
		PhysicalStatus:    models.StatusAvailable,
		OperationalStatus: models.OperationalEnabled,
		Latitude:          lat,
		Longitude:         lng,
		PricePerKwh:       price,
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestService_ListChargePoints(t *testing.T) {
	st := newFakeStore()
	seedChargePoint(st, "CP-1", floatPtr(1), floatPtr(2), floatPtr(0.3))
	svc := newTestService(t, st)

	views, err := svc.ListChargePoints(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "CP-1", views[0].ID)
	assert.True(t, views[0].IsConfigured)
	assert.True(t, views[0].IsAvailable)
	assert.False(t, views[0].IsOnline)
}

func TestService_ListPendingChargers(t *testing.T) {
	st := newFakeStore()
	seedChargePoint(st, "CP-CONFIGURED", floatPtr(1), floatPtr(2), floatPtr(0.3))
	seedChargePoint(st, "CP-PENDING", nil, nil, nil)
	svc := newTestService(t, st)

	pending, err := svc.ListPendingChargers(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "CP-PENDING", pending[0].ID)
}

func TestService_GetChargePoint_NotFound(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)

	_, err := svc.GetChargePoint(context.Background(), "CP-MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_CreateChargePoint(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)

	lat, lng, addr, price := 1.0, 2.0, "123 Main St", 0.25
	view, err := svc.CreateChargePoint(context.Background(), "CP-NEW", &lat, &lng, &addr, &price, nil)
	require.NoError(t, err)
	assert.Equal(t, "CP-NEW", view.ID)
	assert.True(t, view.IsConfigured)

	stored, err := svc.GetChargePoint(context.Background(), "CP-NEW")
	require.NoError(t, err)
	assert.Equal(t, addr, *stored.Address)
}

func TestService_GetHistory(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)
	now := time.Now()
	st.events = []models.DeviceEvent{
		{ChargePointID: "CP-1", EventKind: "heartbeat", Timestamp: now.Add(-time.Minute)},
		{ChargePointID: "CP-2", EventKind: "heartbeat", Timestamp: now},
	}

	events, err := svc.GetHistory(context.Background(), "CP-1", time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "CP-1", events[0].ChargePointID)
}

func TestService_GetHeartbeatAndStatusTimeline(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)
	now := time.Now()
	connID := int64(1)
	st.events = []models.DeviceEvent{
		{ChargePointID: "CP-1", EventKind: "heartbeat", Timestamp: now},
		{ChargePointID: "CP-1", EventKind: "status_notification", EvseID: &connID, Payload: `{"status":"Available"}`, Timestamp: now},
	}

	heartbeats, err := svc.GetHeartbeatTimeline(context.Background(), "CP-1", time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, heartbeats, 1)

	statuses, err := svc.GetStatusTimeline(context.Background(), "CP-1", time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, connID, *statuses[0].ConnectorID)
}

func TestService_UpdateLocationAndPricing(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)

	require.NoError(t, svc.UpdateLocation(context.Background(), "CP-1", 1.5, 2.5, "Somewhere"))
	assert.Equal(t, 1.5, st.updatedLat)
	assert.Equal(t, "Somewhere", st.updatedAddress)

	nominal := 7.2
	require.NoError(t, svc.UpdatePricing(context.Background(), "CP-1", 0.4, &nominal))
	assert.Equal(t, 0.4, st.updatedPrice)
	assert.Equal(t, &nominal, st.updatedNominal)
}

func TestService_ResolveTransactionID(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)

	explicit := int64(42)
	txID, err := svc.resolveTransactionID(context.Background(), "CP-1", &explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, txID)

	_, err = svc.resolveTransactionID(context.Background(), "CP-NONE", nil)
	assert.ErrorIs(t, err, ErrNoActiveTransaction)

	st.activeSessions["CP-MANY"] = []models.ChargingSession{
		{TransactionID: 1}, {TransactionID: 2},
	}
	_, err = svc.resolveTransactionID(context.Background(), "CP-MANY", nil)
	assert.ErrorIs(t, err, ErrAmbiguousTransaction)

	st.activeSessions["CP-ONE"] = []models.ChargingSession{{TransactionID: 99}}
	txID, err = svc.resolveTransactionID(context.Background(), "CP-ONE", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(99), txID)
}

func TestService_RemoteStop_NoActiveTransaction(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)

	_, err := svc.RemoteStop(context.Background(), "CP-OFFLINE", nil)
	assert.ErrorIs(t, err, ErrNoActiveTransaction)
}

func TestService_RemoteStart_OfflineChargerFails(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(t, st)

	_, err := svc.RemoteStart(context.Background(), "CP-OFFLINE", "TAG1", nil)
	assert.ErrorIs(t, err, ErrChargerOffline)
}
