package controlapi

import (
	"context"
	"time"

	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// fakeStore is a minimal store.Store double that lets tests seed charge
// points, device events and active sessions directly instead of standing up
// a database; every method beyond what Service actually calls is a no-op or
// not-found stub.
type fakeStore struct {
	chargePoints   map[string]*models.ChargePoint
	events         []models.DeviceEvent
	activeSessions map[string][]models.ChargingSession

	updatedLat, updatedLng      float64
	updatedAddress              string
	updatedPrice                float64
	updatedNominal              *float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chargePoints:   make(map[string]*models.ChargePoint),
		activeSessions: make(map[string][]models.ChargingSession),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(store.Store) error) error { return fn(f) }
func (f *fakeStore) EnsureDevice(ctx context.Context, serial string) (*models.Device, error) {
	return &models.Device{Serial: serial}, nil
}
func (f *fakeStore) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	return nil, nil
}
func (f *fakeStore) EnsureChargePoint(ctx context.Context, cp *models.ChargePoint) (*models.ChargePoint, error) {
	copy := *cp
	f.chargePoints[cp.ID] = &copy
	return &copy, nil
}
func (f *fakeStore) GetChargePoint(ctx context.Context, id string) (*models.ChargePoint, error) {
	cp, ok := f.chargePoints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cp, nil
}
func (f *fakeStore) ListChargePoints(ctx context.Context, limit, offset int) ([]models.ChargePoint, error) {
	out := make([]models.ChargePoint, 0, len(f.chargePoints))
	for _, cp := range f.chargePoints {
		out = append(out, *cp)
	}
	return out, nil
}
func (f *fakeStore) TouchChargePointLastSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (f *fakeStore) UpdateChargePointPhysicalStatus(ctx context.Context, id string, status models.PhysicalStatus) error {
	return nil
}
func (f *fakeStore) UpdateChargePointOperationalStatus(ctx context.Context, id string, status models.OperationalStatus) error {
	return nil
}
func (f *fakeStore) UpdateChargePointLocation(ctx context.Context, id string, lat, lng float64, address string) error {
	f.updatedLat, f.updatedLng, f.updatedAddress = lat, lng, address
	return nil
}
func (f *fakeStore) UpdateChargePointPricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error {
	f.updatedPrice, f.updatedNominal = pricePerKwh, nominalRateKw
	return nil
}
func (f *fakeStore) EnsureEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	return &models.Evse{ID: 1, ChargePointID: chargePointID, ConnectorID: connectorID}, nil
}
func (f *fakeStore) GetEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) ListEvses(ctx context.Context, chargePointID string) ([]models.Evse, error) {
	return nil, nil
}
func (f *fakeStore) UpdateEvseStatus(ctx context.Context, chargePointID string, connectorID int32, status models.PhysicalStatus, errorCode string) error {
	return nil
}
func (f *fakeStore) StartTransaction(ctx context.Context, s *models.ChargingSession) (*models.ChargingSession, error) {
	return s, nil
}
func (f *fakeStore) GetActiveSession(ctx context.Context, chargePointID string, evseID int64) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) ListActiveSessionsByChargePoint(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	return f.activeSessions[chargePointID], nil
}
func (f *fakeStore) GetSessionByTransactionID(ctx context.Context, chargePointID string, transactionID int64) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) StopTransaction(ctx context.Context, chargePointID string, transactionID int64, meterStop int64, endTime time.Time, status models.SessionStatus) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) AppendMeterValue(ctx context.Context, mv *models.MeterValue) error { return nil }
func (f *fakeStore) ListMeterValues(ctx context.Context, sessionID int64, limit int) ([]models.MeterValue, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) AppendDeviceEvent(ctx context.Context, ev *models.DeviceEvent) error {
	f.events = append(f.events, *ev)
	return nil
}
func (f *fakeStore) ListDeviceEvents(ctx context.Context, chargePointID string, since time.Time, limit int) ([]models.DeviceEvent, error) {
	out := make([]models.DeviceEvent, 0)
	for _, ev := range f.events {
		if ev.ChargePointID == chargePointID && !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (f *fakeStore) GetIdTag(ctx context.Context, tag string) (*models.IdTag, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) UpsertIdTag(ctx context.Context, tag *models.IdTag) error { return nil }
func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error { return nil }
func (f *fakeStore) GetOrderBySessionID(ctx context.Context, sessionID int64) (*models.Order, error) {
	return nil, store.ErrNotFound
}

var _ store.Store = (*fakeStore)(nil)
