package http

import (
	"context"
	"time"

	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// controlapiFakeStore is the same minimal store.Store double used by
// internal/controlapi's own tests, duplicated here since Go test files
// can't import another package's _test.go sources.
type controlapiFakeStore struct {
	chargePoints   map[string]*models.ChargePoint
	events         []models.DeviceEvent
	activeSessions map[string][]models.ChargingSession
}

func newControlapiFakeStore() *controlapiFakeStore {
	return &controlapiFakeStore{
		chargePoints:   make(map[string]*models.ChargePoint),
		activeSessions: make(map[string][]models.ChargingSession),
	}
}

func (f *controlapiFakeStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(f)
}
func (f *controlapiFakeStore) EnsureDevice(ctx context.Context, serial string) (*models.Device, error) {
	return &models.Device{Serial: serial}, nil
}
func (f *controlapiFakeStore) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	return nil, nil
}
func (f *controlapiFakeStore) EnsureChargePoint(ctx context.Context, cp *models.ChargePoint) (*models.ChargePoint, error) {
	copy := *cp
	f.chargePoints[cp.ID] = &copy
	return &copy, nil
}
func (f *controlapiFakeStore) GetChargePoint(ctx context.Context, id string) (*models.ChargePoint, error) {
	cp, ok := f.chargePoints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cp, nil
}
func (f *controlapiFakeStore) ListChargePoints(ctx context.Context, limit, offset int) ([]models.ChargePoint, error) {
	out := make([]models.ChargePoint, 0, len(f.chargePoints))
	for _, cp := range f.chargePoints {
		out = append(out, *cp)
	}
	return out, nil
}
func (f *controlapiFakeStore) TouchChargePointLastSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (f *controlapiFakeStore) UpdateChargePointPhysicalStatus(ctx context.Context, id string, status models.PhysicalStatus) error {
	return nil
}
func (f *controlapiFakeStore) UpdateChargePointOperationalStatus(ctx context.Context, id string, status models.OperationalStatus) error {
	return nil
}
func (f *controlapiFakeStore) UpdateChargePointLocation(ctx context.Context, id string, lat, lng float64, address string) error {
	return nil
}
func (f *controlapiFakeStore) UpdateChargePointPricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error {
	return nil
}
func (f *controlapiFakeStore) EnsureEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	return &models.Evse{ID: 1, ChargePointID: chargePointID, ConnectorID: connectorID}, nil
}
func (f *controlapiFakeStore) GetEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) ListEvses(ctx context.Context, chargePointID string) ([]models.Evse, error) {
	return nil, nil
}
func (f *controlapiFakeStore) UpdateEvseStatus(ctx context.Context, chargePointID string, connectorID int32, status models.PhysicalStatus, errorCode string) error {
	return nil
}
func (f *controlapiFakeStore) StartTransaction(ctx context.Context, s *models.ChargingSession) (*models.ChargingSession, error) {
	return s, nil
}
func (f *controlapiFakeStore) GetActiveSession(ctx context.Context, chargePointID string, evseID int64) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) ListActiveSessionsByChargePoint(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	return f.activeSessions[chargePointID], nil
}
func (f *controlapiFakeStore) GetSessionByTransactionID(ctx context.Context, chargePointID string, transactionID int64) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) StopTransaction(ctx context.Context, chargePointID string, transactionID int64, meterStop int64, endTime time.Time, status models.SessionStatus) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) AppendMeterValue(ctx context.Context, mv *models.MeterValue) error {
	return nil
}
func (f *controlapiFakeStore) ListMeterValues(ctx context.Context, sessionID int64, limit int) ([]models.MeterValue, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) AppendDeviceEvent(ctx context.Context, ev *models.DeviceEvent) error {
	f.events = append(f.events, *ev)
	return nil
}
func (f *controlapiFakeStore) ListDeviceEvents(ctx context.Context, chargePointID string, since time.Time, limit int) ([]models.DeviceEvent, error) {
	out := make([]models.DeviceEvent, 0)
	for _, ev := range f.events {
		if ev.ChargePointID == chargePointID && !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}
func (f *controlapiFakeStore) GetIdTag(ctx context.Context, tag string) (*models.IdTag, error) {
	return nil, store.ErrNotFound
}
func (f *controlapiFakeStore) UpsertIdTag(ctx context.Context, tag *models.IdTag) error { return nil }
func (f *controlapiFakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return nil
}
func (f *controlapiFakeStore) GetOrderBySessionID(ctx context.Context, sessionID int64) (*models.Order, error) {
	return nil, store.ErrNotFound
}

var _ store.Store = (*controlapiFakeStore)(nil)
