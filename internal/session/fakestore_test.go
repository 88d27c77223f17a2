package session

import (
	"context"
	"sync"
	"time"

	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// fakeStoreForSession is a minimal store.Store sufficient to exercise the
// Session dispatch loop end to end (BootNotification only, in these tests).
type fakeStoreForSession struct {
	mu           sync.Mutex
	chargePoints map[string]*models.ChargePoint
}

func newFakeStoreForSession() *fakeStoreForSession {
	return &fakeStoreForSession{chargePoints: make(map[string]*models.ChargePoint)}
}

func (f *fakeStoreForSession) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(f)
}
func (f *fakeStoreForSession) EnsureDevice(ctx context.Context, serial string) (*models.Device, error) {
	return &models.Device{Serial: serial}, nil
}
func (f *fakeStoreForSession) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	return nil, nil
}
func (f *fakeStoreForSession) EnsureChargePoint(ctx context.Context, cp *models.ChargePoint) (*models.ChargePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *cp
	f.chargePoints[cp.ID] = &copy
	return &copy, nil
}
func (f *fakeStoreForSession) GetChargePoint(ctx context.Context, id string) (*models.ChargePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp, ok := f.chargePoints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cp, nil
}
func (f *fakeStoreForSession) ListChargePoints(ctx context.Context, limit, offset int) ([]models.ChargePoint, error) {
	return nil, nil
}
func (f *fakeStoreForSession) TouchChargePointLastSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (f *fakeStoreForSession) UpdateChargePointPhysicalStatus(ctx context.Context, id string, status models.PhysicalStatus) error {
	return nil
}
func (f *fakeStoreForSession) UpdateChargePointOperationalStatus(ctx context.Context, id string, status models.OperationalStatus) error {
	return nil
}
func (f *fakeStoreForSession) UpdateChargePointLocation(ctx context.Context, id string, lat, lng float64, address string) error {
	return nil
}
func (f *fakeStoreForSession) UpdateChargePointPricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error {
	return nil
}
func (f *fakeStoreForSession) EnsureEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	return &models.Evse{ID: 1, ChargePointID: chargePointID, ConnectorID: connectorID}, nil
}
func (f *fakeStoreForSession) GetEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) ListEvses(ctx context.Context, chargePointID string) ([]models.Evse, error) {
	return nil, nil
}
func (f *fakeStoreForSession) UpdateEvseStatus(ctx context.Context, chargePointID string, connectorID int32, status models.PhysicalStatus, errorCode string) error {
	return nil
}
func (f *fakeStoreForSession) StartTransaction(ctx context.Context, s *models.ChargingSession) (*models.ChargingSession, error) {
	return s, nil
}
func (f *fakeStoreForSession) GetActiveSession(ctx context.Context, chargePointID string, evseID int64) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) ListActiveSessionsByChargePoint(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	return nil, nil
}
func (f *fakeStoreForSession) GetSessionByTransactionID(ctx context.Context, chargePointID string, transactionID int64) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) StopTransaction(ctx context.Context, chargePointID string, transactionID int64, meterStop int64, endTime time.Time, status models.SessionStatus) (*models.ChargingSession, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) AppendMeterValue(ctx context.Context, mv *models.MeterValue) error {
	return nil
}
func (f *fakeStoreForSession) ListMeterValues(ctx context.Context, sessionID int64, limit int) ([]models.MeterValue, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) AppendDeviceEvent(ctx context.Context, ev *models.DeviceEvent) error {
	return nil
}
func (f *fakeStoreForSession) ListDeviceEvents(ctx context.Context, chargePointID string, since time.Time, limit int) ([]models.DeviceEvent, error) {
	return nil, nil
}
func (f *fakeStoreForSession) GetIdTag(ctx context.Context, tag string) (*models.IdTag, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStoreForSession) UpsertIdTag(ctx context.Context, tag *models.IdTag) error {
	return nil
}
func (f *fakeStoreForSession) CreateOrder(ctx context.Context, order *models.Order) error {
	return nil
}
func (f *fakeStoreForSession) GetOrderBySessionID(ctx context.Context, sessionID int64) (*models.Order, error) {
	return nil, store.ErrNotFound
}

var _ store.Store = (*fakeStoreForSession)(nil)
