package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// fakeStore is a minimal in-memory store.Store for handler unit tests.
type fakeStore struct {
	mu             sync.Mutex
	chargePoints   map[string]*models.ChargePoint
	evses          map[string]*models.Evse
	nextEvseID     int64
	sessions       map[int64]*models.ChargingSession // by transactionID, scoped by cp+tx key
	nextSessionID  int64
	meterValues    map[int64][]models.MeterValue
	deviceEvents   []models.DeviceEvent
	idTags         map[string]*models.IdTag
	orders         map[int64]*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chargePoints: make(map[string]*models.ChargePoint),
		evses:        make(map[string]*models.Evse),
		sessions:     make(map[int64]*models.ChargingSession),
		meterValues:  make(map[int64][]models.MeterValue),
		idTags:       make(map[string]*models.IdTag),
		orders:       make(map[int64]*models.Order),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(f)
}

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
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.chargePoints[cp.ID]
	if !ok {
		copy := *cp
		f.chargePoints[cp.ID] = &copy
		return &copy, nil
	}
	existing.Vendor = cp.Vendor
	existing.Model = cp.Model
	if cp.FirmwareVersion != nil {
		existing.FirmwareVersion = cp.FirmwareVersion
	}
	return existing, nil
}

func (f *fakeStore) GetChargePoint(ctx context.Context, id string) (*models.ChargePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp, ok := f.chargePoints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cp, nil
}

func (f *fakeStore) ListChargePoints(ctx context.Context, limit, offset int) ([]models.ChargePoint, error) {
	return nil, nil
}
func (f *fakeStore) TouchChargePointLastSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (f *fakeStore) UpdateChargePointPhysicalStatus(ctx context.Context, id string, status models.PhysicalStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cp, ok := f.chargePoints[id]; ok {
		cp.PhysicalStatus = status
	}
	return nil
}
func (f *fakeStore) UpdateChargePointOperationalStatus(ctx context.Context, id string, status models.OperationalStatus) error {
	return nil
}
func (f *fakeStore) UpdateChargePointLocation(ctx context.Context, id string, lat, lng float64, address string) error {
	return nil
}
func (f *fakeStore) UpdateChargePointPricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error {
	return nil
}

func evseKey(chargePointID string, connectorID int32) string {
	return chargePointID + "#" + string(rune(connectorID))
}

func (f *fakeStore) EnsureEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := evseKey(chargePointID, connectorID)
	if e, ok := f.evses[key]; ok {
		return e, nil
	}
	f.nextEvseID++
	e := &models.Evse{ID: f.nextEvseID, ChargePointID: chargePointID, ConnectorID: connectorID, Status: models.StatusUnavailable}
	f.evses[key] = e
	return e, nil
}

func (f *fakeStore) GetEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.evses[evseKey(chargePointID, connectorID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) ListEvses(ctx context.Context, chargePointID string) ([]models.Evse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Evse
	for _, e := range f.evses {
		if e.ChargePointID == chargePointID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateEvseStatus(ctx context.Context, chargePointID string, connectorID int32, status models.PhysicalStatus, errorCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.evses[evseKey(chargePointID, connectorID)]
	if !ok {
		return store.ErrNotFound
	}
	e.Status = status
	if errorCode != "" {
		e.LastErrorCode = &errorCode
	}
	return nil
}

func (f *fakeStore) StartTransaction(ctx context.Context, s *models.ChargingSession) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.ChargePointID == s.ChargePointID && existing.EvseID == s.EvseID && existing.Status == models.SessionActive {
			return nil, store.ErrConcurrentTx
		}
	}
	f.nextSessionID++
	s.ID = f.nextSessionID
	s.Status = models.SessionActive
	copy := *s
	f.sessions[s.TransactionID] = &copy
	return &copy, nil
}

func (f *fakeStore) GetActiveSession(ctx context.Context, chargePointID string, evseID int64) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ChargePointID == chargePointID && s.EvseID == evseID && s.Status == models.SessionActive {
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetSessionByTransactionID(ctx context.Context, chargePointID string, transactionID int64) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[transactionID]
	if !ok || s.ChargePointID != chargePointID {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListActiveSessionsByChargePoint(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChargingSession
	for _, s := range f.sessions {
		if s.ChargePointID == chargePointID && s.Status == models.SessionActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) StopTransaction(ctx context.Context, chargePointID string, transactionID int64, meterStop int64, endTime time.Time, status models.SessionStatus) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[transactionID]
	if !ok || s.ChargePointID != chargePointID {
		return nil, store.ErrNotFound
	}
	if s.Status == models.SessionActive {
		s.MeterStop = &meterStop
		s.EndTime = &endTime
		s.Status = status
	}
	return s, nil
}

func (f *fakeStore) AppendMeterValue(ctx context.Context, mv *models.MeterValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meterValues[mv.SessionID] = append(f.meterValues[mv.SessionID], *mv)
	return nil
}

func (f *fakeStore) ListMeterValues(ctx context.Context, sessionID int64, limit int) ([]models.MeterValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := make([]models.MeterValue, len(f.meterValues[sessionID]))
	copy(values, f.meterValues[sessionID])
	sort.Slice(values, func(i, j int) bool { return values[i].Timestamp.After(values[j].Timestamp) })
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

func (f *fakeStore) AppendDeviceEvent(ctx context.Context, ev *models.DeviceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deviceEvents = append(f.deviceEvents, *ev)
	return nil
}

func (f *fakeStore) ListDeviceEvents(ctx context.Context, chargePointID string, since time.Time, limit int) ([]models.DeviceEvent, error) {
	return nil, nil
}

func (f *fakeStore) GetIdTag(ctx context.Context, tag string) (*models.IdTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.idTags[tag]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) UpsertIdTag(ctx context.Context, tag *models.IdTag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idTags[tag.Tag] = tag
	return nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = int64(len(f.orders) + 1)
	f.orders[order.SessionID] = order
	return nil
}

func (f *fakeStore) GetOrderBySessionID(ctx context.Context, sessionID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o, nil
}

var _ store.Store = (*fakeStore)(nil)
