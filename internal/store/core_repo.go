package store

import (
	"context"
	"errors"
	"time"

	"github.com/csms/core/internal/store/models"
)

// ErrConcurrentTx is returned by StartTransaction when the evse already has
// an active session — the equivalent of OCPP's ConcurrentTx IdTag status,
// but surfaced at the store layer so the session handler can map it without
// a round trip.
var ErrConcurrentTx = errors.New("store: evse already has an active transaction")

// ErrNotFound is returned by single-row lookups that find nothing, wrapping
// the underlying driver's not-found error so callers never import gorm.
var ErrNotFound = errors.New("store: record not found")

// Store is the storage abstraction for the CSMS core.
//
// Constraints:
//   - Callers never write raw SQL directly; everything funnels through this
//     interface.
//   - Implementations must provide WithTx so StartTransaction/StopTransaction
//     run atomically and under Serializable isolation (§4.5); a caller that
//     sees a serialization failure is expected to retry the whole WithTx call.
//   - The interface stays DB-agnostic (models and basic types only).
type Store interface {
	// ---------- Transactions ----------
	// WithTx runs fn inside a single transaction; nested calls reuse the
	// current transaction instead of opening a new one.
	WithTx(ctx context.Context, fn func(repo Store) error) error

	// ---------- Devices ----------
	EnsureDevice(ctx context.Context, serial string) (*models.Device, error)
	GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error)
	ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error)

	// ---------- Charge points ----------
	// EnsureChargePoint creates the row on the first BootNotification, or
	// refreshes vendor/model/firmware on a later one.
	EnsureChargePoint(ctx context.Context, cp *models.ChargePoint) (*models.ChargePoint, error)
	GetChargePoint(ctx context.Context, id string) (*models.ChargePoint, error)
	ListChargePoints(ctx context.Context, limit, offset int) ([]models.ChargePoint, error)
	TouchChargePointLastSeen(ctx context.Context, id string, at time.Time) error
	UpdateChargePointPhysicalStatus(ctx context.Context, id string, status models.PhysicalStatus) error
	UpdateChargePointOperationalStatus(ctx context.Context, id string, status models.OperationalStatus) error
	// UpdateChargePointLocation and UpdateChargePointPricing back the local
	// (no OCPP call) Control API operations of the same name.
	UpdateChargePointLocation(ctx context.Context, id string, lat, lng float64, address string) error
	UpdateChargePointPricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error

	// ---------- EVSEs ----------
	EnsureEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error)
	GetEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error)
	ListEvses(ctx context.Context, chargePointID string) ([]models.Evse, error)
	UpdateEvseStatus(ctx context.Context, chargePointID string, connectorID int32, status models.PhysicalStatus, errorCode string) error

	// ---------- Charging sessions ----------
	// StartTransaction inserts a new active session. Returns ErrConcurrentTx
	// if the evse already has one open (enforced by a partial unique index).
	StartTransaction(ctx context.Context, s *models.ChargingSession) (*models.ChargingSession, error)
	// GetActiveSession returns the in-progress session for an evse, if any.
	GetActiveSession(ctx context.Context, chargePointID string, evseID int64) (*models.ChargingSession, error)
	// ListActiveSessionsByChargePoint backs RemoteStop's transactionId
	// resolution when the caller omits it (§4.7): the operation errors if
	// this returns anything other than exactly one row.
	ListActiveSessionsByChargePoint(ctx context.Context, chargePointID string) ([]models.ChargingSession, error)
	GetSessionByTransactionID(ctx context.Context, chargePointID string, transactionID int64) (*models.ChargingSession, error)
	// StopTransaction closes the session idempotently: a second call on an
	// already-closed session is a no-op, not an error.
	StopTransaction(ctx context.Context, chargePointID string, transactionID int64, meterStop int64, endTime time.Time, status models.SessionStatus) (*models.ChargingSession, error)

	// ---------- Meter values ----------
	AppendMeterValue(ctx context.Context, mv *models.MeterValue) error
	ListMeterValues(ctx context.Context, sessionID int64, limit int) ([]models.MeterValue, error)

	// ---------- Device events ----------
	AppendDeviceEvent(ctx context.Context, ev *models.DeviceEvent) error
	ListDeviceEvents(ctx context.Context, chargePointID string, since time.Time, limit int) ([]models.DeviceEvent, error)

	// ---------- Id tags ----------
	GetIdTag(ctx context.Context, tag string) (*models.IdTag, error)
	UpsertIdTag(ctx context.Context, tag *models.IdTag) error

	// ---------- Orders ----------
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderBySessionID(ctx context.Context, sessionID int64) (*models.Order, error)
}
