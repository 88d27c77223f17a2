package gormrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// Repository is a GORM-backed store.Store. The isTx flag distinguishes a
// transactional child from the top-level handle, so a nested WithTx call
// reuses the running transaction instead of opening a new one.
type Repository struct {
	db   *gorm.DB
	isTx bool
}

// New returns a store.Store backed by db.
func New(db *gorm.DB) store.Store {
	return &Repository{db: db}
}

// WithTx reuses the current transaction, or begins a new Serializable one.
func (r *Repository) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if r.isTx {
		return fn(r)
	}

	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		return tx.Error
	}

	child := &Repository{db: tx, isTx: true}
	if err := fn(child); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// ---------- Devices ----------

func (r *Repository) EnsureDevice(ctx context.Context, serial string) (*models.Device, error) {
	record := &models.Device{Serial: serial, Active: true}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "serial"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": gorm.Expr("NOW()")}),
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}
	return r.GetDeviceBySerial(ctx, serial)
}

func (r *Repository) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	var d models.Device
	err := r.db.WithContext(ctx).Where("serial = ?", serial).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &d, err
}

func (r *Repository) ListDevices(ctx context.Context, limit, offset int) ([]models.Device, error) {
	var devices []models.Device
	q := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// ---------- Charge points ----------

func (r *Repository) EnsureChargePoint(ctx context.Context, cp *models.ChargePoint) (*models.ChargePoint, error) {
	now := time.Now()
	cp.LastSeenAt = &now
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"vendor":           gorm.Expr("excluded.vendor"),
				"model":            gorm.Expr("excluded.model"),
				"firmware_version": gorm.Expr("excluded.firmware_version"),
				"last_seen_at":     gorm.Expr("excluded.last_seen_at"),
				"updated_at":       gorm.Expr("NOW()"),
			}),
		}).
		Create(cp).Error
	if err != nil {
		return nil, err
	}
	return r.GetChargePoint(ctx, cp.ID)
}

func (r *Repository) GetChargePoint(ctx context.Context, id string) (*models.ChargePoint, error) {
	var cp models.ChargePoint
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &cp, err
}

func (r *Repository) ListChargePoints(ctx context.Context, limit, offset int) ([]models.ChargePoint, error) {
	var cps []models.ChargePoint
	q := r.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&cps).Error; err != nil {
		return nil, err
	}
	return cps, nil
}

func (r *Repository) TouchChargePointLastSeen(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ChargePoint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_seen_at": at, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateChargePointPhysicalStatus(ctx context.Context, id string, status models.PhysicalStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ChargePoint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"physical_status": status, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateChargePointOperationalStatus(ctx context.Context, id string, status models.OperationalStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ChargePoint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"operational_status": status, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateChargePointLocation(ctx context.Context, id string, lat, lng float64, address string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ChargePoint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"latitude": lat, "longitude": lng, "address": address, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateChargePointPricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error {
	updates := map[string]interface{}{"price_per_kwh": pricePerKwh, "updated_at": gorm.Expr("NOW()")}
	if nominalRateKw != nil {
		updates["nominal_rate_kw"] = *nominalRateKw
	}
	res := r.db.WithContext(ctx).
		Model(&models.ChargePoint{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------- EVSEs ----------

func (r *Repository) EnsureEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	record := &models.Evse{ChargePointID: chargePointID, ConnectorID: connectorID, Status: models.StatusUnavailable}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "charge_point_id"}, {Name: "connector_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": gorm.Expr("NOW()")}),
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}
	return r.GetEvse(ctx, chargePointID, connectorID)
}

func (r *Repository) GetEvse(ctx context.Context, chargePointID string, connectorID int32) (*models.Evse, error) {
	var e models.Evse
	err := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND connector_id = ?", chargePointID, connectorID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &e, err
}

func (r *Repository) ListEvses(ctx context.Context, chargePointID string) ([]models.Evse, error) {
	var evses []models.Evse
	if err := r.db.WithContext(ctx).Where("charge_point_id = ?", chargePointID).Order("connector_id ASC").Find(&evses).Error; err != nil {
		return nil, err
	}
	return evses, nil
}

func (r *Repository) UpdateEvseStatus(ctx context.Context, chargePointID string, connectorID int32, status models.PhysicalStatus, errorCode string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": gorm.Expr("NOW()"),
	}
	if errorCode != "" {
		updates["last_error_code"] = errorCode
	}
	res := r.db.WithContext(ctx).
		Model(&models.Evse{}).
		Where("charge_point_id = ? AND connector_id = ?", chargePointID, connectorID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------- Charging sessions ----------

// StartTransaction relies on idx_session_one_active_per_evse (a partial
// unique index on status='active') to reject a second concurrent open
// session; a unique-violation from the driver is translated here so callers
// never need to know the underlying constraint name.
func (r *Repository) StartTransaction(ctx context.Context, s *models.ChargingSession) (*models.ChargingSession, error) {
	s.Status = models.SessionActive
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConcurrentTx
		}
		return nil, err
	}
	return s, nil
}

func (r *Repository) GetActiveSession(ctx context.Context, chargePointID string, evseID int64) (*models.ChargingSession, error) {
	var s models.ChargingSession
	err := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND evse_id = ? AND status = ?", chargePointID, evseID, models.SessionActive).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &s, err
}

func (r *Repository) ListActiveSessionsByChargePoint(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	var sessions []models.ChargingSession
	err := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND status = ?", chargePointID, models.SessionActive).
		Order("start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *Repository) GetSessionByTransactionID(ctx context.Context, chargePointID string, transactionID int64) (*models.ChargingSession, error) {
	var s models.ChargingSession
	err := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND transaction_id = ?", chargePointID, transactionID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &s, err
}

// StopTransaction only updates a row still in 'active' status, so a
// redelivered StopTransaction.req (§2.3 dedup window expired) is a no-op:
// RowsAffected==0 is treated as success, and the already-closed row is
// fetched and returned.
func (r *Repository) StopTransaction(ctx context.Context, chargePointID string, transactionID int64, meterStop int64, endTime time.Time, status models.SessionStatus) (*models.ChargingSession, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ChargingSession{}).
		Where("charge_point_id = ? AND transaction_id = ? AND status = ?", chargePointID, transactionID, models.SessionActive).
		Updates(map[string]interface{}{
			"meter_stop": meterStop,
			"end_time":   endTime,
			"status":     status,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return r.GetSessionByTransactionID(ctx, chargePointID, transactionID)
}

// ---------- Meter values ----------

func (r *Repository) AppendMeterValue(ctx context.Context, mv *models.MeterValue) error {
	return r.db.WithContext(ctx).Create(mv).Error
}

// ListMeterValues returns sessionID's stored samples newest-first (callers
// that want chronological order, e.g. an export, must reverse the slice);
// latestMeterTimestamp's limit=1 lookup relies on index 0 being the most
// recent sample, not the oldest.
func (r *Repository) ListMeterValues(ctx context.Context, sessionID int64, limit int) ([]models.MeterValue, error) {
	var values []models.MeterValue
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// ---------- Device events ----------

func (r *Repository) AppendDeviceEvent(ctx context.Context, ev *models.DeviceEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *Repository) ListDeviceEvents(ctx context.Context, chargePointID string, since time.Time, limit int) ([]models.DeviceEvent, error) {
	var events []models.DeviceEvent
	q := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND timestamp >= ?", chargePointID, since).
		Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ---------- Id tags ----------

func (r *Repository) GetIdTag(ctx context.Context, tag string) (*models.IdTag, error) {
	var t models.IdTag
	err := r.db.WithContext(ctx).Where("tag = ?", tag).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &t, err
}

func (r *Repository) UpsertIdTag(ctx context.Context, tag *models.IdTag) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tag"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     gorm.Expr("excluded.status"),
				"parent_id":  gorm.Expr("excluded.parent_id"),
				"expiry":     gorm.Expr("excluded.expiry"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(tag).Error
}

// ---------- Orders ----------

func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) GetOrderBySessionID(ctx context.Context, sessionID int64) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return &o, err
}

// isUniqueViolation checks for Postgres SQLSTATE 23505 without importing the
// pgx driver types directly, so this file stays portable across drivers
// gorm.io/driver/postgres might swap underneath it.
func isUniqueViolation(err error) bool {
	type sqlStater interface{ SQLState() string }
	var s sqlStater
	if errors.As(err, &s) {
		return s.SQLState() == "23505"
	}
	return false
}
