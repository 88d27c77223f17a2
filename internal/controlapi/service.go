// Package controlapi implements the business logic behind the dashboard/app
// control plane (§4.7), generalized from
// internal/api/readonly_handler.go's ReadOnlyHandler: a struct holding the
// store/session/router collaborators, with one method per operation.
package controlapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/csms/core/internal/router"
	"github.com/csms/core/internal/service"
	"github.com/csms/core/internal/session"
	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

var (
	// ErrChargerOffline mirrors router.ErrChargerOffline at the Control API
	// boundary so http handlers never need to import internal/router.
	ErrChargerOffline = router.ErrChargerOffline
	// ErrNoActiveTransaction and ErrAmbiguousTransaction are returned by
	// RemoteStop when transactionId is omitted and the charge point has
	// zero or more than one active session (§4.7).
	ErrNoActiveTransaction  = errors.New("controlapi: charge point has no active transaction")
	ErrAmbiguousTransaction = errors.New("controlapi: charge point has more than one active transaction, transactionId is required")
	ErrNotFound             = store.ErrNotFound
)

// Service bundles the collaborators every Control API operation needs.
type Service struct {
	store    store.Store
	sessions *session.Manager
	router   *router.Router
	timeline *service.TimelineService
	logger   *zap.Logger
}

func New(st store.Store, sessions *session.Manager, r *router.Router, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		sessions: sessions,
		router:   r,
		timeline: service.NewTimelineService(st),
		logger:   logger,
	}
}

// ChargePointView is the dashboard-facing projection of a charge point,
// carrying the derived fields §4.7 names (is_available, is_configured) that
// models.ChargePoint itself computes from stored state.
type ChargePointView struct {
	ID                string                    `json:"id"`
	Vendor            *string                   `json:"vendor,omitempty"`
	Model             *string                   `json:"model,omitempty"`
	FirmwareVersion   *string                   `json:"firmwareVersion,omitempty"`
	PhysicalStatus    models.PhysicalStatus     `json:"physicalStatus"`
	OperationalStatus models.OperationalStatus  `json:"operationalStatus"`
	IsOnline          bool                      `json:"isOnline"`
	IsAvailable       bool                      `json:"isAvailable"`
	IsConfigured      bool                      `json:"isConfigured"`
	Latitude          *float64                  `json:"latitude,omitempty"`
	Longitude         *float64                  `json:"longitude,omitempty"`
	Address           *string                   `json:"address,omitempty"`
	PricePerKwh       *float64                  `json:"pricePerKwh,omitempty"`
	NominalRateKw     *float64                  `json:"nominalRateKw,omitempty"`
	LastSeenAt        *time.Time                `json:"lastSeenAt,omitempty"`
}

func (s *Service) toView(cp models.ChargePoint) ChargePointView {
	online := false
	if sess, ok := s.sessions.Get(cp.ID); ok {
		online = sess.IsOnline()
	}
	return ChargePointView{
		ID:                cp.ID,
		Vendor:            cp.Vendor,
		Model:             cp.Model,
		FirmwareVersion:   cp.FirmwareVersion,
		PhysicalStatus:    cp.PhysicalStatus,
		OperationalStatus: cp.OperationalStatus,
		IsOnline:          online,
		IsAvailable:       cp.IsAvailable(),
		IsConfigured:      cp.IsConfigured(),
		Latitude:          cp.Latitude,
		Longitude:         cp.Longitude,
		Address:           cp.Address,
		PricePerKwh:       cp.PricePerKwh,
		NominalRateKw:     cp.NominalRateKw,
		LastSeenAt:        cp.LastSeenAt,
	}
}

// ListChargePoints returns a paginated snapshot of every known charge
// point (§4.7 ListChargePoints).
func (s *Service) ListChargePoints(ctx context.Context, limit, offset int) ([]ChargePointView, error) {
	cps, err := s.store.ListChargePoints(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]ChargePointView, 0, len(cps))
	for _, cp := range cps {
		out = append(out, s.toView(cp))
	}
	return out, nil
}

// ListPendingChargers returns charge points that have connected but lack
// location or pricing, for the operator onboarding flow (§4.7).
func (s *Service) ListPendingChargers(ctx context.Context, limit, offset int) ([]ChargePointView, error) {
	cps, err := s.store.ListChargePoints(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]ChargePointView, 0)
	for _, cp := range cps {
		if !cp.IsConfigured() {
			out = append(out, s.toView(cp))
		}
	}
	return out, nil
}

// GetChargePoint returns a single charge point's view.
func (s *Service) GetChargePoint(ctx context.Context, id string) (ChargePointView, error) {
	cp, err := s.store.GetChargePoint(ctx, id)
	if err != nil {
		return ChargePointView{}, err
	}
	return s.toView(*cp), nil
}

// CreateChargePoint pre-provisions a charge point row ahead of its first
// BootNotification (§4.7 POST /api/v1/chargers), or updates an existing
// row's configuration.
func (s *Service) CreateChargePoint(ctx context.Context, id string, lat, lng *float64, address *string, pricePerKwh, nominalRateKw *float64) (ChargePointView, error) {
	cp := &models.ChargePoint{
		ID:                id,
		PhysicalStatus:    models.StatusUnavailable,
		OperationalStatus: models.OperationalEnabled,
		Latitude:          lat,
		Longitude:         lng,
		Address:           address,
		PricePerKwh:       pricePerKwh,
		NominalRateKw:     nominalRateKw,
	}
	created, err := s.store.EnsureChargePoint(ctx, cp)
	if err != nil {
		return ChargePointView{}, err
	}
	return s.toView(*created), nil
}

// GetHistory returns the raw device event audit log for a charge point
// since window ago (§4.7 GetHistory), unfiltered by event kind.
func (s *Service) GetHistory(ctx context.Context, id string, window time.Duration, limit int) ([]models.DeviceEvent, error) {
	return s.store.ListDeviceEvents(ctx, id, time.Now().Add(-window), limit)
}

// GetHeartbeatTimeline backs GET /api/v1/statistics/charger/{id}/heartbeat-history.
func (s *Service) GetHeartbeatTimeline(ctx context.Context, id string, window time.Duration, limit int) ([]service.HeartbeatPoint, error) {
	return s.timeline.GetHeartbeatHistory(ctx, id, window, limit)
}

// GetStatusTimeline backs GET /api/v1/statistics/charger/{id}/status-timeline.
func (s *Service) GetStatusTimeline(ctx context.Context, id string, window time.Duration, limit int) ([]service.StatusPoint, error) {
	return s.timeline.GetStatusTimeline(ctx, id, window, limit)
}

// UpdateLocation is a local operation (no OCPP call) that records a charge
// point's physical location.
func (s *Service) UpdateLocation(ctx context.Context, id string, lat, lng float64, address string) error {
	return s.store.UpdateChargePointLocation(ctx, id, lat, lng, address)
}

// UpdatePricing is a local operation (no OCPP call) that records a charge
// point's per-kWh price.
func (s *Service) UpdatePricing(ctx context.Context, id string, pricePerKwh float64, nominalRateKw *float64) error {
	return s.store.UpdateChargePointPricing(ctx, id, pricePerKwh, nominalRateKw)
}

// resolveTransactionID implements RemoteStop's transactionId resolution:
// when omitted, the charge point must have exactly one active session.
func (s *Service) resolveTransactionID(ctx context.Context, chargePointID string, transactionID *int64) (int64, error) {
	if transactionID != nil {
		return *transactionID, nil
	}
	active, err := s.store.ListActiveSessionsByChargePoint(ctx, chargePointID)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, ErrNoActiveTransaction
	}
	if len(active) > 1 {
		return 0, ErrAmbiguousTransaction
	}
	return active[0].TransactionID, nil
}

func unmarshalInto(payload []byte, resp interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, resp)
}
