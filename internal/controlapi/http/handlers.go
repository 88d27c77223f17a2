// Package http exposes internal/controlapi's operations as Gin routes,
// generalized from internal/api/readonly_handler.go's handler-struct pattern:
// one method per operation, query/body binding up front, then a thin call
// into the business-logic Service.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csms/core/internal/controlapi"
	"github.com/csms/core/internal/store"
)

// Handler adapts controlapi.Service to Gin.
type Handler struct {
	svc    *controlapi.Service
	logger *zap.Logger
}

func NewHandler(svc *controlapi.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit, offset = 100, 0
	if v := c.Query("limit"); v != "" {
		if vv, err := strconv.Atoi(v); err == nil {
			limit = vv
		}
	}
	if v := c.Query("offset"); v != "" {
		if vv, err := strconv.Atoi(v); err == nil {
			offset = vv
		}
	}
	return limit, offset
}

func windowParam(c *gin.Context, def time.Duration) time.Duration {
	v := c.Query("window")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// writeError maps a domain error to the right HTTP status, so handlers
// never have to duplicate this switch.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, controlapi.ErrChargerOffline):
		c.JSON(http.StatusConflict, gin.H{"error": "charger_offline", "message": err.Error()})
	case errors.Is(err, controlapi.ErrNoActiveTransaction), errors.Is(err, controlapi.ErrAmbiguousTransaction):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ambiguous_transaction", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": err.Error()})
	}
}

// ListChargePoints handles GET /api/v1/chargers.
func (h *Handler) ListChargePoints(c *gin.Context) {
	limit, offset := paginationParams(c)
	views, err := h.svc.ListChargePoints(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chargers": views})
}

// ListPendingChargers handles GET /api/v1/chargers/pending.
func (h *Handler) ListPendingChargers(c *gin.Context) {
	limit, offset := paginationParams(c)
	views, err := h.svc.ListPendingChargers(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chargers": views})
}

// GetChargePoint handles GET /api/v1/chargers/{id}.
func (h *Handler) GetChargePoint(c *gin.Context) {
	view, err := h.svc.GetChargePoint(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type createChargePointRequest struct {
	ID            string   `json:"id" binding:"required"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Address       *string  `json:"address,omitempty"`
	PricePerKwh   *float64 `json:"pricePerKwh,omitempty"`
	NominalRateKw *float64 `json:"nominalRateKw,omitempty"`
}

// CreateChargePoint handles POST /api/v1/chargers.
func (h *Handler) CreateChargePoint(c *gin.Context) {
	var req createChargePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	view, err := h.svc.CreateChargePoint(c.Request.Context(), req.ID, req.Latitude, req.Longitude, req.Address, req.PricePerKwh, req.NominalRateKw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetHeartbeatHistory handles GET /api/v1/statistics/charger/{id}/heartbeat-history.
func (h *Handler) GetHeartbeatHistory(c *gin.Context) {
	limit, _ := paginationParams(c)
	window := windowParam(c, 24*time.Hour)
	points, err := h.svc.GetHeartbeatTimeline(c.Request.Context(), c.Param("id"), window, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"heartbeats": points})
}

// GetStatusTimeline handles GET /api/v1/statistics/charger/{id}/status-timeline.
func (h *Handler) GetStatusTimeline(c *gin.Context) {
	limit, _ := paginationParams(c)
	window := windowParam(c, 24*time.Hour)
	points, err := h.svc.GetStatusTimeline(c.Request.Context(), c.Param("id"), window, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statusTimeline": points})
}

// GetHistory handles GET /api/v1/chargers/{id}/history, the unfiltered
// device-event audit log view (§4.7 GetHistory).
func (h *Handler) GetHistory(c *gin.Context) {
	limit, _ := paginationParams(c)
	window := windowParam(c, 24*time.Hour)
	events, err := h.svc.GetHistory(c.Request.Context(), c.Param("id"), window, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type remoteStartRequest struct {
	ChargePointID string `json:"chargePointId" binding:"required"`
	IdTag         string `json:"idTag" binding:"required"`
	ConnectorID   *int   `json:"connectorId,omitempty"`
}

// RemoteStart handles POST /api/remoteStart.
func (h *Handler) RemoteStart(c *gin.Context) {
	var req remoteStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.RemoteStart(c.Request.Context(), req.ChargePointID, req.IdTag, req.ConnectorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type remoteStopRequest struct {
	ChargePointID string `json:"chargePointId" binding:"required"`
	TransactionID *int64 `json:"transactionId,omitempty"`
}

// RemoteStop handles POST /api/remoteStop.
func (h *Handler) RemoteStop(c *gin.Context) {
	var req remoteStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.RemoteStop(c.Request.Context(), req.ChargePointID, req.TransactionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateLocationRequest struct {
	ChargePointID string  `json:"chargePointId" binding:"required"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Address       string  `json:"address"`
}

// UpdateLocation handles POST /api/updateLocation.
func (h *Handler) UpdateLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := h.svc.UpdateLocation(c.Request.Context(), req.ChargePointID, req.Latitude, req.Longitude, req.Address); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type updatePriceRequest struct {
	ChargePointID string   `json:"chargePointId" binding:"required"`
	PricePerKwh   float64  `json:"pricePerKwh" binding:"required"`
	NominalRateKw *float64 `json:"nominalRateKw,omitempty"`
}

// UpdatePrice handles POST /api/updatePrice.
func (h *Handler) UpdatePrice(c *gin.Context) {
	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	if err := h.svc.UpdatePricing(c.Request.Context(), req.ChargePointID, req.PricePerKwh, req.NominalRateKw); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
