package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type changeAvailabilityRequest struct {
	ConnectorID int    `json:"connectorId"`
	Type        string `json:"type" binding:"required,oneof=Inoperative Operative"`
}

// ChangeAvailability handles POST /api/v1/chargers/{id}/changeAvailability.
func (h *Handler) ChangeAvailability(c *gin.Context) {
	var req changeAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.ChangeAvailability(c.Request.Context(), c.Param("id"), req.ConnectorID, req.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type resetRequest struct {
	Type string `json:"type" binding:"required,oneof=Hard Soft"`
}

// Reset handles POST /api/v1/chargers/{id}/reset.
func (h *Handler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.Reset(c.Request.Context(), c.Param("id"), req.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type triggerMessageRequest struct {
	RequestedMessage string `json:"requestedMessage" binding:"required"`
	ConnectorID      *int   `json:"connectorId,omitempty"`
}

// TriggerMessage handles POST /api/v1/chargers/{id}/triggerMessage.
func (h *Handler) TriggerMessage(c *gin.Context) {
	var req triggerMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.TriggerMessage(c.Request.Context(), c.Param("id"), req.RequestedMessage, req.ConnectorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type getDiagnosticsRequest struct {
	Location string `json:"location" binding:"required"`
}

// GetDiagnostics handles POST /api/v1/chargers/{id}/getDiagnostics.
func (h *Handler) GetDiagnostics(c *gin.Context) {
	var req getDiagnosticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.GetDiagnostics(c.Request.Context(), c.Param("id"), req.Location)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type unlockConnectorRequest struct {
	ConnectorID int `json:"connectorId" binding:"required,min=1"`
}

// UnlockConnector handles POST /api/v1/chargers/{id}/unlockConnector.
func (h *Handler) UnlockConnector(c *gin.Context) {
	var req unlockConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.UnlockConnector(c.Request.Context(), c.Param("id"), req.ConnectorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type updateFirmwareRequest struct {
	Location     string `json:"location" binding:"required"`
	RetrieveDate string `json:"retrieveDate" binding:"required"`
}

// UpdateFirmware handles POST /api/v1/chargers/{id}/updateFirmware.
func (h *Handler) UpdateFirmware(c *gin.Context) {
	var req updateFirmwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	resp, err := h.svc.UpdateFirmware(c.Request.Context(), c.Param("id"), req.Location, req.RetrieveDate)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
