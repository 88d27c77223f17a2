package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/csms/core/internal/controlapi"
)

// RegisterRoutes wires every Control API operation onto r, generalized from
// internal/api/routes.go's RegisterReadOnlyRoutes.
func RegisterRoutes(r *gin.Engine, svc *controlapi.Service, authCfg AuthConfig, logger *zap.Logger) {
	if r == nil || svc == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewHandler(svc, logger)

	api := r.Group("/api")
	api.Use(RequestLog(logger), CORS())
	if authCfg.Enabled {
		api.Use(APIKeyAuth(authCfg, logger))
		logger.Info("controlapi authentication enabled")
	} else {
		logger.Warn("controlapi authentication disabled - only for development!")
	}

	v1 := api.Group("/v1")
	v1.GET("/chargers", handler.ListChargePoints)
	v1.GET("/chargers/pending", handler.ListPendingChargers)
	v1.POST("/chargers", handler.CreateChargePoint)
	v1.GET("/chargers/:id", handler.GetChargePoint)
	v1.GET("/chargers/:id/history", handler.GetHistory)
	v1.POST("/chargers/:id/changeAvailability", handler.ChangeAvailability)
	v1.POST("/chargers/:id/reset", handler.Reset)
	v1.POST("/chargers/:id/triggerMessage", handler.TriggerMessage)
	v1.POST("/chargers/:id/getDiagnostics", handler.GetDiagnostics)
	v1.POST("/chargers/:id/unlockConnector", handler.UnlockConnector)
	v1.POST("/chargers/:id/updateFirmware", handler.UpdateFirmware)

	v1.GET("/statistics/charger/:id/heartbeat-history", handler.GetHeartbeatHistory)
	v1.GET("/statistics/charger/:id/status-timeline", handler.GetStatusTimeline)

	api.POST("/remoteStart", handler.RemoteStart)
	api.POST("/remoteStop", handler.RemoteStop)
	api.POST("/updateLocation", handler.UpdateLocation)
	api.POST("/updatePrice", handler.UpdatePrice)
}
