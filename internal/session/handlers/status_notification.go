package handlers

import (
	"context"
	"encoding/json"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/store/models"
)

const errorCodeNoError = "NoError"

func HandleStatusNotification(ctx context.Context, deps Deps, req actions.StatusNotificationRequest) (actions.StatusNotificationResponse, *codec.CodecError) {
	if _, err := deps.Store.EnsureEvse(ctx, deps.ChargePointID, int32(req.ConnectorID)); err != nil {
		return actions.StatusNotificationResponse{}, codec.NewDomainError(codec.ErrInternalError, "ensure evse: %v", err)
	}

	status := models.PhysicalStatus(req.Status)
	if req.ErrorCode != errorCodeNoError {
		status = models.StatusFaulted
	}

	if err := deps.Store.UpdateEvseStatus(ctx, deps.ChargePointID, int32(req.ConnectorID), status, req.ErrorCode); err != nil {
		return actions.StatusNotificationResponse{}, codec.NewDomainError(codec.ErrInternalError, "update evse status: %v", err)
	}
	deps.Cache.SetStatus(deps.ChargePointID, string(status), deps.Now())

	connectorID := int32(req.ConnectorID)
	payload, _ := json.Marshal(req)
	_ = deps.Store.AppendDeviceEvent(ctx, &models.DeviceEvent{
		ChargePointID: deps.ChargePointID,
		EvseID:        int64ptr(int64(connectorID)),
		EventKind:     "status_notification",
		Payload:       string(payload),
		Timestamp:     deps.Now(),
	})

	aggregateFaulted := status == models.StatusFaulted && allConnectorsFaulted(ctx, deps)
	if aggregateFaulted {
		_ = deps.Store.UpdateChargePointPhysicalStatus(ctx, deps.ChargePointID, models.StatusFaulted)
	}
	if deps.NotifyFaulted != nil {
		deps.NotifyFaulted(aggregateFaulted)
	}

	return actions.StatusNotificationResponse{}, nil
}

func allConnectorsFaulted(ctx context.Context, deps Deps) bool {
	evses, err := deps.Store.ListEvses(ctx, deps.ChargePointID)
	if err != nil || len(evses) == 0 {
		return false
	}
	for _, e := range evses {
		if e.Status != models.StatusFaulted {
			return false
		}
	}
	return true
}
