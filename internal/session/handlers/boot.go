package handlers

import (
	"context"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/store/models"
)

// HandleBootNotification auto-provisions the ChargePoint row on first boot
// (and refreshes vendor/model/firmware on later ones) rather than rejecting
// unknown chargers, per the decision recorded in DESIGN.md.
func HandleBootNotification(ctx context.Context, deps Deps, req actions.BootNotificationRequest) (actions.BootNotificationResponse, *codec.CodecError) {
	cp := &models.ChargePoint{
		ID:     deps.ChargePointID,
		Vendor: &req.ChargePointVendor,
		Model:  &req.ChargePointModel,
	}
	if req.FirmwareVersion != "" {
		cp.FirmwareVersion = &req.FirmwareVersion
	}

	if _, err := deps.Store.EnsureChargePoint(ctx, cp); err != nil {
		return actions.BootNotificationResponse{
			Status:      "Rejected",
			CurrentTime: formatTime(deps.Now()),
			Interval:    0,
		}, nil
	}

	return actions.BootNotificationResponse{
		Status:      "Accepted",
		CurrentTime: formatTime(deps.Now()),
		Interval:    int(deps.HeartbeatInterval.Seconds()),
	}, nil
}
