package handlers

import (
	"context"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/store/models"
)

func HandleHeartbeat(ctx context.Context, deps Deps, req actions.HeartbeatRequest) (actions.HeartbeatResponse, *codec.CodecError) {
	now := deps.Now()
	deps.Cache.OnHeartbeat(deps.ChargePointID, now)
	_ = deps.Store.AppendDeviceEvent(ctx, &models.DeviceEvent{
		ChargePointID: deps.ChargePointID,
		EventKind:     "heartbeat",
		Timestamp:     now,
	})
	return actions.HeartbeatResponse{CurrentTime: formatTime(now)}, nil
}
