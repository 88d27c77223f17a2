package service

import (
	"context"
	"time"

	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// TimelineService answers the Control API's read-only history endpoints
// (§4.7 GetHeartbeatTimeline/GetStatusTimeline) by filtering the
// DeviceEvent audit log a charge point's handlers already append to
// (heartbeat.go, status_notification.go).
type TimelineService struct {
	store store.Store
}

func NewTimelineService(st store.Store) *TimelineService {
	return &TimelineService{store: st}
}

// HeartbeatPoint is one Heartbeat.req arrival.
type HeartbeatPoint struct {
	Timestamp time.Time `json:"timestamp"`
}

// StatusPoint is one StatusNotification.req arrival.
type StatusPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	ConnectorID *int64    `json:"connectorId,omitempty"`
	Payload     string    `json:"payload"`
}

// GetHeartbeatHistory returns every heartbeat event for a charge point since
// window ago, oldest first.
func (s *TimelineService) GetHeartbeatHistory(ctx context.Context, chargePointID string, window time.Duration, limit int) ([]HeartbeatPoint, error) {
	events, err := s.store.ListDeviceEvents(ctx, chargePointID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, err
	}
	return filterEvents(events, "heartbeat", func(ev models.DeviceEvent) HeartbeatPoint {
		return HeartbeatPoint{Timestamp: ev.Timestamp}
	}), nil
}

// GetStatusTimeline returns every StatusNotification event for a charge
// point since window ago, oldest first.
func (s *TimelineService) GetStatusTimeline(ctx context.Context, chargePointID string, window time.Duration, limit int) ([]StatusPoint, error) {
	events, err := s.store.ListDeviceEvents(ctx, chargePointID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, err
	}
	return filterEvents(events, "status_notification", func(ev models.DeviceEvent) StatusPoint {
		return StatusPoint{Timestamp: ev.Timestamp, ConnectorID: ev.EvseID, Payload: ev.Payload}
	}), nil
}

func filterEvents[T any](events []models.DeviceEvent, kind string, project func(models.DeviceEvent) T) []T {
	out := make([]T, 0, len(events))
	for _, ev := range events {
		if ev.EventKind == kind {
			out = append(out, project(ev))
		}
	}
	return out
}
