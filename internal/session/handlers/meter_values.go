package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// HandleMeterValues resolves the owning session via transactionId and
// persists each sample. An unknown or inactive transactionId discards the
// sample rather than creating an orphan MeterValue (the FK invariant);
// timestamps older than the session's last stored one are clamped forward
// by 1ms and logged as a clock-skew event rather than rejected (§4.4, §8).
func HandleMeterValues(ctx context.Context, deps Deps, req actions.MeterValuesRequest) (actions.MeterValuesResponse, *codec.CodecError) {
	if req.TransactionID == nil {
		logDiscardedEvent(ctx, deps, "meter_values_missing_transaction_id", req)
		return actions.MeterValuesResponse{}, nil
	}

	session, err := deps.Store.GetSessionByTransactionID(ctx, deps.ChargePointID, *req.TransactionID)
	if err != nil || session.Status != models.SessionActive {
		logDiscardedEvent(ctx, deps, "meter_values_unknown_or_inactive_session", req)
		return actions.MeterValuesResponse{}, nil
	}

	lastTimestamp, err := latestMeterTimestamp(ctx, deps, session.ID)
	if err != nil {
		return actions.MeterValuesResponse{}, codec.NewDomainError(codec.ErrInternalError, "list meter values: %v", err)
	}

	for _, mv := range req.MeterValue {
		ts, parseErr := parseTimestamp(mv.Timestamp)
		if parseErr != nil {
			continue
		}
		if !lastTimestamp.IsZero() && ts.Before(lastTimestamp) {
			logClockSkew(ctx, deps, session.ID, ts, lastTimestamp)
			ts = lastTimestamp.Add(time.Millisecond)
		}
		lastTimestamp = ts

		valueWh := sumEnergyWh(mv)
		sampled, _ := json.Marshal(mv.SampledValue)

		record := &models.MeterValue{
			SessionID:    session.ID,
			ConnectorID:  int32(req.ConnectorID),
			Timestamp:    ts,
			ValueWh:      valueWh,
			SampledValue: string(sampled),
		}
		if err := deps.Store.AppendMeterValue(ctx, record); err != nil {
			return actions.MeterValuesResponse{}, codec.NewDomainError(codec.ErrInternalError, "append meter value: %v", err)
		}
	}

	return actions.MeterValuesResponse{}, nil
}

func latestMeterTimestamp(ctx context.Context, deps Deps, sessionID int64) (time.Time, error) {
	values, err := deps.Store.ListMeterValues(ctx, sessionID, 1)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	var latest time.Time
	for _, v := range values {
		if v.Timestamp.After(latest) {
			latest = v.Timestamp
		}
	}
	return latest, nil
}

// sumEnergyWh extracts an "Energy.Active.Import.Register" style reading in
// Wh when present; otherwise it returns 0, which still records the sample.
func sumEnergyWh(mv actions.MeterValue) int64 {
	for _, sv := range mv.SampledValue {
		if sv.Measurand == "" || sv.Measurand == "Energy.Active.Import.Register" {
			wh, err := strconv.ParseFloat(sv.Value, 64)
			if err != nil {
				continue
			}
			if sv.Unit == "kWh" {
				wh *= 1000
			}
			return int64(wh)
		}
	}
	return 0
}

func logDiscardedEvent(ctx context.Context, deps Deps, kind string, req actions.MeterValuesRequest) {
	payload, _ := json.Marshal(req)
	_ = deps.Store.AppendDeviceEvent(ctx, &models.DeviceEvent{
		ChargePointID: deps.ChargePointID,
		EventKind:     kind,
		Payload:       string(payload),
		Timestamp:     deps.Now(),
	})
}

func logClockSkew(ctx context.Context, deps Deps, sessionID int64, got, clampedFrom time.Time) {
	payload, _ := json.Marshal(map[string]interface{}{
		"session_id": sessionID,
		"got":        got,
		"clamped_to": clampedFrom.Add(time.Millisecond),
	})
	_ = deps.Store.AppendDeviceEvent(ctx, &models.DeviceEvent{
		ChargePointID: deps.ChargePointID,
		EventKind:     "clock_skew",
		Payload:       string(payload),
		Timestamp:     deps.Now(),
	})
}
