package handlers

import (
	"context"
	"errors"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/service"
	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// HandleStopTransaction finalizes the active session for the given
// transactionId, computes the Order, and replies Accepted idempotently if
// no matching active session exists (double stop / reconnect replay, §4.4).
func HandleStopTransaction(ctx context.Context, deps Deps, req actions.StopTransactionRequest) (actions.StopTransactionResponse, *codec.CodecError) {
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return actions.StopTransactionResponse{}, codec.NewDomainError(codec.ErrFormationViolation, "invalid timestamp: %v", err)
	}

	existing, err := deps.Store.GetSessionByTransactionID(ctx, deps.ChargePointID, req.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return actions.StopTransactionResponse{}, nil
		}
		return actions.StopTransactionResponse{}, codec.NewDomainError(codec.ErrInternalError, "lookup session: %v", err)
	}

	if existing.Status != models.SessionActive {
		return actions.StopTransactionResponse{}, nil
	}

	session, err := deps.Store.StopTransaction(ctx, deps.ChargePointID, req.TransactionID, req.MeterStop, ts, models.SessionCompleted)
	if err != nil {
		return actions.StopTransactionResponse{}, codec.NewDomainError(codec.ErrInternalError, "stop transaction: %v", err)
	}

	if err := finalizeOrder(ctx, deps, session); err != nil {
		return actions.StopTransactionResponse{}, codec.NewDomainError(codec.ErrInternalError, "finalize order: %v", err)
	}

	return actions.StopTransactionResponse{}, nil
}

func finalizeOrder(ctx context.Context, deps Deps, session *models.ChargingSession) error {
	energyWh, ok := session.EnergyWh()
	if !ok {
		return nil
	}

	cp, err := deps.Store.GetChargePoint(ctx, deps.ChargePointID)
	if err != nil {
		return err
	}
	pricePerKwh := 0.0
	if cp.PricePerKwh != nil {
		pricePerKwh = *cp.PricePerKwh
	}
	engine := service.NewPricingEngine(pricePerKwh)

	order := &models.Order{
		SessionID: session.ID,
		EnergyKwh: engine.EnergyKwh(energyWh),
		CostCents: engine.CostCents(energyWh),
		Currency:  "COP",
	}
	return deps.Store.CreateOrder(ctx, order)
}
