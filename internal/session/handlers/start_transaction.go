package handlers

import (
	"context"
	"errors"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

// HandleStartTransaction assigns a server-side transactionId and opens a
// ChargingSession. It rejects with IdTagInfo.Invalid if the tag doesn't
// authorize, and with ConcurrentTx if the evse already has an active
// session — the partial unique index enforces this under concurrent
// StartTransaction races (§8 scenario 5), this code only translates the
// resulting store error.
func HandleStartTransaction(ctx context.Context, deps Deps, req actions.StartTransactionRequest) (actions.StartTransactionResponse, *codec.CodecError) {
	status, info := resolveIdTag(ctx, deps, req.IdTag)
	if status != string(models.IDTagAccepted) {
		return actions.StartTransactionResponse{IdTagInfo: info}, nil
	}

	evse, err := deps.Store.EnsureEvse(ctx, deps.ChargePointID, int32(req.ConnectorID))
	if err != nil {
		return actions.StartTransactionResponse{}, codec.NewDomainError(codec.ErrInternalError, "ensure evse: %v", err)
	}

	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return actions.StartTransactionResponse{}, codec.NewDomainError(codec.ErrFormationViolation, "invalid timestamp: %v", err)
	}

	session := &models.ChargingSession{
		ChargePointID: deps.ChargePointID,
		EvseID:        evse.ID,
		TransactionID: nextTransactionID(),
		IDTag:         req.IdTag,
		StartTime:     ts,
		MeterStart:    req.MeterStart,
	}

	saved, err := deps.Store.StartTransaction(ctx, session)
	if err != nil {
		if errors.Is(err, store.ErrConcurrentTx) {
			return actions.StartTransactionResponse{
				IdTagInfo: actions.IdTagInfo{Status: string(models.IDTagConcurrentTx)},
			}, nil
		}
		return actions.StartTransactionResponse{}, codec.NewDomainError(codec.ErrInternalError, "start transaction: %v", err)
	}

	return actions.StartTransactionResponse{
		TransactionID: saved.TransactionID,
		IdTagInfo:     actions.IdTagInfo{Status: string(models.IDTagAccepted)},
	}, nil
}
