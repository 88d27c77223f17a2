package controlapi

import (
	"context"
	"time"

	"github.com/csms/core/internal/codec/actions"
)

// defaultDispatchTimeout is used when a caller doesn't override it; 0 makes
// Router.Dispatch fall back to its own configured call timeout.
const defaultDispatchTimeout = 0

// RemoteStart issues RemoteStartTransaction via Router.Dispatch (§4.7).
func (s *Service) RemoteStart(ctx context.Context, chargePointID, idTag string, connectorID *int) (actions.RemoteStartTransactionResponse, error) {
	req := actions.RemoteStartTransactionRequest{ConnectorID: connectorID, IdTag: idTag}
	var resp actions.RemoteStartTransactionResponse
	if err := s.dispatch(ctx, chargePointID, "RemoteStartTransaction", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// RemoteStop issues RemoteStopTransaction via Router.Dispatch, resolving the
// charge point's unique active transaction when transactionID is omitted
// (§4.7).
func (s *Service) RemoteStop(ctx context.Context, chargePointID string, transactionID *int64) (actions.RemoteStopTransactionResponse, error) {
	var resp actions.RemoteStopTransactionResponse
	txID, err := s.resolveTransactionID(ctx, chargePointID, transactionID)
	if err != nil {
		return resp, err
	}
	req := actions.RemoteStopTransactionRequest{TransactionID: txID}
	if err := s.dispatch(ctx, chargePointID, "RemoteStopTransaction", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// ChangeAvailability issues ChangeAvailability via Router.Dispatch (§4.7).
func (s *Service) ChangeAvailability(ctx context.Context, chargePointID string, connectorID int, availType string) (actions.ChangeAvailabilityResponse, error) {
	req := actions.ChangeAvailabilityRequest{ConnectorID: connectorID, Type: availType}
	var resp actions.ChangeAvailabilityResponse
	err := s.dispatch(ctx, chargePointID, "ChangeAvailability", req, &resp)
	return resp, err
}

// Reset issues Reset via Router.Dispatch (§4.7).
func (s *Service) Reset(ctx context.Context, chargePointID, resetType string) (actions.ResetResponse, error) {
	req := actions.ResetRequest{Type: resetType}
	var resp actions.ResetResponse
	err := s.dispatch(ctx, chargePointID, "Reset", req, &resp)
	return resp, err
}

// TriggerMessage issues TriggerMessage via Router.Dispatch (§4.7).
func (s *Service) TriggerMessage(ctx context.Context, chargePointID, requestedMessage string, connectorID *int) (actions.TriggerMessageResponse, error) {
	req := actions.TriggerMessageRequest{RequestedMessage: requestedMessage, ConnectorID: connectorID}
	var resp actions.TriggerMessageResponse
	err := s.dispatch(ctx, chargePointID, "TriggerMessage", req, &resp)
	return resp, err
}

// GetDiagnostics issues GetDiagnostics via Router.Dispatch (§4.7).
func (s *Service) GetDiagnostics(ctx context.Context, chargePointID, location string) (actions.GetDiagnosticsResponse, error) {
	req := actions.GetDiagnosticsRequest{Location: location}
	var resp actions.GetDiagnosticsResponse
	err := s.dispatch(ctx, chargePointID, "GetDiagnostics", req, &resp)
	return resp, err
}

// UnlockConnector issues UnlockConnector via Router.Dispatch (§4.7).
func (s *Service) UnlockConnector(ctx context.Context, chargePointID string, connectorID int) (actions.UnlockConnectorResponse, error) {
	req := actions.UnlockConnectorRequest{ConnectorID: connectorID}
	var resp actions.UnlockConnectorResponse
	err := s.dispatch(ctx, chargePointID, "UnlockConnector", req, &resp)
	return resp, err
}

// UpdateFirmware issues UpdateFirmware via Router.Dispatch (§4.7).
func (s *Service) UpdateFirmware(ctx context.Context, chargePointID, location, retrieveDate string) (actions.UpdateFirmwareResponse, error) {
	req := actions.UpdateFirmwareRequest{Location: location, RetrieveDate: retrieveDate}
	var resp actions.UpdateFirmwareResponse
	err := s.dispatch(ctx, chargePointID, "UpdateFirmware", req, &resp)
	return resp, err
}

// dispatch is the shared Router.Dispatch + JSON-unmarshal boilerplate every
// operator-initiated CALL above needs.
func (s *Service) dispatch(ctx context.Context, chargePointID, action string, req interface{}, resp interface{}) error {
	payload, err := s.router.Dispatch(ctx, chargePointID, action, req, defaultDispatchTimeout*time.Second)
	if err != nil {
		return err
	}
	return unmarshalInto(payload, resp)
}
