// Package codec encodes and decodes OCPP 1.6J wire frames and validates
// action payloads.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TypeID enumerates the OCPP message type discriminators (first tuple element).
type TypeID int

const (
	TypeCall       TypeID = 2
	TypeCallResult TypeID = 3
	TypeCallError  TypeID = 4
)

// ErrorCode enumerates the CALLERROR codes named in §4.2.
type ErrorCode string

const (
	ErrNotImplemented                ErrorCode = "NotImplemented"
	ErrNotSupported                  ErrorCode = "NotSupported"
	ErrInternalError                 ErrorCode = "InternalError"
	ErrProtocolError                 ErrorCode = "ProtocolError"
	ErrSecurityError                 ErrorCode = "SecurityError"
	ErrFormationViolation            ErrorCode = "FormationViolation"
	ErrPropertyConstraintViolation   ErrorCode = "PropertyConstraintViolation"
	ErrOccurrenceConstraintViolation ErrorCode = "OccurrenceConstraintViolation"
	ErrTypeConstraintViolation       ErrorCode = "TypeConstraintViolation"
	ErrGenericError                  ErrorCode = "GenericError"
)

// maxMessageIDLen is the OCPP 1.6J limit on messageId length.
const maxMessageIDLen = 36

// Frame is the decoded form of any of the three OCPP tuple shapes.
type Frame struct {
	TypeID           TypeID
	MessageID        string
	Action           string          // set for TypeCall
	Payload          json.RawMessage // set for TypeCall / TypeCallResult
	ErrorCode        ErrorCode       // set for TypeCallError
	ErrorDescription string          // set for TypeCallError
	ErrorDetails     json.RawMessage // set for TypeCallError
}

// CodecError wraps a validation/decode failure with the OCPP error code it
// maps to, so the Router can produce a CALLERROR without re-deriving it.
type CodecError struct {
	Code        ErrorCode
	Description string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newCodecError(code ErrorCode, format string, args ...interface{}) *CodecError {
	return &CodecError{Code: code, Description: fmt.Sprintf(format, args...)}
}

// NewDomainError lets callers outside this package (session handlers)
// produce a CodecError for conditions the codec itself can't detect, such
// as a store failure mid-handler.
func NewDomainError(code ErrorCode, format string, args ...interface{}) *CodecError {
	return newCodecError(code, format, args...)
}

// SupportedActions is the set of action names the codec will validate by
// name. Anything outside this set fails with NotSupported.
var SupportedActions = map[string]bool{
	// charger-initiated
	"BootNotification":              true,
	"Heartbeat":                     true,
	"StatusNotification":            true,
	"Authorize":                     true,
	"StartTransaction":              true,
	"StopTransaction":                true,
	"MeterValues":                   true,
	"DataTransfer":                  true,
	"FirmwareStatusNotification":    true,
	"DiagnosticsStatusNotification": true,
	// server-initiated
	"RemoteStartTransaction": true,
	"RemoteStopTransaction":  true,
	"Reset":                  true,
	"ChangeAvailability":     true,
	"ChangeConfiguration":    true,
	"GetConfiguration":       true,
	"ClearCache":             true,
	"TriggerMessage":         true,
	"UnlockConnector":        true,
	"GetDiagnostics":         true,
	"UpdateFirmware":         true,
	"ReserveNow":             true,
	"CancelReservation":      true,
	"SendLocalList":          true,
	"GetLocalListVersion":    true,
	"SetChargingProfile":     true,
	"ClearChargingProfile":   true,
	"GetCompositeSchedule":   true,
}

// Decode parses raw into a Frame. It only accepts JSON UTF-8 arrays of shape
// [2, id, action, payload], [3, id, payload], or [4, id, code, desc, details].
func Decode(raw []byte) (*Frame, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return nil, newCodecError(ErrFormationViolation, "not a JSON array: %v", err)
	}
	if len(tuple) < 3 {
		return nil, newCodecError(ErrFormationViolation, "tuple too short: %d elements", len(tuple))
	}

	var typeID int
	if err := json.Unmarshal(tuple[0], &typeID); err != nil {
		return nil, newCodecError(ErrFormationViolation, "invalid messageTypeId: %v", err)
	}

	var messageID string
	if err := json.Unmarshal(tuple[1], &messageID); err != nil {
		return nil, newCodecError(ErrFormationViolation, "invalid messageId: %v", err)
	}
	if len(messageID) == 0 || len(messageID) > maxMessageIDLen {
		return nil, newCodecError(ErrFormationViolation, "messageId length %d out of bounds", len(messageID))
	}

	switch TypeID(typeID) {
	case TypeCall:
		if len(tuple) != 4 {
			return nil, newCodecError(ErrFormationViolation, "CALL requires 4 elements, got %d", len(tuple))
		}
		var action string
		if err := json.Unmarshal(tuple[2], &action); err != nil {
			return nil, newCodecError(ErrFormationViolation, "invalid action: %v", err)
		}
		if !SupportedActions[action] {
			return nil, newCodecError(ErrNotSupported, "unsupported action %q", action)
		}
		return &Frame{TypeID: TypeCall, MessageID: messageID, Action: action, Payload: tuple[3]}, nil

	case TypeCallResult:
		return &Frame{TypeID: TypeCallResult, MessageID: messageID, Payload: tuple[2]}, nil

	case TypeCallError:
		if len(tuple) < 4 {
			return nil, newCodecError(ErrFormationViolation, "CALLERROR requires at least 4 elements, got %d", len(tuple))
		}
		var code string
		if err := json.Unmarshal(tuple[2], &code); err != nil {
			return nil, newCodecError(ErrFormationViolation, "invalid errorCode: %v", err)
		}
		var desc string
		if err := json.Unmarshal(tuple[3], &desc); err != nil {
			return nil, newCodecError(ErrFormationViolation, "invalid errorDescription: %v", err)
		}
		var details json.RawMessage
		if len(tuple) >= 5 {
			details = tuple[4]
		}
		return &Frame{TypeID: TypeCallError, MessageID: messageID, ErrorCode: ErrorCode(code), ErrorDescription: desc, ErrorDetails: details}, nil

	default:
		return nil, newCodecError(ErrFormationViolation, "unknown messageTypeId %d", typeID)
	}
}

// Encode serializes f back to its wire tuple form.
func Encode(f *Frame) ([]byte, error) {
	switch f.TypeID {
	case TypeCall:
		payload := f.Payload
		if payload == nil {
			payload = json.RawMessage("{}")
		}
		return json.Marshal([]interface{}{int(TypeCall), f.MessageID, f.Action, payload})

	case TypeCallResult:
		payload := f.Payload
		if payload == nil {
			payload = json.RawMessage("{}")
		}
		return json.Marshal([]interface{}{int(TypeCallResult), f.MessageID, payload})

	case TypeCallError:
		details := f.ErrorDetails
		if details == nil {
			details = json.RawMessage("{}")
		}
		return json.Marshal([]interface{}{int(TypeCallError), f.MessageID, string(f.ErrorCode), f.ErrorDescription, details})

	default:
		return nil, errors.New("codec: unknown frame type")
	}
}
