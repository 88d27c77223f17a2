package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csms/core/internal/codec/actions"
)

func TestDecode_Call(t *testing.T) {
	raw := []byte(`[2,"msg-1","Heartbeat",{}]`)
	f, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeCall, f.TypeID)
	assert.Equal(t, "msg-1", f.MessageID)
	assert.Equal(t, "Heartbeat", f.Action)
}

func TestDecode_CallResult(t *testing.T) {
	raw := []byte(`[3,"msg-1",{"currentTime":"2025-01-01T00:00:00Z"}]`)
	f, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeCallResult, f.TypeID)
}

func TestDecode_CallError(t *testing.T) {
	raw := []byte(`[4,"msg-1","InternalError","boom",{}]`)
	f, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeCallError, f.TypeID)
	assert.Equal(t, ErrInternalError, f.ErrorCode)
}

func TestDecode_UnsupportedAction(t *testing.T) {
	raw := []byte(`[2,"msg-1","NotARealAction",{}]`)
	_, err := Decode(raw)
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrNotSupported, ce.Code)
}

func TestDecode_MessageIDTooLong(t *testing.T) {
	id := ""
	for i := 0; i < 40; i++ {
		id += "a"
	}
	raw, _ := json.Marshal([]interface{}{2, id, "Heartbeat", map[string]interface{}{}})
	_, err := Decode(raw)
	require.Error(t, err)
}

func TestDecode_NotAnArray(t *testing.T) {
	_, err := Decode([]byte(`{"not":"an array"}`))
	require.Error(t, err)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	original := &Frame{
		TypeID:    TypeCall,
		MessageID: "abc",
		Action:    "BootNotification",
		Payload:   json.RawMessage(`{"chargePointVendor":"V","chargePointModel":"M"}`),
	}
	raw, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, original.MessageID, decoded.MessageID)
	assert.Equal(t, original.Action, decoded.Action)
	assert.JSONEq(t, string(original.Payload), string(decoded.Payload))
}

func TestDecodePayload_ValidationFailure(t *testing.T) {
	var req actions.BootNotificationRequest
	ce := DecodePayload(json.RawMessage(`{}`), &req)
	require.NotNil(t, ce)
	assert.Equal(t, ErrOccurrenceConstraintViolation, ce.Code)
}

func TestDecodePayload_Valid(t *testing.T) {
	var req actions.HeartbeatRequest
	ce := DecodePayload(json.RawMessage(`{}`), &req)
	assert.Nil(t, ce)
}
