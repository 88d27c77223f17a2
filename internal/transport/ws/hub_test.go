package ws

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChargerIDFromRequest_Query(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ocpp?id=CP001", nil)
	assert.Equal(t, "CP001", chargerIDFromRequest(r))
}

func TestChargerIDFromRequest_Path(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ocpp/CP001", nil)
	assert.Equal(t, "CP001", chargerIDFromRequest(r))
}

func TestChargerIDFromRequest_PathEscaped(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ocpp/"+url.PathEscape("CP 001"), nil)
	assert.Equal(t, "CP 001", chargerIDFromRequest(r))
}

func TestOffersSubprotocol(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ocpp?id=CP001", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "ocpp1.6")
	assert.True(t, offersSubprotocol(r, "ocpp1.6"))
}

func TestOffersSubprotocol_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ocpp?id=CP001", nil)
	assert.False(t, offersSubprotocol(r, "ocpp1.6"))
}

func TestServeHTTP_RejectsMissingSubprotocol(t *testing.T) {
	h := New(zap.NewNop(), 0, 0)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ocpp?id=CP001", nil)
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeHTTP_RejectsMissingChargerID(t *testing.T) {
	h := New(zap.NewNop(), 0, 0)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ocpp", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "ocpp1.6")
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
