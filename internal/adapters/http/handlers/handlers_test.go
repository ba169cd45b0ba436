package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/ddos-shield/internal/observability"
)

type staticHistory []int64

func (h staticHistory) History() []int64 { return h }

func TestStatusHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	StatusHandler(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `<a href="https://t.me/tretraunetwork">https://t.me/tretraunetwork</a>`, rr.Body.String())
}

func TestRequestsHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewRequestsHandler(staticHistory{3, 1, 4})(rr, httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var got []int64
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, []int64{3, 1, 4}, got)
}

func TestRequestsHandler_EmptyHistoryIsAnArray(t *testing.T) {
	rr := httptest.NewRecorder()
	NewRequestsHandler(staticHistory(nil))(rr, httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestMetricsHandler(t *testing.T) {
	stats := observability.NewAdmissionStats()
	stats.IncForbidden()
	handler := NewMetricsHandler(stats, func() observability.Gauges {
		return observability.Gauges{Blacklisted: 2}
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, rr.Body.String(), "shield_requests_forbidden_total 1\n")
	assert.Contains(t, rr.Body.String(), "shield_blacklisted_clients 2\n")
}
