package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHealth(t *testing.T, h *HealthHandler) (int, map[string]interface{}) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.CheckHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]interface{}
	parseResponse(t, rr.Result(), &body)
	return rr.Code, body
}

func TestHealthHandler_Unbound(t *testing.T) {
	code, body := checkHealth(t, NewHealthHandler(false))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.NotNil(t, body["timestamp"])
}

func TestHealthHandler_Components(t *testing.T) {
	h := NewHealthHandler(false)
	h.Bind(staticReporter{healthy: true, components: map[string]bool{"store": true, "memory": false, "embedder": true}})

	code, body := checkHealth(t, h)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"store": "available", "memory": "unavailable", "embedder": "available"}, body["services"])
}

func TestHealthHandler_StoreDown(t *testing.T) {
	down := staticReporter{components: map[string]bool{"store": false, "memory": true}}

	h := NewHealthHandler(false)
	h.Bind(down)
	code, _ := checkHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	debug := NewHealthHandler(true)
	debug.Bind(down)
	code, body := checkHealth(t, debug)
	assert.Equal(t, http.StatusOK, code, "debug mode still answers 200")
	assert.Equal(t, "unhealthy", body["status"])
}

func TestAPI_HealthRoute(t *testing.T) {
	ta := newTestAPI(t, apiOptions{})
	ta.health.Bind(staticReporter{healthy: true, components: map[string]bool{"store": true}})
	resp := ta.makeRequest(t, "GET", "/health", "", nil)
	defer closeBody(resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
