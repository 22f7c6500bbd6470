package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WritePaymentRequired(rr, "bad signature")

	assert.Equal(t, http.StatusPaymentRequired, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{Detail: "bad signature", Error: "Payment Required", Code: 402}, body)
}

func TestWriteError_DefaultDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteServiceUnavailable(rr, "")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Service Unavailable", body["detail"])
}

func TestWriteCreatedAndNoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteCreated(rr, map[string]string{"id": "a1"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id":"a1"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteNoContent(rr)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())
}
