// Package respond writes JSON bodies and error envelopes for the HTTP API.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every non-2xx answer. Detail carries the
// human-readable reason; clients of the original API read "detail".
type ErrorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
	Code   int    `json:"code"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; all that is left is to record it.
		log.Error().Err(err).Int("status", statusCode).Msg("Failed to encode JSON response")
	}
}

// WriteCreated answers 201 with the created resource.
func WriteCreated(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusCreated, data)
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes the error envelope for statusCode.
func WriteError(w http.ResponseWriter, statusCode int, detail string) {
	if detail == "" {
		detail = http.StatusText(statusCode)
	}
	WriteJSON(w, statusCode, ErrorResponse{
		Detail: detail,
		Error:  http.StatusText(statusCode),
		Code:   statusCode,
	})
}

func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, detail)
}

func WriteUnauthorized(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusUnauthorized, detail)
}

func WritePaymentRequired(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusPaymentRequired, detail)
}

func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusNotFound, detail)
}

func WriteInternalError(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusInternalServerError, detail)
}

func WriteServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusServiceUnavailable, detail)
}
