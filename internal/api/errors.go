package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

// statusFor maps a service or auth error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrWalletMissing),
		errors.Is(err, auth.ErrMissingWallet),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidWallet),
		errors.Is(err, auth.ErrInvalidSignature):
		return http.StatusUnauthorized
	case model.IsNotFoundError(err):
		return http.StatusNotFound
	case model.IsValidationError(err):
		return http.StatusBadRequest
	case model.IsPaymentVerificationError(err):
		return http.StatusPaymentRequired
	case model.IsUpstreamError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Server side failures
// are logged and their detail is withheld from the response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch {
	case status == http.StatusServiceUnavailable:
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("dependency unavailable")
		respond.WriteServiceUnavailable(w, "a backing service is unavailable")
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respond.WriteInternalError(w, "internal error")
	default:
		respond.WriteError(w, status, err.Error())
	}
}
