// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
)

// Middleware recovers panics from next, logs them with the request line and
// stack, and answers 500. http.ErrAbortHandler is re-raised so net/http can
// drop the connection as intended.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			log.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("wallet", r.Header.Get(auth.WalletHeader)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			respond.WriteInternalError(w, "")
		}()
		next.ServeHTTP(w, r)
	})
}
