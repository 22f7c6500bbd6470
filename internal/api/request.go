package api

import (
	"encoding/json"
	"net/http"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
)

// requireWallet resolves the caller's wallet or writes a 401.
func requireWallet(a auth.Authorizer, w http.ResponseWriter, r *http.Request) (string, bool) {
	wallet, err := a.Wallet(r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return "", false
	}
	return wallet, true
}

// optionalWallet is requireWallet for routes that also serve anonymous callers.
func optionalWallet(a auth.Authorizer, w http.ResponseWriter, r *http.Request) (string, bool) {
	wallet, err := auth.OptionalWallet(a, r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return "", false
	}
	return wallet, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return false
	}
	return true
}
