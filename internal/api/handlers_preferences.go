package api

import (
	"net/http"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
)

type PreferencesHandler struct {
	prefs *services.PreferencesService
	auth  auth.Authorizer
}

func NewPreferencesHandler(prefs *services.PreferencesService, a auth.Authorizer) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs, auth: a}
}

// GetPreferences GET /api/preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	out, err := h.prefs.Get(r.Context(), wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdatePreferences POST /api/preferences merges the body into the stored map.
// Null values are dropped rather than stored.
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.Preferences
	if !decodeJSON(w, r, &req) {
		return
	}
	for k, v := range req {
		if v == nil {
			delete(req, k)
		}
	}
	out, err := h.prefs.Upsert(r.Context(), wallet, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ClearPreferences DELETE /api/preferences
func (h *PreferencesHandler) ClearPreferences(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	if err := h.prefs.Clear(r.Context(), wallet); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "Preferences cleared"})
}
