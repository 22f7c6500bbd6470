package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/api/validate"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
)

type CapsuleHandler struct {
	capsules *services.CapsuleService
	auth     auth.Authorizer
}

func NewCapsuleHandler(capsules *services.CapsuleService, a auth.Authorizer) *CapsuleHandler {
	return &CapsuleHandler{capsules: capsules, auth: a}
}

// ListCapsules GET /api/capsules returns the caller's own capsules.
func (h *CapsuleHandler) ListCapsules(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	caps, err := h.capsules.GetUserCapsules(r.Context(), wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, caps)
}

// CreateCapsule POST /api/capsules
func (h *CapsuleHandler) CreateCapsule(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.CapsuleCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.CreateCapsule(req.Name, &req.Description, req.PricePerQuery); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.capsules.CreateCapsule(r.Context(), req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteCreated(w, out)
}

// GetCapsule GET /api/capsules/{capsuleId} is public.
func (h *CapsuleHandler) GetCapsule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["capsuleId"]
	c, err := h.capsules.GetCapsule(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if c == nil {
		writeServiceError(w, r, model.NewNotFoundError("capsule", id))
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// UpdateCapsule PATCH /api/capsules/{capsuleId}
func (h *CapsuleHandler) UpdateCapsule(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.CapsuleUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.MaxLen("description", req.Description, 2000); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.PricePerQuery != nil && *req.PricePerQuery < 0 {
		respond.WriteBadRequest(w, "price_per_query must not be negative")
		return
	}
	id := mux.Vars(r)["capsuleId"]
	c, err := h.capsules.UpdateCapsule(r.Context(), id, req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if c == nil {
		writeServiceError(w, r, model.NewNotFoundError("capsule", id))
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// DeleteCapsule DELETE /api/capsules/{capsuleId}
func (h *CapsuleHandler) DeleteCapsule(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["capsuleId"]
	deleted, err := h.capsules.DeleteCapsule(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeServiceError(w, r, model.NewNotFoundError("capsule", id))
		return
	}
	respond.WriteNoContent(w)
}

// QueryCapsule POST /api/capsules/{capsuleId}/query
// A rejected payment answers 402 and leaves the capsule untouched.
func (h *CapsuleHandler) QueryCapsule(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.CapsuleQuery
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.CapsuleQuery(req.Prompt, req.AmountPaid); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.capsules.QueryCapsule(r.Context(), mux.Vars(r)["capsuleId"], req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
