package api

import (
	"net/http"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
)

type WalletHandler struct {
	wallet *services.WalletService
	auth   auth.Authorizer
}

func NewWalletHandler(wallet *services.WalletService, a auth.Authorizer) *WalletHandler {
	return &WalletHandler{wallet: wallet, auth: a}
}

// GetBalance GET /api/wallet/balance
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.wallet.GetBalance(r.Context(), wallet))
}

// GetEarnings GET /api/wallet/earnings?period=
func (h *WalletHandler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	out, err := h.wallet.GetEarnings(r.Context(), wallet, r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetStaking GET /api/wallet/staking
func (h *WalletHandler) GetStaking(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	out, err := h.wallet.GetStakingInfo(r.Context(), wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CreateStaking POST /api/wallet/staking
func (h *WalletHandler) CreateStaking(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.StakingCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.wallet.CreateStaking(r.Context(), req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteCreated(w, out)
}
