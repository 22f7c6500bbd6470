package api

import (
	"net/http"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/api/validate"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
)

// AuthHandler exchanges a signed wallet message for a session token.
type AuthHandler struct {
	tokens auth.TokenConfig
}

func NewAuthHandler(tokens auth.TokenConfig) *AuthHandler { return &AuthHandler{tokens: tokens} }

type tokenRequest struct {
	WalletAddress string `json:"wallet_address"`
	Message       string `json:"message"`
	Signature     string `json:"signature"`
}

type tokenResponse struct {
	Token         string `json:"token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	WalletAddress string `json:"wallet_address"`
}

// IssueToken POST /api/auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.tokens.Secret == "" {
		respond.WriteError(w, http.StatusNotImplemented, "session tokens are not configured")
		return
	}
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for _, f := range [][2]string{{"wallet_address", req.WalletAddress}, {"message", req.Message}, {"signature", req.Signature}} {
		if err := validate.NonEmpty(f[0], f[1]); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if err := auth.VerifyWalletSignature(req.WalletAddress, req.Message, req.Signature); err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return
	}
	token, err := auth.CreateToken(req.WalletAddress, h.tokens)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:         token,
		TokenType:     "bearer",
		ExpiresIn:     int64(h.tokens.Expiry.Seconds()),
		WalletAddress: req.WalletAddress,
	})
}
