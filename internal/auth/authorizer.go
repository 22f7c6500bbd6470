package auth

import (
	"net/http"
	"strings"
)

// Authorizer resolves the calling wallet of a request.
type Authorizer interface {
	Wallet(r *http.Request) (string, error)
}

// WalletAuthorizer accepts a bearer session token first and falls back to the
// X-Wallet-Address header unless RequireToken is set.
type WalletAuthorizer struct {
	Tokens       TokenConfig
	RequireToken bool
}

func NewWalletAuthorizer(tokens TokenConfig, requireToken bool) *WalletAuthorizer {
	return &WalletAuthorizer{Tokens: tokens, RequireToken: requireToken}
}

func (a *WalletAuthorizer) Wallet(r *http.Request) (string, error) {
	if tok := ExtractBearer(r); tok != "" {
		claims, err := VerifyToken(tok, a.Tokens)
		if err != nil {
			return "", err
		}
		return claims.Wallet(), nil
	}
	if a.RequireToken {
		return "", ErrMissingWallet
	}
	wallet := strings.TrimSpace(r.Header.Get(WalletHeader))
	if wallet == "" {
		return "", ErrMissingWallet
	}
	return wallet, nil
}

// OptionalWallet returns "" instead of ErrMissingWallet; other errors pass through.
func OptionalWallet(a Authorizer, r *http.Request) (string, error) {
	w, err := a.Wallet(r)
	if err == ErrMissingWallet {
		return "", nil
	}
	return w, err
}
