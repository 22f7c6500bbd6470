package auth

import (
	"net/http"
	"strings"
)

// WalletHeader carries the caller's wallet address on unauthenticated requests.
const WalletHeader = "X-Wallet-Address"

// ExtractBearer returns the token from "Authorization: Bearer <token>", or "".
func ExtractBearer(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
