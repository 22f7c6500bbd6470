package auth

import "errors"

var (
	// ErrMissingWallet is returned when neither a token nor a wallet header is present.
	ErrMissingWallet = errors.New("wallet identification required")

	// ErrInvalidWallet is returned when the wallet is not a base58 ed25519 public key.
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrInvalidToken is returned for malformed, expired or forged bearer tokens.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrInvalidSignature is returned when a sign-in signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)
