package auth

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mr-tron/base58"
)

// DecodeWallet decodes a base58 Solana address into its ed25519 public key.
func DecodeWallet(wallet string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(wallet)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidWallet
	}
	return ed25519.PublicKey(raw), nil
}

// VerifyWalletSignature checks an ed25519 signature of message by wallet.
// Wallet adapters hand out signatures base58 encoded; base64 is also accepted.
func VerifyWalletSignature(wallet, message, signature string) error {
	pub, err := DecodeWallet(wallet)
	if err != nil {
		return err
	}
	if message == "" {
		return ErrInvalidSignature
	}
	sig, err := decodeSignature(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(pub, []byte(message), sig) {
		return ErrInvalidSignature
	}
	return nil
}

func decodeSignature(s string) ([]byte, error) {
	if raw, err := base58.Decode(s); err == nil && len(raw) == ed25519.SignatureSize {
		return raw, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != ed25519.SignatureSize {
		return nil, ErrInvalidSignature
	}
	return raw, nil
}
