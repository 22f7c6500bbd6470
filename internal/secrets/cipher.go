// Package secrets encrypts agent API keys at rest with NaCl secretbox.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

const (
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "anymind api key encryption v1"
)

// Cipher encrypts short secrets. Ciphertexts are base64url(nonce || box).
type Cipher struct {
	key [keySize]byte
}

// New derives the encryption key from secret with HKDF-SHA256.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, model.ConfigurationError{Component: "secrets", Message: "encryption secret is empty"}
	}
	c := &Cipher{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, c.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return c, nil
}

// Encrypt returns "" for "".
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt returns "" for "". Any failure is a *model.DecryptionError.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &model.DecryptionError{Err: fmt.Errorf("decode: %w", err)}
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", &model.DecryptionError{Err: fmt.Errorf("ciphertext too short")}
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", &model.DecryptionError{Err: fmt.Errorf("authentication failed")}
	}
	return string(plain), nil
}

// EncryptPtr passes nil through.
func (c *Cipher) EncryptPtr(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	s, err := c.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DecryptPtr passes nil through.
func (c *Cipher) DecryptPtr(ciphertext *string) (*string, error) {
	if ciphertext == nil {
		return nil, nil
	}
	s, err := c.Decrypt(*ciphertext)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
