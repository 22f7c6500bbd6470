package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrWalletMissing = errors.New("wallet address required")
)

// NotFoundError covers both absence and ownership mismatch so callers cannot
// probe for records owned by another wallet.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found or unauthorized", e.Resource, e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

func NewNotFoundError(resource, id string) NotFoundError {
	return NotFoundError{Resource: resource, ID: id}
}

// IsNotFoundError checks if an error is a NotFoundError (including wrapped errors)
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// ValidationError represents malformed input rejected before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// UpstreamError marks an unreachable or failing dependency (store, embedder, chain RPC).
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError; nil stays nil and existing
// UpstreamErrors are returned unchanged.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Service: service, Err: err}
}

func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// PaymentVerificationError is a business rejection of a supplied payment.
type PaymentVerificationError struct {
	Signature string
	Reason    string
}

func (e PaymentVerificationError) Error() string {
	return fmt.Sprintf("payment verification failed for %s: %s", e.Signature, e.Reason)
}

func IsPaymentVerificationError(err error) bool {
	var pe PaymentVerificationError
	return errors.As(err, &pe)
}

// DecryptionError signals corrupted secret material or a rotated key.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

func IsDecryptionError(err error) bool {
	var de *DecryptionError
	return errors.As(err, &de)
}

// ConfigurationError reports misuse of a component that is not set up
// correctly, such as using the store before bootstrap.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("%s misconfigured: %s", e.Component, e.Message)
}

func IsConfigurationError(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}
