// Package services holds the entity services: ownership-scoped lifecycle
// operations over the vector store plus the coordination between entities
// (cascading deletes, counters, staking aggregates, marketplace ranking).
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/chain"
	"github.com/rajarshidattapy/anymind-qd/internal/longterm"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// Embedder turns text into a vector of the dimension the target collection expects.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SecretCipher encrypts API keys at rest.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// PaymentVerifier confirms an on-chain transfer. It never errors: anything
// that cannot be confirmed is reported as false.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, p chain.Payment) bool
}

// BalanceReader reads a wallet's native balance.
type BalanceReader interface {
	GetBalance(ctx context.Context, wallet string) (float64, error)
}

// Chain is the subset of the chain RPC client the services use.
type Chain interface {
	PaymentVerifier
	BalanceReader
}

// Deps are the collaborators shared by every service. LongTerm may be nil.
type Deps struct {
	Store    vectorstore.Client
	Embedder Embedder
	Cipher   SecretCipher
	Chain    Chain
	LongTerm longterm.Store
	Log      zerolog.Logger
}

// Set is the fully wired service graph handed to the transport layer.
type Set struct {
	Agents      *AgentService
	Chats       *ChatService
	Messages    *MessageService
	Memory      *MemoryService
	Capsules    *CapsuleService
	Marketplace *MarketplaceService
	Wallet      *WalletService
	Preferences *PreferencesService
}

func NewSet(d Deps) *Set {
	memory := NewMemoryService(d.Store, d.LongTerm, d.Log.With().Str("service", "memory").Logger())
	messages := NewMessageService(d.Store, d.Embedder, d.Log.With().Str("service", "messages").Logger())
	chats := NewChatService(d.Store, messages, memory, d.Log.With().Str("service", "chats").Logger())
	return &Set{
		Agents:      NewAgentService(d.Store, d.Cipher, chats, messages, d.Log.With().Str("service", "agents").Logger()),
		Chats:       chats,
		Messages:    messages,
		Memory:      memory,
		Capsules:    NewCapsuleService(d.Store, d.Embedder, d.Chain, d.Log.With().Str("service", "capsules").Logger()),
		Marketplace: NewMarketplaceService(d.Store),
		Wallet:      NewWalletService(d.Store, d.Chain, d.Log.With().Str("service", "wallet").Logger()),
		Preferences: NewPreferencesService(d.Store),
	}
}

// Outcome is the result of a best-effort operation. Callers may ignore it.
type Outcome struct {
	OK  bool
	Err error
}

func succeeded() Outcome { return Outcome{OK: true} }

func failed(err error) Outcome { return Outcome{Err: err} }

func nowUTC() time.Time { return time.Now().UTC() }
