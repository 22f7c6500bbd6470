package factory

import (
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/chain"
	"github.com/rajarshidattapy/anymind-qd/internal/config"
	emb "github.com/rajarshidattapy/anymind-qd/internal/embeddings"
	"github.com/rajarshidattapy/anymind-qd/internal/longterm"
	"github.com/rajarshidattapy/anymind-qd/internal/secrets"
)

// devCipherSecret keeps local runs working without a configured secret.
// Keys encrypted with it are unreadable once a real secret is set.
const devCipherSecret = "anymind-development-only-secret"

// NewCipher returns the API key cipher. Outside production a missing secret
// falls back to a fixed development secret.
func NewCipher(cfg *config.Config, log zerolog.Logger) (*secrets.Cipher, error) {
	secret := cfg.APIKeyEncryptionSecret
	if secret == "" && !cfg.IsProduction() {
		log.Warn().Msg("API_KEY_ENCRYPTION_SECRET not set; using development secret")
		secret = devCipherSecret
	}
	return secrets.New(secret)
}

func NewChain(cfg *config.Config, log zerolog.Logger) *chain.Client {
	return chain.New(cfg.SolanaRPCURL, cfg.ChainTimeout(), log.With().Str("component", "chain").Logger())
}

// NewLongTerm opens the long-term memory store when enabled. A nil store
// with a nil error means memory is disabled; an open failure is logged and
// also disables it.
func NewLongTerm(cfg *config.Config, embedder *emb.Embedder, log zerolog.Logger) *longterm.ChromemStore {
	if !cfg.LongTermEnabled {
		log.Info().Msg("long-term memory disabled")
		return nil
	}
	st, err := longterm.New(cfg.LongTermPath, embedder.Embed, log.With().Str("component", "longterm").Logger())
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.LongTermPath).Msg("long-term memory unavailable; continuing without it")
		return nil
	}
	log.Info().Str("path", cfg.LongTermPath).Msg("long-term memory enabled")
	return st
}
