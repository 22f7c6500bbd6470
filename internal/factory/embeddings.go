package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/config"
	emb "github.com/rajarshidattapy/anymind-qd/internal/embeddings"
	"github.com/rajarshidattapy/anymind-qd/internal/embeddings/ollama"
	"github.com/rajarshidattapy/anymind-qd/internal/embeddings/openai"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

// embedCacheTTL bounds how long a cached vector outlives a model change.
const embedCacheTTL = 24 * time.Hour

// NewEmbeddingProvider creates the cached embedding provider selected by config.
// Launches optional async warmup; returns provider immediately for fast startup.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) (emb.Provider, error) {
	var provider emb.Provider

	switch cfg.EmbedProvider {
	case "ollama":
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	case "openai":
		p, err := openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbedModel,
			BaseURL:    cfg.OpenAIBaseURL,
			Dimensions: cfg.MessageVectorSize,
		})
		if err != nil {
			return nil, model.ConfigurationError{Component: "embedding provider", Message: err.Error()}
		}
		provider = p
	default:
		return nil, model.ConfigurationError{Component: "embedding provider", Message: "unknown provider " + cfg.EmbedProvider}
	}

	cached, err := emb.NewCachedProvider(provider, cfg.EmbedCacheSize, embedCacheTTL)
	if err != nil {
		return nil, err
	}

	// Optional async warmup with configurable timeout; don't block startup
	go func() {
		warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		if vec, err := provider.Embed(warmupCtx, "factory-warmup-check"); err != nil || len(vec) == 0 {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Int("vec_len", len(vec)).Msg("embedding provider warmup completed")
		}
	}()

	return cached, nil
}

// NewEmbedder fixes the configured dimension and per-call timeout on p.
func NewEmbedder(p emb.Provider, cfg *config.Config) *emb.Embedder {
	return emb.NewEmbedder(p, cfg.MessageVectorSize, cfg.EmbedTimeout())
}
