package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/config"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore/memstore"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore/weaviate"
)

// NewVectorStore builds the configured backend and bootstraps its
// collections in the background, retrying until it succeeds or ctx ends.
// The store rejects calls until then and its health probe stays red.
func NewVectorStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*vectorstore.Store, error) {
	var backend vectorstore.Backend
	switch cfg.VectorBackend {
	case "memory":
		backend = memstore.New()
	case "weaviate":
		b, err := weaviate.New(weaviate.Config{Host: cfg.WeaviateURL, Scheme: cfg.WeaviateScheme, APIKey: cfg.WeaviateAPIKey}, log)
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND: %s", cfg.VectorBackend)
	}

	store := vectorstore.New(backend, vectorstore.DefaultCollections(cfg.MessageVectorSize, cfg.CapsuleVectorSize), log)
	go bootstrapStore(ctx, cfg, store, log)
	return store, nil
}

func bootstrapStore(ctx context.Context, cfg *config.Config, store *vectorstore.Store, log zerolog.Logger) {
	attemptTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 15 * time.Second
	policy.MaxElapsedTime = 0

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()
		return store.Bootstrap(attemptCtx)
	}
	notify := func(err error, next time.Duration) {
		log.Warn().Err(err).Str("backend", cfg.VectorBackend).Dur("retry_in", next).Msg("vector store bootstrap failed")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		log.Error().Err(err).Str("backend", cfg.VectorBackend).Msg("vector store bootstrap abandoned")
	}
}
