// Package capsuleservice assembles and runs the capsule marketplace HTTP service.
package capsuleservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/rajarshidattapy/anymind-qd/internal/api"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/chain"
	"github.com/rajarshidattapy/anymind-qd/internal/config"
	emb "github.com/rajarshidattapy/anymind-qd/internal/embeddings"
	"github.com/rajarshidattapy/anymind-qd/internal/factory"
	"github.com/rajarshidattapy/anymind-qd/internal/health"
	"github.com/rajarshidattapy/anymind-qd/internal/logger"
	"github.com/rajarshidattapy/anymind-qd/internal/longterm"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// dependencies are the long-lived collaborators built at startup.
type dependencies struct {
	store    *vectorstore.Store
	provider emb.Provider
	embedder *emb.Embedder
	chain    *chain.Client
	longTerm *longterm.ChromemStore
	services *services.Set
}

// Run starts the capsule service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("capsule-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.NewWithLevel("capsule-service", cfg.LogLevel)
	// respond and recovery log through the global logger.
	zlog.Logger = log

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("vector_backend", cfg.VectorBackend).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Bool("longterm_enabled", cfg.LongTermEnabled).
		Msg("Capsule service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	healthHandler := api.NewHealthHandler(cfg.Debug)
	router := api.NewRouter(api.RouterConfig{
		Services:   deps.services,
		Authorizer: auth.NewWalletAuthorizer(tokenConfig(cfg), cfg.AuthRequireToken),
		Tokens:     tokenConfig(cfg),
		Health:     healthHandler,
	})

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, deps)
	healthHandler.Bind(svcHealth)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func tokenConfig(cfg *config.Config) auth.TokenConfig {
	tokens := auth.DefaultTokenConfig(cfg.AuthTokenSecret)
	if ttl := cfg.AuthTokenTTL(); ttl > 0 {
		tokens.Expiry = ttl
	}
	return tokens
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, err := factory.NewVectorStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Vector store unavailable")
		return nil, err
	}

	provider, err := factory.NewEmbeddingProvider(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Embedding provider unavailable")
		return nil, err
	}
	embedder := factory.NewEmbedder(provider, cfg)

	cipher, err := factory.NewCipher(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("API key cipher unavailable")
		return nil, err
	}

	d := &dependencies{
		store:    st,
		provider: provider,
		embedder: embedder,
		chain:    factory.NewChain(cfg, log),
		longTerm: factory.NewLongTerm(cfg, embedder, log),
	}

	// A nil *ChromemStore must reach the services as a nil interface.
	var lt longterm.Store
	if d.longTerm != nil {
		lt = d.longTerm
	}
	d.services = services.NewSet(services.Deps{
		Store:    st,
		Embedder: embedder,
		Cipher:   cipher,
		Chain:    d.chain,
		LongTerm: lt,
		Log:      log,
	})
	return d, nil
}

// startHealthCheckers starts component checkers and the service-level
// aggregator. Only the store is required; the rest are reported.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, d *dependencies) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := vectorstore.NewHealthChecker(d.store, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	embChecker := emb.NewProviderHealthChecker(d.provider, log, probeTimeout)
	go embChecker.Start(ctx, interval)

	chainChecker := health.NewPingChecker("chain", d.chain, log, probeTimeout)
	go chainChecker.Start(ctx, interval)

	var memoryChecker health.HealthChecker = health.NewStaticChecker("memory", false)
	if d.longTerm != nil {
		memoryChecker = health.NewPingChecker("memory", d.longTerm, log, probeTimeout)
		go memoryChecker.Start(ctx, interval)
	}

	svcHealth := health.NewServiceHealthChecker(log, storeChecker).
		WithOptional(embChecker, chainChecker, memoryChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
