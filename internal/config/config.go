package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the capsule service.
// Environment variables are parsed with the ANYMIND_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`
	Debug       bool        `envconfig:"DEBUG" default:"false"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// Vector store: "weaviate" for the service, "memory" for local runs.
	VectorBackend     string `envconfig:"VECTOR_BACKEND" default:"weaviate"`
	WeaviateURL       string `envconfig:"WEAVIATE_URL" default:"localhost:8080"`
	WeaviateScheme    string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	WeaviateAPIKey    string `envconfig:"WEAVIATE_API_KEY" default:""`
	MessageVectorSize int    `envconfig:"MESSAGE_VECTOR_SIZE" default:"1536"`
	CapsuleVectorSize int    `envconfig:"CAPSULE_VECTOR_SIZE" default:"1536"`

	// Embeddings
	EmbedProvider       string `envconfig:"EMBED_PROVIDER" default:"openai"`
	EmbedModel          string `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`
	EmbedTimeoutSeconds int    `envconfig:"EMBED_TIMEOUT_SECONDS" default:"30"`
	EmbedCacheSize      int64  `envconfig:"EMBED_CACHE_SIZE" default:"4096"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL" default:""`
	OllamaURL           string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Chain RPC
	SolanaRPCURL        string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	ChainTimeoutSeconds int    `envconfig:"CHAIN_TIMEOUT_SECONDS" default:"10"`

	// Secrets
	APIKeyEncryptionSecret string `envconfig:"API_KEY_ENCRYPTION_SECRET" default:""`
	SecretKey              string `envconfig:"SECRET_KEY" default:""`

	// Wallet session tokens; empty secret disables bearer tokens.
	AuthTokenSecret   string `envconfig:"AUTH_TOKEN_SECRET" default:""`
	AuthTokenTTLHours int    `envconfig:"AUTH_TOKEN_TTL_HOURS" default:"168"`
	AuthRequireToken  bool   `envconfig:"AUTH_REQUIRE_TOKEN" default:"false"`

	// Long-term memory
	LongTermEnabled bool   `envconfig:"LONGTERM_ENABLED" default:"false"`
	LongTermPath    string `envconfig:"LONGTERM_PATH" default:""`

	// Health / bootstrap
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"15"`
}

// ResolveDefaults validates provider choices and derives fallbacks.
func (c *Config) ResolveDefaults() error {
	switch c.VectorBackend {
	case "", "weaviate":
		c.VectorBackend = "weaviate"
	case "memory":
	default:
		return fmt.Errorf("unsupported VECTOR_BACKEND: %s", c.VectorBackend)
	}

	switch c.EmbedProvider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}

	if c.MessageVectorSize <= 0 || c.CapsuleVectorSize <= 0 {
		return fmt.Errorf("vector sizes must be positive (message=%d capsule=%d)", c.MessageVectorSize, c.CapsuleVectorSize)
	}

	// One embedder serves both messages and capsules.
	if c.MessageVectorSize != c.CapsuleVectorSize {
		return fmt.Errorf("MESSAGE_VECTOR_SIZE (%d) and CAPSULE_VECTOR_SIZE (%d) must match", c.MessageVectorSize, c.CapsuleVectorSize)
	}

	if c.AuthRequireToken && c.AuthTokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required when AUTH_REQUIRE_TOKEN is set")
	}

	if c.APIKeyEncryptionSecret == "" {
		c.APIKeyEncryptionSecret = c.SecretKey
	}
	if c.APIKeyEncryptionSecret == "" && c.Environment == EnvProduction {
		return fmt.Errorf("API_KEY_ENCRYPTION_SECRET or SECRET_KEY is required in production")
	}

	if c.EmbedTimeoutSeconds <= 0 {
		c.EmbedTimeoutSeconds = 30
	}
	if c.ChainTimeoutSeconds <= 0 {
		c.ChainTimeoutSeconds = 10
	}
	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = 30
	}
	if c.BootstrapTimeoutSeconds <= 0 {
		c.BootstrapTimeoutSeconds = 15
	}
	return nil
}

// New creates a new Config by parsing environment variables
// prefixed with ANYMIND_, e.g. ANYMIND_HTTP_PORT, ANYMIND_WEAVIATE_URL.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ANYMIND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("vector_backend", cfg.VectorBackend).
		Str("weaviate_url", cfg.WeaviateURL).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Int("message_vector_size", cfg.MessageVectorSize).
		Int("capsule_vector_size", cfg.CapsuleVectorSize).
		Str("solana_rpc_url", cfg.SolanaRPCURL).
		Bool("encryption_secret_present", cfg.APIKeyEncryptionSecret != "").
		Bool("auth_token_secret_present", cfg.AuthTokenSecret != "").
		Bool("longterm_enabled", cfg.LongTermEnabled).
		Bool("debug", cfg.Debug).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8000,
		VectorBackend:             "memory",
		WeaviateURL:               "localhost:8082",
		WeaviateScheme:            "http",
		MessageVectorSize:         8,
		CapsuleVectorSize:         8,
		EmbedProvider:             "ollama",
		EmbedModel:                "nomic-embed-text",
		EmbedTimeoutSeconds:       5,
		EmbedCacheSize:            128,
		OllamaURL:                 "http://localhost:11434",
		SolanaRPCURL:              "http://localhost:8899",
		ChainTimeoutSeconds:       2,
		APIKeyEncryptionSecret:    "test-secret",
		AuthTokenSecret:           "test-token-secret",
		AuthTokenTTLHours:         1,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSeconds) * time.Second
}

func (c *Config) ChainTimeout() time.Duration {
	return time.Duration(c.ChainTimeoutSeconds) * time.Second
}

func (c *Config) AuthTokenTTL() time.Duration {
	return time.Duration(c.AuthTokenTTLHours) * time.Hour
}
