package config

import "testing"

func TestResolveDefaults_SecretFallsBackToSecretKey(t *testing.T) {
	cfg := NewForTesting()
	cfg.APIKeyEncryptionSecret = ""
	cfg.SecretKey = "fallback"

	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.APIKeyEncryptionSecret != "fallback" {
		t.Fatalf("expected SECRET_KEY fallback, got %q", cfg.APIKeyEncryptionSecret)
	}
}

func TestResolveDefaults_ProductionRequiresSecret(t *testing.T) {
	cfg := NewForTesting()
	cfg.Environment = EnvProduction
	cfg.APIKeyEncryptionSecret = ""
	cfg.SecretKey = ""

	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error without encryption secret in production")
	}
}

func TestResolveDefaults_RejectsBadVectorSize(t *testing.T) {
	cfg := NewForTesting()
	cfg.CapsuleVectorSize = 0
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for zero capsule vector size")
	}
}

func TestResolveDefaults_VectorBackend(t *testing.T) {
	cfg := NewForTesting()
	cfg.VectorBackend = ""
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.VectorBackend != "weaviate" {
		t.Fatalf("empty backend should resolve to weaviate, got %s", cfg.VectorBackend)
	}

	cfg.VectorBackend = "qdrant"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}

func TestResolveDefaults_VectorSizesMustMatch(t *testing.T) {
	cfg := NewForTesting()
	cfg.MessageVectorSize = 768
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for mismatched vector sizes")
	}
}

func TestResolveDefaults_RequireTokenNeedsSecret(t *testing.T) {
	cfg := NewForTesting()
	cfg.AuthRequireToken = true
	cfg.AuthTokenSecret = ""
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error when tokens are required without a secret")
	}
}
