package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

// Provider produces vector representations for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder fixes the dimensionality callers expect and bounds each provider
// call with a timeout.
type Embedder struct {
	provider Provider
	dim      int
	timeout  time.Duration
}

func NewEmbedder(p Provider, dim int, timeout time.Duration) *Embedder {
	return &Embedder{provider: p, dim: dim, timeout: timeout}
}

// Dim returns the expected vector size.
func (e *Embedder) Dim() int { return e.dim }

// Provider returns the wrapped provider, for health probing.
func (e *Embedder) Provider() Provider { return e.provider }

// Embed returns an all-zero vector for empty text. A provider vector of the
// wrong size is a ConfigurationError; provider failures are UpstreamErrors.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, e.dim), nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	vec, err := e.provider.Embed(ctx, text)
	if err != nil {
		return nil, model.Upstream("embedding provider", err)
	}
	if len(vec) != e.dim {
		return nil, model.ConfigurationError{
			Component: "embedding provider",
			Message:   fmt.Sprintf("expected %d dimensions, got %d", e.dim, len(vec)),
		}
	}
	return vec, nil
}
