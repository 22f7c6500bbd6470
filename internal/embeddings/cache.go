package embeddings

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/rajarshidattapy/anymind-qd/internal/health"
)

// CachedProvider memoizes embeddings by text in a ristretto cache.
type CachedProvider struct {
	next  Provider
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next with a cache holding up to size vectors.
func NewCachedProvider(next Provider, size int64, ttl time.Duration) (*CachedProvider, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl}, nil
}

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := p.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return append([]float32(nil), vec...), nil
		}
	}
	vec, err := p.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	stored := append([]float32(nil), vec...)
	if p.ttl > 0 {
		p.cache.SetWithTTL(text, stored, 1, p.ttl)
	} else {
		p.cache.Set(text, stored, 1)
	}
	return vec, nil
}

// HealthPing forwards to the wrapped provider when it can ping.
func (p *CachedProvider) HealthPing(ctx context.Context) error {
	if hp, ok := p.next.(health.HealthPinger); ok {
		return hp.HealthPing(ctx)
	}
	_, err := p.next.Embed(ctx, "health-check")
	return err
}

// Wait blocks until pending cache writes are applied.
func (p *CachedProvider) Wait() { p.cache.Wait() }

func (p *CachedProvider) Close() { p.cache.Close() }
