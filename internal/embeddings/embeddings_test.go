package embeddings

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

type fakeProvider struct {
	vec   []float32
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func TestEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 2, 3}}
	e := NewEmbedder(p, 3, time.Second)
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, vec)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestEmbedder_DimensionMismatchIsConfigurationError(t *testing.T) {
	e := NewEmbedder(&fakeProvider{vec: []float32{1, 2}}, 3, time.Second)
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))
}

func TestEmbedder_ProviderFailureIsUpstream(t *testing.T) {
	e := NewEmbedder(&fakeProvider{err: errors.New("boom")}, 3, time.Second)
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, model.IsUpstreamError(err))
}

func TestCachedProvider_HitsCache(t *testing.T) {
	p := &fakeProvider{vec: []float32{1, 2, 3}}
	c, err := NewCachedProvider(p, 16, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.Embed(ctx, "same")
	require.NoError(t, err)
	c.Wait()
	vec, err := c.Embed(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, int32(1), p.calls.Load())

	vec[0] = 99
	again, _ := c.Embed(ctx, "same")
	assert.Equal(t, float32(1), again[0])
}

func TestProviderHealthChecker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakeProvider{vec: []float32{1}}
	hc := NewProviderHealthChecker(p, zerolog.Nop(), time.Second)
	assert.False(t, hc.IsHealthy())
	go hc.Start(ctx, 10*time.Millisecond)
	assert.Eventually(t, hc.IsHealthy, time.Second, 10*time.Millisecond)
}

func TestProviderHealthChecker_EmptyVectorIsUnhealthy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakeProvider{}
	hc := NewProviderHealthChecker(p, zerolog.Nop(), time.Second)
	assert.Equal(t, "embedder", hc.Name())
	go hc.Start(ctx, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, hc.IsHealthy())
}
