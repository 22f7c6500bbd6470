package vectorstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore/memstore"
)

func newStore(t *testing.T, bootstrap bool) *vectorstore.Store {
	t.Helper()
	s := vectorstore.New(memstore.New(), vectorstore.DefaultCollections(3, 3), zerolog.Nop())
	if bootstrap {
		require.NoError(t, s.Bootstrap(context.Background()))
	}
	return s
}

func TestStore_UnusableBeforeBootstrap(t *testing.T) {
	s := newStore(t, false)
	_, err := s.Get(context.Background(), vectorstore.Agents, "x")
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))
	assert.False(t, s.Ready())
	assert.Error(t, s.HealthPing(context.Background()))
}

func TestStore_UnknownCollection(t *testing.T) {
	s := newStore(t, true)
	err := s.Upsert(context.Background(), "nope", "x", vectorstore.Payload{}, nil)
	assert.True(t, model.IsConfigurationError(err))
}

func TestStore_VectorDimensionChecked(t *testing.T) {
	s := newStore(t, true)
	ctx := context.Background()
	err := s.Upsert(ctx, vectorstore.Messages, "m1", vectorstore.Payload{}, map[string][]float32{vectorstore.MessageVec: {1, 2}})
	assert.True(t, model.IsConfigurationError(err))

	err = s.Upsert(ctx, vectorstore.Messages, "m1", vectorstore.Payload{}, map[string][]float32{"other": {1, 2, 3}})
	assert.True(t, model.IsConfigurationError(err))

	_, err = s.Search(ctx, vectorstore.Messages, vectorstore.MessageVec, []float32{1}, nil, 3)
	assert.True(t, model.IsConfigurationError(err))
}

func TestStore_UndeclaredFilterKeyRejected(t *testing.T) {
	s := newStore(t, true)
	_, _, err := s.Scan(context.Background(), vectorstore.Agents, vectorstore.Where(vectorstore.Match("display_name", "x")), 10, "")
	assert.True(t, model.IsConfigurationError(err))

	_, _, err = s.Scan(context.Background(), vectorstore.Capsules, vectorstore.Where(vectorstore.Range("category", "between", 1)), 10, "")
	assert.True(t, model.IsConfigurationError(err))
}

func TestStore_DeleteByFilterNeedsCondition(t *testing.T) {
	s := newStore(t, true)
	err := s.DeleteByFilter(context.Background(), vectorstore.Chats, nil)
	assert.True(t, model.IsConfigurationError(err))
}

func TestStore_PlaceholderAndEmptySearch(t *testing.T) {
	s := newStore(t, true)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, vectorstore.Agents, "a1", vectorstore.Payload{"agent_id": "a1"}, nil))
	got, err := s.Get(ctx, vectorstore.Agents, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)

	hits, err := s.Search(ctx, vectorstore.Messages, vectorstore.MessageVec, []float32{1, 0, 0}, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_BadCursor(t *testing.T) {
	s := newStore(t, true)
	_, _, err := s.Scan(context.Background(), vectorstore.Agents, nil, 10, "!!!")
	assert.True(t, model.IsValidationError(err))
}

func TestStore_ScanLastPageHasNoCursor(t *testing.T) {
	s := newStore(t, true)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Upsert(ctx, vectorstore.Agents, id, vectorstore.Payload{"agent_id": id}, nil))
	}
	page, next, err := s.Scan(ctx, vectorstore.Agents, nil, 2, "")
	require.NoError(t, err)
	assert.Len(t, page, 2)
	require.NotEmpty(t, next)

	page, next, err = s.Scan(ctx, vectorstore.Agents, nil, 2, next)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Empty(t, next)
}

func TestHealthChecker_FollowsBootstrap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newStore(t, false)
	hc := vectorstore.NewHealthChecker(s, zerolog.Nop(), time.Second)
	assert.Equal(t, vectorstore.ComponentName, hc.Name())
	go hc.Start(ctx, 5*time.Millisecond)

	assert.Never(t, hc.IsHealthy, 30*time.Millisecond, 5*time.Millisecond)
	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Eventually(t, hc.IsHealthy, time.Second, 5*time.Millisecond)
}
