package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

func TestUpsertPayload_CreatesThenMerges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	calls := 0
	p, err := upsertPayload(ctx, e.store, vectorstore.Preferences, "pref:w9", "preferences", func(p vectorstore.Payload) {
		calls++
		p["wallet"] = "w9"
	})
	require.NoError(t, err)
	assert.Equal(t, "preferences", p.Str("type"))
	created := p.Str("created_at")
	require.NotEmpty(t, created)
	time.Sleep(2 * time.Millisecond)

	_, err = upsertPayload(ctx, e.store, vectorstore.Preferences, "pref:w9", "preferences", func(p vectorstore.Payload) {
		calls++
		assert.Equal(t, "w9", p.Str("wallet"), "existing payload is handed to fn")
		p["wallet"] = "w9b"
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	stored := e.payload(t, vectorstore.Preferences, "pref:w9")
	assert.Equal(t, "w9b", stored.Str("wallet"))
	assert.Equal(t, created, stored.Str("created_at"))
	assert.NotEqual(t, created, stored.Str("updated_at"))
	assert.Equal(t, 1, e.backend.Count(vectorstore.Preferences))
}

func TestIncrementCounter_MissingRecord(t *testing.T) {
	e := newEnv(t)
	p, err := incrementCounter(context.Background(), e.store, vectorstore.Capsules, "nope", "query_count", 1)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 0, e.backend.Count(vectorstore.Capsules))
}
