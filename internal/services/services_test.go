package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/chain"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/secrets"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore/memstore"
)

const testDim = 8

// --- Fakes ---

// hashEmbedder maps words into a fixed number of buckets. The first bucket
// is always set so no vector is all zero.
type hashEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, testDim)
	vec[0] = 0.1
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[1+int(h.Sum32()%uint32(testDim-1))]++
	}
	return vec, nil
}

func (e *hashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeChain struct {
	verify   bool
	payments []chain.Payment
	balance  float64
	err      error
}

func (f *fakeChain) VerifyPayment(_ context.Context, p chain.Payment) bool {
	f.payments = append(f.payments, p)
	return f.verify
}

func (f *fakeChain) GetBalance(context.Context, string) (float64, error) {
	return f.balance, f.err
}

type fakeLongTerm struct {
	added   [][]model.ChatTurn
	deleted []map[string]string
	entries []model.MemoryEntry
	err     error
}

func (f *fakeLongTerm) Add(_ context.Context, turns []model.ChatTurn, _ string, _ map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.added = append(f.added, turns)
	return "m" + string(rune('0'+len(f.added))), nil
}

func (f *fakeLongTerm) Search(_ context.Context, _, _ string, _ map[string]string, limit int) ([]model.MemoryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeLongTerm) Delete(_ context.Context, _ string, tags map[string]string) error {
	f.deleted = append(f.deleted, tags)
	return f.err
}

// --- Fixture ---

type env struct {
	backend  *memstore.Backend
	store    *vectorstore.Store
	embed    *hashEmbedder
	chain    *fakeChain
	longTerm *fakeLongTerm

	agents      *AgentService
	chats       *ChatService
	messages    *MessageService
	capsules    *CapsuleService
	marketplace *MarketplaceService
	wallet      *WalletService
	prefs       *PreferencesService
	memory      *MemoryService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zerolog.Nop()
	backend := memstore.New()
	store := vectorstore.New(backend, vectorstore.DefaultCollections(testDim, testDim), log)
	require.NoError(t, store.Bootstrap(context.Background()))

	cipher, err := secrets.New("services-test-secret")
	require.NoError(t, err)

	e := &env{
		backend:  backend,
		store:    store,
		embed:    &hashEmbedder{},
		chain:    &fakeChain{verify: true},
		longTerm: &fakeLongTerm{},
	}
	e.memory = NewMemoryService(store, e.longTerm, log)
	e.messages = NewMessageService(store, e.embed, log)
	e.chats = NewChatService(store, e.messages, e.memory, log)
	e.agents = NewAgentService(store, cipher, e.chats, e.messages, log)
	e.capsules = NewCapsuleService(store, e.embed, e.chain, log)
	e.marketplace = NewMarketplaceService(store)
	e.wallet = NewWalletService(store, e.chain, log)
	e.prefs = NewPreferencesService(store)
	return e
}

func (e *env) createAgent(t *testing.T, wallet string) *model.Agent {
	t.Helper()
	a, err := e.agents.CreateAgent(context.Background(), model.AgentCreate{
		Name: "helper", DisplayName: "Helper", Model: "gpt-4o-mini", APIKey: "sk-secret",
	}, wallet)
	require.NoError(t, err)
	return a
}

func (e *env) createChat(t *testing.T, agentID, wallet, name string) *model.Chat {
	t.Helper()
	c, err := e.chats.CreateChat(context.Background(), agentID, model.ChatCreate{Name: name}, wallet)
	require.NoError(t, err)
	return c
}

func (e *env) createCapsule(t *testing.T, wallet, name, category string, price float64) *model.Capsule {
	t.Helper()
	c, err := e.capsules.CreateCapsule(context.Background(), model.CapsuleCreate{
		Name: name, Description: name + " capsule", Category: category, PricePerQuery: price,
	}, wallet)
	require.NoError(t, err)
	return c
}

func (e *env) stake(t *testing.T, capsuleID, wallet string, amount float64) {
	t.Helper()
	_, err := e.wallet.CreateStaking(context.Background(), model.StakingCreate{CapsuleID: capsuleID, StakeAmount: amount}, wallet)
	require.NoError(t, err)
}

func (e *env) count(t *testing.T, collection string, f *vectorstore.Filter) int {
	t.Helper()
	recs, err := vectorstore.ScanAll(context.Background(), e.store, collection, f, 0)
	require.NoError(t, err)
	return len(recs)
}

func (e *env) payload(t *testing.T, collection, id string) vectorstore.Payload {
	t.Helper()
	rec, err := e.store.Get(context.Background(), collection, id)
	require.NoError(t, err)
	require.NotNil(t, rec, "%s/%s missing", collection, id)
	return rec.Payload
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
