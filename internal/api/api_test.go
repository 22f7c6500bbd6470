package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/chain"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/secrets"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore/memstore"
)

const testDim = 4

type lengthEmbedder struct{}

// Embed returns a vector that depends only on the text length.
func (lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{1, float32(len(text)%7) + 1, 0.5, 0.25}, nil
}

type stubChain struct {
	verify  bool
	balance float64
}

func (s *stubChain) VerifyPayment(context.Context, chain.Payment) bool { return s.verify }

func (s *stubChain) GetBalance(context.Context, string) (float64, error) { return s.balance, nil }

type stubMemory struct {
	added int
}

func (m *stubMemory) Add(context.Context, []model.ChatTurn, string, map[string]string) (string, error) {
	m.added++
	return "mem-1", nil
}

func (m *stubMemory) Search(context.Context, string, string, map[string]string, int) ([]model.MemoryEntry, error) {
	return []model.MemoryEntry{{ID: "mem-1", Memory: "prefers short answers"}}, nil
}

func (m *stubMemory) Delete(context.Context, string, map[string]string) error { return nil }

type staticReporter struct {
	healthy    bool
	components map[string]bool
}

func (s staticReporter) IsHealthy() bool              { return s.healthy }
func (s staticReporter) Components() map[string]bool { return s.components }

type testAPI struct {
	server *httptest.Server
	chain  *stubChain
	memory *stubMemory
	health *HealthHandler
	tokens auth.TokenConfig
}

type apiOptions struct {
	withMemory bool
	debug      bool
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()
	log := zerolog.Nop()
	store := vectorstore.New(memstore.New(), vectorstore.DefaultCollections(testDim, testDim), log)
	require.NoError(t, store.Bootstrap(context.Background()))
	cipher, err := secrets.New("api-test-secret")
	require.NoError(t, err)

	ta := &testAPI{chain: &stubChain{verify: true, balance: 2}, tokens: auth.DefaultTokenConfig("api-token-secret")}
	deps := services.Deps{Store: store, Embedder: lengthEmbedder{}, Cipher: cipher, Chain: ta.chain, Log: log}
	if opts.withMemory {
		ta.memory = &stubMemory{}
		deps.LongTerm = ta.memory
	}
	ta.health = NewHealthHandler(opts.debug)
	router := NewRouter(RouterConfig{
		Services:   services.NewSet(deps),
		Authorizer: auth.NewWalletAuthorizer(ta.tokens, false),
		Tokens:     ta.tokens,
		Health:     ta.health,
	})
	ta.server = httptest.NewServer(router)
	t.Cleanup(ta.server.Close)
	return ta
}

// makeRequest sends body as JSON. An empty wallet sends no identity header.
func (ta *testAPI) makeRequest(t *testing.T, method, path, wallet string, body interface{}) *http.Response {
	t.Helper()
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, ta.server.URL+path, bodyReader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet != "" {
		req.Header.Set(auth.WalletHeader, wallet)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func parseResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func closeBody(resp *http.Response) { _ = resp.Body.Close() }
