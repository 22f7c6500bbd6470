package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	path   string
	query  url.Values
	wallet string
}

func stubAPI(t *testing.T, status int, body interface{}) (*httptest.Server, func() []seen) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []seen
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, seen{path: r.URL.Path, query: r.URL.Query(), wallet: r.Header.Get("X-Wallet-Address")})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []seen {
		mu.Lock()
		defer mu.Unlock()
		return append([]seen(nil), calls...)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMarketplaceBrowse_SendsFilters(t *testing.T) {
	srv, calls := stubAPI(t, http.StatusOK, []map[string]string{{"id": "c1", "name": "Alpha"}})

	out, err := run(t, "--api", srv.URL, "marketplace", "browse", "--limit", "5", "--category", "Finance", "--sort", "newest", "--max-price", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Alpha"`)

	require.Len(t, calls(), 1)
	got := calls()[0]
	assert.Equal(t, "/api/marketplace", got.path)
	assert.Equal(t, "5", got.query.Get("limit"))
	assert.Equal(t, "0", got.query.Get("offset"))
	assert.Equal(t, "Finance", got.query.Get("category"))
	assert.Equal(t, "newest", got.query.Get("sort_by"))
	assert.Equal(t, "2.5", got.query.Get("max_price"))
	assert.Empty(t, got.wallet)
}

func TestMarketplaceBrowse_OmitsUnsetMaxPrice(t *testing.T) {
	srv, calls := stubAPI(t, http.StatusOK, []interface{}{})
	_, err := run(t, "--api", srv.URL, "marketplace", "browse")
	require.NoError(t, err)
	_, present := calls()[0].query["max_price"]
	assert.False(t, present)
}

func TestMarketplaceSearch(t *testing.T) {
	srv, calls := stubAPI(t, http.StatusOK, []interface{}{})
	_, err := run(t, "--api", srv.URL, "marketplace", "search", "crypto signals", "-l", "3")
	require.NoError(t, err)
	assert.Equal(t, "/api/marketplace/search", calls()[0].path)
	assert.Equal(t, "crypto signals", calls()[0].query.Get("q"))
	assert.Equal(t, "3", calls()[0].query.Get("limit"))
}

func TestWalletCommands_RequireWallet(t *testing.T) {
	srv, calls := stubAPI(t, http.StatusOK, map[string]interface{}{})

	_, err := run(t, "--api", srv.URL, "wallet", "earnings")
	require.Error(t, err)
	assert.Empty(t, calls())

	_, err = run(t, "--api", srv.URL, "--wallet", "W1", "wallet", "earnings", "--period", "30d")
	require.NoError(t, err)
	require.Len(t, calls(), 1)
	assert.Equal(t, "/api/wallet/earnings", calls()[0].path)
	assert.Equal(t, "30d", calls()[0].query.Get("period"))
	assert.Equal(t, "W1", calls()[0].wallet)
}

func TestAgentsList_SendsWalletHeader(t *testing.T) {
	srv, calls := stubAPI(t, http.StatusOK, []interface{}{})
	_, err := run(t, "--api", srv.URL, "-w", "W2", "agents", "list")
	require.NoError(t, err)
	assert.Equal(t, "/api/agents", calls()[0].path)
	assert.Equal(t, "W2", calls()[0].wallet)
}

func TestErrorStatusIsReturned(t *testing.T) {
	srv, _ := stubAPI(t, http.StatusNotFound, map[string]string{"detail": "Capsule not found"})
	_, err := run(t, "--api", srv.URL, "capsules", "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")
	assert.Contains(t, err.Error(), "Capsule not found")
}

func TestHealth_UnhealthyPrintsBody(t *testing.T) {
	srv, _ := stubAPI(t, http.StatusServiceUnavailable, map[string]interface{}{
		"status":   "unhealthy",
		"services": map[string]string{"store": "unavailable"},
	})
	out, err := run(t, "--api", srv.URL, "health")
	require.Error(t, err)
	assert.Contains(t, out, `"status": "unhealthy"`)
}
