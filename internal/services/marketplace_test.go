package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// seedMarket creates five staked capsules and two unstaked ones.
func seedMarket(t *testing.T, e *env) map[string]*model.Capsule {
	t.Helper()
	out := map[string]*model.Capsule{}
	specs := []struct {
		name     string
		category string
		price    float64
		stake    float64
		queries  int
	}{
		{"Alpha", "Finance", 3, 10, 5},
		{"Beta", "Finance", 1, 5, 9},
		{"Gamma", "Gaming", 2, 1, 1},
		{"Delta", "Health", 5, 2, 0},
		{"Epsilon", "Gaming", 4, 7, 3},
		{"Hidden", "Finance", 0.1, 0, 50},
		{"Zero", "Gaming", 0.2, 0, 0},
	}
	for _, s := range specs {
		c := e.createCapsule(t, "creator", s.name, s.category, s.price)
		if s.stake > 0 {
			e.stake(t, c.ID, "staker", s.stake)
		}
		for i := 0; i < s.queries; i++ {
			_, err := incrementCounter(context.Background(), e.store, vectorstore.Capsules, c.ID, "query_count", 1)
			require.NoError(t, err)
		}
		out[s.name] = c
		time.Sleep(time.Millisecond)
	}
	return out
}

func names(caps []model.Capsule) []string {
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, c.Name)
	}
	return out
}

func TestBrowse_OnlyStaked(t *testing.T) {
	e := newEnv(t)
	seedMarket(t, e)
	ctx := context.Background()

	filters := []model.MarketplaceFilters{
		{},
		{Category: "Finance"},
		{Category: "Gaming", SortBy: model.SortPriceLow},
		{MaxPrice: ptr(1.0)},
		{MinReputation: ptr(0.0), SortBy: model.SortNewest},
	}
	for _, f := range filters {
		caps, err := e.marketplace.Browse(ctx, f, 100, 0)
		require.NoError(t, err)
		for _, c := range caps {
			assert.Greater(t, c.StakeAmount, 0.0, "filters %+v returned %s", f, c.Name)
			assert.True(t, c.IsListed)
		}
	}
}

func TestBrowse_Sorting(t *testing.T) {
	e := newEnv(t)
	seedMarket(t, e)
	ctx := context.Background()

	caps, err := e.marketplace.Browse(ctx, model.MarketplaceFilters{SortBy: model.SortPriceLow}, 50, 0)
	require.NoError(t, err)
	require.Len(t, caps, 5)
	for i := 1; i < len(caps); i++ {
		assert.LessOrEqual(t, caps[i-1].PricePerQuery, caps[i].PricePerQuery)
	}

	caps, err = e.marketplace.Browse(ctx, model.MarketplaceFilters{}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "Alpha", "Epsilon", "Gamma", "Delta"}, names(caps))

	caps, err = e.marketplace.Browse(ctx, model.MarketplaceFilters{SortBy: model.SortNewest}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Epsilon", "Delta"}, names(caps))

	caps, err = e.marketplace.Browse(ctx, model.MarketplaceFilters{SortBy: model.SortPriceHigh}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Epsilon", "Alpha"}, names(caps))
}

func TestBrowse_FiltersAndPaging(t *testing.T) {
	e := newEnv(t)
	seedMarket(t, e)
	ctx := context.Background()

	caps, err := e.marketplace.Browse(ctx, model.MarketplaceFilters{Category: "Finance"}, 10, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Alpha", "Beta"}, names(caps))

	caps, err = e.marketplace.Browse(ctx, model.MarketplaceFilters{MaxPrice: ptr(2.0)}, 10, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Beta", "Gamma"}, names(caps))

	caps, err = e.marketplace.Browse(ctx, model.MarketplaceFilters{}, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, caps)

	_, err = e.marketplace.Browse(ctx, model.MarketplaceFilters{}, 10, -1)
	assert.True(t, model.IsValidationError(err))
}

func TestTrending(t *testing.T) {
	e := newEnv(t)
	seedMarket(t, e)
	caps, err := e.marketplace.Trending(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "Alpha"}, names(caps))
}

func TestCategories(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cats, err := e.marketplace.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories, cats)

	seedMarket(t, e)
	cats, err = e.marketplace.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "Gaming", "Health"}, cats)
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	seedMarket(t, e)
	ctx := context.Background()

	caps, err := e.marketplace.Search(ctx, "  ALPHA ", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, names(caps))

	caps, err = e.marketplace.Search(ctx, "hidden", 10)
	require.NoError(t, err)
	assert.Empty(t, caps, "unstaked capsules are never found")

	caps, err = e.marketplace.Search(ctx, "", 3)
	require.NoError(t, err)
	assert.Len(t, caps, 3)

	caps, err = e.marketplace.Search(ctx, "capsule", 2)
	require.NoError(t, err)
	assert.Len(t, caps, 2)
}
