package services

import (
	"context"
	"sort"
	"strings"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

const (
	marketplaceMinWindow = 50
	marketplaceMaxWindow = 1000
	trendingMaxWindow    = 200
	categoryScanLimit    = 1000
	searchScanLimit      = 1000
)

// DefaultCategories is returned before any capsule has a category.
var DefaultCategories = []string{"Finance", "Gaming", "Health", "Technology", "Education"}

// MarketplaceService ranks staked capsules. It never writes.
type MarketplaceService struct {
	store vectorstore.Client
}

func NewMarketplaceService(store vectorstore.Client) *MarketplaceService {
	return &MarketplaceService{store: store}
}

func stakedFilter() *vectorstore.Filter {
	return vectorstore.Where(vectorstore.Range("stake_amount", vectorstore.OpGt, 0))
}

func (s *MarketplaceService) fetch(ctx context.Context, f *vectorstore.Filter, limit int) ([]model.Capsule, error) {
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Capsules, f, limit)
	if err != nil {
		return nil, err
	}
	return capsulesFromRecords(recs), nil
}

// Browse filters staked capsules, sorts a bounded window in memory and
// returns [offset, offset+limit) of it.
func (s *MarketplaceService) Browse(ctx context.Context, filters model.MarketplaceFilters, limit, offset int) ([]model.Capsule, error) {
	if limit <= 0 {
		return []model.Capsule{}, nil
	}
	if offset < 0 {
		return nil, model.NewValidationError("offset", "must not be negative")
	}
	f := stakedFilter()
	if filters.Category != "" {
		f = f.And(vectorstore.Match("category", filters.Category))
	}
	if filters.MinReputation != nil {
		f = f.And(vectorstore.Range("reputation", vectorstore.OpGte, *filters.MinReputation))
	}
	if filters.MaxPrice != nil {
		f = f.And(vectorstore.Range("price_per_query", vectorstore.OpLte, *filters.MaxPrice))
	}

	window := offset + limit
	if window < marketplaceMinWindow {
		window = marketplaceMinWindow
	}
	if window > marketplaceMaxWindow {
		window = marketplaceMaxWindow
	}
	caps, err := s.fetch(ctx, f, window)
	if err != nil {
		return nil, err
	}
	sortCapsules(caps, filters.SortBy)
	return page(caps, offset, limit), nil
}

// sortCapsules orders in place; unknown keys fall back to popular.
func sortCapsules(caps []model.Capsule, by model.SortKey) {
	var less func(a, b model.Capsule) bool
	switch by {
	case model.SortNewest:
		less = func(a, b model.Capsule) bool { return a.CreatedAt.After(b.CreatedAt) }
	case model.SortPriceLow:
		less = func(a, b model.Capsule) bool { return a.PricePerQuery < b.PricePerQuery }
	case model.SortPriceHigh:
		less = func(a, b model.Capsule) bool { return a.PricePerQuery > b.PricePerQuery }
	case model.SortRating:
		less = func(a, b model.Capsule) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b model.Capsule) bool { return a.QueryCount > b.QueryCount }
	}
	sort.SliceStable(caps, func(i, j int) bool { return less(caps[i], caps[j]) })
}

func page(caps []model.Capsule, offset, limit int) []model.Capsule {
	if offset >= len(caps) {
		return []model.Capsule{}
	}
	end := offset + limit
	if end > len(caps) {
		end = len(caps)
	}
	return caps[offset:end]
}

// Trending returns the most queried staked capsules.
func (s *MarketplaceService) Trending(ctx context.Context, limit int) ([]model.Capsule, error) {
	if limit <= 0 {
		return []model.Capsule{}, nil
	}
	window := limit * 5
	if window > trendingMaxWindow {
		window = trendingMaxWindow
	}
	caps, err := s.fetch(ctx, stakedFilter(), window)
	if err != nil {
		return nil, err
	}
	sortCapsules(caps, model.SortPopular)
	return page(caps, 0, limit), nil
}

// Categories returns the sorted distinct categories of up to 1000 capsules,
// or DefaultCategories when none are set.
func (s *MarketplaceService) Categories(ctx context.Context) ([]string, error) {
	caps, err := s.fetch(ctx, nil, categoryScanLimit)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, c := range caps {
		if c.Category != "" {
			seen[c.Category] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return append([]string(nil), DefaultCategories...), nil
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Search matches the lower-cased query against name and description of up
// to 1000 staked capsules. An empty query returns the first limit of them.
func (s *MarketplaceService) Search(ctx context.Context, query string, limit int) ([]model.Capsule, error) {
	if limit <= 0 {
		return []model.Capsule{}, nil
	}
	caps, err := s.fetch(ctx, stakedFilter(), searchScanLimit)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return page(caps, 0, limit), nil
	}
	out := make([]model.Capsule, 0, limit)
	for _, c := range caps {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
