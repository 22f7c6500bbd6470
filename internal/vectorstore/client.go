// Package vectorstore turns a single vector-capable store into a
// multi-collection document store: named collections, payload filters,
// cursor pagination, payload-only updates and named-vector similarity search.
package vectorstore

import "context"

// MaxPageSize bounds a single scan page.
const MaxPageSize = 200

// Record is one stored entry. Distance is only set on search results.
type Record struct {
	ID       string
	Payload  Payload
	Distance float32
}

// Client is the collection-level API the entity services depend on.
type Client interface {
	// Upsert creates or replaces a record. With no vectors the collection's
	// placeholder vector is written.
	Upsert(ctx context.Context, collection, id string, payload Payload, vectors map[string][]float32) error
	// SetPayload replaces the payload and leaves vectors untouched.
	SetPayload(ctx context.Context, collection, id string, payload Payload) error
	// Get returns nil, nil when the record does not exist.
	Get(ctx context.Context, collection, id string) (*Record, error)
	// Scan returns one page; an empty next cursor means no more results.
	Scan(ctx context.Context, collection string, filter *Filter, pageSize int, cursor string) ([]Record, string, error)
	DeleteByID(ctx context.Context, collection, id string) error
	DeleteByFilter(ctx context.Context, collection string, filter *Filter) error
	Search(ctx context.Context, collection, vectorName string, query []float32, filter *Filter, k int) ([]Record, error)
}

// ScanAll follows cursors until the store is exhausted or limit records were
// collected. limit <= 0 means no limit.
func ScanAll(ctx context.Context, c Client, collection string, filter *Filter, limit int) ([]Record, error) {
	var out []Record
	cursor := ""
	for {
		pageSize := MaxPageSize
		if limit > 0 && limit-len(out) < pageSize {
			pageSize = limit - len(out)
		}
		page, next, err := c.Scan(ctx, collection, filter, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if next == "" || (limit > 0 && len(out) >= limit) {
			return out, nil
		}
		cursor = next
	}
}
