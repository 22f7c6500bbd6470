// Package memstore is an in-process vectorstore.Backend used by tests and
// local runs. It mirrors the filter and pagination semantics of the
// Weaviate backend.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

type object struct {
	payload vectorstore.Payload
	vectors map[string][]float32
}

// Backend keeps every collection in memory behind one RWMutex.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]map[string]*object
}

var _ vectorstore.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{collections: map[string]map[string]*object{}}
}

func (b *Backend) EnsureCollection(_ context.Context, spec vectorstore.CollectionSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[spec.Name]; !ok {
		b.collections[spec.Name] = map[string]*object{}
	}
	return nil
}

func (b *Backend) coll(name string) (map[string]*object, error) {
	c, ok := b.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", name)
	}
	return c, nil
}

func (b *Backend) Upsert(_ context.Context, spec vectorstore.CollectionSpec, id string, payload vectorstore.Payload, vectors map[string][]float32) error {
	p, err := roundTrip(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return err
	}
	vecs := make(map[string][]float32, len(vectors))
	for k, v := range vectors {
		vecs[k] = append([]float32(nil), v...)
	}
	c[id] = &object{payload: p, vectors: vecs}
	return nil
}

func (b *Backend) SetPayload(_ context.Context, spec vectorstore.CollectionSpec, id string, payload vectorstore.Payload) error {
	p, err := roundTrip(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return err
	}
	obj, ok := c[id]
	if !ok {
		return fmt.Errorf("%s/%s: not found", spec.Name, id)
	}
	obj.payload = p
	return nil
}

func (b *Backend) Get(_ context.Context, spec vectorstore.CollectionSpec, id string) (*vectorstore.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return nil, err
	}
	obj, ok := c[id]
	if !ok {
		return nil, nil
	}
	return &vectorstore.Record{ID: id, Payload: obj.payload.Clone()}, nil
}

func (b *Backend) Scan(_ context.Context, spec vectorstore.CollectionSpec, filter *vectorstore.Filter, limit, offset int) ([]vectorstore.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return nil, err
	}
	ids := matching(c, filter)
	if offset >= len(ids) {
		return []vectorstore.Record{}, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	out := make([]vectorstore.Record, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, vectorstore.Record{ID: id, Payload: c[id].payload.Clone()})
	}
	return out, nil
}

func (b *Backend) DeleteByID(_ context.Context, spec vectorstore.CollectionSpec, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return err
	}
	delete(c, id)
	return nil
}

func (b *Backend) DeleteByFilter(_ context.Context, spec vectorstore.CollectionSpec, filter *vectorstore.Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return err
	}
	for _, id := range matching(c, filter) {
		delete(c, id)
	}
	return nil
}

// Search ranks by cosine distance (1 - cosine similarity), nearest first.
func (b *Backend) Search(_ context.Context, spec vectorstore.CollectionSpec, vectorName string, query []float32, filter *vectorstore.Filter, k int) ([]vectorstore.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, err := b.coll(spec.Name)
	if err != nil {
		return nil, err
	}
	hits := make([]vectorstore.Record, 0)
	for _, id := range matching(c, filter) {
		vec, ok := c[id].vectors[vectorName]
		if !ok || len(vec) != len(query) {
			continue
		}
		hits = append(hits, vectorstore.Record{ID: id, Payload: c[id].payload.Clone(), Distance: cosineDistance(query, vec)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of records in a collection; test helper.
func (b *Backend) Count(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.collections[collection])
}

func matching(c map[string]*object, filter *vectorstore.Filter) []string {
	ids := make([]string, 0, len(c))
	for id, obj := range c {
		if filter.Matches(obj.payload) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func cosineDistance(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// roundTrip stores payloads the way a remote store would: as JSON, so callers
// never share maps with stored records.
func roundTrip(p vectorstore.Payload) (vectorstore.Payload, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var out vectorstore.Payload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
