package vectorstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/health"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

const upstreamName = "vector store"

// Backend is implemented by concrete stores. Collection-level behavior
// (placeholder vectors, dimension checks, cursors, readiness) lives in Store.
type Backend interface {
	EnsureCollection(ctx context.Context, spec CollectionSpec) error
	Upsert(ctx context.Context, spec CollectionSpec, id string, payload Payload, vectors map[string][]float32) error
	SetPayload(ctx context.Context, spec CollectionSpec, id string, payload Payload) error
	Get(ctx context.Context, spec CollectionSpec, id string) (*Record, error)
	// Scan returns up to limit records starting at offset in a stable order.
	Scan(ctx context.Context, spec CollectionSpec, filter *Filter, limit, offset int) ([]Record, error)
	DeleteByID(ctx context.Context, spec CollectionSpec, id string) error
	DeleteByFilter(ctx context.Context, spec CollectionSpec, filter *Filter) error
	Search(ctx context.Context, spec CollectionSpec, vectorName string, query []float32, filter *Filter, k int) ([]Record, error)
}

// Store is the Client handed to services. Every call fails with a
// ConfigurationError until Bootstrap has completed.
type Store struct {
	backend Backend
	specs   map[string]CollectionSpec
	order   []string
	ready   atomic.Bool
	log     zerolog.Logger
}

var _ Client = (*Store)(nil)

func New(backend Backend, specs []CollectionSpec, log zerolog.Logger) *Store {
	s := &Store{backend: backend, specs: make(map[string]CollectionSpec, len(specs)), log: log}
	for _, spec := range specs {
		s.specs[spec.Name] = spec
		s.order = append(s.order, spec.Name)
	}
	return s
}

// Bootstrap ensures every collection exists with its named vectors, then
// opens the readiness guard.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, name := range s.order {
		spec := s.specs[name]
		if err := s.backend.EnsureCollection(ctx, spec); err != nil {
			return model.Upstream(upstreamName, fmt.Errorf("ensure collection %s: %w", name, err))
		}
		s.log.Debug().Str("collection", name).Msg("collection ready")
	}
	s.ready.Store(true)
	s.log.Info().Int("collections", len(s.order)).Msg("vector store bootstrap completed")
	return nil
}

// Ready reports whether Bootstrap has completed.
func (s *Store) Ready() bool { return s.ready.Load() }

// HealthPing fails until Bootstrap completes, then delegates to the backend
// when it exposes a ping.
func (s *Store) HealthPing(ctx context.Context) error {
	if !s.Ready() {
		return fmt.Errorf("vector store not bootstrapped")
	}
	if p, ok := s.backend.(health.HealthPinger); ok {
		return p.HealthPing(ctx)
	}
	return nil
}

func (s *Store) spec(collection string) (CollectionSpec, error) {
	if !s.ready.Load() {
		return CollectionSpec{}, model.ConfigurationError{Component: "vector store", Message: "used before bootstrap completed"}
	}
	spec, ok := s.specs[collection]
	if !ok {
		return CollectionSpec{}, model.ConfigurationError{Component: "vector store", Message: "unknown collection " + collection}
	}
	return spec, nil
}

func (s *Store) checkFilter(spec CollectionSpec, f *Filter) error {
	if f.Empty() {
		return nil
	}
	for _, c := range f.Must {
		if err := c.validate(); err != nil {
			return model.ConfigurationError{Component: "vector store", Message: err.Error()}
		}
		if _, ok := spec.field(c.Key); !ok {
			return model.ConfigurationError{Component: "vector store", Message: fmt.Sprintf("%s is not filterable in %s", c.Key, spec.Name)}
		}
	}
	return nil
}

func (s *Store) checkVector(spec CollectionSpec, name string, vec []float32) error {
	dim, ok := spec.Vectors[name]
	if !ok {
		return model.ConfigurationError{Component: "vector store", Message: fmt.Sprintf("collection %s has no vector %q", spec.Name, name)}
	}
	if len(vec) != dim {
		return model.ConfigurationError{Component: "vector store", Message: fmt.Sprintf("vector %s.%s expects %d dimensions, got %d", spec.Name, name, dim, len(vec))}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection, id string, payload Payload, vectors map[string][]float32) error {
	spec, err := s.spec(collection)
	if err != nil {
		return err
	}
	if len(vectors) == 0 && spec.HasPlaceholder() {
		vectors = map[string][]float32{Placeholder: {0}}
	}
	for name, vec := range vectors {
		if err := s.checkVector(spec, name, vec); err != nil {
			return err
		}
	}
	return model.Upstream(upstreamName, s.backend.Upsert(ctx, spec, id, payload, vectors))
}

func (s *Store) SetPayload(ctx context.Context, collection, id string, payload Payload) error {
	spec, err := s.spec(collection)
	if err != nil {
		return err
	}
	return model.Upstream(upstreamName, s.backend.SetPayload(ctx, spec, id, payload))
}

func (s *Store) Get(ctx context.Context, collection, id string) (*Record, error) {
	spec, err := s.spec(collection)
	if err != nil {
		return nil, err
	}
	rec, err := s.backend.Get(ctx, spec, id)
	if err != nil {
		return nil, model.Upstream(upstreamName, err)
	}
	return rec, nil
}

func (s *Store) Scan(ctx context.Context, collection string, filter *Filter, pageSize int, cursor string) ([]Record, string, error) {
	spec, err := s.spec(collection)
	if err != nil {
		return nil, "", err
	}
	if err := s.checkFilter(spec, filter); err != nil {
		return nil, "", err
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	offset, err := DecodeOffsetCursor(cursor)
	if err != nil {
		return nil, "", model.NewValidationError("cursor", err.Error())
	}
	recs, err := s.backend.Scan(ctx, spec, filter, pageSize, offset)
	if err != nil {
		return nil, "", model.Upstream(upstreamName, err)
	}
	next := ""
	if len(recs) == pageSize {
		next = EncodeOffsetCursor(offset + len(recs))
	}
	return recs, next, nil
}

func (s *Store) DeleteByID(ctx context.Context, collection, id string) error {
	spec, err := s.spec(collection)
	if err != nil {
		return err
	}
	return model.Upstream(upstreamName, s.backend.DeleteByID(ctx, spec, id))
}

func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter *Filter) error {
	spec, err := s.spec(collection)
	if err != nil {
		return err
	}
	if filter.Empty() {
		return model.ConfigurationError{Component: "vector store", Message: "delete by filter requires at least one condition"}
	}
	if err := s.checkFilter(spec, filter); err != nil {
		return err
	}
	return model.Upstream(upstreamName, s.backend.DeleteByFilter(ctx, spec, filter))
}

func (s *Store) Search(ctx context.Context, collection, vectorName string, query []float32, filter *Filter, k int) ([]Record, error) {
	spec, err := s.spec(collection)
	if err != nil {
		return nil, err
	}
	if err := s.checkVector(spec, vectorName, query); err != nil {
		return nil, err
	}
	if err := s.checkFilter(spec, filter); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Record{}, nil
	}
	recs, err := s.backend.Search(ctx, spec, vectorName, query, filter, k)
	if err != nil {
		return nil, model.Upstream(upstreamName, err)
	}
	return recs, nil
}
