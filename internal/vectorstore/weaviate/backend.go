// Package weaviate implements vectorstore.Backend on a Weaviate instance.
// Each collection is one class with named vectors; payloads are stored as
// JSON next to typed copies of the filterable fields.
package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// idNamespace seeds the deterministic object UUIDs derived from record ids.
var idNamespace = uuid.MustParse("6f1f3c0e-4b7a-5d2e-9c1a-2a9c7e4d8b11")

// Config selects the Weaviate endpoint.
type Config struct {
	Host   string // host:port without scheme
	Scheme string
	APIKey string
}

// Backend talks to Weaviate through the official Go client.
type Backend struct {
	client  *weaviate.Client
	baseURL string
	http    *resty.Client
	log     zerolog.Logger
}

var _ vectorstore.Backend = (*Backend)(nil)

// New constructs a Backend; it does not contact the server.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate host missing")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}
	wcfg := weaviate.Config{Scheme: scheme, Host: cfg.Host}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	cl, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, err
	}
	baseURL := scheme + "://" + cfg.Host
	hc := resty.New().SetBaseURL(baseURL)
	if cfg.APIKey != "" {
		hc.SetAuthToken(cfg.APIKey)
	}
	return &Backend{client: cl, baseURL: baseURL, http: hc, log: log}, nil
}

// objectID derives the Weaviate UUID for a record id within a collection.
func objectID(collection, id string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(idNamespace, []byte(collection+"/"+id)).String())
}

func (b *Backend) EnsureCollection(ctx context.Context, spec vectorstore.CollectionSpec) error {
	return ensureClass(ctx, b.client, spec)
}

// properties renders the stored representation of a payload.
func properties(spec vectorstore.CollectionSpec, id string, payload vectorstore.Payload) (map[string]interface{}, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	props := map[string]interface{}{
		propRecordID: id,
		propPayload:  string(raw),
	}
	for _, f := range spec.Fields {
		v, ok := payload[f.Key]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case vectorstore.FieldNumber:
			if n, ok := payload.Number(f.Key); ok {
				props[f.Key] = n
			}
		case vectorstore.FieldBool:
			if bv, ok := v.(bool); ok {
				props[f.Key] = bv
			}
		default:
			if s, ok := v.(string); ok {
				props[f.Key] = s
			}
		}
	}
	return props, nil
}

// batchError returns the first per-object error of a batch response.
func batchError(items []models.ObjectsGetResponse) error {
	for _, it := range items {
		if it.Result == nil || it.Result.Errors == nil {
			continue
		}
		for _, e := range it.Result.Errors.Error {
			if e != nil {
				return errors.New(e.Message)
			}
		}
	}
	return nil
}

func (b *Backend) Upsert(ctx context.Context, spec vectorstore.CollectionSpec, id string, payload vectorstore.Payload, vectors map[string][]float32) error {
	props, err := properties(spec, id, payload)
	if err != nil {
		return err
	}
	vecs := models.Vectors{}
	for name, v := range vectors {
		vecs[name] = v
	}
	obj := &models.Object{
		Class:      ClassName(spec.Name),
		ID:         objectID(spec.Name, id),
		Properties: props,
		Vectors:    vecs,
	}
	resp, err := b.client.Batch().ObjectsBatcher().WithObjects(obj).Do(ctx)
	if err != nil {
		return err
	}
	if err := batchError(resp); err != nil {
		return fmt.Errorf("weaviate upsert %s/%s: %w", spec.Name, id, err)
	}
	return nil
}

// SetPayload merges the new stored properties into the object; vectors are untouched.
func (b *Backend) SetPayload(ctx context.Context, spec vectorstore.CollectionSpec, id string, payload vectorstore.Payload) error {
	props, err := properties(spec, id, payload)
	if err != nil {
		return err
	}
	return b.client.Data().Updater().
		WithMerge().
		WithClassName(ClassName(spec.Name)).
		WithID(string(objectID(spec.Name, id))).
		WithProperties(props).
		Do(ctx)
}

func (b *Backend) Get(ctx context.Context, spec vectorstore.CollectionSpec, id string) (*vectorstore.Record, error) {
	where := filters.Where().WithPath([]string{propRecordID}).WithOperator(filters.Equal).WithValueText(id)
	req := b.client.GraphQL().Get().
		WithClassName(ClassName(spec.Name)).
		WithWhere(where).
		WithLimit(1).
		WithFields(gql.Field{Name: propRecordID}, gql.Field{Name: propPayload})
	recs, err := b.run(ctx, spec, req)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (b *Backend) Scan(ctx context.Context, spec vectorstore.CollectionSpec, filter *vectorstore.Filter, limit, offset int) ([]vectorstore.Record, error) {
	req := b.client.GraphQL().Get().
		WithClassName(ClassName(spec.Name)).
		WithSort(gql.Sort{Path: []string{propRecordID}, Order: gql.Asc}).
		WithLimit(limit).
		WithOffset(offset).
		WithFields(gql.Field{Name: propRecordID}, gql.Field{Name: propPayload})
	if where := toWhere(spec, filter); where != nil {
		req = req.WithWhere(where)
	}
	return b.run(ctx, spec, req)
}

func (b *Backend) DeleteByID(ctx context.Context, spec vectorstore.CollectionSpec, id string) error {
	return b.deleteWhere(ctx, spec, filters.Where().WithPath([]string{propRecordID}).WithOperator(filters.Equal).WithValueText(id))
}

func (b *Backend) DeleteByFilter(ctx context.Context, spec vectorstore.CollectionSpec, filter *vectorstore.Filter) error {
	where := toWhere(spec, filter)
	if where == nil {
		return fmt.Errorf("delete by filter on %s without conditions", spec.Name)
	}
	return b.deleteWhere(ctx, spec, where)
}

func (b *Backend) deleteWhere(ctx context.Context, spec vectorstore.CollectionSpec, where *filters.WhereBuilder) error {
	resp, err := b.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName(spec.Name)).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return err
	}
	if resp != nil && resp.Results != nil && resp.Results.Failed > 0 {
		return fmt.Errorf("weaviate delete on %s: %d objects failed", spec.Name, resp.Results.Failed)
	}
	return nil
}

func (b *Backend) Search(ctx context.Context, spec vectorstore.CollectionSpec, vectorName string, query []float32, filter *vectorstore.Filter, k int) ([]vectorstore.Record, error) {
	near := b.client.GraphQL().NearVectorArgBuilder().
		WithVector(query).
		WithTargetVectors(vectorName)
	req := b.client.GraphQL().Get().
		WithClassName(ClassName(spec.Name)).
		WithNearVector(near).
		WithLimit(k).
		WithFields(
			gql.Field{Name: propRecordID},
			gql.Field{Name: propPayload},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "distance"}}},
		)
	if where := toWhere(spec, filter); where != nil {
		req = req.WithWhere(where)
	}
	return b.run(ctx, spec, req)
}

// HealthPing implements health.HealthPinger: GET /v1/meta must answer 200.
func (b *Backend) HealthPing(ctx context.Context) error {
	if b == nil || b.baseURL == "" {
		return fmt.Errorf("weaviate baseURL missing")
	}
	resp, err := b.http.R().SetContext(ctx).Get("/v1/meta")
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("weaviate status %d", resp.StatusCode())
	}
	return nil
}

// run executes a GraphQL Get and decodes the records of the collection's class.
func (b *Backend) run(ctx context.Context, spec vectorstore.CollectionSpec, req *gql.GetBuilder) ([]vectorstore.Record, error) {
	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		b.log.Error().Interface("errors", resp.Errors).Str("collection", spec.Name).Msg("weaviate graphql errors")
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return []vectorstore.Record{}, nil
	}
	raw, ok := getData[ClassName(spec.Name)].([]interface{})
	if !ok {
		return []vectorstore.Record{}, nil
	}
	out := make([]vectorstore.Record, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rec := vectorstore.Record{ID: safeString(m[propRecordID]), Payload: vectorstore.Payload{}}
		if s := safeString(m[propPayload]); s != "" {
			if err := json.Unmarshal([]byte(s), &rec.Payload); err != nil {
				return nil, fmt.Errorf("decode payload %s/%s: %w", spec.Name, rec.ID, err)
			}
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			rec.Distance = float32(toNumber(add["distance"]))
		}
		out = append(out, rec)
	}
	return out, nil
}

// toWhere translates a store filter into a Weaviate where clause.
func toWhere(spec vectorstore.CollectionSpec, f *vectorstore.Filter) *filters.WhereBuilder {
	if f.Empty() {
		return nil
	}
	kinds := make(map[string]vectorstore.FieldKind, len(spec.Fields))
	for _, fl := range spec.Fields {
		kinds[fl.Key] = fl.Kind
	}
	operands := make([]*filters.WhereBuilder, 0, len(f.Must))
	for _, c := range f.Must {
		w := filters.Where().WithPath([]string{c.Key}).WithOperator(operator(c.Op))
		switch kinds[c.Key] {
		case vectorstore.FieldNumber:
			w = w.WithValueNumber(toNumber(c.Value))
		case vectorstore.FieldBool:
			bv, _ := c.Value.(bool)
			w = w.WithValueBoolean(bv)
		default:
			w = w.WithValueText(fmt.Sprint(c.Value))
		}
		operands = append(operands, w)
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func operator(op vectorstore.Op) filters.WhereOperator {
	switch op {
	case vectorstore.OpGt:
		return filters.GreaterThan
	case vectorstore.OpGte:
		return filters.GreaterThanEqual
	case vectorstore.OpLt:
		return filters.LessThan
	case vectorstore.OpLte:
		return filters.LessThanEqual
	}
	return filters.Equal
}

func safeString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toNumber(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	}
	return 0
}

// formatGraphQLErrors returns a compact string for logging and wrapping.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
