package weaviate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

const (
	propRecordID = "record_id"
	propPayload  = "payload_json"
)

// ClassName maps a collection name to its Weaviate class, e.g. mem0_pointers -> Mem0Pointers.
func ClassName(collection string) string {
	var b strings.Builder
	upper := true
	for _, r := range collection {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolPtr(v bool) *bool { return &v }

// classFor builds the class definition: one record_id key, the JSON payload
// and one typed property per filterable field, with every named vector
// supplied by the caller (no vectorizer).
func classFor(spec vectorstore.CollectionSpec) *models.Class {
	props := []*models.Property{
		{Name: propRecordID, DataType: []string{"text"}, Tokenization: "field"},
		{Name: propPayload, DataType: []string{"text"}, IndexSearchable: boolPtr(false), IndexFilterable: boolPtr(false)},
	}
	for _, f := range spec.Fields {
		p := &models.Property{Name: f.Key}
		switch f.Kind {
		case vectorstore.FieldNumber:
			p.DataType = []string{"number"}
		case vectorstore.FieldBool:
			p.DataType = []string{"boolean"}
		default:
			p.DataType = []string{"text"}
			p.Tokenization = "field"
		}
		props = append(props, p)
	}

	vectors := make(map[string]models.VectorConfig, len(spec.Vectors))
	for name := range spec.Vectors {
		distance := "cosine"
		if name == vectorstore.Placeholder {
			distance = "dot"
		}
		vectors[name] = models.VectorConfig{
			Vectorizer:        map[string]interface{}{"none": map[string]interface{}{}},
			VectorIndexType:   "hnsw",
			VectorIndexConfig: map[string]interface{}{"distance": distance},
		}
	}

	return &models.Class{
		Class:        ClassName(spec.Name),
		Properties:   props,
		VectorConfig: vectors,
	}
}

// ensureClass creates the class when missing and adds any filterable property
// introduced since the class was created.
func ensureClass(ctx context.Context, cl *weaviate.Client, spec vectorstore.CollectionSpec) error {
	desired := classFor(spec)
	ex, err := cl.Schema().ClassGetter().WithClassName(desired.Class).Do(ctx)
	if err != nil || ex == nil {
		if err := cl.Schema().ClassCreator().WithClass(desired).Do(ctx); err != nil {
			return fmt.Errorf("create class %s: %w", desired.Class, err)
		}
		return nil
	}
	have := make(map[string]bool, len(ex.Properties))
	for _, p := range ex.Properties {
		have[p.Name] = true
	}
	for _, p := range desired.Properties {
		if have[p.Name] {
			continue
		}
		if err := cl.Schema().PropertyCreator().WithClassName(desired.Class).WithProperty(p).Do(ctx); err != nil {
			return fmt.Errorf("add property %s.%s: %w", desired.Class, p.Name, err)
		}
	}
	return nil
}
