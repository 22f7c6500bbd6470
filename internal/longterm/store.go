// Package longterm keeps semantic chat memories in an embedded chromem-go
// database, one collection per owner. It is a best-effort subsystem: callers
// treat every error as "no memory".
package longterm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

// EmbedFunc embeds text for storage and queries.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Store is the long-term memory collaborator used by the memory service.
type Store interface {
	Add(ctx context.Context, turns []model.ChatTurn, ownerID string, tags map[string]string) (string, error)
	Search(ctx context.Context, query, ownerID string, tags map[string]string, limit int) ([]model.MemoryEntry, error)
	Delete(ctx context.Context, ownerID string, tags map[string]string) error
}

// ChromemStore implements Store on chromem-go.
type ChromemStore struct {
	db    *chromem.DB
	embed EmbedFunc
	log   zerolog.Logger

	mu sync.Mutex
}

var _ Store = (*ChromemStore)(nil)

// New opens an in-memory database, or a persistent one when path is set.
func New(path string, embed EmbedFunc, log zerolog.Logger) (*ChromemStore, error) {
	if embed == nil {
		return nil, fmt.Errorf("longterm: embed func is required")
	}
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("open long-term memory at %s: %w", path, err)
		}
	}
	return &ChromemStore{db: db, embed: embed, log: log}, nil
}

func collectionName(ownerID string) string { return "owner-" + ownerID }

func (s *ChromemStore) collection(ownerID string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetOrCreateCollection(collectionName(ownerID), map[string]string{"owner_id": ownerID}, chromem.EmbeddingFunc(s.embed))
}

// Add stores the conversation as one memory document tagged with tags.
func (s *ChromemStore) Add(ctx context.Context, turns []model.ChatTurn, ownerID string, tags map[string]string) (string, error) {
	text := renderTurns(turns)
	if text == "" {
		return "", fmt.Errorf("longterm: nothing to remember")
	}
	c, err := s.collection(ownerID)
	if err != nil {
		return "", err
	}
	meta := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		meta[k] = v
	}
	meta["owner_id"] = ownerID
	meta["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	id := uuid.NewString()
	if err := c.AddDocument(ctx, chromem.Document{ID: id, Metadata: meta, Content: text}); err != nil {
		return "", fmt.Errorf("longterm add: %w", err)
	}
	s.log.Debug().Str("owner_id", ownerID).Str("memory_id", id).Msg("long-term memory stored")
	return id, nil
}

// Search returns up to limit memories of ownerID matching every tag. An empty
// query returns memories in no particular order.
func (s *ChromemStore) Search(ctx context.Context, query, ownerID string, tags map[string]string, limit int) ([]model.MemoryEntry, error) {
	if limit <= 0 {
		return []model.MemoryEntry{}, nil
	}
	c, err := s.collection(ownerID)
	if err != nil {
		return nil, err
	}
	n := c.Count()
	if n == 0 {
		return []model.MemoryEntry{}, nil
	}
	if limit > n {
		limit = n
	}

	if strings.TrimSpace(query) == "" {
		query = broadQuery
	}
	qvec, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("longterm embed query: %w", err)
	}

	res, err := c.QueryEmbedding(ctx, qvec, limit, nonEmpty(tags), nil)
	if err != nil {
		return nil, fmt.Errorf("longterm query: %w", err)
	}
	out := make([]model.MemoryEntry, 0, len(res))
	for _, r := range res {
		out = append(out, model.MemoryEntry{ID: r.ID, Memory: r.Content, Score: r.Similarity, Metadata: r.Metadata})
	}
	return out, nil
}

// Delete removes every memory of ownerID matching tags; tags must be non-empty.
func (s *ChromemStore) Delete(ctx context.Context, ownerID string, tags map[string]string) error {
	where := nonEmpty(tags)
	if len(where) == 0 {
		return fmt.Errorf("longterm delete requires tags")
	}
	c, err := s.collection(ownerID)
	if err != nil {
		return err
	}
	return c.Delete(ctx, where, nil)
}

// HealthPing implements health.HealthPinger.
func (s *ChromemStore) HealthPing(context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("long-term memory not initialized")
	}
	return nil
}

func renderTurns(turns []model.ChatTurn) string {
	var b strings.Builder
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(content)
	}
	return b.String()
}

func nonEmpty(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// broadQuery stands in for an empty query when listing a chat's memories.
const broadQuery = "conversation memory"
