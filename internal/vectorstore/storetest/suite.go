package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// Dim is the vector size the suite bootstraps messages and capsules with.
const Dim = 4

// Collections returns the collection set the suite expects makeStore to bootstrap.
func Collections() []vectorstore.CollectionSpec {
	return vectorstore.DefaultCollections(Dim, Dim)
}

// Run exercises a compliance suite against a bootstrapped vectorstore.Client.
// Implementations should return a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) vectorstore.Client) {
	t.Helper()

	s := makeStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wallet := "w-" + uuid.New().String()
	now := time.Now()

	// Upsert + Get round trip on a placeholder collection
	agentID := "custom-" + uuid.New().String()[:8]
	p := vectorstore.BasePayload("agent", now)
	p["agent_id"] = agentID
	p["wallet"] = wallet
	p["display_name"] = "Alpha"
	if err := s.Upsert(ctx, vectorstore.Agents, agentID, p, nil); err != nil {
		t.Fatalf("Upsert agent: %v", err)
	}
	got, err := s.Get(ctx, vectorstore.Agents, agentID)
	if err != nil || got == nil {
		t.Fatalf("Get agent: got=%v err=%v", got, err)
	}
	if got.Payload.Str("display_name") != "Alpha" || got.Payload.Str("wallet") != wallet {
		t.Fatalf("Get agent payload mismatch: %v", got.Payload)
	}

	// Missing record is nil, nil
	if miss, err := s.Get(ctx, vectorstore.Agents, "custom-missing"); err != nil || miss != nil {
		t.Fatalf("Get missing: got=%v err=%v", miss, err)
	}

	// SetPayload replaces attributes
	p["display_name"] = "Beta"
	if err := s.SetPayload(ctx, vectorstore.Agents, agentID, p); err != nil {
		t.Fatalf("SetPayload: %v", err)
	}
	if got, _ := s.Get(ctx, vectorstore.Agents, agentID); got == nil || got.Payload.Str("display_name") != "Beta" {
		t.Fatalf("SetPayload not visible: %v", got)
	}

	// Scan with filter and cursor pagination
	chatIDs := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id := uuid.New().String()
		cp := vectorstore.BasePayload("chat", now.Add(time.Duration(i)*time.Second))
		cp["chat_id"] = id
		cp["agent_id"] = agentID
		cp["wallet"] = wallet
		if err := s.Upsert(ctx, vectorstore.Chats, id, cp, nil); err != nil {
			t.Fatalf("Upsert chat %d: %v", i, err)
		}
		chatIDs[id] = true
	}
	filter := vectorstore.Where(vectorstore.Match("agent_id", agentID))
	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, next, err := s.Scan(ctx, vectorstore.Chats, filter, 2, cursor)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		pages++
		for _, r := range page {
			if seen[r.ID] {
				t.Fatalf("Scan returned %s twice", r.ID)
			}
			seen[r.ID] = true
		}
		if next == "" {
			break
		}
		if pages > 10 {
			t.Fatalf("Scan did not terminate")
		}
		cursor = next
	}
	if len(seen) != len(chatIDs) {
		t.Fatalf("Scan saw %d chats, want %d", len(seen), len(chatIDs))
	}
	all, err := vectorstore.ScanAll(ctx, s, vectorstore.Chats, filter, 3)
	if err != nil || len(all) != 3 {
		t.Fatalf("ScanAll limit: n=%d err=%v", len(all), err)
	}

	// Search on named vectors with a filter
	for i, vec := range [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0.9, 0.1, 0, 0}} {
		id := fmt.Sprintf("msg-%s-%d", agentID, i)
		mp := vectorstore.BasePayload("message", now)
		mp["message_id"] = id
		mp["agent_id"] = agentID
		mp["chat_id"] = "chat-a"
		mp["wallet"] = wallet
		mp["content"] = fmt.Sprintf("message %d", i)
		if err := s.Upsert(ctx, vectorstore.Messages, id, mp, map[string][]float32{vectorstore.MessageVec: vec}); err != nil {
			t.Fatalf("Upsert message %d: %v", i, err)
		}
	}
	hits, err := s.Search(ctx, vectorstore.Messages, vectorstore.MessageVec, []float32{1, 0, 0, 0},
		vectorstore.Where(vectorstore.Match("agent_id", agentID)), 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 || hits[0].Payload.Str("content") != "message 0" {
		t.Fatalf("Search ranking: %+v", hits)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Fatalf("Search not ordered by distance: %v > %v", hits[0].Distance, hits[1].Distance)
	}

	// Range filter on a numeric field
	for i, stake := range []float64{0, 5, 10} {
		id := fmt.Sprintf("cap-%s-%d", agentID, i)
		cp := vectorstore.BasePayload("capsule", now)
		cp["capsule_id"] = id
		cp["agent_id"] = agentID
		cp["stake_amount"] = stake
		cp["is_listed"] = stake > 0
		if err := s.Upsert(ctx, vectorstore.Capsules, id, cp, map[string][]float32{vectorstore.CapsuleVec: {0, 0, 1, 0}}); err != nil {
			t.Fatalf("Upsert capsule %d: %v", i, err)
		}
	}
	staked, err := vectorstore.ScanAll(ctx, s, vectorstore.Capsules, vectorstore.Where(
		vectorstore.Match("agent_id", agentID),
		vectorstore.Range("stake_amount", vectorstore.OpGt, 0),
	), 0)
	if err != nil || len(staked) != 2 {
		t.Fatalf("Range scan: n=%d err=%v", len(staked), err)
	}
	listed, err := vectorstore.ScanAll(ctx, s, vectorstore.Capsules, vectorstore.Where(
		vectorstore.Match("agent_id", agentID),
		vectorstore.Match("is_listed", true),
	), 0)
	if err != nil || len(listed) != 2 {
		t.Fatalf("Bool scan: n=%d err=%v", len(listed), err)
	}

	// DeleteByFilter and DeleteByID
	if err := s.DeleteByFilter(ctx, vectorstore.Chats, filter); err != nil {
		t.Fatalf("DeleteByFilter: %v", err)
	}
	if rest, err := vectorstore.ScanAll(ctx, s, vectorstore.Chats, filter, 0); err != nil || len(rest) != 0 {
		t.Fatalf("chats after DeleteByFilter: n=%d err=%v", len(rest), err)
	}
	if err := s.DeleteByID(ctx, vectorstore.Agents, agentID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if got, err := s.Get(ctx, vectorstore.Agents, agentID); err != nil || got != nil {
		t.Fatalf("Get after delete: got=%v err=%v", got, err)
	}
	// Deleting a missing record is not an error
	if err := s.DeleteByID(ctx, vectorstore.Agents, agentID); err != nil {
		t.Fatalf("DeleteByID missing: %v", err)
	}
}
