package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/longterm"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

const allMemoriesLimit = 100

// MemoryService fronts the optional long-term memory store. Every method is
// best-effort: a missing or failing store yields empty results, never an
// error that breaks the chat flow.
type MemoryService struct {
	store    vectorstore.Client
	longTerm longterm.Store
	log      zerolog.Logger
}

// NewMemoryService accepts a nil longTerm store, which disables memory.
func NewMemoryService(store vectorstore.Client, longTerm longterm.Store, log zerolog.Logger) *MemoryService {
	return &MemoryService{store: store, longTerm: longTerm, log: log}
}

// Enabled reports whether a long-term store is configured.
func (s *MemoryService) Enabled() bool { return s != nil && s.longTerm != nil }

func memoryTags(agentID, chatID, capsuleID string) map[string]string {
	tags := map[string]string{"chat_id": chatID, "agent_id": agentID}
	if capsuleID != "" {
		tags["capsule_id"] = capsuleID
	}
	return tags
}

// ChatMemories searches memories of one chat. limit <= 0 uses the memory
// size's recall limit.
func (s *MemoryService) ChatMemories(ctx context.Context, agentID, chatID, query string, size model.MemorySize, limit int, capsuleID string) []model.MemoryEntry {
	if !s.Enabled() {
		return []model.MemoryEntry{}
	}
	if limit <= 0 {
		limit = size.RecallLimit()
	}
	out, err := s.longTerm.Search(ctx, query, agentID, memoryTags(agentID, chatID, capsuleID), limit)
	if err != nil {
		s.log.Warn().Err(err).Str("agent_id", agentID).Str("chat_id", chatID).Msg("long-term memory search failed")
		return []model.MemoryEntry{}
	}
	return out
}

// AllChatMemories returns up to 100 memories of a chat using a broad search.
func (s *MemoryService) AllChatMemories(ctx context.Context, agentID, chatID, capsuleID string) []model.MemoryEntry {
	return s.ChatMemories(ctx, agentID, chatID, "", model.MemorySmall, allMemoriesLimit, capsuleID)
}

// StoreChatMemory adds a conversation excerpt and records a pointer back to
// the chat. At least two turns are required.
func (s *MemoryService) StoreChatMemory(ctx context.Context, agentID, chatID string, turns []model.ChatTurn, capsuleID string) Outcome {
	if !s.Enabled() {
		return failed(fmt.Errorf("long-term memory disabled"))
	}
	if len(turns) < 2 {
		return failed(model.NewValidationError("messages", "at least two messages are required"))
	}
	memID, err := s.longTerm.Add(ctx, turns, agentID, memoryTags(agentID, chatID, capsuleID))
	if err != nil {
		s.log.Warn().Err(err).Str("agent_id", agentID).Str("chat_id", chatID).Msg("long-term memory add failed")
		return failed(err)
	}
	if memID == "" {
		return succeeded()
	}

	pointerID := "mem0:" + memID
	payload := newPayload("mem0_pointer", nowUTC())
	payload["id"] = pointerID
	payload["mem0_memory_id"] = memID
	payload["agent_id"] = agentID
	payload["chat_id"] = chatID
	if capsuleID != "" {
		payload["capsule_id"] = capsuleID
	} else {
		payload["capsule_id"] = nil
	}
	if err := s.store.Upsert(ctx, vectorstore.MemPointers, pointerID, payload, nil); err != nil {
		s.log.Warn().Err(err).Str("pointer_id", pointerID).Msg("memory pointer write failed")
		return failed(err)
	}
	return succeeded()
}

// FormatMemoryContext renders memories as "- text" lines for a prompt.
func (s *MemoryService) FormatMemoryContext(entries []model.MemoryEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Memory != "" {
			lines = append(lines, "- "+e.Memory)
		}
	}
	return strings.Join(lines, "\n")
}

// DeleteChatMemories removes pointer records and the chat's long-term
// memories. Both steps are attempted; the first failure is reported.
func (s *MemoryService) DeleteChatMemories(ctx context.Context, agentID, chatID string) Outcome {
	var firstErr error
	f := vectorstore.Where(vectorstore.Match("chat_id", chatID))
	if agentID != "" {
		f = f.And(vectorstore.Match("agent_id", agentID))
	}
	if err := s.store.DeleteByFilter(ctx, vectorstore.MemPointers, f); err != nil {
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("memory pointer cleanup failed")
		firstErr = err
	}
	if s.Enabled() && agentID != "" {
		if err := s.longTerm.Delete(ctx, agentID, map[string]string{"chat_id": chatID}); err != nil {
			s.log.Warn().Err(err).Str("chat_id", chatID).Msg("long-term memory delete failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return failed(firstErr)
	}
	return succeeded()
}
