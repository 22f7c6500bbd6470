package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// DefaultMessageLimit bounds ListMessages when no limit is given.
const DefaultMessageLimit = 1000

// MessageService stores chat messages with a content embedding for recall.
type MessageService struct {
	store vectorstore.Client
	embed Embedder
	log   zerolog.Logger
}

func NewMessageService(store vectorstore.Client, embed Embedder, log zerolog.Logger) *MessageService {
	return &MessageService{store: store, embed: embed, log: log}
}

// AddMessage embeds and stores one message. It does not touch the chat's
// counters; AgentService.AddMessage does that.
func (s *MessageService) AddMessage(ctx context.Context, chatID, agentID, wallet string, in model.MessageCreate) (*model.Message, error) {
	if chatID == "" {
		return nil, model.NewValidationError("chat_id", "chat ID is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, model.NewValidationError("content", "content is required")
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, model.NewValidationError("role", "must be one of user, assistant, system")
	}

	vec, err := s.embed.Embed(ctx, in.Content)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	id := uuid.NewString()
	payload := newPayload("message", now)
	payload["id"] = id
	payload["message_id"] = id
	payload["chat_id"] = chatID
	payload["agent_id"] = agentID
	payload["wallet"] = wallet
	payload["role"] = string(role)
	payload["content"] = in.Content
	payload["timestamp"] = vectorstore.FormatTime(now)

	if err := s.store.Upsert(ctx, vectorstore.Messages, id, payload, map[string][]float32{vectorstore.MessageVec: vec}); err != nil {
		return nil, err
	}
	return &model.Message{ID: id, Role: role, Content: in.Content, Timestamp: now}, nil
}

func messageFilter(chatID, wallet string) *vectorstore.Filter {
	f := vectorstore.Where(vectorstore.Match("chat_id", chatID))
	if wallet != "" {
		f = f.And(vectorstore.Match("wallet", wallet))
	}
	return f
}

// ListMessages returns up to limit messages of a chat in chronological order.
func (s *MessageService) ListMessages(ctx context.Context, chatID, wallet string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Messages, messageFilter(chatID, wallet), limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(recs))
	for _, r := range recs {
		out = append(out, messageFromRecord(r))
	}
	// Scan order follows record ids, not time.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// SemanticRecall returns up to k messages of the chat nearest to query, in
// store distance order.
func (s *MessageService) SemanticRecall(ctx context.Context, chatID, agentID, wallet, query string, k int) ([]model.Message, error) {
	if k <= 0 {
		return []model.Message{}, nil
	}
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	f := messageFilter(chatID, wallet)
	if agentID != "" {
		f = f.And(vectorstore.Match("agent_id", agentID))
	}
	hits, err := s.store.Search(ctx, vectorstore.Messages, vectorstore.MessageVec, vec, f, k)
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(hits))
	for _, h := range hits {
		out = append(out, messageFromRecord(h))
	}
	return out, nil
}

// DeleteMessagesForChat removes every message of the chat. An empty wallet
// deletes regardless of author.
func (s *MessageService) DeleteMessagesForChat(ctx context.Context, chatID, wallet string) error {
	if chatID == "" {
		return model.NewValidationError("chat_id", "chat ID is required")
	}
	return s.store.DeleteByFilter(ctx, vectorstore.Messages, messageFilter(chatID, wallet))
}
