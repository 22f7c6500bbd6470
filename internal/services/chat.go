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

// ChatService manages chats and cascades their deletion to messages and
// memory pointers.
type ChatService struct {
	store    vectorstore.Client
	messages *MessageService
	memory   *MemoryService
	log      zerolog.Logger
}

func NewChatService(store vectorstore.Client, messages *MessageService, memory *MemoryService, log zerolog.Logger) *ChatService {
	return &ChatService{store: store, messages: messages, memory: memory, log: log}
}

// record returns the stored chat when it exists and, for a non-empty
// wallet, belongs to it.
func (s *ChatService) record(ctx context.Context, id, wallet string) (*vectorstore.Record, error) {
	rec, err := s.store.Get(ctx, vectorstore.Chats, id)
	if err != nil || rec == nil {
		return nil, err
	}
	if wallet != "" && chatOwner(rec.Payload) != wallet {
		return nil, nil
	}
	return rec, nil
}

// CreateChat starts an empty chat under an agent the wallet owns.
func (s *ChatService) CreateChat(ctx context.Context, agentID string, in model.ChatCreate, wallet string) (*model.Chat, error) {
	if wallet == "" {
		return nil, model.ErrWalletMissing
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "name is required")
	}
	size := in.MemorySize
	if size == "" {
		size = model.MemorySmall
	}
	if !size.Valid() {
		return nil, model.NewValidationError("memory_size", "must be one of Small, Medium, Large")
	}

	agent, err := s.store.Get(ctx, vectorstore.Agents, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || agentOwner(agent.Payload) != wallet {
		return nil, model.NewNotFoundError("agent", agentID)
	}

	now := nowUTC()
	id := uuid.NewString()
	payload := newPayload("chat", now)
	payload["id"] = id
	payload["chat_id"] = id
	payload["agent_id"] = agentID
	payload["wallet"] = wallet
	payload["user_wallet"] = wallet
	payload["title"] = name
	payload["name"] = name
	payload["memory_size"] = string(size)
	payload["timestamp"] = vectorstore.FormatTime(now)
	payload["message_count"] = 0
	payload["last_message"] = nil
	payload["web_search_enabled"] = in.WebSearchEnabled
	if in.CapsuleID != nil && *in.CapsuleID != "" {
		payload["capsule_id"] = *in.CapsuleID
	} else {
		payload["capsule_id"] = nil
	}

	if err := s.store.Upsert(ctx, vectorstore.Chats, id, payload, nil); err != nil {
		return nil, err
	}
	s.log.Info().Str("chat_id", id).Str("agent_id", agentID).Msg("chat created")

	chat := chatFromRecord(vectorstore.Record{ID: id, Payload: payload})
	return &chat, nil
}

func (s *ChatService) withMessages(ctx context.Context, chat *model.Chat, wallet string) error {
	msgs, err := s.messages.ListMessages(ctx, chat.ID, wallet, DefaultMessageLimit)
	if err != nil {
		return err
	}
	chat.Messages = msgs
	// The stored count is authoritative; the listing is capped.
	if chat.MessageCount == 0 {
		chat.MessageCount = len(msgs)
	}
	return nil
}

// ListChats returns the agent's chats, newest first, each with its messages.
func (s *ChatService) ListChats(ctx context.Context, agentID, wallet string) ([]model.Chat, error) {
	f := vectorstore.Where(vectorstore.Match("agent_id", agentID))
	if wallet != "" {
		f = f.And(vectorstore.Match("wallet", wallet))
	}
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Chats, f, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.Chat, 0, len(recs))
	for _, r := range recs {
		chat := chatFromRecord(r)
		if err := s.withMessages(ctx, &chat, wallet); err != nil {
			return nil, err
		}
		out = append(out, chat)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// GetChat returns nil when the chat is absent or owned by another wallet.
func (s *ChatService) GetChat(ctx context.Context, id, wallet string) (*model.Chat, error) {
	rec, err := s.record(ctx, id, wallet)
	if err != nil || rec == nil {
		return nil, err
	}
	chat := chatFromRecord(*rec)
	if err := s.withMessages(ctx, &chat, wallet); err != nil {
		return nil, err
	}
	return &chat, nil
}

// UpdateChat patches name, memory size and web search.
func (s *ChatService) UpdateChat(ctx context.Context, id string, patch model.ChatUpdate, wallet string) (*model.Chat, error) {
	if patch.MemorySize != nil && !patch.MemorySize.Valid() {
		return nil, model.NewValidationError("memory_size", "must be one of Small, Medium, Large")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, model.NewValidationError("name", "name cannot be empty")
	}
	rec, err := s.record(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, model.NewNotFoundError("chat", id)
	}

	p := rec.Payload
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		p["name"] = name
		p["title"] = name
	}
	if patch.MemorySize != nil {
		p["memory_size"] = string(*patch.MemorySize)
	}
	if patch.WebSearchEnabled != nil {
		p["web_search_enabled"] = *patch.WebSearchEnabled
	}
	p.Touch(nowUTC())
	if err := s.store.SetPayload(ctx, vectorstore.Chats, id, p); err != nil {
		return nil, err
	}

	chat := chatFromRecord(vectorstore.Record{ID: id, Payload: p})
	if err := s.withMessages(ctx, &chat, wallet); err != nil {
		return nil, err
	}
	return &chat, nil
}

// UpdateCounters records the message count and last message snippet. A
// missing or foreign chat is ignored, and store failures are only logged.
func (s *ChatService) UpdateCounters(ctx context.Context, id, wallet string, count int, lastMessage string) {
	rec, err := s.record(ctx, id, wallet)
	if err != nil {
		s.log.Warn().Err(err).Str("chat_id", id).Msg("chat counters lookup failed")
		return
	}
	if rec == nil {
		return
	}
	snippet := truncate(lastMessage, lastMessageLength)
	_, err = mutatePayload(ctx, s.store, vectorstore.Chats, id, func(p vectorstore.Payload) {
		p["message_count"] = count
		p["last_message"] = snippet
	})
	if err != nil {
		s.log.Warn().Err(err).Str("chat_id", id).Msg("chat counters update failed")
	}
}

// DeleteChat removes memory pointers (best-effort), messages and finally the
// chat. A missing or foreign chat is a no-op.
func (s *ChatService) DeleteChat(ctx context.Context, id, wallet string) error {
	rec, err := s.record(ctx, id, wallet)
	if err != nil || rec == nil {
		return err
	}
	agentID := rec.Payload.Str("agent_id")

	if res := s.memory.DeleteChatMemories(ctx, agentID, id); !res.OK {
		s.log.Warn().Err(res.Err).Str("chat_id", id).Msg("chat memory cleanup incomplete")
	}
	// Messages are removed by chat id alone so no message outlives the chat.
	if err := s.messages.DeleteMessagesForChat(ctx, id, ""); err != nil {
		return err
	}
	if err := s.store.DeleteByID(ctx, vectorstore.Chats, id); err != nil {
		return err
	}
	s.log.Info().Str("chat_id", id).Msg("chat deleted")
	return nil
}

// chatIDsForAgent lists every chat id referencing the agent, any owner.
func (s *ChatService) chatIDsForAgent(ctx context.Context, agentID string) ([]string, error) {
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Chats, vectorstore.Where(vectorstore.Match("agent_id", agentID)), 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}
