package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// Counting messages after an append reads at most this many.
const recountLimit = 5000

// AgentService manages agents. API keys are encrypted at rest and only
// decrypted for the owner's direct read.
type AgentService struct {
	store    vectorstore.Client
	cipher   SecretCipher
	chats    *ChatService
	messages *MessageService
	log      zerolog.Logger
}

func NewAgentService(store vectorstore.Client, cipher SecretCipher, chats *ChatService, messages *MessageService, log zerolog.Logger) *AgentService {
	return &AgentService{store: store, cipher: cipher, chats: chats, messages: messages, log: log}
}

// ListAgents returns agents, scoped to wallet when it is non-empty. Keys are
// never included.
func (s *AgentService) ListAgents(ctx context.Context, wallet string) ([]model.Agent, error) {
	var f *vectorstore.Filter
	if wallet != "" {
		f = vectorstore.Where(vectorstore.Match("wallet", wallet))
	}
	recs, err := vectorstore.ScanAll(ctx, s.store, vectorstore.Agents, f, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.Agent, 0, len(recs))
	for _, r := range recs {
		out = append(out, agentFromRecord(r))
	}
	return out, nil
}

// GetAgent returns nil when the agent is absent, or when wallet is set and
// does not own it. The decrypted key is attached only for the owner.
func (s *AgentService) GetAgent(ctx context.Context, id, wallet string) (*model.Agent, error) {
	rec, err := s.store.Get(ctx, vectorstore.Agents, id)
	if err != nil || rec == nil {
		return nil, err
	}
	owner := agentOwner(rec.Payload)
	if wallet != "" && owner != wallet {
		return nil, nil
	}
	agent := agentFromRecord(*rec)
	if wallet != "" && wallet == owner {
		if enc := encryptedKey(rec.Payload); enc != "" {
			key, err := s.cipher.Decrypt(enc)
			if err != nil {
				s.log.Error().Err(err).Str("agent_id", id).Msg("api key decryption failed")
				return nil, err
			}
			agent.APIKey = &key
		}
	}
	return &agent, nil
}

// CreateAgent stores a new agent owned by wallet and returns it without the key.
func (s *AgentService) CreateAgent(ctx context.Context, in model.AgentCreate, wallet string) (*model.Agent, error) {
	if wallet == "" {
		return nil, model.ErrWalletMissing
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "name is required")
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = name
	}
	platform := in.Platform
	if platform == "" {
		platform = defaultPlatform
	}

	encrypted, err := s.cipher.Encrypt(in.APIKey)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	id := "custom-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	payload := newPayload("agent", now)
	payload["id"] = id
	payload["agent_id"] = id
	payload["wallet"] = wallet
	payload["user_wallet"] = wallet
	payload["name"] = name
	payload["display_name"] = displayName
	payload["description"] = displayName
	payload["model"] = in.Model
	payload["platform"] = platform
	payload["api_key_encrypted"] = encrypted
	payload["api_key_configured"] = in.APIKey != ""
	payload["is_public"] = false

	if err := s.store.Upsert(ctx, vectorstore.Agents, id, payload, nil); err != nil {
		return nil, err
	}
	s.log.Info().Str("agent_id", id).Str("wallet", wallet).Msg("agent created")

	agent := agentFromRecord(vectorstore.Record{ID: id, Payload: payload})
	return &agent, nil
}

func (s *AgentService) owned(ctx context.Context, id, wallet string) (*vectorstore.Record, error) {
	rec, err := s.store.Get(ctx, vectorstore.Agents, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || wallet == "" || agentOwner(rec.Payload) != wallet {
		return nil, model.NewNotFoundError("agent", id)
	}
	return rec, nil
}

// UpdateAgent applies the non-nil fields. The key is re-encrypted only when
// the patch carries one.
func (s *AgentService) UpdateAgent(ctx context.Context, id string, patch model.AgentUpdate, wallet string) (*model.Agent, error) {
	rec, err := s.owned(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	p := rec.Payload
	if patch.DisplayName != nil {
		p["display_name"] = *patch.DisplayName
		p["description"] = *patch.DisplayName
	}
	if patch.Model != nil {
		p["model"] = *patch.Model
	}
	if patch.APIKey != nil {
		encrypted, err := s.cipher.Encrypt(*patch.APIKey)
		if err != nil {
			return nil, err
		}
		p["api_key_encrypted"] = encrypted
		p["api_key_configured"] = *patch.APIKey != ""
		delete(p, "api_key")
	}
	p["schema_version"] = payloadSchemaVersion
	p.Touch(nowUTC())
	if err := s.store.SetPayload(ctx, vectorstore.Agents, id, p); err != nil {
		return nil, err
	}
	agent := agentFromRecord(vectorstore.Record{ID: id, Payload: p})
	return &agent, nil
}

// DeleteAgent removes every chat of the agent (with their messages) and then
// the agent itself.
func (s *AgentService) DeleteAgent(ctx context.Context, id, wallet string) error {
	if _, err := s.owned(ctx, id, wallet); err != nil {
		return err
	}
	chatIDs, err := s.chats.chatIDsForAgent(ctx, id)
	if err != nil {
		return err
	}
	for _, chatID := range chatIDs {
		if err := s.chats.DeleteChat(ctx, chatID, ""); err != nil {
			return err
		}
	}
	if err := s.store.DeleteByID(ctx, vectorstore.Agents, id); err != nil {
		return err
	}
	s.log.Info().Str("agent_id", id).Int("chats", len(chatIDs)).Msg("agent deleted")
	return nil
}

// AddMessage appends a message to one of the agent's chats and refreshes the
// chat's counters from the stored message count.
func (s *AgentService) AddMessage(ctx context.Context, agentID, chatID, wallet string, in model.MessageCreate) (*model.Message, error) {
	rec, err := s.chats.record(ctx, chatID, wallet)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Payload.Str("agent_id") != agentID {
		return nil, model.NewNotFoundError("chat", chatID)
	}
	msg, err := s.messages.AddMessage(ctx, chatID, agentID, wallet, in)
	if err != nil {
		return nil, err
	}
	all, err := s.messages.ListMessages(ctx, chatID, wallet, recountLimit)
	if err != nil {
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("message recount failed")
		return msg, nil
	}
	s.chats.UpdateCounters(ctx, chatID, wallet, len(all), msg.Content)
	return msg, nil
}
