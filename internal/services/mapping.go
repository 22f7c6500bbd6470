package services

import (
	"time"
	"unicode/utf8"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// Payloads written by this package carry schema_version. Older records
// without it are read through the alias keys below.
const payloadSchemaVersion = 2

const (
	defaultPlatform   = "openrouter"
	lastMessageLength = 100
)

func newPayload(recordType string, now time.Time) vectorstore.Payload {
	p := vectorstore.BasePayload(recordType, now)
	p["schema_version"] = payloadSchemaVersion
	return p
}

func recordID(rec vectorstore.Record, keys ...string) string {
	if id := rec.Payload.Str(keys...); id != "" {
		return id
	}
	return rec.ID
}

func agentOwner(p vectorstore.Payload) string { return p.Str("wallet", "user_wallet") }

func agentFromRecord(rec vectorstore.Record) model.Agent {
	p := rec.Payload
	platform := p.Str("platform")
	if platform == "" {
		platform = defaultPlatform
	}
	return model.Agent{
		ID:               recordID(rec, "agent_id", "id"),
		Name:             p.Str("name"),
		DisplayName:      p.Str("display_name", "description", "name"),
		Platform:         platform,
		APIKeyConfigured: p.Bool("api_key_configured") || encryptedKey(p) != "",
		Model:            p.Str("model"),
		UserWallet:       agentOwner(p),
	}
}

func encryptedKey(p vectorstore.Payload) string { return p.Str("api_key_encrypted", "api_key") }

func chatOwner(p vectorstore.Payload) string { return p.Str("wallet", "user_wallet") }

func chatFromRecord(rec vectorstore.Record) model.Chat {
	p := rec.Payload
	ts, _ := p.Time("timestamp", "created_at")
	return model.Chat{
		ID:               recordID(rec, "chat_id", "id"),
		Name:             p.Str("name", "title"),
		MemorySize:       model.ParseMemorySize(p.Str("memory_size")),
		LastMessage:      p.StrPtr("last_message"),
		Timestamp:        ts,
		MessageCount:     p.Int("message_count"),
		Messages:         []model.Message{},
		AgentID:          p.Str("agent_id"),
		CapsuleID:        p.StrPtr("capsule_id"),
		UserWallet:       chatOwner(p),
		WebSearchEnabled: p.Bool("web_search_enabled"),
	}
}

func messageFromRecord(rec vectorstore.Record) model.Message {
	p := rec.Payload
	ts, _ := p.Time("created_at", "timestamp")
	return model.Message{
		ID:        recordID(rec, "message_id", "id"),
		Role:      model.ParseRole(p.Str("role")),
		Content:   p.Str("content"),
		Timestamp: ts,
	}
}

func capsuleOwner(p vectorstore.Payload) string { return p.Str("creator_wallet", "owner_wallet") }

func capsuleFromRecord(rec vectorstore.Record) model.Capsule {
	p := rec.Payload
	created, _ := p.Time("created_at")
	updated, ok := p.Time("updated_at")
	if !ok {
		updated = created
	}
	return model.Capsule{
		ID:            recordID(rec, "capsule_id", "id"),
		Name:          p.Str("name"),
		Description:   p.Str("description"),
		Category:      p.Str("category"),
		CreatorWallet: capsuleOwner(p),
		PricePerQuery: p.Float("price_per_query", "price"),
		StakeAmount:   p.Float("stake_amount"),
		IsListed:      p.Bool("is_listed"),
		Reputation:    p.Float("reputation"),
		QueryCount:    p.Int("query_count"),
		Rating:        p.Float("rating"),
		CreatedAt:     created,
		UpdatedAt:     updated,
		Metadata:      p.Map("metadata"),
	}
}

func capsulesFromRecords(recs []vectorstore.Record) []model.Capsule {
	out := make([]model.Capsule, 0, len(recs))
	for _, r := range recs {
		if r.Payload == nil {
			continue
		}
		out = append(out, capsuleFromRecord(r))
	}
	return out
}

func stakingFromRecord(rec vectorstore.Record) model.StakingInfo {
	p := rec.Payload
	ts, _ := p.Time("staked_at", "timestamp")
	return model.StakingInfo{
		CapsuleID:     p.Str("capsule_id"),
		WalletAddress: p.Str("wallet_address", "staker_wallet"),
		StakeAmount:   p.Float("amount", "stake_amount"),
		StakedAt:      ts,
	}
}

func earningFromRecord(rec vectorstore.Record, wallet string) model.EarningRecord {
	p := rec.Payload
	walletAddr := p.Str("wallet_address", "wallet")
	if walletAddr == "" {
		walletAddr = wallet
	}
	return model.EarningRecord{
		ID:            recordID(rec, "earning_id", "id"),
		WalletAddress: walletAddr,
		CapsuleID:     p.Str("capsule_id"),
		Amount:        p.Float("amount"),
		Source:        p.Str("source"),
		CreatedAt:     p.Str("created_at", "timestamp"),
		Timestamp:     p.Str("timestamp"),
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
