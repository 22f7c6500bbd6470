package model

import "time"

// MemorySize selects how much long-term context a chat recalls.
type MemorySize string

const (
	MemorySmall  MemorySize = "Small"
	MemoryMedium MemorySize = "Medium"
	MemoryLarge  MemorySize = "Large"
)

// ParseMemorySize returns the matching size, or Small for anything unknown.
func ParseMemorySize(s string) MemorySize {
	switch MemorySize(s) {
	case MemorySmall, MemoryMedium, MemoryLarge:
		return MemorySize(s)
	}
	return MemorySmall
}

func (m MemorySize) Valid() bool {
	return m == MemorySmall || m == MemoryMedium || m == MemoryLarge
}

// RecallLimit is the number of long-term memories fetched for this size.
func (m MemorySize) RecallLimit() int {
	switch m {
	case MemorySmall:
		return 3
	case MemoryLarge:
		return 10
	default:
		return 5
	}
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s)
	}
	return RoleUser
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Agent is the public agent shape. APIKey is only set on an owner's direct read.
type Agent struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DisplayName      string  `json:"display_name"`
	Platform         string  `json:"platform"`
	APIKeyConfigured bool    `json:"api_key_configured"`
	Model            string  `json:"model,omitempty"`
	UserWallet       string  `json:"user_wallet,omitempty"`
	APIKey           *string `json:"api_key,omitempty"`
}

type AgentCreate struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Platform    string `json:"platform"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key"`
}

type AgentUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Model       *string `json:"model,omitempty"`
	APIKey      *string `json:"api_key,omitempty"`
}

type Chat struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	MemorySize       MemorySize `json:"memory_size"`
	LastMessage      *string    `json:"last_message"`
	Timestamp        time.Time  `json:"timestamp"`
	MessageCount     int        `json:"message_count"`
	Messages         []Message  `json:"messages"`
	AgentID          string     `json:"agent_id"`
	CapsuleID        *string    `json:"capsule_id,omitempty"`
	UserWallet       string     `json:"user_wallet,omitempty"`
	WebSearchEnabled bool       `json:"web_search_enabled"`
}

type ChatCreate struct {
	Name             string     `json:"name"`
	MemorySize       MemorySize `json:"memory_size"`
	CapsuleID        *string    `json:"capsule_id,omitempty"`
	WebSearchEnabled bool       `json:"web_search_enabled"`
}

type ChatUpdate struct {
	Name             *string     `json:"name,omitempty"`
	MemorySize       *MemorySize `json:"memory_size,omitempty"`
	WebSearchEnabled *bool       `json:"web_search_enabled,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageCreate struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Capsule struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	CreatorWallet string                 `json:"creator_wallet"`
	PricePerQuery float64                `json:"price_per_query"`
	StakeAmount   float64                `json:"stake_amount"`
	IsListed      bool                   `json:"is_listed"`
	Reputation    float64                `json:"reputation"`
	QueryCount    int                    `json:"query_count"`
	Rating        float64                `json:"rating"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type CapsuleCreate struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	PricePerQuery float64                `json:"price_per_query"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// CapsuleUpdate patches a capsule; nil fields are left unchanged.
type CapsuleUpdate struct {
	Name          *string                `json:"name,omitempty"`
	Description   *string                `json:"description,omitempty"`
	Category      *string                `json:"category,omitempty"`
	PricePerQuery *float64               `json:"price_per_query,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type CapsuleQuery struct {
	Prompt           string   `json:"prompt"`
	PaymentSignature *string  `json:"payment_signature,omitempty"`
	AmountPaid       *float64 `json:"amount_paid,omitempty"`
}

type QueryResult struct {
	Response  string  `json:"response"`
	CapsuleID string  `json:"capsule_id"`
	PricePaid float64 `json:"price_paid"`
}

// SortKey orders marketplace results.
type SortKey string

const (
	SortPopular   SortKey = "popular"
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortRating    SortKey = "rating"
)

type MarketplaceFilters struct {
	Category      string   `json:"category,omitempty"`
	MinReputation *float64 `json:"min_reputation,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	SortBy        SortKey  `json:"sort_by,omitempty"`
}

type WalletBalance struct {
	WalletAddress string  `json:"wallet_address"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
}

type EarningRecord struct {
	ID            string  `json:"id"`
	WalletAddress string  `json:"wallet_address"`
	CapsuleID     string  `json:"capsule_id"`
	Amount        float64 `json:"amount"`
	Source        string  `json:"source"`
	CreatedAt     string  `json:"created_at,omitempty"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

type Earnings struct {
	WalletAddress   string          `json:"wallet_address"`
	TotalEarnings   float64         `json:"total_earnings"`
	CapsuleEarnings []EarningRecord `json:"capsule_earnings"`
	Period          string          `json:"period,omitempty"`
}

type StakingInfo struct {
	CapsuleID     string    `json:"capsule_id"`
	WalletAddress string    `json:"wallet_address"`
	StakeAmount   float64   `json:"stake_amount"`
	StakedAt      time.Time `json:"staked_at"`
}

type StakingCreate struct {
	CapsuleID   string  `json:"capsule_id"`
	StakeAmount float64 `json:"stake_amount"`
}

// Preferences is the free-form per-wallet settings map.
type Preferences map[string]interface{}

// MemoryEntry is one long-term memory returned for a chat.
type MemoryEntry struct {
	ID       string            `json:"id"`
	Memory   string            `json:"memory"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChatTurn is one role/content pair handed to long-term memory.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
