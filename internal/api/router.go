package api

import (
	"github.com/gorilla/mux"

	"github.com/rajarshidattapy/anymind-qd/internal/api/recovery"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Services   *services.Set
	Authorizer auth.Authorizer
	Tokens     auth.TokenConfig
	Health     *HealthHandler
}

// NewRouter registers every route on a fresh router with panic recovery.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	set := cfg.Services
	agentHandler := NewAgentHandler(set.Agents, set.Capsules, cfg.Authorizer)
	chatHandler := NewChatHandler(set, cfg.Authorizer)
	capsuleHandler := NewCapsuleHandler(set.Capsules, cfg.Authorizer)
	marketHandler := NewMarketplaceHandler(set.Marketplace, set.Capsules)
	walletHandler := NewWalletHandler(set.Wallet, cfg.Authorizer)
	prefsHandler := NewPreferencesHandler(set.Preferences, cfg.Authorizer)
	authHandler := NewAuthHandler(cfg.Tokens)

	// Health
	router.HandleFunc("/health", cfg.Health.CheckHealth).Methods("GET")

	// Auth
	router.HandleFunc("/api/auth/token", authHandler.IssueToken).Methods("POST")

	// Agents
	router.HandleFunc("/api/agents", agentHandler.ListAgents).Methods("GET")
	router.HandleFunc("/api/agents", agentHandler.CreateAgent).Methods("POST")
	router.HandleFunc("/api/agents/{agentId}", agentHandler.GetAgent).Methods("GET")
	router.HandleFunc("/api/agents/{agentId}", agentHandler.UpdateAgent).Methods("PATCH")
	router.HandleFunc("/api/agents/{agentId}", agentHandler.DeleteAgent).Methods("DELETE")
	router.HandleFunc("/api/agents/{agentId}/capsule", agentHandler.GetAgentCapsule).Methods("GET")

	// Chats
	router.HandleFunc("/api/agents/{agentId}/chats", chatHandler.ListChats).Methods("GET")
	router.HandleFunc("/api/agents/{agentId}/chats", chatHandler.CreateChat).Methods("POST")
	router.HandleFunc("/api/chats/{chatId}", chatHandler.GetChat).Methods("GET")
	router.HandleFunc("/api/chats/{chatId}", chatHandler.UpdateChat).Methods("PATCH")
	router.HandleFunc("/api/chats/{chatId}", chatHandler.DeleteChat).Methods("DELETE")

	// Messages and memory
	router.HandleFunc("/api/chats/{chatId}/messages", chatHandler.ListMessages).Methods("GET")
	router.HandleFunc("/api/chats/{chatId}/messages", chatHandler.AddMessage).Methods("POST")
	router.HandleFunc("/api/chats/{chatId}/recall", chatHandler.Recall).Methods("POST")
	router.HandleFunc("/api/chats/{chatId}/memories", chatHandler.ListMemories).Methods("GET")
	router.HandleFunc("/api/chats/{chatId}/memories", chatHandler.StoreMemory).Methods("POST")

	// Capsules
	router.HandleFunc("/api/capsules", capsuleHandler.ListCapsules).Methods("GET")
	router.HandleFunc("/api/capsules", capsuleHandler.CreateCapsule).Methods("POST")
	router.HandleFunc("/api/capsules/{capsuleId}", capsuleHandler.GetCapsule).Methods("GET")
	router.HandleFunc("/api/capsules/{capsuleId}", capsuleHandler.UpdateCapsule).Methods("PATCH")
	router.HandleFunc("/api/capsules/{capsuleId}", capsuleHandler.DeleteCapsule).Methods("DELETE")
	router.HandleFunc("/api/capsules/{capsuleId}/query", capsuleHandler.QueryCapsule).Methods("POST")

	// Marketplace
	router.HandleFunc("/api/marketplace", marketHandler.Browse).Methods("GET")
	router.HandleFunc("/api/marketplace/trending", marketHandler.Trending).Methods("GET")
	router.HandleFunc("/api/marketplace/categories", marketHandler.Categories).Methods("GET")
	router.HandleFunc("/api/marketplace/search", marketHandler.Search).Methods("GET")
	router.HandleFunc("/api/marketplace/debug", marketHandler.Debug).Methods("GET")

	// Wallet
	router.HandleFunc("/api/wallet/balance", walletHandler.GetBalance).Methods("GET")
	router.HandleFunc("/api/wallet/earnings", walletHandler.GetEarnings).Methods("GET")
	router.HandleFunc("/api/wallet/staking", walletHandler.GetStaking).Methods("GET")
	router.HandleFunc("/api/wallet/staking", walletHandler.CreateStaking).Methods("POST")

	// Preferences
	router.HandleFunc("/api/preferences", prefsHandler.GetPreferences).Methods("GET")
	router.HandleFunc("/api/preferences", prefsHandler.UpdatePreferences).Methods("POST")
	router.HandleFunc("/api/preferences", prefsHandler.ClearPreferences).Methods("DELETE")

	return router
}
