package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/api/validate"
	"github.com/rajarshidattapy/anymind-qd/internal/auth"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
)

const (
	defaultRecallK    = 5
	maxRecallK        = 50
	memoryTurnsWindow = 10
)

// ChatHandler serves chats, their messages and their long-term memories.
type ChatHandler struct {
	agents   *services.AgentService
	chats    *services.ChatService
	messages *services.MessageService
	memory   *services.MemoryService
	auth     auth.Authorizer
}

func NewChatHandler(set *services.Set, a auth.Authorizer) *ChatHandler {
	return &ChatHandler{agents: set.Agents, chats: set.Chats, messages: set.Messages, memory: set.Memory, auth: a}
}

// ownedChat loads the chat named in the route, writing 404 when the caller
// does not own it.
func (h *ChatHandler) ownedChat(w http.ResponseWriter, r *http.Request, wallet string) (*model.Chat, bool) {
	id := mux.Vars(r)["chatId"]
	chat, err := h.chats.GetChat(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	if chat == nil {
		writeServiceError(w, r, model.NewNotFoundError("chat", id))
		return nil, false
	}
	return chat, true
}

// ListChats GET /api/agents/{agentId}/chats
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	chats, err := h.chats.ListChats(r.Context(), mux.Vars(r)["agentId"], wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, chats)
}

// CreateChat POST /api/agents/{agentId}/chats
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.ChatCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.MaxLen("name", &req.Name, 200); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.chats.CreateChat(r.Context(), mux.Vars(r)["agentId"], req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteCreated(w, out)
}

// GetChat GET /api/chats/{chatId}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	if chat, ok := h.ownedChat(w, r, wallet); ok {
		respond.WriteJSON(w, http.StatusOK, chat)
	}
}

// UpdateChat PATCH /api/chats/{chatId}
func (h *ChatHandler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.ChatUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.chats.UpdateChat(r.Context(), mux.Vars(r)["chatId"], req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteChat DELETE /api/chats/{chatId}
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	chat, ok := h.ownedChat(w, r, wallet)
	if !ok {
		return
	}
	if err := h.chats.DeleteChat(r.Context(), chat.ID, wallet); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteNoContent(w)
}

// ListMessages GET /api/chats/{chatId}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	limit, err := validate.IntParam("limit", r.URL.Query().Get("limit"), services.DefaultMessageLimit, 1, 5000)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	chat, ok := h.ownedChat(w, r, wallet)
	if !ok {
		return
	}
	msgs, err := h.messages.ListMessages(r.Context(), chat.ID, wallet, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, msgs)
}

// AddMessage POST /api/chats/{chatId}/messages
func (h *ChatHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.MessageCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Message(req.Content); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	chat, ok := h.ownedChat(w, r, wallet)
	if !ok {
		return
	}
	msg, err := h.agents.AddMessage(r.Context(), chat.AgentID, chat.ID, wallet, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteCreated(w, msg)
}

// Recall POST /api/chats/{chatId}/recall
func (h *ChatHandler) Recall(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
		K     *int   `json:"k,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.NonEmpty("query", req.Query); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	k := defaultRecallK
	if req.K != nil {
		k = *req.K
	}
	if k < 0 || k > maxRecallK {
		respond.WriteBadRequest(w, "k must be between 0 and 50")
		return
	}
	chat, ok := h.ownedChat(w, r, wallet)
	if !ok {
		return
	}
	msgs, err := h.messages.SemanticRecall(r.Context(), chat.ID, chat.AgentID, wallet, req.Query, k)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs, "count": len(msgs)})
}

// ListMemories GET /api/chats/{chatId}/memories?q=
// Without q every memory of the chat is returned.
func (h *ChatHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	limit, err := validate.IntParam("limit", r.URL.Query().Get("limit"), 0, 0, 100)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	chat, ok := h.ownedChat(w, r, wallet)
	if !ok {
		return
	}
	capsuleID := ""
	if chat.CapsuleID != nil {
		capsuleID = *chat.CapsuleID
	}

	var entries []model.MemoryEntry
	if q := r.URL.Query().Get("q"); q != "" {
		entries = h.memory.ChatMemories(r.Context(), chat.AgentID, chat.ID, q, chat.MemorySize, limit, capsuleID)
	} else {
		entries = h.memory.AllChatMemories(r.Context(), chat.AgentID, chat.ID, capsuleID)
	}
	if entries == nil {
		entries = []model.MemoryEntry{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":  h.memory.Enabled(),
		"memories": entries,
		"context":  h.memory.FormatMemoryContext(entries),
	})
}

// StoreMemory POST /api/chats/{chatId}/memories
// An empty body stores the most recent turns of the chat.
func (h *ChatHandler) StoreMemory(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req struct {
		Turns []model.ChatTurn `json:"turns"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	chat, ok := h.ownedChat(w, r, wallet)
	if !ok {
		return
	}
	if !h.memory.Enabled() {
		respond.WriteServiceUnavailable(w, "long-term memory is disabled")
		return
	}

	turns := req.Turns
	if len(turns) == 0 {
		turns = recentTurns(chat.Messages, memoryTurnsWindow)
	}
	capsuleID := ""
	if chat.CapsuleID != nil {
		capsuleID = *chat.CapsuleID
	}
	res := h.memory.StoreChatMemory(r.Context(), chat.AgentID, chat.ID, turns, capsuleID)
	if !res.OK {
		err := res.Err
		if !model.IsValidationError(err) {
			err = model.Upstream("memory", err)
		}
		writeServiceError(w, r, err)
		return
	}
	respond.WriteCreated(w, map[string]interface{}{"stored": true, "turns": len(turns)})
}

func recentTurns(msgs []model.Message, n int) []model.ChatTurn {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]model.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, model.ChatTurn{Role: string(m.Role), Content: m.Content})
	}
	return out
}
