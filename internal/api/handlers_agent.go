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

// AgentHandler serves agent CRUD and the agent to capsule lookup.
type AgentHandler struct {
	agents   *services.AgentService
	capsules *services.CapsuleService
	auth     auth.Authorizer
}

func NewAgentHandler(agents *services.AgentService, capsules *services.CapsuleService, a auth.Authorizer) *AgentHandler {
	return &AgentHandler{agents: agents, capsules: capsules, auth: a}
}

// ListAgents GET /api/agents
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	agents, err := h.agents.ListAgents(r.Context(), wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, agents)
}

// CreateAgent POST /api/agents
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.AgentCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.CreateAgent(req.Name, req.DisplayName); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.agents.CreateAgent(r.Context(), req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteCreated(w, out)
}

// GetAgent GET /api/agents/{agentId}
// Anonymous callers get the public shape; the owner also gets the API key.
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	wallet, ok := optionalWallet(h.auth, w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["agentId"]
	out, err := h.agents.GetAgent(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if out == nil {
		writeServiceError(w, r, model.NewNotFoundError("agent", id))
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateAgent PATCH /api/agents/{agentId}
func (h *AgentHandler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	var req model.AgentUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.MaxLen("display_name", req.DisplayName, 100); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.agents.UpdateAgent(r.Context(), mux.Vars(r)["agentId"], req, wallet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteAgent DELETE /api/agents/{agentId}
func (h *AgentHandler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	if err := h.agents.DeleteAgent(r.Context(), mux.Vars(r)["agentId"], wallet); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteNoContent(w)
}

// GetAgentCapsule GET /api/agents/{agentId}/capsule
func (h *AgentHandler) GetAgentCapsule(w http.ResponseWriter, r *http.Request) {
	wallet, ok := requireWallet(h.auth, w, r)
	if !ok {
		return
	}
	agentID := mux.Vars(r)["agentId"]
	c, err := h.capsules.FindCapsuleForAgent(r.Context(), wallet, agentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if c == nil {
		respond.WriteNotFound(w, "no capsule for agent "+agentID)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}
