package api

import (
	"net/http"
	"strings"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/api/validate"
	"github.com/rajarshidattapy/anymind-qd/internal/model"
	"github.com/rajarshidattapy/anymind-qd/internal/services"
)

const debugCapsuleLimit = 1000

// MarketplaceHandler serves the public, staked-only catalog.
type MarketplaceHandler struct {
	market   *services.MarketplaceService
	capsules *services.CapsuleService
}

func NewMarketplaceHandler(market *services.MarketplaceService, capsules *services.CapsuleService) *MarketplaceHandler {
	return &MarketplaceHandler{market: market, capsules: capsules}
}

// Browse GET /api/marketplace
func (h *MarketplaceHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := validate.IntParam("limit", q.Get("limit"), 50, 1, 100)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := validate.IntParam("offset", q.Get("offset"), 0, 0, int(^uint(0)>>1))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	minRep, err := validate.FloatParam("min_reputation", q.Get("min_reputation"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	maxPrice, err := validate.FloatParam("max_price", q.Get("max_price"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	filters := model.MarketplaceFilters{
		Category:      q.Get("category"),
		MinReputation: minRep,
		MaxPrice:      maxPrice,
		SortBy:        model.SortKey(q.Get("sort_by")),
	}
	caps, err := h.market.Browse(r.Context(), filters, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, caps)
}

// Trending GET /api/marketplace/trending
func (h *MarketplaceHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := validate.IntParam("limit", r.URL.Query().Get("limit"), 10, 1, 50)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	caps, err := h.market.Trending(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, caps)
}

// Categories GET /api/marketplace/categories
func (h *MarketplaceHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.market.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, cats)
}

// Search GET /api/marketplace/search?q=
func (h *MarketplaceHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("q")) == "" {
		respond.WriteBadRequest(w, "q is required")
		return
	}
	limit, err := validate.IntParam("limit", q.Get("limit"), 20, 1, 100)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	caps, err := h.market.Search(r.Context(), q.Get("q"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, caps)
}

type debugCapsule struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	StakeAmount float64 `json:"stake_amount"`
	IsListed    bool    `json:"is_listed"`
	Visible     bool    `json:"visible"`
}

// Debug GET /api/marketplace/debug lists every stored capsule with its
// stake so listing problems can be diagnosed.
func (h *MarketplaceHandler) Debug(w http.ResponseWriter, r *http.Request) {
	caps, err := h.capsules.ListAllCapsules(r.Context(), debugCapsuleLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rows := make([]debugCapsule, 0, len(caps))
	for _, c := range caps {
		rows = append(rows, debugCapsule{
			ID:          c.ID,
			Name:        c.Name,
			StakeAmount: c.StakeAmount,
			IsListed:    c.IsListed,
			Visible:     c.StakeAmount > 0,
		})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"total_capsules": len(rows), "capsules": rows})
}
