package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rajarshidattapy/anymind-qd/internal/api/respond"
	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// storeComponent is the one dependency the service cannot run without.
const storeComponent = vectorstore.ComponentName

// HealthReporter exposes the aggregated service health.
type HealthReporter interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints. Until a reporter is bound
// every component reads as unavailable.
type HealthHandler struct {
	debug    bool
	reporter atomic.Value // HealthReporter
}

func NewHealthHandler(debug bool) *HealthHandler { return &HealthHandler{debug: debug} }

// Bind lets run.go inject the service health checker once it is started.
func (h *HealthHandler) Bind(r HealthReporter) { h.reporter.Store(&r) }

func (h *HealthHandler) current() HealthReporter {
	if r, ok := h.reporter.Load().(*HealthReporter); ok {
		return *r
	}
	return nil
}

// CheckHealth handles GET /health.
// Answers 503 when the store is down, except in debug mode.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{}
	healthy := false
	if rep := h.current(); rep != nil {
		components = rep.Components()
		healthy = rep.IsHealthy()
	}

	services := map[string]string{storeComponent: "unavailable", "memory": "unavailable"}
	for name, ok := range components {
		if ok {
			services[name] = "available"
		} else {
			services[name] = "unavailable"
		}
	}

	status := "unhealthy"
	if healthy {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"services":  services,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	code := http.StatusOK
	if !components[storeComponent] && !h.debug {
		code = http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, response)
}
