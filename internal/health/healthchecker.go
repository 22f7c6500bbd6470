package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store, embedder, chain, memory).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker aggregates component checkers into a single service
// health flag. Optional components are reported but never take the service down.
type ServiceHealthChecker struct {
	healthy  atomic.Int32
	required []HealthChecker
	optional []HealthChecker
	log      zerolog.Logger

	mu     sync.RWMutex
	status map[string]bool
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{required: deps, log: log, status: map[string]bool{}}
	h.healthy.Store(0)
	return h
}

// WithOptional registers checkers whose state is reported but not required.
func (h *ServiceHealthChecker) WithOptional(deps ...HealthChecker) *ServiceHealthChecker {
	h.optional = append(h.optional, deps...)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Components returns the last observed state of every checker by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]bool, len(h.status))
	for k, v := range h.status {
		out[k] = v
	}
	return out
}

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		snapshot := make(map[string]bool, len(h.required)+len(h.optional))
		all := true
		for _, c := range h.required {
			ok := c.IsHealthy()
			snapshot[c.Name()] = ok
			if !ok {
				all = false
			}
		}
		for _, c := range h.optional {
			snapshot[c.Name()] = c.IsHealthy()
		}
		h.mu.Lock()
		h.status = snapshot
		h.mu.Unlock()

		if all {
			h.healthy.Store(1)
		} else {
			h.healthy.Store(0)
		}
		cur := h.healthy.Load()
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Stack().Interface("components", snapshot).Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}

// StaticChecker reports a fixed state; used for components that are either
// configured or not, such as an optional subsystem that failed to start.
type StaticChecker struct {
	name    string
	healthy bool
}

func NewStaticChecker(name string, healthy bool) *StaticChecker {
	return &StaticChecker{name: name, healthy: healthy}
}

func (s *StaticChecker) Name() string                      { return s.name }
func (s *StaticChecker) IsHealthy() bool                   { return s.healthy }
func (s *StaticChecker) Start(context.Context, time.Duration) {}
