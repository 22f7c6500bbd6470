package vectorstore

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/health"
)

// ComponentName is the health component the store reports as. The service
// is unhealthy whenever this component is.
const ComponentName = "store"

// NewHealthChecker polls s.HealthPing, which fails until bootstrap is done.
func NewHealthChecker(s *Store, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	return health.NewPingChecker(ComponentName, s, log, probeTimeout)
}
