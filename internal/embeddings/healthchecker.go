package embeddings

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajarshidattapy/anymind-qd/internal/health"
)

const probeText = "health-check"

var errEmptyProbe = errors.New("embedding provider returned an empty vector")

// providerPinger adapts a Provider to health.HealthPinger. Providers with
// their own HealthPing are asked directly; others must embed a probe text.
type providerPinger struct{ p Provider }

func (pp providerPinger) HealthPing(ctx context.Context) error {
	if pinger, ok := pp.p.(health.HealthPinger); ok {
		return pinger.HealthPing(ctx)
	}
	vec, err := pp.p.Embed(ctx, probeText)
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return errEmptyProbe
	}
	return nil
}

// NewProviderHealthChecker reports the provider as the "embedder" component.
func NewProviderHealthChecker(p Provider, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	return health.NewPingChecker("embedder", providerPinger{p: p}, log, probeTimeout)
}
