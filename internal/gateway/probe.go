package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// ProbeResult describes a reachability check.
type ProbeResult struct {
	Reachable bool
	Status    int
	Attempts  int
	Latency   time.Duration
	Err       error
}

// Probe checks whether the API answers at all. Any HTTP response, whatever
// its status, counts as reachable. Connection failures are retried with
// backoff; this is the only place the client retries.
//
// Probe bypasses the circuit breaker so it can tell a recovered server
// from an open breaker.
func (g *Gateway) Probe(ctx context.Context) *ProbeResult {
	ctx, span := tracer.Start(ctx, "Gateway.Probe")
	defer span.End()

	res := &ProbeResult{}
	start := time.Now()
	err := resilience.RetryWithBackoff(ctx, g.cfg, func() error {
		res.Attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/", nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		resp, err := g.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		res.Status = resp.StatusCode
		return nil
	})
	res.Latency = time.Since(start)
	res.Reachable = err == nil
	if err != nil {
		res.Err = unreachable(http.MethodGet, "/", err)
	}

	g.logger.Info("api probe",
		zap.String("base_url", g.baseURL),
		zap.Bool("reachable", res.Reachable),
		zap.Int("status", res.Status),
		zap.Int("attempts", res.Attempts),
		zap.Duration("latency", res.Latency),
	)
	return res
}
