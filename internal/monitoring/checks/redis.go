package checks

import (
	"context"
	"time"

	"github.com/charlesng35/roadboard/internal/monitoring"
)

const defaultRedisTimeout = 2 * time.Second

// RedisPinger is the part of the Redis store the probe needs.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Redis probes the shared Redis connection. Redis that is configured but
// failed to connect at startup is degraded, since rate limits and jobs fall
// back to in-process implementations.
func Redis(client RedisPinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if !enabled {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		}
		if client == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultRedisTimeout))
		defer cancel()

		return monitoring.ResultFromError("redis", client.Ping(probeCtx), time.Since(start))
	})
}
