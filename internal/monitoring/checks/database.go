// Package checks provides the dependency probes registered on the health endpoint.
package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/roadboard/internal/database"
	"github.com/charlesng35/roadboard/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the database handle.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		return monitoring.ResultFromError("database", database.Ping(probeCtx, db), time.Since(start))
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
